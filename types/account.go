package types

import (
	"github.com/holiman/uint256"
)

// Account is a read view of one holder of the restricted token
type Account struct {
	Address     string       `json:"address"`
	Balance     *uint256.Int `json:"balance"`
	Frozen      *uint256.Int `json:"frozen"`
	Blacklisted bool         `json:"blacklisted"`
}

// Available returns the transferable part of the balance
func (a *Account) Available() *uint256.Int {
	if a.Balance.Cmp(a.Frozen) <= 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(a.Balance, a.Frozen)
}

// TokenMetadata describes a fungible unit
type TokenMetadata struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

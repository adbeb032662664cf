package cmd

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/mezonai/snapledger/system"
	"github.com/mezonai/snapledger/utils"
)

// Amounts on the command line are whole units ("12.5"); underscores are allowed as separators

func parseToken(sys *system.System, amount string) (*uint256.Int, error) {
	return parseAmount(amount, sys.Ledger.Metadata().Decimals)
}

func parsePayout(sys *system.System, amount string) (*uint256.Int, error) {
	return parseAmount(amount, sys.Payout.Metadata().Decimals)
}

func parseAmount(amount string, decimals uint8) (*uint256.Int, error) {
	v, err := utils.ParseUnits(strings.ReplaceAll(amount, "_", ""), decimals)
	if err != nil {
		return nil, fmt.Errorf("could not parse amount %q: %w", amount, err)
	}
	return v, nil
}

func formatToken(sys *system.System, v *uint256.Int) string {
	meta := sys.Ledger.Metadata()
	return utils.FormatUnits(v, meta.Decimals) + " " + meta.Symbol
}

func formatPayout(sys *system.System, v *uint256.Int) string {
	meta := sys.Payout.Metadata()
	return utils.FormatUnits(v, meta.Decimals) + " " + meta.Symbol
}

package utils

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const (
	// DefaultDecimals is the fixed-point scale of both the restricted token and the payout currency (10^6)
	DefaultDecimals uint8 = 6
)

// Uint256ToString renders v as a base-10 string; nil renders as "0"
func Uint256ToString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Uint256FromString parses a base-10 string, returning zero for empty or malformed input
func Uint256FromString(s string) *uint256.Int {
	if s == "" {
		return uint256.NewInt(0)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.NewInt(0)
	}
	return v
}

// ParseUnits converts a human amount such as "100.5" into base units at the given decimals
func ParseUnits(amount string, decimals uint8) (*uint256.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	whole, frac, hasFrac := strings.Cut(amount, ".")
	if hasFrac && len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %s: %w", amount, err)
	}
	return v, nil
}

// FormatUnits is the inverse of ParseUnits; trailing fractional zeros are dropped
func FormatUnits(v *uint256.Int, decimals uint8) string {
	s := Uint256ToString(v)
	if decimals == 0 {
		return s
	}
	if len(s) <= int(decimals) {
		s = strings.Repeat("0", int(decimals)-len(s)+1) + s
	}
	cut := len(s) - int(decimals)
	whole, frac := s[:cut], strings.TrimRight(s[cut:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

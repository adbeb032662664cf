package utils

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    uint64
		wantErr bool
	}{
		{name: "whole", amount: "100", want: 100_000_000},
		{name: "fraction", amount: "1.5", want: 1_500_000},
		{name: "leading dot", amount: ".25", want: 250_000},
		{name: "smallest unit", amount: "0.000001", want: 1},
		{name: "zero", amount: "0", want: 0},
		{name: "too precise", amount: "0.0000001", wantErr: true},
		{name: "empty", amount: "", wantErr: true},
		{name: "garbage", amount: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.amount, DefaultDecimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Uint64())
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "100", FormatUnits(uint256.NewInt(100_000_000), DefaultDecimals))
	assert.Equal(t, "1.5", FormatUnits(uint256.NewInt(1_500_000), DefaultDecimals))
	assert.Equal(t, "0.000001", FormatUnits(uint256.NewInt(1), DefaultDecimals))
	assert.Equal(t, "0", FormatUnits(uint256.NewInt(0), DefaultDecimals))
	assert.Equal(t, "42", FormatUnits(uint256.NewInt(42), 0))
}

func TestUint256StringRoundTrip(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	assert.Equal(t, v, Uint256FromString(Uint256ToString(v)))
	assert.Equal(t, "0", Uint256ToString(nil))
	assert.True(t, Uint256FromString("not-a-number").IsZero())
}

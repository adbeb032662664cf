package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorAssignsKind(t *testing.T) {
	tests := []struct {
		name     string
		code     LedgerErrorCode
		wantKind ErrorKind
	}{
		{name: "unauthorized", code: ErrCodeUnauthorized, wantKind: KindAuthorization},
		{name: "blacklisted sender", code: ErrCodeBlacklistedSender, wantKind: KindRestriction},
		{name: "frozen", code: ErrCodeInsufficientAvailableBalance, wantKind: KindRestriction},
		{name: "double claim", code: ErrCodeAlreadyClaimed, wantKind: KindState},
		{name: "zero supply", code: ErrCodeZeroSupply, wantKind: KindArithmetic},
		{name: "empty address", code: ErrCodeInvalidAddress, wantKind: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, "boom")
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := NewError(ErrCodeAlreadyClaimed, ErrMsgAlreadyClaimed)
	wrapped := fmt.Errorf("claim: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrAlreadyClaimed))
	assert.False(t, stderrors.Is(wrapped, ErrBlacklisted))
	assert.Equal(t, KindState, KindOf(wrapped))
}

func TestErrorRendersReason(t *testing.T) {
	err := NewErrorf(ErrCodeNonexistentSnapshot, ErrMsgNonexistentSnapshot, 7, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"code":"nonexistent_snapshot"`)
	assert.Contains(t, err.Error(), "nonexistent snapshot id 7 (current 3)")
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(stderrors.New("plain")))
	assert.Equal(t, LedgerErrorCode(""), CodeOf(nil))
}

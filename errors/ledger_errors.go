package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/mezonai/snapledger/jsonx"
)

// ErrorKind groups error codes into the categories callers branch on
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization_error"
	KindRestriction   ErrorKind = "restriction_error"
	KindState         ErrorKind = "state_error"
	KindArithmetic    ErrorKind = "arithmetic_error"
	KindValidation    ErrorKind = "validation_error"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// Authorization errors
	ErrCodeUnauthorized LedgerErrorCode = "unauthorized"

	// Restriction errors
	ErrCodeBlacklistedSender            LedgerErrorCode = "blacklisted_sender"
	ErrCodeBlacklistedRecipient         LedgerErrorCode = "blacklisted_recipient"
	ErrCodeBlacklisted                  LedgerErrorCode = "blacklisted"
	ErrCodeInsufficientAvailableBalance LedgerErrorCode = "insufficient_available_balance"

	// State errors
	ErrCodeInsufficientBalance   LedgerErrorCode = "insufficient_balance"
	ErrCodeInsufficientAllowance LedgerErrorCode = "insufficient_allowance"
	ErrCodeFreezeExceedsBalance  LedgerErrorCode = "freeze_exceeds_balance"
	ErrCodeAlreadyClaimed        LedgerErrorCode = "already_claimed"
	ErrCodeInvalidAmount         LedgerErrorCode = "invalid_amount"
	ErrCodeTransferFailed        LedgerErrorCode = "transfer_failed"
	ErrCodeNoActivePeriod        LedgerErrorCode = "no_active_period"
	ErrCodeNonexistentSnapshot   LedgerErrorCode = "nonexistent_snapshot"

	// Arithmetic errors
	ErrCodeZeroSupply LedgerErrorCode = "zero_supply"
	ErrCodeOverflow   LedgerErrorCode = "overflow"

	// Validation errors
	ErrCodeInvalidAddress LedgerErrorCode = "invalid_address"
)

var kindByCode = map[LedgerErrorCode]ErrorKind{
	ErrCodeUnauthorized:                 KindAuthorization,
	ErrCodeBlacklistedSender:            KindRestriction,
	ErrCodeBlacklistedRecipient:         KindRestriction,
	ErrCodeBlacklisted:                  KindRestriction,
	ErrCodeInsufficientAvailableBalance: KindRestriction,
	ErrCodeInsufficientBalance:          KindState,
	ErrCodeInsufficientAllowance:        KindState,
	ErrCodeFreezeExceedsBalance:         KindState,
	ErrCodeAlreadyClaimed:               KindState,
	ErrCodeInvalidAmount:                KindState,
	ErrCodeTransferFailed:               KindState,
	ErrCodeNoActivePeriod:               KindState,
	ErrCodeNonexistentSnapshot:          KindState,
	ErrCodeZeroSupply:                   KindArithmetic,
	ErrCodeOverflow:                     KindArithmetic,
	ErrCodeInvalidAddress:               KindValidation,
}

// Error message constants
const (
	ErrMsgUnauthorized                 = "caller %s is not the owner"
	ErrMsgBlacklistedSender            = "sender is blacklisted"
	ErrMsgBlacklistedRecipient         = "recipient is blacklisted"
	ErrMsgBlacklisted                  = "User is blacklisted"
	ErrMsgInsufficientAvailableBalance = "transfer amount exceeds available balance"
	ErrMsgInsufficientBalance          = "transfer amount exceeds balance"
	ErrMsgInsufficientAllowance        = "insufficient allowance"
	ErrMsgFreezeExceedsBalance         = "freeze amount exceeds balance"
	ErrMsgAlreadyClaimed               = "Interest already claimed for this period"
	ErrMsgInvalidAmount                = "Amount is invalid or zero"
	ErrMsgTransferFailed               = "payout transfer failed"
	ErrMsgNoActivePeriod               = "no distribution period has been funded"
	ErrMsgNonexistentSnapshot          = "nonexistent snapshot id %d (current %d)"
	ErrMsgZeroSupply                   = "total supply at snapshot is zero"
	ErrMsgOverflow                     = "amount overflows 256 bits"
	ErrMsgInvalidAddress               = "address must not be empty"
)

// Sentinels for errors.Is matching; the code decides equality, not the message.
var (
	ErrUnauthorized                 = &LedgerError{Kind: KindAuthorization, Code: ErrCodeUnauthorized}
	ErrBlacklistedSender            = &LedgerError{Kind: KindRestriction, Code: ErrCodeBlacklistedSender}
	ErrBlacklistedRecipient         = &LedgerError{Kind: KindRestriction, Code: ErrCodeBlacklistedRecipient}
	ErrBlacklisted                  = &LedgerError{Kind: KindRestriction, Code: ErrCodeBlacklisted}
	ErrInsufficientAvailableBalance = &LedgerError{Kind: KindRestriction, Code: ErrCodeInsufficientAvailableBalance}
	ErrInsufficientBalance          = &LedgerError{Kind: KindState, Code: ErrCodeInsufficientBalance}
	ErrInsufficientAllowance        = &LedgerError{Kind: KindState, Code: ErrCodeInsufficientAllowance}
	ErrFreezeExceedsBalance         = &LedgerError{Kind: KindState, Code: ErrCodeFreezeExceedsBalance}
	ErrAlreadyClaimed               = &LedgerError{Kind: KindState, Code: ErrCodeAlreadyClaimed}
	ErrInvalidAmount                = &LedgerError{Kind: KindState, Code: ErrCodeInvalidAmount}
	ErrTransferFailed               = &LedgerError{Kind: KindState, Code: ErrCodeTransferFailed}
	ErrNoActivePeriod               = &LedgerError{Kind: KindState, Code: ErrCodeNoActivePeriod}
	ErrNonexistentSnapshot          = &LedgerError{Kind: KindState, Code: ErrCodeNonexistentSnapshot}
	ErrZeroSupply                   = &LedgerError{Kind: KindArithmetic, Code: ErrCodeZeroSupply}
	ErrOverflow                     = &LedgerError{Kind: KindArithmetic, Code: ErrCodeOverflow}
	ErrInvalidAddress               = &LedgerError{Kind: KindValidation, Code: ErrCodeInvalidAddress}
)

// LedgerError represents a standardized ledger error
type LedgerError struct {
	Kind    ErrorKind       `json:"kind"`
	Code    LedgerErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	out, err := jsonx.Marshal(LedgerError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
	})
	if err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(out)
}

// Is reports whether target carries the same error code
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new LedgerError and returns it as error interface
func NewError(code LedgerErrorCode, message string) error {
	return &LedgerError{
		Kind:    kindByCode[code],
		Code:    code,
		Message: message,
	}
}

// NewErrorf is NewError with a formatted message
func NewErrorf(code LedgerErrorCode, format string, args ...interface{}) error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of a ledger error anywhere in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// CodeOf returns the code of a ledger error anywhere in err's chain, or "" if none
func CodeOf(err error) LedgerErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ""
}

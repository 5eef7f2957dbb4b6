package entities

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, machine-checkable identifier of a rejected operation
type ErrorCode string

const (
	CodeActiveRoundExists       ErrorCode = "ActiveRoundExists"
	CodeInadequateFunds         ErrorCode = "InadequateFunds"
	CodeCapacityExceeded        ErrorCode = "CapacityExceeded"
	CodeMintingNotCompleted     ErrorCode = "MintingNotCompleted"
	CodeNoParticipants          ErrorCode = "NoParticipants"
	CodeInvalidTicketIndex      ErrorCode = "InvalidTicketIndex"
	CodeInvalidWithdrawalAmount ErrorCode = "InvalidWithdrawalAmount"
	CodeRoundNotCancelable      ErrorCode = "RoundNotCancelable"

	CodeRoundNotFound     ErrorCode = "RoundNotFound"
	CodeRoundNotActive    ErrorCode = "RoundNotActive"
	CodeInvalidRoundPhase ErrorCode = "InvalidRoundPhase"
	CodeInvalidCapacity   ErrorCode = "InvalidCapacity"
	CodeInvalidAddress    ErrorCode = "InvalidAddress"
	CodeInvalidAmount     ErrorCode = "InvalidAmount"
	CodeUnauthorized      ErrorCode = "Unauthorized"
)

// LedgerError is a rejected operation. The caller's attempted change is discarded.
type LedgerError struct {
	Code    ErrorCode
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any LedgerError with the same code, so wrapped errors built with
// NewLedgerError still satisfy errors.Is against the package sentinels.
func (e *LedgerError) Is(target error) bool {
	var other *LedgerError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewLedgerError builds a LedgerError with a formatted message
func NewLedgerError(code ErrorCode, format string, args ...any) *LedgerError {
	return &LedgerError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrActiveRoundExists       = &LedgerError{Code: CodeActiveRoundExists, Message: "a round is already active"}
	ErrInadequateFunds         = &LedgerError{Code: CodeInadequateFunds, Message: "stake is below the minimum for one ticket"}
	ErrCapacityExceeded        = &LedgerError{Code: CodeCapacityExceeded, Message: "round has reached its player capacity"}
	ErrMintingNotCompleted     = &LedgerError{Code: CodeMintingNotCompleted, Message: "round is still open for minting"}
	ErrNoParticipants          = &LedgerError{Code: CodeNoParticipants, Message: "round has no tickets"}
	ErrInvalidTicketIndex      = &LedgerError{Code: CodeInvalidTicketIndex, Message: "no ticket range contains the index"}
	ErrInvalidWithdrawalAmount = &LedgerError{Code: CodeInvalidWithdrawalAmount, Message: "nothing to withdraw"}
	ErrRoundNotCancelable      = &LedgerError{Code: CodeRoundNotCancelable, Message: "round can no longer be cancelled"}

	ErrRoundNotFound     = &LedgerError{Code: CodeRoundNotFound, Message: "round not found"}
	ErrRoundNotActive    = &LedgerError{Code: CodeRoundNotActive, Message: "round is not open"}
	ErrInvalidRoundPhase = &LedgerError{Code: CodeInvalidRoundPhase, Message: "operation not allowed in the round's current phase"}
	ErrInvalidCapacity   = &LedgerError{Code: CodeInvalidCapacity, Message: "invalid player capacity"}
	ErrInvalidAddress    = &LedgerError{Code: CodeInvalidAddress, Message: "invalid address"}
	ErrInvalidAmount     = &LedgerError{Code: CodeInvalidAmount, Message: "invalid amount"}
	ErrUnauthorized      = &LedgerError{Code: CodeUnauthorized, Message: "caller is not allowed to perform this operation"}
)

// ErrorCodeOf extracts the stable code from err, or "" when err is not a ledger rejection
func ErrorCodeOf(err error) ErrorCode {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

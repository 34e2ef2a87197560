// Package errors defines business error codes and error handling.
package errors

import (
	"fmt"
)

// AppError application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on the error code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates an application error
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an underlying error
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage returns a copy with a different message
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError returns a copy carrying the original error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Common error codes (1000-1999)
var (
	ErrUnknown         = New(1000, "unknown error")
	ErrInvalidParams   = New(1001, "invalid parameters")
	ErrNotFound        = New(1002, "resource not found")
	ErrAlreadyExists   = New(1003, "resource already exists")
	ErrDatabaseError   = New(1004, "database error")
	ErrCacheError      = New(1005, "cache error")
	ErrInternalError   = New(1006, "internal error")
	ErrRateLimitExceed = New(1007, "too many requests")
	ErrOperationFailed = New(1008, "operation failed")
)

// Auth error codes (2000-2999)
var (
	ErrUnauthorized     = New(2000, "not authenticated")
	ErrTokenExpired     = New(2001, "session expired")
	ErrTokenInvalid     = New(2002, "invalid token")
	ErrPermissionDenied = New(2003, "permission denied")
	ErrAccountDisabled  = New(2004, "account disabled")
	ErrPasswordError    = New(2005, "incorrect password")
)

// Agent error codes (3000-3999)
var (
	ErrAgentNotFound    = New(3000, "agent not found")
	ErrAgentNotActive   = New(3001, "agent is not active")
	ErrAgentCodeExists  = New(3002, "agent code already exists")
	ErrCyclicReferral   = New(3003, "cyclic referral chain detected")
	ErrAgentHasDownline = New(3004, "agent still has an active downline")
	ErrAgentHasBalance  = New(3005, "agent wallet still carries a balance")
)

// Commission rule error codes (4000-4999)
var (
	ErrPlanNotFound        = New(4000, "plan not found")
	ErrInvalidFrequency    = New(4001, "invalid payment frequency")
	ErrNoActiveRule        = New(4002, "no active commission rule for this tier")
	ErrMultipleActiveRules = New(4003, "multiple active commission rules for one key")
	ErrInvalidRuleValue    = New(4004, "invalid commission rule value")
	ErrRuleNotFound        = New(4005, "commission rule not found")
)

// Commission transaction error codes (5000-5999)
var (
	ErrCommissionNotFound   = New(5000, "commission transaction not found")
	ErrCommissionNotPending = New(5001, "commission transaction is not pending")
	ErrInvalidBasisAmount   = New(5002, "basis amount must be positive")
)

// Wallet error codes (6000-6999)
var (
	ErrWalletNotFound         = New(6000, "wallet not found")
	ErrWalletNotActive        = New(6001, "wallet is not active")
	ErrInsufficientFunds      = New(6002, "insufficient balance")
	ErrInvalidAmount          = New(6003, "amount must be positive")
	ErrAdjustmentNoteRequired = New(6004, "adjustment requires a note")
	ErrConcurrentUpdate       = New(6005, "wallet was modified concurrently")
)

// Withdrawal error codes (7000-7999)
var (
	ErrWithdrawalNotFound    = New(7000, "withdrawal request not found")
	ErrWithdrawalNotPending  = New(7001, "withdrawal request is not pending")
	ErrWithdrawalNotApproved = New(7002, "withdrawal request is not approved")
	ErrWithdrawalBelowMin    = New(7003, "amount below minimum withdrawal")
	ErrRejectNoteRequired    = New(7004, "rejection requires a note")
)

// IsAppError reports whether err is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts an AppError, wrapping unknown errors
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(1001, "invalid parameters")
	assert.Equal(t, "[1001] invalid parameters", e.Error())

	wrapped := Wrap(1004, "database error", stderrors.New("connection refused"))
	assert.Equal(t, "[1004] database error: connection refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	e := Wrap(1000, "unknown error", cause)
	assert.Equal(t, cause, stderrors.Unwrap(e))
}

func TestAppError_Is_MatchesOnCode(t *testing.T) {
	custom := ErrWalletNotActive.WithMessage("wallet frozen by risk review")
	assert.True(t, stderrors.Is(custom, ErrWalletNotActive))
	assert.False(t, stderrors.Is(custom, ErrWalletNotFound))
}

func TestWithMessage_KeepsCode(t *testing.T) {
	e := ErrAgentHasBalance.WithMessage("agent has withdrawal requests in flight")
	assert.Equal(t, ErrAgentHasBalance.Code, e.Code)
	assert.Equal(t, "agent has withdrawal requests in flight", e.Message)
	// the shared sentinel must stay untouched
	assert.Equal(t, "agent wallet still carries a balance", ErrAgentHasBalance.Message)
}

func TestWithError(t *testing.T) {
	cause := stderrors.New("timeout")
	e := ErrDatabaseError.WithError(cause)
	assert.Equal(t, ErrDatabaseError.Code, e.Code)
	assert.Equal(t, cause, e.Err)
	assert.Nil(t, ErrDatabaseError.Err)
}

func TestGetAppError(t *testing.T) {
	appErr := GetAppError(ErrAgentNotFound)
	assert.Equal(t, ErrAgentNotFound, appErr)

	plain := stderrors.New("something broke")
	wrapped := GetAppError(plain)
	assert.Equal(t, ErrUnknown.Code, wrapped.Code)
	assert.Equal(t, plain, wrapped.Err)
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(ErrInsufficientFunds))
	assert.False(t, IsAppError(stderrors.New("plain")))
}

func TestErrorCodeRanges(t *testing.T) {
	assert.Equal(t, 3003, ErrCyclicReferral.Code)
	assert.Equal(t, 6005, ErrConcurrentUpdate.Code)
	assert.Equal(t, 7003, ErrWithdrawalBelowMin.Code)
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "validation failed: email - must be a valid email", NewValidationError("email", "must be a valid email").Error())
	assert.Equal(t, "validation failed: bad input", NewValidationError("", "bad input").Error())
}

func TestNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "no such user", NewNotFoundError("user", "no such user").Error())
}

func TestDuplicateError_Message(t *testing.T) {
	assert.Equal(t, "user with this email already exists", NewDuplicateError("user", "email", "").Error())
	assert.Equal(t, "email already in use", NewDuplicateError("user", "email", "email already in use").Error())
}

func TestInvalidIDError_Message(t *testing.T) {
	assert.Equal(t, `invalid user id: "abc"`, NewInvalidIDError("abc").Error())
}

func TestStoreUnavailableError_UnwrapAndRetryable(t *testing.T) {
	err := NewStoreUnavailableError("store call timed out", context.DeadlineExceeded)

	wrapped := fmt.Errorf("find user: %w", err)

	var storeErr *StoreUnavailableError
	require.True(t, stderrors.As(wrapped, &storeErr))
	assert.True(t, stderrors.Is(wrapped, context.DeadlineExceeded))

	var r Retryable
	require.True(t, stderrors.As(wrapped, &r))
	assert.True(t, r.Retryable())
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewInternalError("failed to decode user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to decode user: boom", err.Error())
	assert.Equal(t, "internal server error", ErrInternal.Error())
}

package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := NewError(ErrNotFound, "negotiation missing")
	assert.Equal(t, "[NOT_FOUND] negotiation missing", err.Error())

	cause := errors.New("connection refused")
	err = NewErrorf(ErrStorageUnavailable, "redis at %s", "localhost:6379").WithCause(cause)
	assert.Equal(t, "[STORAGE_UNAVAILABLE] redis at localhost:6379: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrInvalidState, GetErrorCode(NewError(ErrInvalidState, "still running")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestIsCode(t *testing.T) {
	err := NewError(ErrInactiveNegotiation, "ended")
	assert.True(t, IsCode(err, ErrInactiveNegotiation))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(fmt.Errorf("wrapped: %w", err), ErrInactiveNegotiation))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeNotFound, "question not found"),
			expected: "NOT_FOUND: question not found",
		},
		{
			name:     "with cause",
			err:      Wrap(errors.New("disk full"), ErrCodePersistence, "save failed"),
			expected: "PERSISTENCE: save failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrCodeRemoteAPI, "submission failed")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(errors.New("timeout"), ErrCodeRemoteAPI, "remote submission failed")))
	assert.False(t, IsRetryable(New(ErrCodeDuplicateID, "id already queued")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "missing")))
	assert.Equal(t, ErrCodeInternalError, GetCode(errors.New("plain")))
}

func TestHasCode(t *testing.T) {
	notFound := New(ErrCodeNotFound, "no such pending question")
	wrapped := fmt.Errorf("edit failed: %w", notFound)

	assert.True(t, HasCode(notFound, ErrCodeNotFound))
	assert.True(t, HasCode(wrapped, ErrCodeNotFound))
	assert.False(t, HasCode(wrapped, ErrCodeDuplicateID))
	assert.False(t, HasCode(nil, ErrCodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeNotFound))
}

func TestWithContextAndUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "question too long").
		WithContext("length", 2500).
		WithUserMessage("Your question exceeds the allowed length")

	assert.Equal(t, 2500, err.Context["length"])
	assert.Equal(t, "Your question exceeds the allowed length", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(errors.New("plain")))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewAppError(ErrTypeNoData, "nothing loaded", nil),
			expected: "[NO_DATA] nothing loaded",
		},
		{
			name:     "with cause",
			err:      NewPersistenceError("write failed", fmt.Errorf("disk full")),
			expected: "[PERSISTENCE] write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_IsMatchesByType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"no data matches sentinel", NewNoDataError("zero files", nil), ErrNoValidData, true},
		{"wrapped no data matches", fmt.Errorf("run: %w", NewNoDataError("zero files", nil)), ErrNoValidData, true},
		{"rendering does not match persistence", NewRenderingError("trend", nil), ErrPersistence, false},
		{"input matches input", NewInputError("a.csv", errors.New("bad")), ErrInput, true},
		{"plain error does not match", errors.New("x"), ErrNoValidData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewPersistenceError("cannot write", cause)

	assert.True(t, errors.Is(err, cause))
	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, ErrTypePersistence, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewInputError("data.csv", nil)
	assert.Equal(t, "data.csv", err.Context["file"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("key", 1)
	assert.Equal(t, 1, bare.Context["key"])
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeRendering, TypeOf(fmt.Errorf("wrap: %w", NewRenderingError("factors", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

package operations

import (
	"errors"
	"fmt"

	apperrors "glucoreport/internal/errors"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeFatal        ErrorType = "fatal"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
	ErrorTypeQueueFull    ErrorType = "queue_full"
)

// OperationError is a pipeline error tagged with the stage that raised it.
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Step: step, Message: message}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeExecution, Step: step, Message: "stage failed", Cause: cause}
}

// NewFatalError creates a new fatal error
func NewFatalError(step, message string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeFatal, Step: step, Message: message, Cause: cause}
}

// NewInvalidStateError reports a forbidden phase transition.
func NewInvalidStateError(step, message string) *OperationError {
	return &OperationError{Type: ErrorTypeInvalidState, Step: step, Message: message}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// Common operation errors
var (
	ErrRunNotFound = &OperationError{Type: ErrorTypeNotFound, Message: "run not found"}
	ErrQueueFull   = &OperationError{Type: ErrorTypeQueueFull, Message: "report queue is full"}
)

// causeOf unwraps one application error so messages that already name the
// failing stage do not repeat it.
func causeOf(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		return appErr.Cause
	}
	return err
}

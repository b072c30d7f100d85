package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInput       ErrorType = "INPUT"
	ErrTypeNoData      ErrorType = "NO_DATA"
	ErrTypeRendering   ErrorType = "RENDERING"
	ErrTypePersistence ErrorType = "PERSISTENCE"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

// Sentinels for errors.Is. An AppError matches a sentinel of the same type.
var (
	ErrInput            = &AppError{Type: ErrTypeInput, Message: "input file could not be read"}
	ErrNoValidData      = &AppError{Type: ErrTypeNoData, Message: "no valid data could be loaded"}
	ErrRendering        = &AppError{Type: ErrTypeRendering, Message: "rendering failed"}
	ErrPersistence      = &AppError{Type: ErrTypePersistence, Message: "report could not be written"}
	ErrConfig           = &AppError{Type: ErrTypeConfig, Message: "invalid configuration"}
	ErrValidation       = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
	ErrResourceNotFound = &AppError{Type: ErrTypeNotFound, Message: "not found"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInputError reports a single input file that had to be skipped.
func NewInputError(file string, cause error) *AppError {
	return NewAppError(ErrTypeInput, fmt.Sprintf("cannot read %s", file), cause).WithContext("file", file)
}

// NewNoDataError reports that no input produced a usable table.
func NewNoDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNoData, message, cause)
}

// NewRenderingError reports a chart or document that could not be rendered.
func NewRenderingError(target string, cause error) *AppError {
	return NewAppError(ErrTypeRendering, fmt.Sprintf("%s rendering failed", target), cause).WithContext("target", target)
}

// NewPersistenceError creates a report write error
func NewPersistenceError(message string, cause error) *AppError {
	return NewAppError(ErrTypePersistence, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// TypeOf returns the ErrorType of the first AppError in the chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

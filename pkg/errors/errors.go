package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeIO                ErrorType = "io"
	ErrorTypeDegenerateContour ErrorType = "degenerate_contour"
	ErrorTypeNumericDomain     ErrorType = "numeric_domain"
	ErrorTypeValidation        ErrorType = "validation"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewIOError creates an error for images that cannot be read or written
func NewIOError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeIO, Message: message, Cause: cause}
}

// NewDegenerateContourError creates an error for contours without a defined mass center
func NewDegenerateContourError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeDegenerateContour, Message: message, Cause: cause}
}

// NewNumericDomainError creates an error for reductions that have no finite result
func NewNumericDomainError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeNumericDomain, Message: message, Cause: cause}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, Cause: cause}
}

// IsType checks if any error in the chain is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the type of the first AppError in the chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

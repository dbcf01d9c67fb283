package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures crossing the decision core's boundaries.
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeDataUnavailable ErrorType = "data_unavailable"
	ErrorTypePersistence     ErrorType = "persistence"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

// NewValidationError reports malformed caller input. Surfaced
// synchronously, never degraded.
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

// NewDataUnavailableError reports a failed or timed-out fact-provider
// query. Scoring and detection entry points degrade to defaults rather
// than propagating it.
func NewDataUnavailableError(source, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeDataUnavailable,
		Code:       "DATA_UNAVAILABLE",
		Message:    fmt.Sprintf("%s: %s", source, message),
		Retryable:  true,
		StatusCode: 503,
		Details:    map[string]interface{}{"source": source},
	}
}

// NewPersistenceError reports a failed anomaly insert or review update.
// Logged, not retried, never retracts an already-computed result.
func NewPersistenceError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Code:       "PERSISTENCE_FAILED",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// Predefined common errors
var (
	ErrUserNotFound    = NewNotFoundError("user")
	ErrRequestNotFound = NewNotFoundError("access request")
	ErrAnomalyNotFound = NewNotFoundError("anomaly")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}

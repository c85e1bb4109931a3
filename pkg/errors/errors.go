package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnprocessable
	ErrConflict
	ErrTooManyRequests
	ErrPayloadTooLarge
	ErrTimeout
	ErrInternal
)

var statusByCode = map[ErrorCode]int{
	ErrNotFound:        http.StatusNotFound,
	ErrBadRequest:      http.StatusBadRequest,
	ErrUnprocessable:   http.StatusUnprocessableEntity,
	ErrConflict:        http.StatusConflict,
	ErrTooManyRequests: http.StatusTooManyRequests,
	ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrInternal:        http.StatusInternalServerError,
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status the error maps to.
func (e *AppError) StatusCode() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As reports whether err is (or wraps) an *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Reason:  "not_found",
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Reason:  "bad_request",
		Message: message,
		Err:     err,
	}
}

// Unprocessable is a well-formed request that breaks a business rule.
func Unprocessable(reason, message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnprocessable,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

func Validation(fields []FieldError, err error) *AppError {
	return &AppError{
		Code:    ErrUnprocessable,
		Reason:  "invalid_request",
		Message: "request validation failed",
		Fields:  fields,
		Err:     err,
	}
}

func Conflict(reason, message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

func TooManyRequests() *AppError {
	return &AppError{
		Code:    ErrTooManyRequests,
		Reason:  "rate_limited",
		Message: "rate limit exceeded",
	}
}

func PayloadTooLarge(limit int64) *AppError {
	return &AppError{
		Code:    ErrPayloadTooLarge,
		Reason:  "payload_too_large",
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
	}
}

func Timeout(err error) *AppError {
	return &AppError{
		Code:    ErrTimeout,
		Reason:  "timeout",
		Message: "request timed out",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Reason:  "internal",
		Message: "internal server error",
		Err:     err,
	}
}

package popup

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures for transport layers.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeInvalid     ErrorCode = "INVALID"
	ErrCodeConflict    ErrorCode = "CONFLICT"
	ErrCodeForbidden   ErrorCode = "FORBIDDEN"
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrCodeInternal    ErrorCode = "INTERNAL"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrMessageNotFound = NewError(ErrCodeNotFound, "message not found")
	ErrViewerNotFound  = NewError(ErrCodeNotFound, "viewer not found")
)

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// Unavailable marks a store failure as retryable. Errors that already carry
// a code are returned unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var pErr *Error
	if errors.As(err, &pErr) {
		return err
	}
	return WrapError(ErrCodeUnavailable, op, err)
}

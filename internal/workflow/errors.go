package workflow

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation_error"
	CodeForbidden           ErrorCode = "forbidden"
	CodeInvalidTransition   ErrorCode = "invalid_transition"
	CodeNotFound            ErrorCode = "not_found"
	CodeSubscriptionExpired ErrorCode = "subscription_expired"
	CodeConflict            ErrorCode = "conflict"
)

// Error is the typed failure surfaced by the engine and the store. The
// API boundary translates it to an HTTP status; the message names the
// precondition that failed.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func InvalidTransition(msg string) *Error {
	return &Error{Code: CodeInvalidTransition, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func SubscriptionExpired(msg string) *Error {
	return &Error{Code: CodeSubscriptionExpired, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// CodeOf extracts the taxonomy code, if err carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// HTTPStatus maps the taxonomy to response status codes. Unknown errors
// are internal.
func HTTPStatus(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSubscriptionExpired:
		return http.StatusPaymentRequired
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

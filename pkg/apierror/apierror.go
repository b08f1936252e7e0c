package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is an error category. Its value doubles as the envelope's errorType.
type Kind string

const (
	KindValidation      Kind = "Validation Error"
	KindBadRequest      Kind = "Bad Request"
	KindUnauthorized    Kind = "Unauthorized"
	KindForbidden       Kind = "Forbidden"
	KindNotFound        Kind = "Not Found"
	KindFound           Kind = "Found"
	KindTooManyRequests Kind = "Too Many Requests"
	KindConflict        Kind = "Conflict"
	KindInternal        Kind = "Internal Server Error"
)

var statusByKind = map[Kind]int{
	KindValidation:      http.StatusUnprocessableEntity,
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindFound:           http.StatusFound,
	KindTooManyRequests: http.StatusTooManyRequests,
	KindConflict:        http.StatusConflict,
	KindInternal:        http.StatusInternalServerError,
}

// Status returns the HTTP status for k. Unknown kinds map to 500.
func (k Kind) Status() int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Known reports whether k is part of the taxonomy.
func (k Kind) Known() bool {
	_, ok := statusByKind[k]
	return ok
}

type APIError struct {
	Kind     Kind
	Messages []string
	// Err is the underlying cause. It is logged, never sent to clients.
	Err error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	msg := strings.Join(e.Messages, ", ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for the error's kind.
func (e *APIError) HTTPStatus() int {
	return e.Kind.Status()
}

// Message returns the single message, or the first one when several are present.
func (e *APIError) Message() string {
	if len(e.Messages) == 0 {
		return string(e.Kind)
	}
	return e.Messages[0]
}

func New(kind Kind, messages ...string) *APIError {
	if !kind.Known() {
		kind = KindInternal
	}
	return &APIError{Kind: kind, Messages: messages}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, cause error, messages ...string) *APIError {
	e := New(kind, messages...)
	e.Err = cause
	return e
}

func Validation(messages ...string) *APIError { return New(KindValidation, messages...) }

func BadRequest(message string) *APIError { return New(KindBadRequest, message) }

func Unauthorized(message string) *APIError { return New(KindUnauthorized, message) }

func Forbidden(message string) *APIError { return New(KindForbidden, message) }

func NotFound(message string) *APIError { return New(KindNotFound, message) }

func Conflict(message string) *APIError { return New(KindConflict, message) }

func TooManyRequests(message string) *APIError { return New(KindTooManyRequests, message) }

func Internal(message string, cause error) *APIError {
	return Wrap(KindInternal, cause, message)
}

// From converts any error into an *APIError. Errors outside the taxonomy
// collapse into Internal with a generic message.
func From(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return Internal("Internal server error", err)
}

// KindOf returns the kind of err, or KindInternal when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

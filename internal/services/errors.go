package services

import (
	"errors"
	"net/http"
)

// Kind classifies a service failure. Its string value is the machine-readable
// tag returned to clients.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindConflict      Kind = "conflict"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindMisconfigured Kind = "misconfigured"
	KindUpstreamAuth  Kind = "upstream_auth_error"
	KindUpstream      Kind = "upstream_error"
	KindServer        Kind = "server_error"
)

// HTTPStatus maps the kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized, KindUpstreamAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned by services. Message is safe to show to
// clients; Err carries the internal cause and is only logged.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Tag returns the specific code if one is set, otherwise the kind.
func (e *Error) Tag() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// Status returns the HTTP status for the error.
func (e *Error) Status() int {
	return e.Kind.HTTPStatus()
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ServerError wraps an unexpected failure behind a client-safe message.
func ServerError(message string, err error) *Error {
	return newError(KindServer, message, err)
}

// KindOf returns the kind of err, or KindServer if err is not an *Error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindServer
}

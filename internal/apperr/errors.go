package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindValidationFailed  Kind = "validation_failed"
	KindBadRequest        Kind = "bad_request"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindRateLimited       Kind = "rate_limited"
	KindDependencyFailure Kind = "dependency_failure"
	KindInternal          Kind = "internal"
)

// Error is the failure type carried from any layer to the response envelope.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return newError(KindUnauthenticated, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *Error {
	return newError(KindForbidden, http.StatusForbidden, msg)
}

// ValidationFailed carries the violation list in Details.
func ValidationFailed(details any) *Error {
	e := newError(KindValidationFailed, http.StatusBadRequest, "Validation failed")
	e.Details = details
	return e
}

func BadRequest(msg string) *Error {
	return newError(KindBadRequest, http.StatusBadRequest, msg)
}

func NotFound(msg string) *Error {
	return newError(KindNotFound, http.StatusNotFound, msg)
}

func Conflict(msg string) *Error {
	return newError(KindConflict, http.StatusConflict, msg)
}

func RateLimited(msg string) *Error {
	return newError(KindRateLimited, http.StatusTooManyRequests, msg)
}

// DependencyFailure wraps an error returned by the record store or the identity oracle.
func DependencyFailure(msg string, cause error) *Error {
	e := newError(KindDependencyFailure, http.StatusInternalServerError, msg)
	e.cause = cause
	return e
}

// Wrap attaches cause to a copy of e.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// From classifies any error. Unrecognized errors become a 500 internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	e := newError(KindInternal, http.StatusInternalServerError, "Internal server error")
	e.cause = err
	return e
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	ae := From(err)
	if ae == nil || ae.Status == 0 {
		return http.StatusInternalServerError
	}
	return ae.Status
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

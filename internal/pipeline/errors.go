package pipeline

import (
	"errors"
	"net/http"
)

// Kind classifies pipeline failures for HTTP status mapping and metrics.
type Kind int

const (
	// KindValidation covers missing sources and unsupported extensions.
	KindValidation Kind = iota
	// KindUnsupportedSource rejects non object-store URIs.
	KindUnsupportedSource
	// KindNotFound means the object does not exist.
	KindNotFound
	// KindAccessDenied means the service lacks permission on the object.
	KindAccessDenied
	// KindNoContent means the object was readable but empty.
	KindNoContent
	// KindEngineUnavailable means engine construction failed for this process.
	KindEngineUnavailable
	// KindConversion means the engine raised during conversion.
	KindConversion
	// KindFetchExhausted means transient errors consumed the retry budget.
	KindFetchExhausted
	// KindFetchFailed means an unclassified fetch failure.
	KindFetchFailed
)

// Label returns the short name used for metrics and audit records.
func (k Kind) Label() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnsupportedSource:
		return "unsupported_source"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindNoContent:
		return "no_content"
	case KindEngineUnavailable:
		return "engine_unavailable"
	case KindConversion:
		return "conversion_failed"
	case KindFetchExhausted:
		return "fetch_exhausted"
	case KindFetchFailed:
		return "fetch_failed"
	}
	return "unknown"
}

// HTTPStatus maps the kind to the externally visible status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUnsupportedSource, KindNoContent:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindEngineUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error is a typed pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// AsError extracts a pipeline Error from err, if present.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

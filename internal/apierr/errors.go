// Package apierr defines the error taxonomy shared by every core component
// and the HTTP status codes the handlers map them to.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies which branch of the taxonomy an error belongs to.
type Kind int

const (
	// KindBadRequest is an unparseable path or missing required parameter.
	KindBadRequest Kind = iota
	// KindPackageNotFound is an upstream 404 at metadata or tarball fetch.
	KindPackageNotFound
	// KindVersionNotFound is a resolver that produced no candidate.
	KindVersionNotFound
	// KindFileNotFound is a hydrated package missing the requested path.
	KindFileNotFound
	// KindUpstreamUnavailable is a non-404 transport failure upstream.
	KindUpstreamUnavailable
	// KindStorageUnavailable is a storage back-end transport failure.
	KindStorageUnavailable
	// KindInvalidManifest is malformed upstream YAML/JSON.
	KindInvalidManifest
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindPackageNotFound:
		return "PackageNotFound"
	case KindVersionNotFound:
		return "VersionNotFound"
	case KindFileNotFound:
		return "FileNotFound"
	case KindUpstreamUnavailable:
		return "UpstreamUnavailable"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindInvalidManifest:
		return "InvalidManifest"
	default:
		return "Unknown"
	}
}

// Error is the typed error every core component returns. Wrap an
// underlying cause with %w via New so errors.Unwrap still reaches it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a typed Error, optionally wrapping a cause.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, fmt.Sprintf(format, args...), nil)
}

func PackageNotFound(format string, args ...any) *Error {
	return New(KindPackageNotFound, fmt.Sprintf(format, args...), nil)
}

func VersionNotFound(format string, args ...any) *Error {
	return New(KindVersionNotFound, fmt.Sprintf(format, args...), nil)
}

func FileNotFound(format string, args ...any) *Error {
	return New(KindFileNotFound, fmt.Sprintf(format, args...), nil)
}

func UpstreamUnavailable(cause error, format string, args ...any) *Error {
	return New(KindUpstreamUnavailable, fmt.Sprintf(format, args...), cause)
}

func StorageUnavailable(cause error, format string, args ...any) *Error {
	return New(KindStorageUnavailable, fmt.Sprintf(format, args...), cause)
}

func InvalidManifest(cause error, format string, args ...any) *Error {
	return New(KindInvalidManifest, fmt.Sprintf(format, args...), cause)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps a core error to the status code handlers should write,
// per the propagation table in the spec's error-handling design.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindPackageNotFound, KindVersionNotFound, KindFileNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindStorageUnavailable:
		// StorageUnavailable should never reach the handler layer as a
		// hard failure — callers treat it as a miss/best-effort drop.
		// If it does surface, it's a genuine internal condition.
		return http.StatusInternalServerError
	case KindInvalidManifest:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

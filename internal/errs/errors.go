// Package errs provides the error type shared by the resolver and the HTTP layer.
//
// The resolver wraps store failures into *errs.Error; handlers map the kind
// to a response status without knowing anything about the object store.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind categorises a failure independently of the store that produced it.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // neither an object nor a prefix
	ErrKindStoreUnavailable         // transport failure or unexpected store status
	ErrKindInvalidPath              // request path rejected before reaching the store
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindStoreUnavailable:
		return "store_unavailable"
	case ErrKindInvalidPath:
		return "invalid_path"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the resolver.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // underlying store-level error, kept for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsNotFound reports whether err means the path is neither an object nor a prefix.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsStoreUnavailable reports whether err means the store could not be reached
// or answered with an unexpected status.
func IsStoreUnavailable(err error) bool {
	return KindOf(err) == ErrKindStoreUnavailable
}

// IsInvalidPath reports whether err was caused by a malformed request path.
func IsInvalidPath(err error) bool {
	return KindOf(err) == ErrKindInvalidPath
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// StatusCode maps err to the HTTP status the gateway answers with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindInvalidPath:
		return http.StatusBadRequest
	case ErrKindStoreUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

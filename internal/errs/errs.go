// Package errs defines the error taxonomy shared across the service.
//
// Every failure that can cross a layer boundary is tagged with a Kind so the
// HTTP layer can map it to a status code and a stable, user-visible code
// string without inspecting message text.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and logging.
type Kind int

const (
	// Internal is the fallback for untagged failures.
	Internal Kind = iota

	// Validation marks rejected input (bad or missing fields).
	Validation

	// Unauthorized marks a missing or incorrect credential.
	Unauthorized

	// Forbidden marks a credential that is present but invalid or expired.
	Forbidden

	// Encryption marks a cipher failure on the write path.
	Encryption

	// Store marks a persistence or connectivity failure.
	Store
)

// Code returns the stable code string exposed to API callers.
func (k Kind) Code() string {
	switch k {
	case Validation:
		return "ValidationError"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case Encryption:
		return "EncryptionError"
	case Store:
		return "StoreError"
	default:
		return "InternalError"
	}
}

// HTTPStatus returns the response status for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged error carrying a Kind and an internal message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a tagged error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags an underlying error with a kind and message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or Internal if err is untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Package errors defines the error kinds shared by every domain package.
// Domain errors wrap exactly one kind; the HTTP layer maps kinds to status codes
// and reports the optional machine-readable code alongside.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the resource already exists.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the operation requires authentication that has not
	// been satisfied.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the operation is not permitted in the current state.
	ErrForbidden = errors.New("forbidden")

	// ErrIO indicates the underlying storage medium failed.
	ErrIO = errors.New("i/o failure")

	// ErrMisconfigured indicates the application wiring references something
	// that was never configured. It is not recoverable at runtime.
	ErrMisconfigured = errors.New("misconfigured")
)

// Wrap adds message in front of err, keeping err in the chain. Nil stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

type codedError struct {
	kind    error
	code    string
	message string
}

func (e *codedError) Error() string {
	return e.message + ": " + e.kind.Error()
}

func (e *codedError) Unwrap() error {
	return e.kind
}

// Coded is Wrap plus a stable snake_case code clients can switch on,
// e.g. Coded(ErrNotFound, "key_not_found", "key not found").
func Coded(kind error, code, message string) error {
	return &codedError{kind: kind, code: code, message: message}
}

// Code returns the code of the first coded error in err's chain, or "".
func Code(err error) string {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}

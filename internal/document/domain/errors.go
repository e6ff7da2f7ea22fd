package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

// Document store error definitions.
var (
	// ErrDocumentNotFound indicates no document exists with the given identifier.
	ErrDocumentNotFound = errors.Coded(errors.ErrNotFound, "document_not_found", "document not found")

	// ErrCredentialNotFound indicates the credential does not exist or is not
	// owned by the given document.
	ErrCredentialNotFound = errors.Coded(errors.ErrNotFound, "credential_not_found", "credential not found")

	// ErrInvalidValidityWindow indicates validUntil is before validFrom.
	ErrInvalidValidityWindow = errors.Coded(errors.ErrInvalidInput, "invalid_validity_window", "validUntil must not be before validFrom")
)

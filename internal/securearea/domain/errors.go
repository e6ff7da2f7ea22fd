package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

// Secure area error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the backend cannot provision the requested algorithm.
	// Callers must change the settings before retrying.
	ErrUnsupportedAlgorithm = errors.Coded(errors.ErrInvalidInput, "unsupported_algorithm", "unsupported algorithm")

	// ErrKeyNotFound indicates the alias is unknown to this secure area instance.
	ErrKeyNotFound = errors.Coded(errors.ErrNotFound, "key_not_found", "key not found")

	// ErrKeyAlreadyExists indicates CreateKey was called with an alias already in use.
	ErrKeyAlreadyExists = errors.Coded(errors.ErrConflict, "key_already_exists", "key already exists")

	// ErrAuthenticationRequired indicates the key requires user authentication that
	// has not been satisfied. Callers prompt for the passphrase and retry with
	// KeyUnlockData.
	ErrAuthenticationRequired = errors.Coded(errors.ErrUnauthorized, "authentication_required", "authentication required")

	// ErrKeyNotValid indicates the key is used outside its validity window.
	ErrKeyNotValid = errors.Coded(errors.ErrForbidden, "key_not_valid", "key is not valid at this time")

	// ErrWrongKeyPurpose indicates a signing key used for agreement or vice versa.
	ErrWrongKeyPurpose = errors.Coded(errors.ErrInvalidInput, "wrong_key_purpose", "key purpose does not allow this operation")

	// ErrInvalidPublicKey indicates the peer public key for key agreement is malformed
	// or on the wrong curve.
	ErrInvalidPublicKey = errors.Coded(errors.ErrInvalidInput, "invalid_public_key", "invalid peer public key")

	// ErrUnknownBackend indicates a secure area identifier that was never registered.
	// A credential referencing it can never be used again, so this is a fatal
	// configuration error.
	ErrUnknownBackend = errors.Wrap(errors.ErrMisconfigured, "unknown secure area")

	// ErrDuplicateBackend indicates two secure areas registered under one identifier.
	ErrDuplicateBackend = errors.Wrap(errors.ErrMisconfigured, "duplicate secure area identifier")

	// ErrInvalidRegistration indicates an empty identifier or nil secure area.
	ErrInvalidRegistration = errors.Wrap(errors.ErrMisconfigured, "invalid secure area registration")
)

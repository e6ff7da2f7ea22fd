package domain

import (
	"github.com/allisson/credstore/internal/errors"
)

// Key-wrapping error definitions.
//
// These wrap the sentinels from internal/errors so the HTTP layer can map them
// without knowing about this package.
var (
	// ErrUnsupportedAlgorithm indicates the requested wrapping algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported wrapping algorithm")

	// ErrInvalidKeySize indicates a wrapping key that is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates the wrapped key could not be authenticated.
	//
	// The cause (wrong master key, wrong AAD, tampered ciphertext) is deliberately
	// not distinguished.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrMasterKeysNotSet indicates no master keys were configured.
	ErrMasterKeysNotSet = errors.Wrap(errors.ErrMisconfigured, "MASTER_KEYS is not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is empty.
	ErrActiveMasterKeyIDNotSet = errors.Wrap(errors.ErrMisconfigured, "ACTIVE_MASTER_KEY_ID is not set")

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry that is not "id:base64".
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrMisconfigured, "invalid MASTER_KEYS format")

	// ErrInvalidMasterKeyBase64 indicates a master key ciphertext that is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(errors.ErrMisconfigured, "invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID names a key not in MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.Wrap(errors.ErrMisconfigured, "active master key not found")

	// ErrMasterKeyNotFound indicates a wrapped key references a master key that is
	// no longer configured.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrMisconfigured, "master key not found")

	// ErrUnsupportedKMSScheme indicates KMS_KEY_URI uses a scheme no keeper driver handles.
	ErrUnsupportedKMSScheme = errors.Wrap(errors.ErrMisconfigured, "unsupported KMS key URI scheme")

	// ErrKMSProviderMismatch indicates KMS_PROVIDER and the KMS_KEY_URI scheme disagree.
	ErrKMSProviderMismatch = errors.Wrap(errors.ErrMisconfigured, "KMS_PROVIDER does not match KMS_KEY_URI")
)

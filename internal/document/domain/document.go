// Package domain defines the document and credential models of the credential store.
//
// A Document is the aggregate root: it owns an ordered list of Credentials, each
// bound to exactly one key held by a secure area. Deleting a Document deletes its
// Credentials and their keys.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/credstore/internal/validation"
)

// MaxCardArtSize bounds the card art image stored with a document.
const MaxCardArtSize = 1 << 20

// Metadata is the display information of a document.
type Metadata struct {
	// DisplayName is shown to the holder, e.g. "Erika's Driving License".
	DisplayName string
	// TypeDisplayName names the document type, e.g. "Utopia Driving License".
	// Empty takes the display name of DocType.
	TypeDisplayName string
	// DocType optionally names a registered DocumentType. A typed document
	// only accepts credentials in the domains of its type.
	DocType string
	// CardArt is an opaque image blob.
	CardArt []byte
}

// Validate checks the metadata.
func (m Metadata) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.DisplayName, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&m.TypeDisplayName, validation.Length(0, 255)),
		validation.Field(&m.DocType, customValidation.NoWhitespace, validation.Length(0, 255)),
		validation.Field(&m.CardArt, validation.Length(0, MaxCardArtSize)),
	)
	if err != nil {
		return customValidation.WrapValidationError(err)
	}
	return nil
}

// Document is a holder document such as a driving licence.
type Document struct {
	// ID is a UUIDv7 generated at creation.
	ID uuid.UUID
	// Metadata holds the display information.
	Metadata Metadata
	// CredentialIDs lists the owned credentials in the order they were added.
	CredentialIDs []uuid.UUID
	// CreatedAt is the UTC creation timestamp.
	CreatedAt time.Time
}

// HasCredential reports whether id is owned by the document.
func (d *Document) HasCredential(id uuid.UUID) bool {
	return slices.Contains(d.CredentialIDs, id)
}

// RemoveCredential drops id from the credential list and reports whether it was present.
func (d *Document) RemoveCredential(id uuid.UUID) bool {
	i := slices.Index(d.CredentialIDs, id)
	if i < 0 {
		return false
	}
	d.CredentialIDs = slices.Delete(d.CredentialIDs, i, i+1)
	return true
}

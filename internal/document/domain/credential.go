package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	customValidation "github.com/allisson/credstore/internal/validation"
)

// IssuerData is the issuer-signed payload attached to a credential.
type IssuerData struct {
	// CertificateChain is the DER certificate chain, leaf first.
	CertificateChain [][]byte
	// SignedData is the issuer-signed object, e.g. an mdoc MSO. Opaque to the store.
	SignedData []byte
}

// Credential is a key-bound credential owned by one document.
type Credential struct {
	ID uuid.UUID
	// DocumentID is a back-reference to the owning document.
	DocumentID uuid.UUID
	// Domain groups credentials by usage, e.g. "mdoc".
	Domain string
	// SecureAreaID identifies the backend holding the key.
	SecureAreaID string
	// KeyAlias is the key handle inside that secure area.
	KeyAlias   string
	ValidFrom  time.Time
	ValidUntil time.Time
	IssuerData IssuerData
	// UsageCount is incremented by every successful signature.
	UsageCount int64
	CreatedAt  time.Time
}

// IsValidAt reports whether t falls inside the credential validity window.
// Zero bounds are open.
func (c *Credential) IsValidAt(t time.Time) bool {
	if !c.ValidFrom.IsZero() && t.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidUntil.IsZero() && t.After(c.ValidUntil) {
		return false
	}
	return true
}

// AddCredentialInput describes a credential to add to a document.
type AddCredentialInput struct {
	// SecureAreaID selects the backend that creates the key.
	SecureAreaID string
	Domain       string
	// KeySettings configures the new key. A zero key validity window inherits
	// the credential window.
	KeySettings secureAreaDomain.KeySettings
	ValidFrom   time.Time
	ValidUntil  time.Time
	IssuerData  IssuerData
	// CertificateSubject is the common name requested from the CertificateIssuer,
	// if one is configured. Empty uses the document display name.
	CertificateSubject string
	// Constraints is forwarded to the CertificateIssuer.
	Constraints CertificateConstraints
}

// Validate checks the input independently of any backend.
func (in AddCredentialInput) Validate() error {
	if !in.ValidFrom.IsZero() && !in.ValidUntil.IsZero() && in.ValidUntil.Before(in.ValidFrom) {
		return ErrInvalidValidityWindow
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.SecureAreaID, validation.Required, customValidation.Identifier),
		validation.Field(&in.Domain, validation.Required, customValidation.NoWhitespace, validation.Length(1, 64)),
		validation.Field(&in.CertificateSubject, validation.Length(0, 255)),
		validation.Field(&in.Constraints),
	)
	if err != nil {
		return customValidation.WrapValidationError(err)
	}
	return nil
}

// EffectiveKeySettings returns KeySettings with the credential window applied
// when the key window is left open.
func (in AddCredentialInput) EffectiveKeySettings() secureAreaDomain.KeySettings {
	settings := in.KeySettings
	if settings.ValidFrom.IsZero() && settings.ValidUntil.IsZero() {
		settings.ValidFrom = in.ValidFrom
		settings.ValidUntil = in.ValidUntil
	}
	return settings
}

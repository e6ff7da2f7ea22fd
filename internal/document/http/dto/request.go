// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// MetadataRequest creates a document or replaces its metadata.
// Binary fields are base64 in JSON.
type MetadataRequest struct {
	DisplayName     string `json:"display_name"`
	TypeDisplayName string `json:"type_display_name"`
	DocType         string `json:"doc_type,omitempty"`
	CardArt         []byte `json:"card_art,omitempty"`
}

// Validate checks the request shape; domain rules run in the store.
func (r *MetadataRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DisplayName, validation.Required),
	)
}

// ToDomain converts the request to document metadata.
func (r *MetadataRequest) ToDomain() documentDomain.Metadata {
	return documentDomain.Metadata{
		DisplayName:     r.DisplayName,
		TypeDisplayName: r.TypeDisplayName,
		DocType:         r.DocType,
		CardArt:         r.CardArt,
	}
}

// AddCredentialRequest adds a key-bound credential to a document.
type AddCredentialRequest struct {
	SecureArea                   string     `json:"secure_area"`
	Domain                       string     `json:"domain"`
	Algorithm                    string     `json:"algorithm"`
	AuthenticationRequired       bool       `json:"authentication_required"`
	Passphrase                   string     `json:"passphrase,omitempty"`
	AuthenticationTimeoutSeconds int        `json:"authentication_timeout_seconds,omitempty"`
	AttestationChallenge         []byte     `json:"attestation_challenge,omitempty"`
	ValidFrom                    *time.Time `json:"valid_from,omitempty"`
	ValidUntil                   *time.Time `json:"valid_until,omitempty"`
	CertificateChain             [][]byte   `json:"certificate_chain,omitempty"`
	SignedData                   []byte     `json:"signed_data,omitempty"`
	CertificateSubject           string     `json:"certificate_subject,omitempty"`
	IssuerAltNameURL             string     `json:"issuer_alt_name_url,omitempty"`
	CRLURL                       string     `json:"crl_url,omitempty"`
}

// Validate checks the request shape.
func (r *AddCredentialRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SecureArea, validation.Required),
		validation.Field(&r.Domain, validation.Required),
		validation.Field(&r.Algorithm, validation.Required),
		validation.Field(&r.AuthenticationTimeoutSeconds, validation.Min(0)),
	)
}

// ToDomain converts the request to AddCredentialInput.
func (r *AddCredentialRequest) ToDomain() documentDomain.AddCredentialInput {
	input := documentDomain.AddCredentialInput{
		SecureAreaID: r.SecureArea,
		Domain:       r.Domain,
		KeySettings: secureAreaDomain.KeySettings{
			Algorithm:              secureAreaDomain.Algorithm(r.Algorithm),
			AuthenticationRequired: r.AuthenticationRequired,
			Passphrase:             r.Passphrase,
			AuthenticationTimeout:  time.Duration(r.AuthenticationTimeoutSeconds) * time.Second,
			AttestationChallenge:   r.AttestationChallenge,
		},
		IssuerData: documentDomain.IssuerData{
			CertificateChain: r.CertificateChain,
			SignedData:       r.SignedData,
		},
		CertificateSubject: r.CertificateSubject,
		Constraints: documentDomain.CertificateConstraints{
			IssuerAltNameURL: r.IssuerAltNameURL,
			CRLURL:           r.CRLURL,
		},
	}
	if r.ValidFrom != nil {
		input.ValidFrom = r.ValidFrom.UTC()
	}
	if r.ValidUntil != nil {
		input.ValidUntil = r.ValidUntil.UTC()
	}
	return input
}

// SignRequest signs data with a credential key.
type SignRequest struct {
	Data       []byte `json:"data"`
	Passphrase string `json:"passphrase,omitempty"`
}

// Validate checks the request shape.
func (r *SignRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data, validation.Required),
	)
}

// UnlockData returns the unlock data carried by the request, or nil.
func (r *SignRequest) UnlockData() *secureAreaDomain.KeyUnlockData {
	if r.Passphrase == "" {
		return nil
	}
	return &secureAreaDomain.KeyUnlockData{Passphrase: r.Passphrase}
}

package domain

import (
	"context"
	"crypto"
	"crypto/x509/pkix"
	"math/big"
	"time"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/credstore/internal/validation"
)

// CertificateConstraints carries issuer-specific extensions for the issued certificate.
type CertificateConstraints struct {
	// IssuerAltNameURL becomes the issuer alternative name URI.
	IssuerAltNameURL string
	// CRLURL becomes the CRL distribution point.
	CRLURL string
}

// Validate implements validation.Validatable. Both fields are optional.
func (c CertificateConstraints) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.IssuerAltNameURL, customValidation.HTTPURL),
		validation.Field(&c.CRLURL, customValidation.HTTPURL),
	)
}

// CertificateRequest asks a certificate authority to certify a credential key.
type CertificateRequest struct {
	PublicKey   crypto.PublicKey
	Subject     pkix.Name
	Serial      *big.Int
	ValidFrom   time.Time
	ValidUntil  time.Time
	Constraints CertificateConstraints
}

// CertificateIssuer is an external certificate authority. The returned DER
// certificate is stored as an opaque blob at the head of the credential chain.
type CertificateIssuer interface {
	IssueCertificate(ctx context.Context, req CertificateRequest) ([]byte, error)
}

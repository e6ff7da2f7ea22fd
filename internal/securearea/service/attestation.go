package service

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// OIDKeyAttestation identifies the key description extension carried by every
// attestation leaf.
//
//	KeyDescription ::= SEQUENCE {
//	    challenge              OCTET STRING,
//	    secureArea             UTF8String,
//	    algorithm              UTF8String,
//	    authenticationRequired BOOLEAN,
//	}
var OIDKeyAttestation = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 59283, 1, 1}

// ErrInvalidAttestation indicates a certificate without a well-formed key description.
var ErrInvalidAttestation = errors.New("invalid attestation extension")

// KeyDescription is the decoded attestation extension.
type KeyDescription struct {
	Challenge              []byte
	SecureArea             string
	Algorithm              secureAreaDomain.Algorithm
	AuthenticationRequired bool
}

// X509Attester certifies keys with a per-process ECDSA P-256 attestation root.
// Verifiers trust the root out of band, for example via GET /v1/secure-areas.
type X509Attester struct {
	rootKey  *ecdsa.PrivateKey
	rootCert *x509.Certificate
	rootDER  []byte
}

// NewX509Attester creates the attestation root with the given subject common name.
func NewX509Attester(subject string) (*X509Attester, error) {
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation root key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: subject},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(20, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}

	rootDER, err := x509.CreateCertificate(rand.Reader, template, template, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create attestation root: %w", err)
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attestation root: %w", err)
	}

	return &X509Attester{rootKey: rootKey, rootCert: rootCert, rootDER: rootDER}, nil
}

// Root returns the DER attestation root certificate.
func (a *X509Attester) Root() []byte {
	return a.rootDER
}

// Attest issues a leaf for pub and returns [leaf, root].
func (a *X509Attester) Attest(
	secureAreaID, alias string,
	pub crypto.PublicKey,
	settings secureAreaDomain.KeySettings,
) ([][]byte, error) {
	extension, err := marshalKeyDescription(KeyDescription{
		Challenge:              settings.AttestationChallenge,
		SecureArea:             secureAreaID,
		Algorithm:              settings.Algorithm,
		AuthenticationRequired: settings.AuthenticationRequired,
	})
	if err != nil {
		return nil, err
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	notBefore := settings.ValidFrom
	if notBefore.IsZero() {
		notBefore = time.Now().UTC()
	}
	notAfter := settings.ValidUntil
	if notAfter.IsZero() || notAfter.After(a.rootCert.NotAfter) {
		notAfter = a.rootCert.NotAfter
	}

	keyUsage := x509.KeyUsageDigitalSignature
	if settings.Algorithm.Purpose() == secureAreaDomain.PurposeAgreeKey {
		keyUsage = x509.KeyUsageKeyAgreement
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: alias, OrganizationalUnit: []string{secureAreaID}},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     keyUsage,
		ExtraExtensions: []pkix.Extension{
			{Id: OIDKeyAttestation, Value: extension},
		},
	}

	leaf, err := x509.CreateCertificate(rand.Reader, template, a.rootCert, pub, a.rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create attestation certificate: %w", err)
	}

	return [][]byte{leaf, a.rootDER}, nil
}

// ParseKeyDescription extracts the key description from an attestation leaf.
func ParseKeyDescription(cert *x509.Certificate) (*KeyDescription, error) {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(OIDKeyAttestation) {
			continue
		}

		var (
			seq        cryptobyte.String
			challenge  cryptobyte.String
			secureArea cryptobyte.String
			algorithm  cryptobyte.String
			authReq    bool
		)
		input := cryptobyte.String(ext.Value)
		if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) ||
			!seq.ReadASN1(&challenge, cryptobyte_asn1.OCTET_STRING) ||
			!seq.ReadASN1(&secureArea, cryptobyte_asn1.UTF8String) ||
			!seq.ReadASN1(&algorithm, cryptobyte_asn1.UTF8String) ||
			!seq.ReadASN1Boolean(&authReq) ||
			!seq.Empty() || !input.Empty() {
			return nil, ErrInvalidAttestation
		}

		return &KeyDescription{
			Challenge:              []byte(challenge),
			SecureArea:             string(secureArea),
			Algorithm:              secureAreaDomain.Algorithm(algorithm),
			AuthenticationRequired: authReq,
		}, nil
	}
	return nil, ErrInvalidAttestation
}

func marshalKeyDescription(desc KeyDescription) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1OctetString(desc.Challenge)
		b.AddASN1(cryptobyte_asn1.UTF8String, func(b *cryptobyte.Builder) {
			b.AddBytes([]byte(desc.SecureArea))
		})
		b.AddASN1(cryptobyte_asn1.UTF8String, func(b *cryptobyte.Builder) {
			b.AddBytes([]byte(desc.Algorithm))
		})
		b.AddASN1Boolean(desc.AuthenticationRequired)
	})

	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode key description: %w", err)
	}
	return der, nil
}

func randomSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return serial, nil
}

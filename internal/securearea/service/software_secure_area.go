package service

import (
	"context"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	"github.com/allisson/credstore/internal/securearea/repository"
	customValidation "github.com/allisson/credstore/internal/validation"
)

// SoftwareSecureArea generates and uses keys in process memory.
//
// Private keys are persisted as PKCS#8 sealed by the KeyWrapper with the alias
// as AAD, so a record copied under another alias fails to unwrap. Plaintext
// key material is zeroed after every use.
type SoftwareSecureArea struct {
	identifier string
	records    *repository.KeyRecordRepository
	wrapper    cryptoService.KeyWrapper
	attester   Attester
	gate       *AuthGate
	logger     *slog.Logger
	now        func() time.Time

	createMu sync.Mutex
}

// NewSoftwareSecureArea creates a software secure area persisting its key
// records in table SecureArea_<identifier>.
func NewSoftwareSecureArea(
	identifier string,
	records *repository.KeyRecordRepository,
	wrapper cryptoService.KeyWrapper,
	attester Attester,
	gate *AuthGate,
	logger *slog.Logger,
) *SoftwareSecureArea {
	return &SoftwareSecureArea{
		identifier: identifier,
		records:    records,
		wrapper:    wrapper,
		attester:   attester,
		gate:       gate,
		logger:     logger,
		now:        time.Now,
	}
}

// Identifier implements SecureArea.
func (s *SoftwareSecureArea) Identifier() string {
	return s.identifier
}

// DisplayName implements SecureArea.
func (s *SoftwareSecureArea) DisplayName() string {
	return "Software Secure Area"
}

// SupportedAlgorithms implements SecureArea. Every algorithm is supported.
func (s *SoftwareSecureArea) SupportedAlgorithms() []secureAreaDomain.Algorithm {
	return secureAreaDomain.AllAlgorithms()
}

// CreateKey generates a key pair, wraps the private key and persists the record.
func (s *SoftwareSecureArea) CreateKey(
	ctx context.Context,
	alias string,
	settings secureAreaDomain.KeySettings,
) (*secureAreaDomain.KeyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alias, err := prepareCreate(alias, settings, s.SupportedAlgorithms())
	if err != nil {
		return nil, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	exists, err := s.records.Exists(ctx, alias)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", secureAreaDomain.ErrKeyAlreadyExists, alias)
	}

	priv, pub, err := generateKeyPair(settings.Algorithm)
	if err != nil {
		return nil, err
	}

	publicKeyDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	wrapped, err := s.wrapper.Wrap(pkcs8, []byte(alias))
	cryptoDomain.Zero(pkcs8)
	if err != nil {
		return nil, err
	}

	chain, err := s.attester.Attest(s.identifier, alias, pub, settings)
	if err != nil {
		return nil, err
	}

	record := &secureAreaDomain.KeyRecord{
		Alias:             alias,
		Algorithm:         settings.Algorithm,
		PublicKey:         publicKeyDER,
		AttestationChain:  chain,
		ValidFrom:         settings.ValidFrom,
		ValidUntil:        settings.ValidUntil,
		CreatedAt:         s.now().UTC(),
		WrappedPrivateKey: wrapped,
	}
	if err := s.gate.Protect(record, settings); err != nil {
		return nil, err
	}

	// Nothing has been persisted yet, so a cancellation here leaves no key behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, record); err != nil {
		// The write may have landed before the failure surfaced.
		return record.Info(s.identifier), err
	}

	s.logger.Debug("software key created",
		slog.String("secure_area", s.identifier),
		slog.String("alias", alias),
		slog.String("algorithm", string(settings.Algorithm)),
	)
	return record.Info(s.identifier), nil
}

// GetKeyInfo implements SecureArea.
func (s *SoftwareSecureArea) GetKeyInfo(ctx context.Context, alias string) (*secureAreaDomain.KeyInfo, error) {
	record, err := s.records.Get(ctx, alias)
	if err != nil {
		return nil, err
	}
	return record.Info(s.identifier), nil
}

// Sign implements SecureArea.
func (s *SoftwareSecureArea) Sign(
	ctx context.Context,
	alias string,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	record, err := s.authorize(ctx, alias, secureAreaDomain.PurposeSign, unlock)
	if err != nil {
		return nil, err
	}

	priv, err := s.unwrap(record)
	if err != nil {
		return nil, err
	}

	switch key := priv.(type) {
	case *ecdsa.PrivateKey:
		sum, err := digest(record.Algorithm, data)
		if err != nil {
			return nil, err
		}
		der, err := ecdsa.SignASN1(rand.Reader, key, sum)
		if err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}
		return rawFromDERSignature(der, record.Algorithm.SignatureSize())
	case ed25519.PrivateKey:
		defer cryptoDomain.Zero(key)
		return ed25519.Sign(key, data), nil
	default:
		return nil, secureAreaDomain.ErrWrongKeyPurpose
	}
}

// KeyAgreement implements SecureArea.
func (s *SoftwareSecureArea) KeyAgreement(
	ctx context.Context,
	alias string,
	otherPublicKey []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	record, err := s.authorize(ctx, alias, secureAreaDomain.PurposeAgreeKey, unlock)
	if err != nil {
		return nil, err
	}

	peer, err := parsePeerPublicKey(record.Algorithm.ECDHCurve(), otherPublicKey)
	if err != nil {
		return nil, err
	}

	priv, err := s.unwrap(record)
	if err != nil {
		return nil, err
	}
	// PKCS#8 decodes NIST curve keys as ECDSA; only X25519 comes back as ECDH.
	var key *ecdh.PrivateKey
	switch k := priv.(type) {
	case *ecdh.PrivateKey:
		key = k
	case *ecdsa.PrivateKey:
		if key, err = k.ECDH(); err != nil {
			return nil, fmt.Errorf("failed to convert private key: %w", err)
		}
	default:
		return nil, secureAreaDomain.ErrWrongKeyPurpose
	}

	secret, err := key.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", secureAreaDomain.ErrInvalidPublicKey, err)
	}
	return secret, nil
}

// DeleteKey removes the key record and any open session. It is idempotent.
func (s *SoftwareSecureArea) DeleteKey(ctx context.Context, alias string) error {
	if err := s.records.Delete(ctx, alias); err != nil {
		return err
	}
	s.gate.Revoke(alias)
	return nil
}

// ListKeys implements SecureArea.
func (s *SoftwareSecureArea) ListKeys(ctx context.Context) ([]string, error) {
	return s.records.List(ctx)
}

func (s *SoftwareSecureArea) authorize(
	ctx context.Context,
	alias string,
	purpose secureAreaDomain.Purpose,
	unlock *secureAreaDomain.KeyUnlockData,
) (*secureAreaDomain.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.records.Get(ctx, alias)
	if err != nil {
		return nil, err
	}
	if err := record.CheckUsable(purpose, s.now()); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(record, unlock); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SoftwareSecureArea) unwrap(record *secureAreaDomain.KeyRecord) (crypto.PrivateKey, error) {
	if record.WrappedPrivateKey == nil {
		return nil, fmt.Errorf("%w: no private key material for %s", secureAreaDomain.ErrKeyNotFound, record.Alias)
	}

	pkcs8, err := s.wrapper.Unwrap(record.WrappedPrivateKey, []byte(record.Alias))
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(pkcs8)

	priv, err := x509.ParsePKCS8PrivateKey(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return priv, nil
}

// prepareCreate validates settings against supported and returns the alias to use.
func prepareCreate(
	alias string,
	settings secureAreaDomain.KeySettings,
	supported []secureAreaDomain.Algorithm,
) (string, error) {
	if err := settings.Validate(); err != nil {
		if settings.Algorithm != "" && !settings.Algorithm.Valid() {
			return "", fmt.Errorf("%w: %s", secureAreaDomain.ErrUnsupportedAlgorithm, settings.Algorithm)
		}
		return "", err
	}

	if !slices.Contains(supported, settings.Algorithm) {
		return "", fmt.Errorf("%w: %s", secureAreaDomain.ErrUnsupportedAlgorithm, settings.Algorithm)
	}

	if alias == "" {
		return uuid.Must(uuid.NewV7()).String(), nil
	}
	if err := validation.Validate(alias, validation.Length(1, 128), customValidation.Identifier); err != nil {
		return "", customValidation.WrapValidationError(fmt.Errorf("alias: %w", err))
	}
	return alias, nil
}

func generateKeyPair(alg secureAreaDomain.Algorithm) (crypto.PrivateKey, crypto.PublicKey, error) {
	switch {
	case alg.Curve() != nil:
		key, err := ecdsa.GenerateKey(alg.Curve(), rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
		}
		return key, &key.PublicKey, nil
	case alg == secureAreaDomain.EdDSA:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
		}
		return priv, pub, nil
	case alg.ECDHCurve() != nil:
		key, err := alg.ECDHCurve().GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate ECDH key: %w", err)
		}
		return key, key.PublicKey(), nil
	default:
		return nil, nil, secureAreaDomain.ErrUnsupportedAlgorithm
	}
}

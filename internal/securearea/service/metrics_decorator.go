package service

import (
	"context"
	"time"

	"github.com/allisson/credstore/internal/metrics"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// secureAreaWithMetrics decorates a SecureArea with metrics instrumentation.
type secureAreaWithMetrics struct {
	next    SecureArea
	metrics metrics.BusinessMetrics
}

// NewSecureAreaWithMetrics wraps a SecureArea with metrics recording.
func NewSecureAreaWithMetrics(next SecureArea, m metrics.BusinessMetrics) SecureArea {
	return &secureAreaWithMetrics{
		next:    next,
		metrics: m,
	}
}

func (s *secureAreaWithMetrics) Identifier() string {
	return s.next.Identifier()
}

func (s *secureAreaWithMetrics) DisplayName() string {
	return s.next.DisplayName()
}

func (s *secureAreaWithMetrics) SupportedAlgorithms() []secureAreaDomain.Algorithm {
	return s.next.SupportedAlgorithms()
}

// CreateKey records metrics for key creation.
func (s *secureAreaWithMetrics) CreateKey(
	ctx context.Context,
	alias string,
	settings secureAreaDomain.KeySettings,
) (*secureAreaDomain.KeyInfo, error) {
	start := time.Now()
	info, err := s.next.CreateKey(ctx, alias, settings)
	s.record(ctx, "key_create", start, err)
	return info, err
}

// GetKeyInfo records metrics for key lookups.
func (s *secureAreaWithMetrics) GetKeyInfo(ctx context.Context, alias string) (*secureAreaDomain.KeyInfo, error) {
	start := time.Now()
	info, err := s.next.GetKeyInfo(ctx, alias)
	s.record(ctx, "key_get", start, err)
	return info, err
}

// Sign records metrics for signing operations.
func (s *secureAreaWithMetrics) Sign(
	ctx context.Context,
	alias string,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	start := time.Now()
	signature, err := s.next.Sign(ctx, alias, data, unlock)
	s.record(ctx, "key_sign", start, err)
	return signature, err
}

// KeyAgreement records metrics for key agreement operations.
func (s *secureAreaWithMetrics) KeyAgreement(
	ctx context.Context,
	alias string,
	otherPublicKey []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	start := time.Now()
	secret, err := s.next.KeyAgreement(ctx, alias, otherPublicKey, unlock)
	s.record(ctx, "key_agreement", start, err)
	return secret, err
}

// DeleteKey records metrics for key deletion.
func (s *secureAreaWithMetrics) DeleteKey(ctx context.Context, alias string) error {
	start := time.Now()
	err := s.next.DeleteKey(ctx, alias)
	s.record(ctx, "key_delete", start, err)
	return err
}

// ListKeys records metrics for key enumeration.
func (s *secureAreaWithMetrics) ListKeys(ctx context.Context) ([]string, error) {
	start := time.Now()
	aliases, err := s.next.ListKeys(ctx)
	s.record(ctx, "key_list", start, err)
	return aliases, err
}

func (s *secureAreaWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, s.metrics, "securearea", operation, start, err)
}

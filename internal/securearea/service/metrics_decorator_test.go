package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credstore/internal/metrics"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	"github.com/allisson/credstore/internal/securearea/service/mocks"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func expectMetrics(ctx context.Context, m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", ctx, "securearea", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "securearea", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestSecureAreaWithMetrics_Passthrough(t *testing.T) {
	next := &mocks.MockSecureArea{}
	next.On("Identifier").Return("software")
	next.On("DisplayName").Return("Software Secure Area")
	next.On("SupportedAlgorithms").Return([]secureAreaDomain.Algorithm{secureAreaDomain.ES256})

	decorated := NewSecureAreaWithMetrics(next, &mockBusinessMetrics{})

	assert.Equal(t, "software", decorated.Identifier())
	assert.Equal(t, "Software Secure Area", decorated.DisplayName())
	assert.Equal(t, []secureAreaDomain.Algorithm{secureAreaDomain.ES256}, decorated.SupportedAlgorithms())
	next.AssertExpectations(t)
}

func TestSecureAreaWithMetrics_CreateKey(t *testing.T) {
	ctx := context.Background()
	settings := secureAreaDomain.KeySettings{Algorithm: secureAreaDomain.ES256}

	t.Run("Success", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		info := &secureAreaDomain.KeyInfo{Alias: "k"}

		next.On("CreateKey", ctx, "k", settings).Return(info, nil).Once()
		expectMetrics(ctx, m, "key_create", "success")

		got, err := NewSecureAreaWithMetrics(next, m).CreateKey(ctx, "k", settings)
		require.NoError(t, err)
		assert.Same(t, info, got)
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("ErrorKeepsPartialInfo", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		info := &secureAreaDomain.KeyInfo{Alias: "k"}
		boom := errors.New("boom")

		next.On("CreateKey", ctx, "k", settings).Return(info, boom).Once()
		expectMetrics(ctx, m, "key_create", "error")

		got, err := NewSecureAreaWithMetrics(next, m).CreateKey(ctx, "k", settings)
		assert.ErrorIs(t, err, boom)
		assert.Same(t, info, got)
		m.AssertExpectations(t)
	})
}

func TestSecureAreaWithMetrics_Operations(t *testing.T) {
	ctx := context.Background()
	unlock := &secureAreaDomain.KeyUnlockData{Passphrase: "abc123"}

	t.Run("GetKeyInfo", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		next.On("GetKeyInfo", ctx, "k").Return(nil, secureAreaDomain.ErrKeyNotFound).Once()
		expectMetrics(ctx, m, "key_get", "error")

		_, err := NewSecureAreaWithMetrics(next, m).GetKeyInfo(ctx, "k")
		assert.ErrorIs(t, err, secureAreaDomain.ErrKeyNotFound)
		m.AssertExpectations(t)
	})

	t.Run("Sign", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		next.On("Sign", ctx, "k", []byte("data"), unlock).Return([]byte("sig"), nil).Once()
		expectMetrics(ctx, m, "key_sign", "success")

		sig, err := NewSecureAreaWithMetrics(next, m).Sign(ctx, "k", []byte("data"), unlock)
		require.NoError(t, err)
		assert.Equal(t, []byte("sig"), sig)
		m.AssertExpectations(t)
	})

	t.Run("KeyAgreement", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		next.On("KeyAgreement", ctx, "k", []byte("peer"), (*secureAreaDomain.KeyUnlockData)(nil)).
			Return([]byte("secret"), nil).
			Once()
		expectMetrics(ctx, m, "key_agreement", "success")

		secret, err := NewSecureAreaWithMetrics(next, m).KeyAgreement(ctx, "k", []byte("peer"), nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("secret"), secret)
		m.AssertExpectations(t)
	})

	t.Run("DeleteKey", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		next.On("DeleteKey", ctx, "k").Return(nil).Once()
		expectMetrics(ctx, m, "key_delete", "success")

		require.NoError(t, NewSecureAreaWithMetrics(next, m).DeleteKey(ctx, "k"))
		m.AssertExpectations(t)
	})

	t.Run("ListKeys", func(t *testing.T) {
		next := &mocks.MockSecureArea{}
		m := &mockBusinessMetrics{}
		next.On("ListKeys", ctx).Return([]string{"a", "b"}, nil).Once()
		expectMetrics(ctx, m, "key_list", "success")

		aliases, err := NewSecureAreaWithMetrics(next, m).ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, aliases)
		m.AssertExpectations(t)
	})
}

// Package mocks provides mock implementations of SecureArea for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// MockSecureArea is a mock implementation of SecureArea for testing.
type MockSecureArea struct {
	mock.Mock
}

// Identifier mocks the Identifier method of SecureArea.
func (m *MockSecureArea) Identifier() string {
	args := m.Called()
	return args.String(0)
}

// DisplayName mocks the DisplayName method of SecureArea.
func (m *MockSecureArea) DisplayName() string {
	args := m.Called()
	return args.String(0)
}

// SupportedAlgorithms mocks the SupportedAlgorithms method of SecureArea.
func (m *MockSecureArea) SupportedAlgorithms() []secureAreaDomain.Algorithm {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]secureAreaDomain.Algorithm)
}

// CreateKey mocks the CreateKey method of SecureArea.
func (m *MockSecureArea) CreateKey(
	ctx context.Context,
	alias string,
	settings secureAreaDomain.KeySettings,
) (*secureAreaDomain.KeyInfo, error) {
	args := m.Called(ctx, alias, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secureAreaDomain.KeyInfo), args.Error(1)
}

// GetKeyInfo mocks the GetKeyInfo method of SecureArea.
func (m *MockSecureArea) GetKeyInfo(ctx context.Context, alias string) (*secureAreaDomain.KeyInfo, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secureAreaDomain.KeyInfo), args.Error(1)
}

// Sign mocks the Sign method of SecureArea.
func (m *MockSecureArea) Sign(
	ctx context.Context,
	alias string,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	args := m.Called(ctx, alias, data, unlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// KeyAgreement mocks the KeyAgreement method of SecureArea.
func (m *MockSecureArea) KeyAgreement(
	ctx context.Context,
	alias string,
	otherPublicKey []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	args := m.Called(ctx, alias, otherPublicKey, unlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DeleteKey mocks the DeleteKey method of SecureArea.
func (m *MockSecureArea) DeleteKey(ctx context.Context, alias string) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

// ListKeys mocks the ListKeys method of SecureArea.
func (m *MockSecureArea) ListKeys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

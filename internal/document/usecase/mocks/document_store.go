// Package mocks provides mock implementations of DocumentStore for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/document/usecase"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing.
type MockDocumentStore struct {
	mock.Mock
}

var _ usecase.DocumentStore = (*MockDocumentStore)(nil)

// CreateDocument mocks the CreateDocument method of DocumentStore.
func (m *MockDocumentStore) CreateDocument(
	ctx context.Context,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	args := m.Called(ctx, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

// LookupDocument mocks the LookupDocument method of DocumentStore.
func (m *MockDocumentStore) LookupDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

// ListDocuments mocks the ListDocuments method of DocumentStore.
func (m *MockDocumentStore) ListDocuments(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// UpdateMetadata mocks the UpdateMetadata method of DocumentStore.
func (m *MockDocumentStore) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	args := m.Called(ctx, id, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

// DeleteDocument mocks the DeleteDocument method of DocumentStore.
func (m *MockDocumentStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AddCredential mocks the AddCredential method of DocumentStore.
func (m *MockDocumentStore) AddCredential(
	ctx context.Context,
	documentID uuid.UUID,
	input documentDomain.AddCredentialInput,
) (*documentDomain.Credential, error) {
	args := m.Called(ctx, documentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Credential), args.Error(1)
}

// LookupCredential mocks the LookupCredential method of DocumentStore.
func (m *MockDocumentStore) LookupCredential(ctx context.Context, id uuid.UUID) (*documentDomain.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Credential), args.Error(1)
}

// ListCredentials mocks the ListCredentials method of DocumentStore.
func (m *MockDocumentStore) ListCredentials(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*documentDomain.Credential, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.Credential), args.Error(1)
}

// DeleteCredential mocks the DeleteCredential method of DocumentStore.
func (m *MockDocumentStore) DeleteCredential(ctx context.Context, documentID, credentialID uuid.UUID) error {
	args := m.Called(ctx, documentID, credentialID)
	return args.Error(0)
}

// FindCredential mocks the FindCredential method of DocumentStore.
func (m *MockDocumentStore) FindCredential(
	ctx context.Context,
	documentID uuid.UUID,
	domain string,
	at time.Time,
) (*documentDomain.Credential, error) {
	args := m.Called(ctx, documentID, domain, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Credential), args.Error(1)
}

// Sign mocks the Sign method of DocumentStore.
func (m *MockDocumentStore) Sign(
	ctx context.Context,
	credentialID uuid.UUID,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	args := m.Called(ctx, credentialID, data, unlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Sweep mocks the Sweep method of DocumentStore.
func (m *MockDocumentStore) Sweep(ctx context.Context) (*usecase.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SweepResult), args.Error(1)
}

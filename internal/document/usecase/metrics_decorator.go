package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/metrics"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// documentStoreWithMetrics decorates DocumentStore with metrics instrumentation.
type documentStoreWithMetrics struct {
	next    DocumentStore
	metrics metrics.BusinessMetrics
}

// NewDocumentStoreWithMetrics wraps a DocumentStore with metrics recording.
func NewDocumentStoreWithMetrics(store DocumentStore, m metrics.BusinessMetrics) DocumentStore {
	return &documentStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

func (d *documentStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, d.metrics, "documents", operation, start, err)
}

// CreateDocument records metrics for document creation.
func (d *documentStoreWithMetrics) CreateDocument(
	ctx context.Context,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := d.next.CreateDocument(ctx, metadata)
	d.record(ctx, "document_create", start, err)
	return doc, err
}

// LookupDocument records metrics for document lookups.
func (d *documentStoreWithMetrics) LookupDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := d.next.LookupDocument(ctx, id)
	d.record(ctx, "document_get", start, err)
	return doc, err
}

// ListDocuments records metrics for document listing.
func (d *documentStoreWithMetrics) ListDocuments(ctx context.Context) ([]uuid.UUID, error) {
	start := time.Now()
	ids, err := d.next.ListDocuments(ctx)
	d.record(ctx, "document_list", start, err)
	return ids, err
}

// UpdateMetadata records metrics for metadata updates.
func (d *documentStoreWithMetrics) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := d.next.UpdateMetadata(ctx, id, metadata)
	d.record(ctx, "document_update", start, err)
	return doc, err
}

// DeleteDocument records metrics for document deletion.
func (d *documentStoreWithMetrics) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := d.next.DeleteDocument(ctx, id)
	d.record(ctx, "document_delete", start, err)
	return err
}

// AddCredential records metrics for credential creation.
func (d *documentStoreWithMetrics) AddCredential(
	ctx context.Context,
	documentID uuid.UUID,
	input documentDomain.AddCredentialInput,
) (*documentDomain.Credential, error) {
	start := time.Now()
	credential, err := d.next.AddCredential(ctx, documentID, input)
	d.record(ctx, "credential_create", start, err)
	return credential, err
}

// LookupCredential records metrics for credential lookups.
func (d *documentStoreWithMetrics) LookupCredential(
	ctx context.Context,
	id uuid.UUID,
) (*documentDomain.Credential, error) {
	start := time.Now()
	credential, err := d.next.LookupCredential(ctx, id)
	d.record(ctx, "credential_get", start, err)
	return credential, err
}

// ListCredentials records metrics for credential listing.
func (d *documentStoreWithMetrics) ListCredentials(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*documentDomain.Credential, error) {
	start := time.Now()
	credentials, err := d.next.ListCredentials(ctx, documentID)
	d.record(ctx, "credential_list", start, err)
	return credentials, err
}

// DeleteCredential records metrics for credential deletion.
func (d *documentStoreWithMetrics) DeleteCredential(ctx context.Context, documentID, credentialID uuid.UUID) error {
	start := time.Now()
	err := d.next.DeleteCredential(ctx, documentID, credentialID)
	d.record(ctx, "credential_delete", start, err)
	return err
}

// FindCredential records metrics for credential selection.
func (d *documentStoreWithMetrics) FindCredential(
	ctx context.Context,
	documentID uuid.UUID,
	domain string,
	at time.Time,
) (*documentDomain.Credential, error) {
	start := time.Now()
	credential, err := d.next.FindCredential(ctx, documentID, domain, at)
	d.record(ctx, "credential_find", start, err)
	return credential, err
}

// Sign records metrics for credential signatures.
func (d *documentStoreWithMetrics) Sign(
	ctx context.Context,
	credentialID uuid.UUID,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	start := time.Now()
	signature, err := d.next.Sign(ctx, credentialID, data, unlock)
	d.record(ctx, "credential_sign", start, err)
	return signature, err
}

// Sweep records metrics for orphan collection.
func (d *documentStoreWithMetrics) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	result, err := d.next.Sweep(ctx)
	d.record(ctx, "sweep", start, err)
	return result, err
}

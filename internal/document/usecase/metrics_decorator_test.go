package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/metrics"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

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
	m.On("RecordOperation", ctx, "documents", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "documents", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestDocumentStoreWithMetrics(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	m := &mockBusinessMetrics{}
	store := NewDocumentStoreWithMetrics(f.store, m)

	expectMetrics(ctx, m, "document_create", "success")
	doc, err := store.CreateDocument(ctx, erikaMetadata())
	require.NoError(t, err)

	expectMetrics(ctx, m, "document_get", "error")
	_, err = store.LookupDocument(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, documentDomain.ErrDocumentNotFound)

	expectMetrics(ctx, m, "document_update", "success")
	_, err = store.UpdateMetadata(ctx, doc.ID, documentDomain.Metadata{DisplayName: "Renamed"})
	require.NoError(t, err)

	expectMetrics(ctx, m, "credential_create", "success")
	credential, err := store.AddCredential(ctx, doc.ID, mdocInput(secureAreaDomain.EdDSA))
	require.NoError(t, err)

	expectMetrics(ctx, m, "credential_create", "error")
	_, err = store.AddCredential(ctx, doc.ID, mdocInput("RS256"))
	require.Error(t, err)

	expectMetrics(ctx, m, "credential_list", "success")
	credentials, err := store.ListCredentials(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, credentials, 1)

	expectMetrics(ctx, m, "credential_find", "success")
	_, err = store.FindCredential(ctx, doc.ID, "mdoc", time.Now())
	require.NoError(t, err)

	expectMetrics(ctx, m, "credential_sign", "success")
	_, err = store.Sign(ctx, credential.ID, []byte("x"), nil)
	require.NoError(t, err)

	expectMetrics(ctx, m, "credential_get", "success")
	_, err = store.LookupCredential(ctx, credential.ID)
	require.NoError(t, err)

	expectMetrics(ctx, m, "sweep", "success")
	_, err = store.Sweep(ctx)
	require.NoError(t, err)

	expectMetrics(ctx, m, "credential_delete", "success")
	require.NoError(t, store.DeleteCredential(ctx, doc.ID, credential.ID))

	expectMetrics(ctx, m, "document_list", "success")
	_, err = store.ListDocuments(ctx)
	require.NoError(t, err)

	expectMetrics(ctx, m, "document_delete", "success")
	require.NoError(t, store.DeleteDocument(ctx, doc.ID))

	m.AssertExpectations(t)
}

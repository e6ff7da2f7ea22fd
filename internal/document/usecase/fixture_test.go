package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/document/repository"
	secureAreaRepository "github.com/allisson/credstore/internal/securearea/repository"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
	"github.com/allisson/credstore/internal/storage"
)

var errInjected = errors.New("injected storage failure")

// faultyStorage wraps MemoryStorage and fails Put or Delete on chosen tables.
type faultyStorage struct {
	*storage.MemoryStorage

	mu          sync.Mutex
	failPut     map[string]bool
	failDelete  map[string]bool
	putFailures int
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		failPut:       make(map[string]bool),
		failDelete:    make(map[string]bool),
	}
}

func (f *faultyStorage) FailPut(table string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut[table] = fail
}

func (f *faultyStorage) FailDelete(table string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete[table] = fail
}

func (f *faultyStorage) Put(ctx context.Context, table, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPut[table]
	if fail {
		f.putFailures++
	}
	f.mu.Unlock()
	if fail {
		return errors.Join(storage.ErrIO, errInjected)
	}
	return f.MemoryStorage.Put(ctx, table, key, value)
}

func (f *faultyStorage) Delete(ctx context.Context, table, key string) error {
	f.mu.Lock()
	fail := f.failDelete[table]
	f.mu.Unlock()
	if fail {
		return errors.Join(storage.ErrIO, errInjected)
	}
	return f.MemoryStorage.Delete(ctx, table, key)
}

type storeFixture struct {
	storage  *faultyStorage
	software *secureAreaService.SoftwareSecureArea
	areas    *secureAreaService.Repository
	store    *documentStore
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newStoreFixture wires storage, a software secure area and the document
// store the way the application does.
func newStoreFixture(t *testing.T, extra ...secureAreaService.SecureArea) *storeFixture {
	t.Helper()

	st := newFaultyStorage()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	chain, err := cryptoDomain.NewMasterKeyChain("mk1", &cryptoDomain.MasterKey{ID: "mk1", Key: key})
	require.NoError(t, err)
	t.Cleanup(chain.Close)

	attester, err := secureAreaService.NewX509Attester("test attestation root")
	require.NoError(t, err)
	gate, err := secureAreaService.NewAuthGate()
	require.NoError(t, err)

	software := secureAreaService.NewSoftwareSecureArea(
		"software",
		secureAreaRepository.NewKeyRecordRepository(st, "software"),
		cryptoService.NewKeyWrapper(cryptoService.NewAEADManager(), chain, cryptoDomain.AESGCM),
		attester,
		gate,
		newTestLogger(),
	)

	builder := secureAreaService.NewRepositoryBuilder().Add(software)
	for _, sa := range extra {
		builder.Add(sa)
	}
	areas, err := builder.Build()
	require.NoError(t, err)

	types, err := documentDomain.NewDocumentTypeBuilder().Add(documentDomain.DrivingLicense).Build()
	require.NoError(t, err)

	store := NewDocumentStore(
		repository.NewDocumentRepository(st),
		repository.NewCredentialRepository(st),
		areas,
		types,
		nil,
		newTestLogger(),
	).(*documentStore)

	return &storeFixture{storage: st, software: software, areas: areas, store: store}
}

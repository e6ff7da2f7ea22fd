package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	testStorageContract(t, func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, s.Put(ctx, "Documents", "doc-1", value))
	value[0] = 'X'

	got, err := s.Get(ctx, "Documents", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, "Documents", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "Documents", "doc-1", []byte("v")), context.Canceled)
	_, err := s.Get(ctx, "Documents", "doc-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, "Documents", "doc-1"), context.Canceled)
	_, err = s.Enumerate(ctx, "Documents")
	assert.ErrorIs(t, err, context.Canceled)
}

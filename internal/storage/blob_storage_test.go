package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestBlobStorage(t *testing.T) {
	testStorageContract(t, func(t *testing.T) Storage {
		s := NewBlobStorage(memblob.OpenBucket(nil))
		t.Cleanup(func() {
			_ = s.Close()
		})
		return s
	})
}

func TestOpenBlobStorage_FileBucket(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBlobStorage(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "Documents", "doc-1", []byte("persisted")))
	require.NoError(t, s.Close())

	// Reopen to prove the entry survived on disk.
	reopened, err := OpenBlobStorage(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close()
	}()

	got, err := reopened.Get(ctx, "Documents", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)

	keys, err := reopened.Enumerate(ctx, "Documents")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, keys)
}

func TestOpenBlobStorage_InvalidURL(t *testing.T) {
	s, err := OpenBlobStorage(context.Background(), "unknown-scheme://bucket")
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestBlobStorage_TablePrefixIsolation(t *testing.T) {
	s := NewBlobStorage(memblob.OpenBucket(nil))
	defer func() {
		_ = s.Close()
	}()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "Doc", "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "Documents", "b", []byte("2")))

	keys, err := s.Enumerate(ctx, "Doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)
}

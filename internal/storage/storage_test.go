package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/credstore/internal/errors"
)

// testStorageContract exercises the behavior every Storage implementation shares.
func testStorageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Helper()

	t.Run("put then get returns the value", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "Documents", "doc-1", []byte("first")))

		got, err := s.Get(ctx, "Documents", "doc-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("put replaces the previous value", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "Documents", "doc-1", []byte("first")))
		require.NoError(t, s.Put(ctx, "Documents", "doc-1", []byte("second")))

		got, err := s.Get(ctx, "Documents", "doc-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("empty value round-trips", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "Documents", "empty", nil))

		got, err := s.Get(ctx, "Documents", "empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("get missing key", func(t *testing.T) {
		s := newStorage(t)

		got, err := s.Get(context.Background(), "Documents", "missing")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("tables are isolated", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "Documents", "shared", []byte("doc")))
		require.NoError(t, s.Put(ctx, "Credentials", "shared", []byte("cred")))

		doc, err := s.Get(ctx, "Documents", "shared")
		require.NoError(t, err)
		cred, err := s.Get(ctx, "Credentials", "shared")
		require.NoError(t, err)

		assert.Equal(t, []byte("doc"), doc)
		assert.Equal(t, []byte("cred"), cred)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "Documents", "doc-1", []byte("value")))
		require.NoError(t, s.Delete(ctx, "Documents", "doc-1"))

		_, err := s.Get(ctx, "Documents", "doc-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing key is a no-op", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		assert.NoError(t, s.Delete(ctx, "Documents", "missing"))
		assert.NoError(t, s.Delete(ctx, "NeverCreated", "missing"))
	})

	t.Run("enumerate returns sorted keys", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		for _, key := range []string{"charlie", "alpha", "bravo", "Zulu"} {
			require.NoError(t, s.Put(ctx, "Documents", key, []byte(key)))
		}
		require.NoError(t, s.Put(ctx, "Credentials", "other", []byte("x")))

		keys, err := s.Enumerate(ctx, "Documents")
		require.NoError(t, err)
		assert.Equal(t, []string{"Zulu", "alpha", "bravo", "charlie"}, keys)
	})

	t.Run("enumerate empty table", func(t *testing.T) {
		s := newStorage(t)

		keys, err := s.Enumerate(context.Background(), "Empty")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("keys with separators round-trip", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		key := "SecureArea/key alias%2F?#"
		require.NoError(t, s.Put(ctx, "SecureArea_software", key, []byte("v")))

		got, err := s.Get(ctx, "SecureArea_software", key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		keys, err := s.Enumerate(ctx, "SecureArea_software")
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys)
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		assert.ErrorIs(t, s.Put(ctx, "", "key", nil), ErrInvalidName)
		assert.ErrorIs(t, s.Put(ctx, "Documents", "", nil), ErrInvalidName)
		_, err := s.Get(ctx, "", "key")
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.ErrorIs(t, s.Delete(ctx, "Documents", ""), ErrInvalidName)
		_, err = s.Enumerate(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("concurrent writers to distinct keys", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := fmt.Sprintf("key-%02d", i)
				assert.NoError(t, s.Put(ctx, "Concurrent", key, []byte(key)))
			}()
		}
		wg.Wait()

		keys, err := s.Enumerate(ctx, "Concurrent")
		require.NoError(t, err)
		assert.Len(t, keys, 16)
	})
}

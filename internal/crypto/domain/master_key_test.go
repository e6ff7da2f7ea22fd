package domain

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"
)

type mockKeeper struct {
	mock.Mock
}

func (m *mockKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Close() error {
	return m.Called().Error(0)
}

func newLocalKeeper(t *testing.T) KMSKeeper {
	t.Helper()
	var secret [32]byte
	_, err := rand.Read(secret[:])
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(secret)
	t.Cleanup(func() {
		_ = keeper.Close()
	})
	return keeper
}

func encryptMasterKey(t *testing.T, keeper KMSKeeper, id string, key []byte) string {
	t.Helper()
	ciphertext, err := keeper.Encrypt(context.Background(), key)
	require.NoError(t, err)
	return id + ":" + base64.StdEncoding.EncodeToString(ciphertext)
}

func TestNewMasterKeyChain(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 7

	t.Run("copies key material", func(t *testing.T) {
		mkc, err := NewMasterKeyChain("k1", &MasterKey{ID: "k1", Key: key})
		require.NoError(t, err)

		key[0] = 9
		got, ok := mkc.Get("k1")
		require.True(t, ok)
		assert.Equal(t, byte(7), got.Key[0])
		key[0] = 7
	})

	t.Run("active key must exist", func(t *testing.T) {
		_, err := NewMasterKeyChain("missing", &MasterKey{ID: "k1", Key: key})
		assert.ErrorIs(t, err, ErrActiveMasterKeyNotFound)
	})

	t.Run("empty active id", func(t *testing.T) {
		_, err := NewMasterKeyChain("", &MasterKey{ID: "k1", Key: key})
		assert.ErrorIs(t, err, ErrActiveMasterKeyIDNotSet)
	})

	t.Run("wrong key size", func(t *testing.T) {
		_, err := NewMasterKeyChain("k1", &MasterKey{ID: "k1", Key: make([]byte, 16)})
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestMasterKeyChain_Active(t *testing.T) {
	mkc, err := NewMasterKeyChain(
		"k2",
		&MasterKey{ID: "k1", Key: make([]byte, 32)},
		&MasterKey{ID: "k2", Key: make([]byte, 32)},
	)
	require.NoError(t, err)

	active, ok := mkc.Active()
	require.True(t, ok)
	assert.Equal(t, "k2", active.ID)
	assert.Equal(t, "k2", mkc.ActiveMasterKeyID())

	_, ok = mkc.Get("k3")
	assert.False(t, ok)
}

func TestMasterKeyChain_Close(t *testing.T) {
	mkc, err := NewMasterKeyChain("k1", &MasterKey{ID: "k1", Key: []byte("12345678901234567890123456789012")})
	require.NoError(t, err)

	mk, ok := mkc.Get("k1")
	require.True(t, ok)
	material := mk.Key

	mkc.Close()

	assert.Equal(t, "", mkc.ActiveMasterKeyID())
	_, ok = mkc.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, make([]byte, 32), material, "key bytes must be zeroed on close")
}

func TestLoadMasterKeyChain(t *testing.T) {
	ctx := context.Background()
	keeper := newLocalKeeper(t)

	key1 := make([]byte, 32)
	key2 := []byte("12345678901234567890123456789012")
	entry1 := encryptMasterKey(t, keeper, "key1", key1)
	entry2 := encryptMasterKey(t, keeper, "key2", key2)

	t.Run("loads and decrypts every key", func(t *testing.T) {
		mkc, err := LoadMasterKeyChain(ctx, keeper, entry1+", "+entry2, "key2")
		require.NoError(t, err)
		defer mkc.Close()

		mk, ok := mkc.Get("key1")
		require.True(t, ok)
		assert.Equal(t, key1, mk.Key)

		active, ok := mkc.Active()
		require.True(t, ok)
		assert.Equal(t, key2, active.Key)
	})

	tests := []struct {
		name     string
		rawKeys  string
		activeID string
		wantErr  error
	}{
		{name: "missing keys", rawKeys: "", activeID: "key1", wantErr: ErrMasterKeysNotSet},
		{name: "missing active id", rawKeys: entry1, activeID: "", wantErr: ErrActiveMasterKeyIDNotSet},
		{name: "malformed entry", rawKeys: "key1", activeID: "key1", wantErr: ErrInvalidMasterKeysFormat},
		{name: "empty id", rawKeys: ":abcd", activeID: "key1", wantErr: ErrInvalidMasterKeysFormat},
		{name: "bad base64", rawKeys: "key1:%%%", activeID: "key1", wantErr: ErrInvalidMasterKeyBase64},
		{name: "active not configured", rawKeys: entry1, activeID: "key9", wantErr: ErrActiveMasterKeyNotFound},
		{name: "duplicate id", rawKeys: entry1 + "," + entry1, activeID: "key1", wantErr: ErrInvalidMasterKeysFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mkc, err := LoadMasterKeyChain(ctx, keeper, tt.rawKeys, tt.activeID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, mkc)
		})
	}
}

func TestLoadMasterKeyChain_KeeperFailure(t *testing.T) {
	ctx := context.Background()
	keeper := &mockKeeper{}
	keeper.On("Decrypt", ctx, []byte("ciphertext")).Return(nil, errors.New("access denied"))

	raw := "key1:" + base64.StdEncoding.EncodeToString([]byte("ciphertext"))
	mkc, err := LoadMasterKeyChain(ctx, keeper, raw, "key1")
	assert.Nil(t, mkc)
	assert.ErrorContains(t, err, "failed to decrypt master key key1")
	keeper.AssertExpectations(t)
}

func TestLoadMasterKeyChain_ZeroesPlaintexts(t *testing.T) {
	ctx := context.Background()
	keeper := &mockKeeper{}
	plaintext := []byte("abcdefghijklmnopqrstuvwxyz012345")
	keeper.On("Decrypt", ctx, []byte("ct")).Return(plaintext, nil)

	raw := "key1:" + base64.StdEncoding.EncodeToString([]byte("ct"))
	mkc, err := LoadMasterKeyChain(ctx, keeper, raw, "key1")
	require.NoError(t, err)
	defer mkc.Close()

	assert.Equal(t, make([]byte, 32), plaintext, "keeper plaintext must be zeroed")

	mk, ok := mkc.Get("key1")
	require.True(t, ok)
	assert.Equal(t, []byte("abcdefghijklmnopqrstuvwxyz012345"), mk.Key)
}

func TestMasterKeyIDs(t *testing.T) {
	ids, err := MasterKeyIDs("a:Zm9v, b:YmFy,c:YmF6")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	_, err = MasterKeyIDs("")
	assert.ErrorIs(t, err, ErrMasterKeysNotSet)

	_, err = MasterKeyIDs("a:Zm9v,a:YmFy")
	assert.ErrorIs(t, err, ErrInvalidMasterKeysFormat)
}

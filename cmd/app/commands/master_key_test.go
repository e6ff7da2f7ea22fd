package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
)

type mockKMSService struct {
	mock.Mock
}

func (m *mockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoDomain.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoDomain.KMSKeeper), args.Error(1)
}

type mockKMSKeeper struct {
	mock.Mock
}

func (m *mockKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKMSKeeper) Close() error {
	return m.Called().Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="

func TestRunCreateMasterKey(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("success", func(t *testing.T) {
		mockService := &mockKMSService{}
		mockKeeper := &mockKMSKeeper{}

		mockService.On("OpenKeeper", ctx, "base64key://...").Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.MatchedBy(func(b []byte) bool { return len(b) == 32 })).
			Return([]byte("encrypted"), nil)
		mockKeeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, mockService, logger, &out, "test-key", "localsecrets", "base64key://...")
		require.NoError(t, err)

		expected := base64.StdEncoding.EncodeToString([]byte("encrypted"))
		assert.Contains(t, out.String(), `MASTER_KEYS="test-key:`+expected+`"`)
		assert.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="test-key"`)

		mockService.AssertExpectations(t)
		mockKeeper.AssertExpectations(t)
	})

	t.Run("default-key-id", func(t *testing.T) {
		mockService := &mockKMSService{}
		mockKeeper := &mockKMSKeeper{}
		mockService.On("OpenKeeper", ctx, "base64key://...").Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.Anything).Return([]byte("encrypted"), nil)
		mockKeeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, mockService, logger, &out, "", "localsecrets", "base64key://...")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`ACTIVE_MASTER_KEY_ID="master-key-\d{4}-\d{2}-\d{2}"`), out.String())
	})

	t.Run("missing-parameters", func(t *testing.T) {
		err := RunCreateMasterKey(ctx, nil, logger, nil, "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("kms-error", func(t *testing.T) {
		mockService := &mockKMSService{}
		mockService.On("OpenKeeper", ctx, "base64key://broken").Return(nil, errors.New("kms error"))

		err := RunCreateMasterKey(ctx, mockService, logger, &bytes.Buffer{}, "test-key", "localsecrets", "base64key://broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})

	t.Run("provider-scheme-mismatch", func(t *testing.T) {
		err := RunCreateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "k", "awskms", testKeyURI)
		assert.ErrorIs(t, err, cryptoDomain.ErrKMSProviderMismatch)
	})

	t.Run("unsupported-scheme", func(t *testing.T) {
		err := RunCreateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "k", "localsecrets", "invalid")
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedKMSScheme)
	})

	t.Run("encrypt-error-closes-keeper", func(t *testing.T) {
		mockService := &mockKMSService{}
		mockKeeper := &mockKMSKeeper{}
		mockService.On("OpenKeeper", ctx, "base64key://...").Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.Anything).Return(nil, errors.New("denied"))
		mockKeeper.On("Close").Return(nil)

		err := RunCreateMasterKey(ctx, mockService, logger, &bytes.Buffer{}, "k", "localsecrets", "base64key://...")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to encrypt master key")
		mockKeeper.AssertCalled(t, "Close")
	})

	t.Run("loads-with-real-keeper", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, cryptoService.NewKMSService(), logger, &out, "k1", "localsecrets", testKeyURI)
		require.NoError(t, err)

		match := regexp.MustCompile(`MASTER_KEYS="([^"]+)"`).FindStringSubmatch(out.String())
		require.Len(t, match, 2)

		keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, testKeyURI)
		require.NoError(t, err)
		defer func() {
			_ = keeper.Close()
		}()

		chain, err := cryptoDomain.LoadMasterKeyChain(ctx, keeper, match[1], "k1")
		require.NoError(t, err)
		defer chain.Close()

		active, ok := chain.Active()
		require.True(t, ok)
		assert.Len(t, active.Key, 32)
	})
}

func TestRunRotateMasterKey(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("appends-new-active-key", func(t *testing.T) {
		mockService := &mockKMSService{}
		mockKeeper := &mockKMSKeeper{}
		mockService.On("OpenKeeper", ctx, testKeyURI).Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.Anything).Return([]byte("new"), nil)
		mockKeeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunRotateMasterKey(
			ctx, mockService, logger, &out,
			"new-key", "localsecrets", testKeyURI, "old-key:b2xk", "old-key",
		)
		require.NoError(t, err)

		newCiphertext := base64.StdEncoding.EncodeToString([]byte("new"))
		assert.Contains(t, out.String(), `MASTER_KEYS="old-key:b2xk,new-key:`+newCiphertext+`"`)
		assert.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="new-key"`)
	})

	t.Run("requires-existing-keys", func(t *testing.T) {
		err := RunRotateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "new", "localsecrets", testKeyURI, "", "old")
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeysNotSet)

		err = RunRotateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "new", "localsecrets", testKeyURI, "old:b2xk", "")
		assert.ErrorIs(t, err, cryptoDomain.ErrActiveMasterKeyIDNotSet)
	})

	t.Run("rejects-configured-id", func(t *testing.T) {
		for _, id := range []string{"old", "older"} {
			err := RunRotateMasterKey(
				ctx, nil, logger, &bytes.Buffer{},
				id, "localsecrets", testKeyURI, "older:b2xk,old:b2xk", "old",
			)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "already configured")
		}
	})

	t.Run("rejects-malformed-existing-keys", func(t *testing.T) {
		err := RunRotateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "new", "localsecrets", testKeyURI, "old", "old")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidMasterKeysFormat)
	})

	t.Run("missing-kms-parameters", func(t *testing.T) {
		err := RunRotateMasterKey(ctx, nil, logger, &bytes.Buffer{}, "new", "", "", "old:b2xk", "old")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})
}

package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
)

const kmsParamsHelp = `--kms-provider and --kms-key-uri are required

For local development, use:
  --kms-provider=localsecrets --kms-key-uri="base64key://<32-byte-base64-key>"

For production, use a cloud KMS provider:
  --kms-provider=awskms --kms-key-uri="awskms:///alias/..."
  --kms-provider=gcpkms --kms-key-uri="gcpkms://projects/.../cryptoKeys/..."`

// RunCreateMasterKey generates a 32-byte master key, encrypts it with the KMS
// keeper at kmsKeyURI and prints the environment variables that load it.
// If keyID is empty a default of the form "master-key-YYYY-MM-DD" is used.
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf("%s", kmsParamsHelp)
	}
	if err := cryptoService.ValidateKeyURI(kmsProvider, kmsKeyURI); err != nil {
		return err
	}
	keyID = defaultMasterKeyID(keyID)

	encodedKey, err := encryptNewMasterKey(ctx, kmsService, kmsKeyURI)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, "# Master Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)

	logger.Info("master key created",
		slog.String("key_id", keyID),
		slog.String("kms_provider", kmsProvider),
	)
	return nil
}

// RunRotateMasterKey appends a new master key to existingMasterKeys and makes
// it active. Keys wrapped under older master keys stay readable as long as
// those keys remain listed.
func RunRotateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI, existingMasterKeys, existingActiveKeyID string,
) error {
	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf("%s", kmsParamsHelp)
	}
	if err := cryptoService.ValidateKeyURI(kmsProvider, kmsKeyURI); err != nil {
		return err
	}
	existingIDs, err := cryptoDomain.MasterKeyIDs(existingMasterKeys)
	if err != nil {
		return err
	}
	if existingActiveKeyID == "" {
		return cryptoDomain.ErrActiveMasterKeyIDNotSet
	}
	keyID = defaultMasterKeyID(keyID)
	if slices.Contains(existingIDs, keyID) {
		return fmt.Errorf("master key id %q is already configured", keyID)
	}

	encodedKey, err := encryptNewMasterKey(ctx, kmsService, kmsKeyURI)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, "# Master Key Rotation")
	_, _ = fmt.Fprintln(writer, "# Update these environment variables and restart the server")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s,%s:%s\"\n", existingMasterKeys, keyID, encodedKey)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer,
		"# Keep %q listed until every credential sealed under it has been deleted.\n",
		existingActiveKeyID,
	)

	logger.Info("master key rotated",
		slog.String("previous_key_id", existingActiveKeyID),
		slog.String("key_id", keyID),
	)
	return nil
}

func defaultMasterKeyID(keyID string) string {
	if keyID != "" {
		return keyID
	}
	return fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
}

// encryptNewMasterKey returns the base64 KMS ciphertext of a fresh random key.
// The plaintext is zeroed before returning.
func encryptNewMasterKey(ctx context.Context, kmsService cryptoService.KMSService, kmsKeyURI string) (string, error) {
	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return "", fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	"github.com/allisson/credstore/internal/securearea/repository"
)

// DefaultKMSPendingWindowDays is the waiting period before AWS destroys a
// key scheduled for deletion.
const DefaultKMSPendingWindowDays = 7

// AWSKMSSecureArea keeps private keys in AWS KMS. Only the KMS key id, public
// key and attestation chain are stored locally.
//
// Authentication and validity windows are enforced locally before any KMS call.
type AWSKMSSecureArea struct {
	identifier    string
	client        KMSClient
	records       *repository.KeyRecordRepository
	attester      Attester
	gate          *AuthGate
	pendingWindow int32
	logger        *slog.Logger
	now           func() time.Time

	createMu sync.Mutex
}

// NewAWSKMSSecureArea creates a KMS-backed secure area. A non-positive
// pendingWindowDays uses DefaultKMSPendingWindowDays.
func NewAWSKMSSecureArea(
	identifier string,
	client KMSClient,
	records *repository.KeyRecordRepository,
	attester Attester,
	gate *AuthGate,
	pendingWindowDays int,
	logger *slog.Logger,
) *AWSKMSSecureArea {
	if pendingWindowDays <= 0 {
		pendingWindowDays = DefaultKMSPendingWindowDays
	}
	return &AWSKMSSecureArea{
		identifier:    identifier,
		client:        client,
		records:       records,
		attester:      attester,
		gate:          gate,
		pendingWindow: int32(pendingWindowDays),
		logger:        logger,
		now:           time.Now,
	}
}

// Identifier implements SecureArea.
func (a *AWSKMSSecureArea) Identifier() string {
	return a.identifier
}

// DisplayName implements SecureArea.
func (a *AWSKMSSecureArea) DisplayName() string {
	return "AWS KMS Secure Area"
}

// SupportedAlgorithms implements SecureArea. KMS offers NIST curves only.
func (a *AWSKMSSecureArea) SupportedAlgorithms() []secureAreaDomain.Algorithm {
	return []secureAreaDomain.Algorithm{
		secureAreaDomain.ES256,
		secureAreaDomain.ES384,
		secureAreaDomain.ES512,
		secureAreaDomain.ECDHP256,
		secureAreaDomain.ECDHP384,
	}
}

// CreateKey creates an asymmetric KMS key and records it locally.
//
// Once KMS has created the key a provisional record is written, so any
// subsequent failure returns the partial KeyInfo along with the error and the
// key can be removed with DeleteKey. If that record cannot be written the KMS
// key is scheduled for deletion before returning.
func (a *AWSKMSSecureArea) CreateKey(
	ctx context.Context,
	alias string,
	settings secureAreaDomain.KeySettings,
) (*secureAreaDomain.KeyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alias, err := prepareCreate(alias, settings, a.SupportedAlgorithms())
	if err != nil {
		return nil, err
	}
	keySpec, keyUsage := kmsKeySpec(settings.Algorithm)

	a.createMu.Lock()
	defer a.createMu.Unlock()

	exists, err := a.records.Exists(ctx, alias)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", secureAreaDomain.ErrKeyAlreadyExists, alias)
	}

	record := &secureAreaDomain.KeyRecord{
		Alias:      alias,
		Algorithm:  settings.Algorithm,
		ValidFrom:  settings.ValidFrom,
		ValidUntil: settings.ValidUntil,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.gate.Protect(record, settings); err != nil {
		return nil, err
	}

	created, err := a.client.CreateKey(ctx, &kms.CreateKeyInput{
		KeySpec:     keySpec,
		KeyUsage:    keyUsage,
		Description: aws.String(fmt.Sprintf("credstore %s/%s", a.identifier, alias)),
		Tags: []types.Tag{
			{TagKey: aws.String("credstore:secure-area"), TagValue: aws.String(a.identifier)},
			{TagKey: aws.String("credstore:alias"), TagValue: aws.String(alias)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kms key: %w", err)
	}
	if created.KeyMetadata == nil || created.KeyMetadata.KeyId == nil {
		return nil, errors.New("kms create key returned no key id")
	}
	record.ExternalKeyID = aws.ToString(created.KeyMetadata.KeyId)

	// The remote key exists from here on; record it even if ctx is cancelled.
	// Without a record DeleteKey cannot find it, so it is discarded here.
	if err := a.records.Save(context.WithoutCancel(ctx), record); err != nil {
		return nil, a.discardUnrecorded(ctx, alias, record.ExternalKeyID, err)
	}

	pubOut, err := a.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: created.KeyMetadata.KeyId})
	if err != nil {
		return record.Info(a.identifier), fmt.Errorf("failed to get kms public key: %w", err)
	}
	record.PublicKey = pubOut.PublicKey

	info := record.Info(a.identifier)
	pub, err := info.ParsePublicKey()
	if err != nil {
		return info, err
	}
	chain, err := a.attester.Attest(a.identifier, alias, pub, settings)
	if err != nil {
		return info, err
	}
	record.AttestationChain = chain

	if err := ctx.Err(); err != nil {
		return record.Info(a.identifier), err
	}
	if err := a.records.Save(ctx, record); err != nil {
		return record.Info(a.identifier), err
	}

	a.logger.Debug("kms key created",
		slog.String("secure_area", a.identifier),
		slog.String("alias", alias),
		slog.String("kms_key_id", record.ExternalKeyID),
	)
	return record.Info(a.identifier), nil
}

// GetKeyInfo implements SecureArea.
func (a *AWSKMSSecureArea) GetKeyInfo(ctx context.Context, alias string) (*secureAreaDomain.KeyInfo, error) {
	record, err := a.records.Get(ctx, alias)
	if err != nil {
		return nil, err
	}
	return record.Info(a.identifier), nil
}

// Sign signs the digest of data in KMS and returns the raw r||s signature.
func (a *AWSKMSSecureArea) Sign(
	ctx context.Context,
	alias string,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	record, err := a.authorize(ctx, alias, secureAreaDomain.PurposeSign, unlock)
	if err != nil {
		return nil, err
	}

	sum, err := digest(record.Algorithm, data)
	if err != nil {
		return nil, err
	}

	out, err := a.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(record.ExternalKeyID),
		Message:          sum,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: kmsSigningAlgorithm(record.Algorithm),
	})
	if err != nil {
		return nil, a.mapError(alias, "failed to sign with kms", err)
	}
	return rawFromDERSignature(out.Signature, record.Algorithm.SignatureSize())
}

// KeyAgreement derives the ECDH shared secret in KMS.
func (a *AWSKMSSecureArea) KeyAgreement(
	ctx context.Context,
	alias string,
	otherPublicKey []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	record, err := a.authorize(ctx, alias, secureAreaDomain.PurposeAgreeKey, unlock)
	if err != nil {
		return nil, err
	}

	peer, err := parsePeerPublicKey(record.Algorithm.ECDHCurve(), otherPublicKey)
	if err != nil {
		return nil, err
	}
	peerDER, err := marshalPeerPublicKey(peer)
	if err != nil {
		return nil, err
	}

	out, err := a.client.DeriveSharedSecret(ctx, &kms.DeriveSharedSecretInput{
		KeyId:                 aws.String(record.ExternalKeyID),
		KeyAgreementAlgorithm: types.KeyAgreementAlgorithmSpecEcdh,
		PublicKey:             peerDER,
	})
	if err != nil {
		return nil, a.mapError(alias, "failed to derive shared secret with kms", err)
	}
	return out.SharedSecret, nil
}

// DeleteKey schedules the KMS key for deletion and removes the local record.
// Unknown aliases and keys already pending deletion are not errors.
func (a *AWSKMSSecureArea) DeleteKey(ctx context.Context, alias string) error {
	record, err := a.records.Get(ctx, alias)
	if errors.Is(err, secureAreaDomain.ErrKeyNotFound) {
		a.gate.Revoke(alias)
		return nil
	}
	if err != nil {
		return err
	}

	if record.ExternalKeyID != "" {
		_, err := a.client.ScheduleKeyDeletion(ctx, &kms.ScheduleKeyDeletionInput{
			KeyId:               aws.String(record.ExternalKeyID),
			PendingWindowInDays: aws.Int32(a.pendingWindow),
		})
		var notFound *types.NotFoundException
		var invalidState *types.KMSInvalidStateException
		if err != nil && !errors.As(err, &notFound) && !errors.As(err, &invalidState) {
			return fmt.Errorf("failed to schedule kms key deletion: %w", err)
		}
	}

	if err := a.records.Delete(ctx, alias); err != nil {
		return err
	}
	a.gate.Revoke(alias)
	return nil
}

// ListKeys returns the aliases with a local record. KMS keys created outside
// this secure area are not listed.
func (a *AWSKMSSecureArea) ListKeys(ctx context.Context) ([]string, error) {
	return a.records.List(ctx)
}

// discardUnrecorded schedules deletion of a KMS key whose record could not be
// written. cause is always returned; a failed deletion is joined to it.
func (a *AWSKMSSecureArea) discardUnrecorded(ctx context.Context, alias, kmsKeyID string, cause error) error {
	_, err := a.client.ScheduleKeyDeletion(context.WithoutCancel(ctx), &kms.ScheduleKeyDeletionInput{
		KeyId:               aws.String(kmsKeyID),
		PendingWindowInDays: aws.Int32(a.pendingWindow),
	})
	if err != nil {
		a.logger.Error("kms key left without a local record",
			slog.String("secure_area", a.identifier),
			slog.String("alias", alias),
			slog.String("kms_key_id", kmsKeyID),
			slog.Any("error", err),
		)
		return errors.Join(cause, fmt.Errorf("failed to schedule deletion of kms key %s: %w", kmsKeyID, err))
	}
	return cause
}

func (a *AWSKMSSecureArea) authorize(
	ctx context.Context,
	alias string,
	purpose secureAreaDomain.Purpose,
	unlock *secureAreaDomain.KeyUnlockData,
) (*secureAreaDomain.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := a.records.Get(ctx, alias)
	if err != nil {
		return nil, err
	}
	if err := record.CheckUsable(purpose, a.now()); err != nil {
		return nil, err
	}
	if err := a.gate.Authorize(record, unlock); err != nil {
		return nil, err
	}
	if record.ExternalKeyID == "" || len(record.PublicKey) == 0 {
		return nil, fmt.Errorf("%w: incomplete kms key %s", secureAreaDomain.ErrKeyNotFound, alias)
	}
	return record, nil
}

// mapError reports a key deleted out of band as ErrKeyNotFound.
func (a *AWSKMSSecureArea) mapError(alias, msg string, err error) error {
	var notFound *types.NotFoundException
	var disabled *types.DisabledException
	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %s", secureAreaDomain.ErrKeyNotFound, alias)
	case errors.As(err, &disabled):
		return fmt.Errorf("%w: %s", secureAreaDomain.ErrKeyNotValid, alias)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func kmsKeySpec(alg secureAreaDomain.Algorithm) (types.KeySpec, types.KeyUsageType) {
	switch alg {
	case secureAreaDomain.ES384:
		return types.KeySpecEccNistP384, types.KeyUsageTypeSignVerify
	case secureAreaDomain.ES512:
		return types.KeySpecEccNistP521, types.KeyUsageTypeSignVerify
	case secureAreaDomain.ECDHP256:
		return types.KeySpecEccNistP256, types.KeyUsageTypeKeyAgreement
	case secureAreaDomain.ECDHP384:
		return types.KeySpecEccNistP384, types.KeyUsageTypeKeyAgreement
	default:
		return types.KeySpecEccNistP256, types.KeyUsageTypeSignVerify
	}
}

func kmsSigningAlgorithm(alg secureAreaDomain.Algorithm) types.SigningAlgorithmSpec {
	switch alg {
	case secureAreaDomain.ES384:
		return types.SigningAlgorithmSpecEcdsaSha384
	case secureAreaDomain.ES512:
		return types.SigningAlgorithmSpecEcdsaSha512
	default:
		return types.SigningAlgorithmSpecEcdsaSha256
	}
}

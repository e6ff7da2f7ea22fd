package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSClient is the subset of the AWS KMS API used by AWSKMSSecureArea.
// *kms.Client satisfies it; tests substitute a fake.
type KMSClient interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	GetPublicKey(
		ctx context.Context,
		params *kms.GetPublicKeyInput,
		optFns ...func(*kms.Options),
	) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	DeriveSharedSecret(
		ctx context.Context,
		params *kms.DeriveSharedSecretInput,
		optFns ...func(*kms.Options),
	) (*kms.DeriveSharedSecretOutput, error)
	ScheduleKeyDeletion(
		ctx context.Context,
		params *kms.ScheduleKeyDeletionInput,
		optFns ...func(*kms.Options),
	) (*kms.ScheduleKeyDeletionOutput, error)
}

// NewAWSKMSClient loads the default AWS configuration chain (environment,
// shared config, instance role) for region and returns a KMS client.
func NewAWSKMSClient(ctx context.Context, region string) (*kms.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return kms.NewFromConfig(cfg, func(o *kms.Options) {
		o.RetryMaxAttempts = 3
	}), nil
}

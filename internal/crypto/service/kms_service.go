package service

import (
	"context"
	"fmt"
	"net/url"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsSchemes maps each KMS_PROVIDER value to the keeper URI scheme it uses.
var kmsSchemes = map[string]string{
	"localsecrets":  "base64key",
	"gcpkms":        "gcpkms",
	"awskms":        "awskms",
	"azurekeyvault": "azurekeyvault",
	"hashivault":    "hashivault",
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens the keeper at keyURI after checking its scheme.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	if err := ValidateKeyURI("", keyURI); err != nil {
		return nil, err
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// ValidateKeyURI checks that keyURI has a supported scheme and, when provider is
// set, that the scheme belongs to that provider. The localsecrets provider is
// for development only; its key lives in the URI itself.
func ValidateKeyURI(provider, keyURI string) error {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedKMSScheme, redactKeyURI(keyURI))
	}

	if provider == "" {
		for _, scheme := range kmsSchemes {
			if scheme == u.Scheme {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", cryptoDomain.ErrUnsupportedKMSScheme, u.Scheme)
	}

	scheme, ok := kmsSchemes[provider]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", cryptoDomain.ErrKMSProviderMismatch, provider)
	}
	if scheme != u.Scheme {
		return fmt.Errorf("%w: provider %q expects %s://, got %s://",
			cryptoDomain.ErrKMSProviderMismatch, provider, scheme, u.Scheme)
	}
	return nil
}

// redactKeyURI keeps base64key material out of error messages.
func redactKeyURI(keyURI string) string {
	if len(keyURI) > 12 {
		return keyURI[:12] + "..."
	}
	return keyURI
}

package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
)

// KMSService opens gocloud.dev keepers; it holds no state of its own.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceOnce.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterKeyChain returns the master keys decrypted through KMS_KEY_URI.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	return c.masterKeyChain.get(c.initMasterKeyChain)
}

// KeyWrapper seals software secure area keys under the active master key.
func (c *Container) KeyWrapper() (cryptoService.KeyWrapper, error) {
	return c.keyWrapper.get(c.initKeyWrapper)
}

// initMasterKeyChain opens the keeper, decrypts every master key and closes
// the keeper again.
func (c *Container) initMasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	if c.config.KMSKeyURI == "" {
		return nil, fmt.Errorf("KMS_KEY_URI is required to load master keys")
	}
	if err := cryptoService.ValidateKeyURI(c.config.KMSProvider, c.config.KMSKeyURI); err != nil {
		return nil, err
	}

	ctx := context.Background()
	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	chain, err := cryptoDomain.LoadMasterKeyChain(ctx, keeper, c.config.MasterKeys, c.config.ActiveMasterKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}

	c.Logger().Info("master key chain loaded",
		"kms_provider", c.config.KMSProvider,
		"active_master_key_id", chain.ActiveMasterKeyID(),
	)
	return chain, nil
}

func (c *Container) initKeyWrapper() (cryptoService.KeyWrapper, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.KeyWrapAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid KEY_WRAP_ALGORITHM: %w", err)
	}

	chain, err := c.MasterKeyChain()
	if err != nil {
		return nil, err
	}

	return cryptoService.NewKeyWrapper(cryptoService.NewAEADManager(), chain, algorithm), nil
}

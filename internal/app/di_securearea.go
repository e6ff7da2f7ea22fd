package app

import (
	"context"
	"fmt"

	secureAreaHTTP "github.com/allisson/credstore/internal/securearea/http"
	"github.com/allisson/credstore/internal/securearea/repository"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
)

// Registered secure area identifiers.
const (
	SoftwareSecureAreaID = "software"
	AWSKMSSecureAreaID   = "aws-kms"
)

// Attester returns the attestation root shared by every secure area.
func (c *Container) Attester() (*secureAreaService.X509Attester, error) {
	return c.attester.get(func() (*secureAreaService.X509Attester, error) {
		return secureAreaService.NewX509Attester(c.config.AttestationSubject)
	})
}

// SecureAreaRepository returns the registry of enabled secure areas.
func (c *Container) SecureAreaRepository() (*secureAreaService.Repository, error) {
	return c.secureAreaRepository.get(c.initSecureAreaRepository)
}

// SecureAreaHandler serves /v1/secure-areas.
func (c *Container) SecureAreaHandler() (*secureAreaHTTP.SecureAreaHandler, error) {
	return c.secureAreaHandler.get(func() (*secureAreaHTTP.SecureAreaHandler, error) {
		areas, err := c.SecureAreaRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get secure area repository for secure area handler: %w", err)
		}
		return secureAreaHTTP.NewSecureAreaHandler(areas, c.Logger()), nil
	})
}

// initSecureAreaRepository builds every enabled backend. Each backend gets
// its own AuthGate so unlock sessions never leak across backends.
func (c *Container) initSecureAreaRepository() (*secureAreaService.Repository, error) {
	if !c.config.SoftwareSecureAreaEnabled && !c.config.AWSKMSSecureAreaEnabled {
		return nil, fmt.Errorf("no secure area enabled")
	}

	st, err := c.Storage()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage for secure areas: %w", err)
	}

	attester, err := c.Attester()
	if err != nil {
		return nil, fmt.Errorf("failed to get attester for secure areas: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for secure areas: %w", err)
	}

	logger := c.Logger()
	builder := secureAreaService.NewRepositoryBuilder()

	if c.config.SoftwareSecureAreaEnabled {
		wrapper, err := c.KeyWrapper()
		if err != nil {
			return nil, fmt.Errorf("failed to get key wrapper for software secure area: %w", err)
		}
		gate, err := secureAreaService.NewAuthGate()
		if err != nil {
			return nil, err
		}

		var sa secureAreaService.SecureArea = secureAreaService.NewSoftwareSecureArea(
			SoftwareSecureAreaID,
			repository.NewKeyRecordRepository(st, SoftwareSecureAreaID),
			wrapper,
			attester,
			gate,
			logger,
		)
		if c.config.MetricsEnabled {
			sa = secureAreaService.NewSecureAreaWithMetrics(sa, businessMetrics)
		}
		builder.Add(sa)
	}

	if c.config.AWSKMSSecureAreaEnabled {
		client, err := secureAreaService.NewAWSKMSClient(context.Background(), c.config.AWSRegion)
		if err != nil {
			return nil, err
		}
		gate, err := secureAreaService.NewAuthGate()
		if err != nil {
			return nil, err
		}

		var sa secureAreaService.SecureArea = secureAreaService.NewAWSKMSSecureArea(
			AWSKMSSecureAreaID,
			client,
			repository.NewKeyRecordRepository(st, AWSKMSSecureAreaID),
			attester,
			gate,
			c.config.AWSKMSDeletionWindowDays,
			logger,
		)
		if c.config.MetricsEnabled {
			sa = secureAreaService.NewSecureAreaWithMetrics(sa, businessMetrics)
		}
		builder.Add(sa)
	}

	return builder.Build()
}

package app

import (
	"fmt"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	documentHTTP "github.com/allisson/credstore/internal/document/http"
	"github.com/allisson/credstore/internal/document/repository"
	documentUseCase "github.com/allisson/credstore/internal/document/usecase"
)

// DocumentStore returns the document store, wrapped with metrics when enabled.
func (c *Container) DocumentStore() (documentUseCase.DocumentStore, error) {
	return c.documentStore.get(c.initDocumentStore)
}

// DocumentTypes returns the registry of known document types.
func (c *Container) DocumentTypes() (*documentDomain.DocumentTypeRepository, error) {
	return c.documentTypes.get(func() (*documentDomain.DocumentTypeRepository, error) {
		return documentDomain.NewDocumentTypeBuilder().
			Add(documentDomain.DrivingLicense).
			Build()
	})
}

// DocumentHandler serves /v1/documents and /v1/document-types.
func (c *Container) DocumentHandler() (*documentHTTP.DocumentHandler, error) {
	return c.documentHandler.get(func() (*documentHTTP.DocumentHandler, error) {
		store, err := c.DocumentStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get document store for document handler: %w", err)
		}
		types, err := c.DocumentTypes()
		if err != nil {
			return nil, fmt.Errorf("failed to get document types for document handler: %w", err)
		}
		return documentHTTP.NewDocumentHandler(store, types, c.Logger()), nil
	})
}

func (c *Container) initDocumentStore() (documentUseCase.DocumentStore, error) {
	st, err := c.Storage()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage for document store: %w", err)
	}

	areas, err := c.SecureAreaRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get secure area repository for document store: %w", err)
	}

	types, err := c.DocumentTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get document types for document store: %w", err)
	}

	baseStore := documentUseCase.NewDocumentStore(
		repository.NewDocumentRepository(st),
		repository.NewCredentialRepository(st),
		areas,
		types,
		nil,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for document store: %w", err)
		}
		return documentUseCase.NewDocumentStoreWithMetrics(baseStore, businessMetrics), nil
	}

	return baseStore, nil
}

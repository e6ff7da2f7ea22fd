// Package http provides HTTP handlers for documents and their credentials.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/document/http/dto"
	documentUseCase "github.com/allisson/credstore/internal/document/usecase"
	"github.com/allisson/credstore/internal/httputil"
	customValidation "github.com/allisson/credstore/internal/validation"
)

// TypeCatalog lists document types. *domain.DocumentTypeRepository implements it.
type TypeCatalog interface {
	All() []documentDomain.DocumentType
}

// DocumentHandler handles HTTP requests for documents and credentials.
type DocumentHandler struct {
	store  documentUseCase.DocumentStore
	types  TypeCatalog
	logger *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	store documentUseCase.DocumentStore,
	types TypeCatalog,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		store:  store,
		types:  types,
		logger: logger,
	}
}

// ListDocumentTypesHandler lists the registered document types.
// GET /v1/document-types
func (h *DocumentHandler) ListDocumentTypesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapDocumentTypesToResponse(h.types.All()))
}

// CreateHandler creates a document.
// POST /v1/documents - Returns 201 Created.
func (h *DocumentHandler) CreateHandler(c *gin.Context) {
	var req dto.MetadataRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	doc, err := h.store.CreateDocument(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDocumentToResponse(doc))
}

// ListHandler lists document ids.
// GET /v1/documents?offset=0&limit=50
func (h *DocumentHandler) ListHandler(c *gin.Context) {
	pagination, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	ids, err := h.store.ListDocuments(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	page, info := httputil.Paginate(ids, pagination)
	c.JSON(http.StatusOK, dto.MapDocumentIDsToListResponse(page, info))
}

// GetHandler returns a document.
// GET /v1/documents/:id
func (h *DocumentHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.store.LookupDocument(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(doc))
}

// UpdateMetadataHandler replaces the metadata of a document.
// PUT /v1/documents/:id/metadata
func (h *DocumentHandler) UpdateMetadataHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.MetadataRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	doc, err := h.store.UpdateMetadata(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(doc))
}

// DeleteHandler deletes a document with its credentials and keys.
// DELETE /v1/documents/:id - Returns 204 No Content.
func (h *DocumentHandler) DeleteHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// AddCredentialHandler provisions a key and adds the credential to a document.
// POST /v1/documents/:id/credentials - Returns 201 Created.
func (h *DocumentHandler) AddCredentialHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddCredentialRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	credential, err := h.store.AddCredential(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCredentialToResponse(credential))
}

// ListCredentialsHandler lists the credentials of a document.
// GET /v1/documents/:id/credentials
func (h *DocumentHandler) ListCredentialsHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	credentials, err := h.store.ListCredentials(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCredentialsToListResponse(credentials))
}

// DeleteCredentialHandler deletes one credential of a document.
// DELETE /v1/documents/:id/credentials/:credentialId - Returns 204 No Content.
func (h *DocumentHandler) DeleteCredentialHandler(c *gin.Context) {
	documentID, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	credentialID, ok := h.parseID(c, "credentialId")
	if !ok {
		return
	}

	if err := h.store.DeleteCredential(c.Request.Context(), documentID, credentialID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// SignHandler signs data with a credential key.
// POST /v1/credentials/:id/sign - Returns 401 authentication_required when the
// key is locked and no passphrase was sent.
func (h *DocumentHandler) SignHandler(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.SignRequest
	if !h.bind(c, &req, req.Validate) {
		return
	}

	signature, err := h.store.Sign(c.Request.Context(), id, req.Data, req.UnlockData())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SignResponse{Signature: signature})
}

func (h *DocumentHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid %s: must be a UUID", param), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *DocumentHandler) bind(c *gin.Context, req any, validate func() error) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return false
	}
	if err := validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return false
	}
	return true
}

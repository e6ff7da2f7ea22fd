// Package http exposes the registered secure areas over HTTP.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credstore/internal/httputil"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
)

// Catalog lists registered secure areas. *service.Repository implements it.
type Catalog interface {
	Identifiers() []string
	Resolve(identifier string) (secureAreaService.SecureArea, error)
}

// SecureAreaResponse describes a registered secure area.
type SecureAreaResponse struct {
	Identifier  string   `json:"identifier"`
	DisplayName string   `json:"display_name"`
	Algorithms  []string `json:"algorithms"`
}

// ListSecureAreasResponse lists the registered secure areas.
type ListSecureAreasResponse struct {
	Data []SecureAreaResponse `json:"data"`
}

// SecureAreaHandler serves the secure area catalog.
type SecureAreaHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewSecureAreaHandler creates a new secure area handler.
func NewSecureAreaHandler(catalog Catalog, logger *slog.Logger) *SecureAreaHandler {
	return &SecureAreaHandler{catalog: catalog, logger: logger}
}

// ListHandler lists identifiers and supported algorithms.
// GET /v1/secure-areas
func (h *SecureAreaHandler) ListHandler(c *gin.Context) {
	ids := h.catalog.Identifiers()
	data := make([]SecureAreaResponse, 0, len(ids))

	for _, id := range ids {
		sa, err := h.catalog.Resolve(id)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		algorithms := sa.SupportedAlgorithms()
		names := make([]string, 0, len(algorithms))
		for _, alg := range algorithms {
			names = append(names, string(alg))
		}

		data = append(data, SecureAreaResponse{
			Identifier:  id,
			DisplayName: sa.DisplayName(),
			Algorithms:  names,
		})
	}

	c.JSON(http.StatusOK, ListSecureAreasResponse{Data: data})
}

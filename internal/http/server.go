// Package http provides the HTTP server, router and shared middleware.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/credstore/internal/config"
	documentHTTP "github.com/allisson/credstore/internal/document/http"
	"github.com/allisson/credstore/internal/document/repository"
	"github.com/allisson/credstore/internal/metrics"
	secureAreaHTTP "github.com/allisson/credstore/internal/securearea/http"
	"github.com/allisson/credstore/internal/storage"
)

// Server represents the HTTP server.
type Server struct {
	storage storage.Storage
	server  *http.Server
	router  *gin.Engine
	logger  *slog.Logger
}

// NewServer creates a new HTTP server. The storage is probed by /ready.
func NewServer(
	st storage.Storage,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		storage: st,
		logger:  logger,
		server:  newHTTPServer(host, port, nil),
	}
}

// newHTTPServer applies the timeouts shared by the API and metrics listeners.
func newHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// listenAndServe blocks until srv stops. A graceful Shutdown is not an error.
func listenAndServe(srv *http.Server, logger *slog.Logger, name string) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// SetupRouter configures the Gin router with all routes and middleware.
// ctx bounds background work started by middleware such as the rate limiter.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	documentHandler *documentHTTP.DocumentHandler,
	secureAreaHandler *secureAreaHTTP.SecureAreaHandler,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metricsProvider.HTTPMiddleware())
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	if cfg.APIToken != "" {
		v1.Use(APITokenMiddleware(cfg.APIToken, s.logger))
	} else {
		s.logger.Warn("API_TOKEN is empty, /v1 routes are unauthenticated")
	}

	documents := v1.Group("/documents")
	{
		documents.POST("", documentHandler.CreateHandler)
		documents.GET("", documentHandler.ListHandler)
		documents.GET("/:id", documentHandler.GetHandler)
		documents.PUT("/:id/metadata", documentHandler.UpdateMetadataHandler)
		documents.DELETE("/:id", documentHandler.DeleteHandler)
		documents.POST("/:id/credentials", documentHandler.AddCredentialHandler)
		documents.GET("/:id/credentials", documentHandler.ListCredentialsHandler)
		documents.DELETE("/:id/credentials/:credentialId", documentHandler.DeleteCredentialHandler)
	}

	v1.POST("/credentials/:id/sign", documentHandler.SignHandler)
	v1.GET("/secure-areas", secureAreaHandler.ListHandler)
	v1.GET("/document-types", documentHandler.ListDocumentTypesHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router
	return listenAndServe(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler enumerates the documents table as a storage round trip.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.storage == nil {
		s.notReady(c, nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.storage.Enumerate(ctx, repository.DocumentsTable); err != nil {
		s.notReady(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"storage": "ok"},
	})
}

func (s *Server) notReady(c *gin.Context, err error) {
	if err != nil {
		s.logger.Error("readiness probe failed", slog.Any("error", err))
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":     "not_ready",
		"components": gin.H{"storage": "error"},
	})
}

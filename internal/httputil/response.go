// Package httputil holds the JSON error envelope and query helpers shared by the handlers.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/credstore/internal/errors"
)

// ErrorResponse is the body of every non-2xx response. Error is the coarse
// category; Code, when present, names the exact domain error (e.g. "key_not_found").
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	kind    error
	status  int
	name    string
	message string // fixed message; empty means err.Error() is shown
}

// errorMappings is checked in order; the first matching kind wins.
var errorMappings = []errorMapping{
	{kind: apperrors.ErrNotFound, status: http.StatusNotFound, name: "not_found",
		message: "The requested resource was not found"},
	{kind: apperrors.ErrConflict, status: http.StatusConflict, name: "conflict",
		message: "A conflict occurred with existing data"},
	{kind: apperrors.ErrInvalidInput, status: http.StatusUnprocessableEntity, name: "invalid_input"},
	// The caller prompts the holder and retries with unlock data.
	{kind: apperrors.ErrUnauthorized, status: http.StatusUnauthorized, name: "authentication_required",
		message: "The key requires user authentication"},
	{kind: apperrors.ErrForbidden, status: http.StatusForbidden, name: "forbidden"},
	{kind: apperrors.ErrIO, status: http.StatusServiceUnavailable, name: "storage_unavailable",
		message: "The storage backend is unavailable"},
}

// internalError covers ErrMisconfigured and anything unclassified. Details stay in the log.
var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	name:    "internal_error",
	message: "An internal error occurred",
}

func classify(err error) errorMapping {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.kind) {
			return m
		}
	}
	return internalError
}

// HandleErrorGin maps err to a status code and writes the JSON envelope.
// Client errors are logged at warn, server errors at error.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	m := classify(err)
	response := ErrorResponse{Error: m.name, Message: m.message}
	if response.Message == "" {
		response.Message = err.Error()
	}
	if m.status < http.StatusInternalServerError {
		response.Code = apperrors.Code(err)
	}

	if logger != nil {
		level := slog.LevelWarn
		if m.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c, level, "request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.name),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, response)
}

// HandleBadRequestGin writes 400 for malformed JSON, path or query parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes 422 for request bodies that fail Validate.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

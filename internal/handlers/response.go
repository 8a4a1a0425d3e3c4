// Package handlers contains HTTP request handlers for the booking server.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// Error kinds returned in the "error" field.
const (
	KindValidation   = "ValidationError"
	KindConflict     = "Conflict"
	KindCredential   = "InvalidCredential"
	KindUnauthorized = "Unauthorized"
	KindForbidden    = "Forbidden"
	KindNotFound     = "NotFound"
	KindSlot         = "SlotUnavailable"
	KindUpstream     = "UpstreamUnavailable"
	KindInternal     = "InternalError"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	status  int
	kind    string
	private bool
}

var errorMappings = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, KindValidation, false},
	{service.ErrConflict, http.StatusBadRequest, KindConflict, false},
	{service.ErrInvalidCredentials, http.StatusBadRequest, KindCredential, false},
	{service.ErrSlotUnavailable, http.StatusBadRequest, KindSlot, false},
	{service.ErrUnauthorized, http.StatusUnauthorized, KindUnauthorized, false},
	{service.ErrForbidden, http.StatusForbidden, KindForbidden, false},
	{service.ErrNotFound, http.StatusNotFound, KindNotFound, false},
	{service.ErrUpstreamUnavailable, http.StatusServiceUnavailable, KindUpstream, true},
	{repository.ErrUnavailable, http.StatusServiceUnavailable, KindUpstream, true},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, KindUpstream, true},
	{context.Canceled, http.StatusServiceUnavailable, KindUpstream, true},
}

// RespondError writes an error body and aborts the chain.
func RespondError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Message: message})
}

// RespondServiceError maps a service error onto its status and kind.
// Upstream and unexpected failures are logged and answered with a fixed
// message.
func RespondServiceError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.private {
			logError(c, err)
			RespondError(c, m.status, m.kind, "a required service is temporarily unavailable")
			return
		}
		RespondError(c, m.status, m.kind, err.Error())
		return
	}

	logError(c, err)
	RespondError(c, http.StatusInternalServerError, KindInternal, "internal server error")
}

// respondBindError answers malformed request bodies.
func respondBindError(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, KindValidation, "invalid request body: "+err.Error())
}

func logError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "request failed",
		"request_id", middleware.RequestIDFromContext(c),
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
}

// identity returns the authenticated caller or answers 401.
func identity(c *gin.Context) (*service.Identity, bool) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, KindUnauthorized, "authentication required")
		return nil, false
	}
	return id, true
}

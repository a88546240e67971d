package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// Caller-facing messages are fixed, localized strings. Upstream error text
// never leaks through, and the login denial reads the same whether the pre-
// or the post-check fired, so a caller cannot probe which one it was.
const (
	msgAccountDeleted      = "Ce compte a été supprimé."
	msgUpstreamUnreachable = "Service momentanément indisponible. Veuillez réessayer plus tard."
	msgAuthRequired        = "Authentification requise."
	msgIdentityMissing     = "Impossible d'identifier le compte."
	msgInternalError       = "Erreur interne du serveur."
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrAccountDeleted):
		return http.StatusForbidden, msgAccountDeleted
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		return http.StatusBadGateway, msgUpstreamUnreachable
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, msgAuthRequired
	case errors.Is(err, domain.ErrIdentityMissing):
		return http.StatusBadRequest, msgIdentityMissing
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	}

	// Unexpected error (store failures included): log the real cause,
	// return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, msgInternalError
}

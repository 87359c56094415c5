package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/api/middleware"
	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// errorResponse is the canonical error envelope for all console errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Sends the user to the login view when the API rejected the session.
//   - Maps known client and domain errors to HTTP status codes.
//   - Logs unexpected errors without leaking details to the caller.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, loginPath string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		// The client has already torn the session down.
		if errors.Is(err, apiclient.ErrUnauthorized) {
			_ = c.Redirect(http.StatusFound, middleware.LoginURL(loginPath, c.Request().RequestURI))
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

	switch {
	case errors.Is(err, domain.ErrHasDependents):
		return http.StatusConflict, "has dependent records"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apiclient.ErrTransport):
		log.Warn().Err(err).Str("path", c.Path()).Msg("api unreachable")
		return http.StatusBadGateway, "api unreachable"
	case errors.Is(err, domain.ErrInvalidResponse):
		log.Warn().Err(err).Str("path", c.Path()).Msg("invalid api response")
		return http.StatusBadGateway, "invalid api response"
	}

	// Other API answers are mirrored.
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		return apiErr.Status, msg
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/service"
	"github.com/storefront/commerce-api/pkg/logger"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, guard rejections, 404 from router).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			requestLogger(c, log).Debug().Err(he.Internal).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Error()
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden resource"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrNoValidProducts):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrProductExists),
		errors.Is(err, domain.ErrOrderInProgress):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, domain.ErrEmptyUpdate):
		return http.StatusBadRequest, domain.ErrEmptyUpdate.Error()
	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrPasswordRequired):
		return http.StatusUnprocessableEntity, rootMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	requestLogger(c, log).Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// rootMessage returns the message of the innermost wrapped error so that
// wrapping context like "place order: " never reaches the client.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// requestLogger prefers the request-scoped logger set by the request logger
// middleware, which carries the request id.
func requestLogger(c echo.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := logger.FromContext(c.Request().Context()); l.GetLevel() != zerolog.Disabled {
		return &l
	}
	return &fallback
}

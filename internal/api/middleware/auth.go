package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/domain"
)

// Echo context keys set by Auth and RefreshBearer.
const (
	ctxUserID       = "user_id"
	ctxRole         = "role"
	ctxRefreshToken = "refresh_token"
)

const bearerPrefix = "Bearer "

type principalKey struct{}

// Authenticator resolves an access token to the caller's current identity.
type Authenticator interface {
	AuthenticateByAccessToken(ctx context.Context, token string) (*domain.Principal, error)
}

// BearerToken extracts the token from an Authorization header value. The
// scheme must be exactly "Bearer"; anything else counts as no token.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// Auth authenticates the bearer access token and attaches the caller to
// both the echo context and the request context.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.GuardRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			principal, err := authn.AuthenticateByAccessToken(c.Request().Context(), token)
			if err != nil {
				metrics.GuardRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			SetPrincipal(c, *principal)
			return next(c)
		}
	}
}

// RefreshBearer only extracts the bearer token for the refresh route. The
// token is verified with the refresh secret by the auth service.
func RefreshBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.GuardRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			c.Set(ctxRefreshToken, token)
			return next(c)
		}
	}
}

// SetPrincipal attaches p to the echo context and the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(ctxUserID, p.ID)
	c.Set(ctxRole, p.Role)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), principalKey{}, p)))
}

// CurrentPrincipal returns the caller attached by Auth.
func CurrentPrincipal(c echo.Context) (domain.Principal, bool) {
	id, _ := c.Get(ctxUserID).(string)
	role, _ := c.Get(ctxRole).(domain.Role)
	if id == "" {
		return domain.Principal{}, false
	}
	return domain.Principal{ID: id, Role: role}, true
}

// PrincipalFromContext returns the caller stored in a request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// RefreshToken returns the raw token captured by RefreshBearer.
func RefreshToken(c echo.Context) string {
	t, _ := c.Get(ctxRefreshToken).(string)
	return t
}

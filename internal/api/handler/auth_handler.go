package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	oauth       ports.OAuthExchanger // nil when Google sign-in is not configured
	states      ports.OAuthStateStore
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, oauth ports.OAuthExchanger, states ports.OAuthStateStore, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, oauth: oauth, states: states, log: log}
}

func toTokenPairResponse(p *ports.TokenPair) tokenPairResponse {
	return tokenPairResponse{ID: p.ID, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// SignIn authenticates local credentials and issues a token pair.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      201   {object}  tokenPairResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidCredentials
	}

	ctx := c.Request().Context()
	userID, err := h.authService.ValidateLocalCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
		}
		return err
	}

	pair, err := h.authService.Login(ctx, userID)
	if err != nil {
		return err
	}

	metrics.SignInsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, toTokenPairResponse(pair))
}

// Refresh rotates the refresh token presented as the bearer credential.
//
// @Summary      Rotate tokens
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  tokenPairResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	pair, err := h.authService.RefreshWithToken(c.Request().Context(), middleware.RefreshToken(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			metrics.RefreshTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	metrics.RefreshTotal.WithLabelValues("rotated").Inc()
	return c.JSON(http.StatusCreated, toTokenPairResponse(pair))
}

// SignOut revokes the caller's refresh token.
//
// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      201
// @Failure      401  {object}  errorResponse
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.authService.SignOut(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// Profile returns the caller's id and current role.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{ID: p.ID, Role: p.Role})
}

// GoogleSignIn redirects to the Google consent page.
//
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      307
// @Failure      503  {object}  errorResponse
// @Router       /auth/google/signin [get]
func (h *AuthHandler) GoogleSignIn(c echo.Context) error {
	if h.oauth == nil || h.states == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "google sign-in is not configured")
	}

	state, err := h.states.Issue(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// GoogleCallback completes Google sign-in and issues a token pair.
//
// @Summary      Google sign-in callback
// @Tags         auth
// @Produce      json
// @Param        code   query     string  true  "Authorization code"
// @Param        state  query     string  true  "State issued by /auth/google/signin"
// @Success      200    {object}  tokenPairResponse
// @Failure      401    {object}  errorResponse
// @Failure      503    {object}  errorResponse
// @Router       /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.oauth == nil || h.states == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "google sign-in is not configured")
	}
	ctx := c.Request().Context()

	ok, err := h.states.Consume(ctx, c.QueryParam("state"))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnauthorized
	}

	profile, err := h.oauth.ExchangeCodeForProfile(ctx, c.QueryParam("code"))
	if err != nil {
		h.log.Warn().Err(err).Msg("google code exchange failed")
		return domain.ErrUnauthorized
	}

	userID, err := h.authService.ResolveOAuthUser(ctx, *profile)
	if err != nil {
		return err
	}

	pair, err := h.authService.Login(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ErrNotConfigured is returned when no client credentials are set.
var ErrNotConfigured = errors.New("oauth provider not configured")

// GoogleConfig carries the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Configured reports whether the client credentials are present.
func (c GoogleConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.CallbackURL != ""
}

// GoogleExchanger implements ports.OAuthExchanger for Google sign-in.
type GoogleExchanger struct {
	cfg         *oauth2.Config
	userInfoURL string
}

var _ ports.OAuthExchanger = (*GoogleExchanger)(nil)

// NewGoogleExchanger returns ErrNotConfigured when credentials are missing.
func NewGoogleExchanger(cfg GoogleConfig) (*GoogleExchanger, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return &GoogleExchanger{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}, nil
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *GoogleExchanger) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

// ExchangeCodeForProfile trades the authorization code for a token and
// reads the user's profile. Unverified emails are rejected.
func (g *GoogleExchanger) ExchangeCodeForProfile(ctx context.Context, code string) (*ports.OAuthProfile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo: decode: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, fmt.Errorf("google userinfo: %w", domain.ErrUnauthorized)
	}

	return &ports.OAuthProfile{
		Name:      info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
		Provider:  domain.ProviderGoogle,
	}, nil
}

package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// TokenPair is returned on every successful sign-in or refresh. It is the
// only place the plaintext refresh token ever leaves the service.
type TokenPair struct {
	ID           string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// OAuthProfile is the identity handed back by an external provider.
type OAuthProfile struct {
	Name      string
	Email     string
	AvatarURL string
	Provider  domain.Provider
}

type AuthService interface {
	ValidateLocalCredentials(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, userID string) (*TokenPair, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*TokenPair, error)
	RefreshWithToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	SignOut(ctx context.Context, userID string) error
	ResolveOAuthUser(ctx context.Context, profile OAuthProfile) (string, error)
	AuthenticateByAccessToken(ctx context.Context, token string) (*domain.Principal, error)
}

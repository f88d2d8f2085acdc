package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

type noopRecorder struct{}

func (noopRecorder) Record(domain.AuthEvent) {}

// AuthService implements credential checks, token issuance, refresh-token
// rotation, sign-out and OAuth account resolution.
//
// The stored refresh-token hash is overwritten unconditionally on every
// login, refresh and sign-out. Two concurrent refreshes for the same user
// race and the last write wins.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.Hasher
	tokens ports.TokenService
	audit  AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.Hasher,
	tokens ports.TokenService,
	audit AuditRecorder,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = noopRecorder{}
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

// ValidateLocalCredentials returns the user id for a matching email and
// password. Unknown email, OAuth-only account and wrong password all fail
// with the same domain.ErrInvalidCredentials.
func (s *AuthService) ValidateLocalCredentials(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.AuthEventLoginFailed, "", email)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("validate credentials: %w", err)
	}

	if !user.HasPassword() || !s.hasher.Verify(password, user.PasswordHash) {
		s.record(domain.AuthEventLoginFailed, user.ID, email)
		return "", domain.ErrInvalidCredentials
	}
	return user.ID, nil
}

// Login issues a fresh token pair and makes its refresh token the only
// valid one for the user.
func (s *AuthService) Login(ctx context.Context, userID string) (*ports.TokenPair, error) {
	pair, err := s.rotate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.record(domain.AuthEventLogin, userID, "")
	return pair, nil
}

// Refresh checks the presented token against the stored hash and rotates.
// A token from before the last rotation or sign-out no longer matches.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*ports.TokenPair, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if user.RefreshTokenHash == "" || !s.hasher.Verify(refreshToken, user.RefreshTokenHash) {
		s.record(domain.AuthEventRefreshReuse, userID, "")
		return nil, domain.ErrInvalidToken
	}

	pair, err := s.rotate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	s.record(domain.AuthEventRefresh, userID, "")
	return pair, nil
}

// RefreshWithToken verifies the refresh token signature to find its subject
// and then runs Refresh.
func (s *AuthService) RefreshWithToken(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	userID, err := s.tokens.Verify(refreshToken, domain.TokenRefresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return s.Refresh(ctx, userID, refreshToken)
}

// SignOut clears the stored refresh hash, revoking any outstanding refresh
// token regardless of its expiry.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return fmt.Errorf("sign out: %w", err)
	}
	s.record(domain.AuthEventSignOut, userID, "")
	return nil
}

// ResolveOAuthUser finds the account for the profile's email or creates an
// OAuth-only one with the least privileged role.
func (s *AuthService) ResolveOAuthUser(ctx context.Context, profile ports.OAuthProfile) (string, error) {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return "", domain.ErrUnauthorized
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("resolve oauth user: %w", err)
	}

	provider := profile.Provider
	if !provider.Valid() || provider == domain.ProviderLocal {
		provider = domain.ProviderGoogle
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("resolve oauth user: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:        id.String(),
		Name:      profile.Name,
		Email:     email,
		Role:      domain.RoleUser,
		Provider:  provider,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent callback for the same email created it first.
		if errors.Is(err, domain.ErrUserExists) {
			existing, ferr := s.users.FindByEmail(ctx, email)
			if ferr != nil {
				return "", fmt.Errorf("resolve oauth user: %w", ferr)
			}
			return existing.ID, nil
		}
		return "", fmt.Errorf("resolve oauth user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("provider", string(provider)).Msg("oauth account created")
	s.record(domain.AuthEventOAuthSignup, user.ID, email)
	return user.ID, nil
}

// AuthenticateByAccessToken verifies the token and loads the user's current
// role. The role is never read from the token, so role changes and account
// deletion take effect on the next request.
func (s *AuthService) AuthenticateByAccessToken(ctx context.Context, token string) (*domain.Principal, error) {
	userID, err := s.tokens.Verify(token, domain.TokenAccess)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &domain.Principal{ID: user.ID, Role: user.Role}, nil
}

// rotate issues both tokens and overwrites the stored refresh hash. Nothing
// is returned unless every step succeeds.
func (s *AuthService) rotate(ctx context.Context, userID string) (*ports.TokenPair, error) {
	access, err := s.tokens.Issue(userID, domain.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(userID, domain.TokenRefresh)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(refresh)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, userID, hash); err != nil {
		return nil, err
	}

	return &ports.TokenPair{ID: userID, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) record(typ domain.AuthEventType, userID, email string) {
	s.audit.Record(domain.AuthEvent{
		Type:       typ,
		UserID:     userID,
		Email:      email,
		OccurredAt: s.now().UTC(),
	})
}

package service

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/storefront/commerce-api/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig holds the per-kind signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTTokenService signs HS256 tokens with a different secret per kind, so a
// leaked access secret cannot mint refresh tokens and vice versa.
type JWTTokenService struct {
	keys map[domain.TokenKind]signingKey
	now  func() time.Time
}

func NewJWTTokenService(cfg TokenConfig) *JWTTokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &JWTTokenService{
		keys: map[domain.TokenKind]signingKey{
			domain.TokenAccess:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			domain.TokenRefresh: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
		now: time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *JWTTokenService) WithClock(now func() time.Time) *JWTTokenService {
	s.now = now
	return s
}

// Issue signs a token for subject. Every token carries a random jti, so two
// tokens issued within the same second still differ.
func (s *JWTTokenService) Issue(subject string, kind domain.TokenKind) (string, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", fmt.Errorf("issue token: unknown kind %q", kind)
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks algorithm, signature and expiry against the kind's secret.
// Any failure yields domain.ErrInvalidToken.
func (s *JWTTokenService) Verify(token string, kind domain.TokenKind) (string, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

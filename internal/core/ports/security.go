package ports

import "github.com/storefront/commerce-api/internal/core/domain"

// Hasher is a salted one-way hash used for passwords and refresh tokens.
type Hasher interface {
	Hash(secret string) (string, error)
	// Verify returns false on mismatch or a malformed hash; it never errors.
	Verify(secret, hashed string) bool
}

// TokenService issues and verifies signed, time-bounded tokens.
type TokenService interface {
	Issue(subject string, kind domain.TokenKind) (string, error)
	// Verify returns the token subject or domain.ErrInvalidToken.
	Verify(token string, kind domain.TokenKind) (string, error)
}

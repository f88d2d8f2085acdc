package domain

// TokenKind selects the secret and lifetime used to sign a token.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

package ports

import "context"

// OAuthExchanger runs the provider side of a redirect-based OAuth handshake.
type OAuthExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCodeForProfile(ctx context.Context, code string) (*OAuthProfile, error)
}

// OAuthStateStore issues single-use state values for the redirect round trip.
type OAuthStateStore interface {
	Issue(ctx context.Context) (string, error)
	// Consume reports whether state was issued and not yet used.
	Consume(ctx context.Context, state string) (bool, error)
}

package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	AuthEventLogin        AuthEventType = "login"
	AuthEventLoginFailed  AuthEventType = "login_failed"
	AuthEventRefresh      AuthEventType = "refresh"
	AuthEventRefreshReuse AuthEventType = "refresh_rejected"
	AuthEventSignOut      AuthEventType = "signout"
	AuthEventOAuthSignup  AuthEventType = "oauth_signup"
)

// AuthEvent is a single audit record. UserID may be empty for failed
// sign-ins against unknown emails; Email is set in that case.
type AuthEvent struct {
	Type       AuthEventType
	UserID     string
	Email      string
	OccurredAt time.Time
}

// ShardKey returns the value used to keep one user's events in order.
func (e AuthEvent) ShardKey() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.Email
}

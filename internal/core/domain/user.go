package domain

import "time"

// Role is the single authorization role carried by a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// Provider identifies where a user's identity comes from.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderApple  Provider = "APPLE"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderApple:
		return true
	}
	return false
}

// User models an account. PasswordHash is empty for OAuth-only accounts and
// RefreshTokenHash is empty when no session is active.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	Provider         Provider  `json:"provider"`
	AvatarURL        string    `json:"avatarUrl,omitempty"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can sign in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Principal is the identity attached to an authenticated request.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// HasRole reports whether the principal's role is in the allow-set.
// Membership only: roles do not imply one another.
func (p Principal) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}

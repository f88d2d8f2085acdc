package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// UserFilter carries the query parameters for listing users.
type UserFilter struct {
	Email string // optional: exact match
	Role  string // optional
	Page  int    // 1-based
	Limit int
}

// UserUpdate lists the fields to overwrite. Nil fields are left unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	AvatarURL    *string
	PasswordHash *string
	Role         *domain.Role
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.AvatarURL == nil && u.PasswordHash == nil && u.Role == nil
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, id string, update UserUpdate) (*domain.User, error)
	// SetRefreshTokenHash unconditionally overwrites the stored hash.
	// An empty hash clears it.
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

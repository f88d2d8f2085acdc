package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CreateUserInput carries the signup payload.
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Provider  domain.Provider
	AvatarURL string
}

// UpdateUserInput lists profile fields to change. Nil fields are ignored.
type UpdateUserInput struct {
	Name      *string
	Email     *string
	AvatarURL *string
	Password  *string
}

// ListUsersInput carries the list endpoint parameters.
type ListUsersInput struct {
	Email string
	Role  string
	Page  int
	Limit int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService defines account management use cases.
type UserService interface {
	Register(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

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

// ErrPasswordRequired is returned when a LOCAL account is created without a password.
var ErrPasswordRequired = errors.New("password is required for local accounts")

// UserService implements account management.
type UserService struct {
	users  ports.UserRepository
	orders ports.OrderRepository
	hasher ports.Hasher
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, orders ports.OrderRepository, hasher ports.Hasher, logger zerolog.Logger) *UserService {
	return &UserService{users: users, orders: orders, hasher: hasher, logger: logger}
}

// Register creates an account with the least privileged role. LOCAL accounts
// must carry a password; OAuth accounts are stored without one.
func (s *UserService) Register(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	provider := input.Provider
	if provider == "" {
		provider = domain.ProviderLocal
	}
	if !provider.Valid() {
		return nil, fmt.Errorf("register: unknown provider %q", provider)
	}

	var passwordHash string
	if provider == domain.ProviderLocal {
		if input.Password == "" {
			return nil, ErrPasswordRequired
		}
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("register: hash password: %w", err)
		}
		passwordHash = hash
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id.String(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Provider:     provider,
		AvatarURL:    input.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("provider", string(provider)).Msg("user registered")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	users, total, err := s.users.List(ctx, ports.UserFilter{
		Email: input.Email,
		Role:  input.Role,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// Update changes profile fields. A new password is hashed before storage.
func (s *UserService) Update(ctx context.Context, id string, input ports.UpdateUserInput) (*domain.User, error) {
	update := ports.UserUpdate{
		Name:      nonBlank(input.Name),
		Email:     nonBlank(input.Email),
		AvatarURL: nonBlank(input.AvatarURL),
	}
	if pw := nonBlank(input.Password); pw != nil {
		hash, err := s.hasher.Hash(*pw)
		if err != nil {
			return nil, fmt.Errorf("update user: hash password: %w", err)
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}
	return s.users.Update(ctx, id, update)
}

// ChangeRole replaces the user's single role.
func (s *UserService) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.users.Update(ctx, id, ports.UserUpdate{Role: &role})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Str("role", string(role)).Msg("user role changed")
	return user, nil
}

// Delete removes the account and every order it owns.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	removed, err := s.orders.DeleteByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user orders: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Int64("orders_removed", removed).Msg("user deleted")
	return nil
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

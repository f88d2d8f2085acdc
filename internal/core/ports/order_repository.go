package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// OrderFilter carries the query parameters for listing orders.
type OrderFilter struct {
	UserID string // empty = all users (admin)
	Status string // optional
	Page   int    // 1-based
	Limit  int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every order owned by userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

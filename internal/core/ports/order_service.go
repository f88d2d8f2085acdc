package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// PlaceOrderInput carries the data needed to place an order.
type PlaceOrderInput struct {
	UserID         string
	ProductIDs     []string
	IdempotencyKey string
}

// PlaceOrderResult is returned after placing an order.
type PlaceOrderResult struct {
	Order *domain.Order
	// AlreadyExisted is true when the Idempotency-Key matched an earlier order.
	AlreadyExisted bool
}

// ListOrdersInput carries the list endpoint parameters. The caller decides
// the scope: admins see every order, everyone else only their own.
type ListOrdersInput struct {
	Caller domain.Principal
	Status string
	Page   int
	Limit  int
}

// ListOrdersResult is returned by List.
type ListOrdersResult struct {
	Items      []*domain.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// OrderService defines order use cases.
type OrderService interface {
	Place(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	Get(ctx context.Context, caller domain.Principal, id string) (*domain.Order, error)
	List(ctx context.Context, input ListOrdersInput) (*ListOrdersResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

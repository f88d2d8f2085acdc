package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// IdempotencyStore remembers which order an Idempotency-Key produced (Redis).
type IdempotencyStore interface {
	// Reserve atomically claims key. When it is already taken, the returned
	// id is the remembered order, or "" while that order is still being placed.
	Reserve(ctx context.Context, scope, key string) (orderID string, reserved bool, err error)
	Remember(ctx context.Context, scope, key, orderID string) error
	Release(ctx context.Context, scope, key string) error
}

type OrderService struct {
	orders   ports.OrderRepository
	products ports.ProductRepository
	users    ports.UserRepository
	idem     IdempotencyStore
	logger   zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	idem IdempotencyStore,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{orders: orders, products: products, users: users, idem: idem, logger: logger}
}

// Place creates a pending order for the caller. Unknown product ids are
// skipped; an order with no valid product is rejected. A replayed
// Idempotency-Key returns the order created the first time; a replay that
// arrives while the first request is still running gets ErrOrderInProgress.
func (s *OrderService) Place(ctx context.Context, input ports.PlaceOrderInput) (*ports.PlaceOrderResult, error) {
	reserved := false
	if input.IdempotencyKey != "" && s.idem != nil {
		orderID, ok, err := s.idem.Reserve(ctx, input.UserID, input.IdempotencyKey)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency reserve failed, placing anyway")
		case ok:
			reserved = true
		case orderID == "":
			return nil, domain.ErrOrderInProgress
		default:
			existing, ferr := s.orders.FindByID(ctx, orderID)
			if ferr == nil {
				s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("order_id", orderID).Msg("idempotent replay")
				return &ports.PlaceOrderResult{Order: existing, AlreadyExisted: true}, nil
			}
			if !errors.Is(ferr, domain.ErrOrderNotFound) {
				return nil, fmt.Errorf("place order: %w", ferr)
			}
			// The remembered order was deleted; the key now maps to a new one.
			reserved = true
		}
	}

	order, err := s.create(ctx, input)
	if err != nil {
		if reserved {
			if rerr := s.idem.Release(ctx, input.UserID, input.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if reserved {
		if err := s.idem.Remember(ctx, input.UserID, input.IdempotencyKey, order.ID); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("order_id", order.ID).Str("user_id", order.UserID).Float64("total", order.TotalPrice).Msg("order placed")
	return &ports.PlaceOrderResult{Order: order}, nil
}

func (s *OrderService) create(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	products, err := s.products.FindByIDs(ctx, input.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	if len(products) == 0 {
		return nil, domain.ErrNoValidProducts
	}

	items := make([]domain.OrderItem, 0, len(products))
	for _, p := range products {
		items = append(items, domain.OrderItem{ProductID: p.ID, ProductName: p.ProductName, Price: p.Price})
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	order := &domain.Order{
		ID:         id.String(),
		UserID:     input.UserID,
		Items:      items,
		TotalPrice: domain.TotalOf(items),
		Status:     domain.OrderPending,
		OrderDate:  time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, err
	}
	return order, nil
}

// Get returns the order when the caller owns it or is an admin. Other
// callers get ErrOrderNotFound so order ids are not disclosed.
func (s *OrderService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && order.UserID != caller.ID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	filter := ports.OrderFilter{Status: input.Status, Page: page, Limit: limit}
	if input.Caller.Role != domain.RoleAdmin {
		filter.UserID = input.Caller.ID
	}

	items, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &ports.ListOrdersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidOrderStatus
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}

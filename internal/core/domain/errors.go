package domain

import "errors"

// Authentication and authorization.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrRateLimited        = errors.New("too many requests")
)

// Accounts.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrEmptyUpdate  = errors.New("at least one field must be provided for update")
	ErrInvalidRole  = errors.New("invalid role")
)

// Catalog and orders.
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductExists      = errors.New("product already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoValidProducts    = errors.New("no valid products found for the order")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrOrderInProgress    = errors.New("an order with this idempotency key is still being placed")
)

package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CreateProductInput carries all data needed to add a catalog entry.
type CreateProductInput struct {
	ProductName     string
	Description     string
	Price           float64
	QuantityInStock int
	ImageURL        string
	Rating          *float64
}

// ListProductsInput carries the list endpoint parameters.
type ListProductsInput struct {
	Name    string
	Sort    string
	SortDir string // "ASC" or "DESC"
	Page    int
	Limit   int
}

// ListProductsResult is returned by List.
type ListProductsResult struct {
	Items      []*domain.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProductService defines catalog use cases.
type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, input ListProductsInput) (*ListProductsResult, error)
	Update(ctx context.Context, id string, update ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

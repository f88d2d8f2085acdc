package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// ProductFilter carries all query parameters for listing products.
type ProductFilter struct {
	Name    string // optional: case-insensitive partial match
	Sort    string // field name, validated by the service
	SortDir int    // 1 ascending, -1 descending
	Page    int    // 1-based
	Limit   int
}

// ProductUpdate lists fields to overwrite. Nil fields are left unchanged.
type ProductUpdate struct {
	ProductName     *string
	Description     *string
	Price           *float64
	QuantityInStock *int
	ImageURL        *string
	Rating          *float64
}

// Empty reports whether the update would change nothing.
func (u ProductUpdate) Empty() bool {
	return u.ProductName == nil && u.Description == nil && u.Price == nil &&
		u.QuantityInStock == nil && u.ImageURL == nil && u.Rating == nil
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	// FindByIDs returns the products that exist; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	Update(ctx context.Context, id string, update ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

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

// sortableFields maps accepted sort keys to stored field names.
var sortableFields = map[string]string{
	"createdAt":       "created_at",
	"productName":     "product_name",
	"price":           "price",
	"quantityInStock": "quantity_in_stock",
	"rating":          "rating",
}

type ProductService struct {
	repo   ports.ProductRepository
	logger zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

// Create adds a product. Product names are unique.
func (s *ProductService) Create(ctx context.Context, input ports.CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.ProductName)
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, domain.ErrProductExists
	} else if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("create product: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:              id.String(),
		ProductName:     name,
		Description:     input.Description,
		Price:           input.Price,
		QuantityInStock: input.QuantityInStock,
		ImageURL:        input.ImageURL,
		Rating:          input.Rating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, err
	}

	s.logger.Info().Str("product_id", p.ID).Str("name", p.ProductName).Msg("product created")
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of products. Unknown sort fields fall back to creation time.
func (s *ProductService) List(ctx context.Context, input ports.ListProductsInput) (*ports.ListProductsResult, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	sortField, ok := sortableFields[input.Sort]
	if !ok {
		sortField = sortableFields["createdAt"]
	}
	dir := 1
	if strings.EqualFold(input.SortDir, "DESC") {
		dir = -1
	}

	items, total, err := s.repo.List(ctx, ports.ProductFilter{
		Name:    strings.TrimSpace(input.Name),
		Sort:    sortField,
		SortDir: dir,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ports.ListProductsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *ProductService) Update(ctx context.Context, id string, update ports.ProductUpdate) (*domain.Product, error) {
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}
	if update.ProductName != nil {
		name := strings.TrimSpace(*update.ProductName)
		existing, err := s.repo.FindByName(ctx, name)
		if err == nil && existing.ID != id {
			return nil, domain.ErrProductExists
		}
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return nil, fmt.Errorf("update product: %w", err)
		}
		update.ProductName = &name
	}
	return s.repo.Update(ctx, id, update)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

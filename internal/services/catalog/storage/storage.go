// Package storage defines the persistence boundary for catalog products.
package storage

import (
	"context"
	"errors"

	"github.com/harlowe/wholesail/internal/services/catalog/domain"
)

var (
	// ErrNotFound indicates no product row matched the lookup key.
	ErrNotFound = errors.New("product not found")
)

// ListFilter narrows and pages a product listing.
type ListFilter struct {
	// Search matches product names case-insensitively when non-empty.
	Search string
	Offset int
	Limit  int
}

// ProductPage is one page of products plus the unpaged match count.
type ProductPage struct {
	Products   []domain.Product
	TotalCount int
}

// Store is the product persistence boundary.
type Store interface {
	PutProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, filter ListFilter) (ProductPage, error)
}

// Package domain holds catalog products and the price projection rule.
package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/platform/id"
)

var (
	// ErrEmptyName indicates a product without a display name.
	ErrEmptyName = apperrors.New(apperrors.CodeProductNameEmpty, "product name is required")
	// ErrInvalidPrice indicates a negative price amount.
	ErrInvalidPrice = apperrors.New(apperrors.CodeProductPriceInvalid, "prices must not be negative")
)

// Product is the raw dual-price catalog record.
//
// It is owned by catalog management and never serialized directly to a
// viewer-facing response; viewers only ever receive a ProjectedProduct.
type Product struct {
	ID          string
	Name        string
	Description string
	// WholesalePrice and RetailPrice are amounts in minor currency units.
	WholesalePrice int64
	RetailPrice    int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProductInput describes the metadata needed to create a product.
type NewProductInput struct {
	Name           string
	Description    string
	WholesalePrice int64
	RetailPrice    int64
}

// NewProduct creates a catalog product from validated input.
func NewProduct(input NewProductInput, now func() time.Time, idGenerator func() (string, error)) (Product, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Product{}, ErrEmptyName
	}
	if input.WholesalePrice < 0 || input.RetailPrice < 0 {
		return Product{}, ErrInvalidPrice
	}

	productID, err := idGenerator()
	if err != nil {
		return Product{}, fmt.Errorf("generate product id: %w", err)
	}

	createdAt := now().UTC()
	return Product{
		ID:             productID,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		WholesalePrice: input.WholesalePrice,
		RetailPrice:    input.RetailPrice,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

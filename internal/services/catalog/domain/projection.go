package domain

import (
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
)

// ViewerContext is the per-request tuple that decides price visibility.
//
// It is constructed fresh for every catalog read from the current session and
// a live member lookup. It must never be cached across requests: approval
// state can change between requests and a stale context would leak or
// withhold price incorrectly.
type ViewerContext struct {
	Authenticated bool
	Approved      bool
	Tier          membersdomain.Tier
}

// ProjectedProduct is the only product form a viewer may receive.
//
// Price is nil unless the viewer is an authenticated, approved member; it is
// derived per request and never persisted.
type ProjectedProduct struct {
	ID          string
	Name        string
	Description string
	Price       *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project computes the single viewer-appropriate price for one product.
//
// This is the mandatory funnel for every catalog read; no call site may select
// the raw price fields directly. It is pure over its inputs.
//
// An approved viewer without a tier is a data-integrity violation: every
// approved member must carry a tier, so the projection fails loudly instead of
// silently defaulting to either price.
func Project(product Product, viewer ViewerContext) (ProjectedProduct, error) {
	projected := ProjectedProduct{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	if !viewer.Authenticated || !viewer.Approved {
		return projected, nil
	}

	switch viewer.Tier {
	case membersdomain.TierWholesale:
		price := product.WholesalePrice
		projected.Price = &price
	case membersdomain.TierRetail:
		price := product.RetailPrice
		projected.Price = &price
	default:
		return ProjectedProduct{}, apperrors.WithMetadata(
			apperrors.CodeViewerTierUnset,
			"approved viewer has no tier",
			map[string]string{"product_id": product.ID},
		)
	}
	return projected, nil
}

package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
)

func sampleProduct() Product {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return Product{
		ID:             "product-1",
		Name:           "Bulk Olive Oil 5L",
		Description:    "Cold pressed, food service grade.",
		WholesalePrice: 4250,
		RetailPrice:    6900,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestProjectPriceVisibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		viewer    ViewerContext
		wantPrice *int64
	}{
		{
			name:   "anonymous viewer sees no price",
			viewer: ViewerContext{},
		},
		{
			name:   "authenticated pending viewer sees no price",
			viewer: ViewerContext{Authenticated: true, Tier: membersdomain.TierWholesale},
		},
		{
			name:   "approved flag without authentication sees no price",
			viewer: ViewerContext{Approved: true, Tier: membersdomain.TierWholesale},
		},
		{
			name:      "approved wholesale viewer sees wholesale price",
			viewer:    ViewerContext{Authenticated: true, Approved: true, Tier: membersdomain.TierWholesale},
			wantPrice: int64Ptr(4250),
		},
		{
			name:      "approved retail viewer sees retail price",
			viewer:    ViewerContext{Authenticated: true, Approved: true, Tier: membersdomain.TierRetail},
			wantPrice: int64Ptr(6900),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			projected, err := Project(sampleProduct(), tc.viewer)
			if err != nil {
				t.Fatalf("project: %v", err)
			}
			if tc.wantPrice == nil {
				if projected.Price != nil {
					t.Fatalf("price = %d, want hidden", *projected.Price)
				}
				return
			}
			if projected.Price == nil {
				t.Fatalf("price hidden, want %d", *tc.wantPrice)
			}
			if *projected.Price != *tc.wantPrice {
				t.Fatalf("price = %d, want %d", *projected.Price, *tc.wantPrice)
			}
		})
	}
}

func TestProjectNeverLeaksCounterpartPrice(t *testing.T) {
	t.Parallel()

	product := sampleProduct()
	wholesale, err := Project(product, ViewerContext{Authenticated: true, Approved: true, Tier: membersdomain.TierWholesale})
	if err != nil {
		t.Fatalf("project wholesale: %v", err)
	}
	retail, err := Project(product, ViewerContext{Authenticated: true, Approved: true, Tier: membersdomain.TierRetail})
	if err != nil {
		t.Fatalf("project retail: %v", err)
	}
	if *wholesale.Price == product.RetailPrice {
		t.Fatalf("wholesale viewer received retail price")
	}
	if *retail.Price == product.WholesalePrice {
		t.Fatalf("retail viewer received wholesale price")
	}
}

func TestProjectApprovedViewerWithoutTierFailsLoudly(t *testing.T) {
	t.Parallel()

	_, err := Project(sampleProduct(), ViewerContext{Authenticated: true, Approved: true})
	if err == nil {
		t.Fatalf("expected integrity error")
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("err = %T, want *apperrors.Error", err)
	}
	if domainErr.Code != apperrors.CodeViewerTierUnset {
		t.Fatalf("code = %q, want %q", domainErr.Code, apperrors.CodeViewerTierUnset)
	}
	if domainErr.Code.Kind() != apperrors.KindIntegrity {
		t.Fatalf("kind = %q, want %q", domainErr.Code.Kind(), apperrors.KindIntegrity)
	}
}

func TestProjectCopiesDisplayFields(t *testing.T) {
	t.Parallel()

	product := sampleProduct()
	projected, err := Project(product, ViewerContext{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if projected.ID != product.ID || projected.Name != product.Name || projected.Description != product.Description {
		t.Fatalf("display fields were not copied")
	}
	if !projected.CreatedAt.Equal(product.CreatedAt) || !projected.UpdatedAt.Equal(product.UpdatedAt) {
		t.Fatalf("timestamps were not copied")
	}
}

func int64Ptr(v int64) *int64 { return &v }

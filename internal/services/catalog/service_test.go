package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harlowe/wholesail/internal/services/catalog/domain"
	"github.com/harlowe/wholesail/internal/services/catalog/storage"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	membersstorage "github.com/harlowe/wholesail/internal/services/members/storage"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
}

type fakeProductStore struct {
	products map[string]domain.Product
}

func (f *fakeProductStore) PutProduct(_ context.Context, product domain.Product) error {
	if f.products == nil {
		f.products = make(map[string]domain.Product)
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductStore) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return domain.Product{}, storage.ErrNotFound
	}
	return product, nil
}

func (f *fakeProductStore) ListProducts(_ context.Context, _ storage.ListFilter) (storage.ProductPage, error) {
	page := storage.ProductPage{}
	for _, product := range f.products {
		page.Products = append(page.Products, product)
	}
	page.TotalCount = len(page.Products)
	return page, nil
}

type fakeMemberReader struct {
	members map[string]membersdomain.Member
}

func (f *fakeMemberReader) GetMember(_ context.Context, memberID string) (membersdomain.Member, error) {
	member, ok := f.members[memberID]
	if !ok {
		return membersdomain.Member{}, membersstorage.ErrNotFound
	}
	return member, nil
}

func newTestService(products *fakeProductStore, members *fakeMemberReader) *Service {
	return NewService(products, members, fixedClock)
}

func seedProduct(t *testing.T, store *fakeProductStore) domain.Product {
	t.Helper()
	product := domain.Product{
		ID:             "product-1",
		Name:           "Bulk Olive Oil 5L",
		WholesalePrice: 4250,
		RetailPrice:    6900,
		CreatedAt:      fixedClock(),
		UpdatedAt:      fixedClock(),
	}
	if err := store.PutProduct(context.Background(), product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestViewerFor(t *testing.T) {
	t.Parallel()

	approvedAt := fixedClock().Add(-time.Hour)
	members := &fakeMemberReader{members: map[string]membersdomain.Member{
		"approved-1": {
			ID:         "approved-1",
			Status:     membersdomain.StatusApproved,
			Tier:       membersdomain.TierWholesale,
			ApprovedAt: &approvedAt,
		},
		"pending-1": {
			ID:     "pending-1",
			Status: membersdomain.StatusPending,
			Tier:   membersdomain.TierRetail,
		},
	}}
	service := newTestService(&fakeProductStore{}, members)

	tests := []struct {
		name     string
		memberID string
		want     domain.ViewerContext
	}{
		{
			name: "empty member id is anonymous",
		},
		{
			name:     "deleted member is anonymous",
			memberID: "ghost",
		},
		{
			name:     "pending member is authenticated but not approved",
			memberID: "pending-1",
			want:     domain.ViewerContext{Authenticated: true, Tier: membersdomain.TierRetail},
		},
		{
			name:     "approved member carries tier",
			memberID: "approved-1",
			want:     domain.ViewerContext{Authenticated: true, Approved: true, Tier: membersdomain.TierWholesale},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			viewer, err := service.ViewerFor(context.Background(), tc.memberID)
			if err != nil {
				t.Fatalf("viewer for: %v", err)
			}
			if viewer != tc.want {
				t.Fatalf("viewer = %+v, want %+v", viewer, tc.want)
			}
		})
	}
}

func TestGetProductProjectsForViewer(t *testing.T) {
	t.Parallel()

	products := &fakeProductStore{}
	product := seedProduct(t, products)
	service := newTestService(products, &fakeMemberReader{})

	hidden, err := service.GetProduct(context.Background(), product.ID, domain.ViewerContext{})
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if hidden.Price != nil {
		t.Fatalf("anonymous viewer received a price")
	}

	projected, err := service.GetProduct(context.Background(), product.ID, domain.ViewerContext{
		Authenticated: true,
		Approved:      true,
		Tier:          membersdomain.TierWholesale,
	})
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if projected.Price == nil || *projected.Price != product.WholesalePrice {
		t.Fatalf("price = %v, want wholesale %d", projected.Price, product.WholesalePrice)
	}
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	service := newTestService(&fakeProductStore{}, &fakeMemberReader{})
	if _, err := service.GetProduct(context.Background(), "ghost", domain.ViewerContext{}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrProductNotFound)
	}
	if _, err := service.GetProduct(context.Background(), "  ", domain.ViewerContext{}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrProductNotFound)
	}
}

func TestListProductsProjectsEveryRow(t *testing.T) {
	t.Parallel()

	products := &fakeProductStore{}
	seedProduct(t, products)
	service := newTestService(products, &fakeMemberReader{})

	page, err := service.ListProducts(context.Background(), ListInput{}, domain.ViewerContext{
		Authenticated: true,
		Approved:      true,
		Tier:          membersdomain.TierRetail,
	})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if page.TotalCount != 1 || len(page.Products) != 1 {
		t.Fatalf("page = %d/%d, want 1/1", page.TotalCount, len(page.Products))
	}
	if page.Products[0].Price == nil || *page.Products[0].Price != 6900 {
		t.Fatalf("price = %v, want retail 6900", page.Products[0].Price)
	}
}

func TestListProductsFailsOnIntegrityViolation(t *testing.T) {
	t.Parallel()

	products := &fakeProductStore{}
	seedProduct(t, products)
	service := newTestService(products, &fakeMemberReader{})

	// Approved viewer with no tier: the listing must fail loudly rather than
	// pick a price.
	_, err := service.ListProducts(context.Background(), ListInput{}, domain.ViewerContext{
		Authenticated: true,
		Approved:      true,
	})
	if err == nil {
		t.Fatalf("expected integrity error")
	}
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	products := &fakeProductStore{}
	service := newTestService(products, &fakeMemberReader{})

	product, err := service.CreateProduct(context.Background(), domain.NewProductInput{
		Name:           "  Arborio Rice 10kg ",
		WholesalePrice: 2100,
		RetailPrice:    3400,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.Name != "Arborio Rice 10kg" {
		t.Fatalf("name = %q, want trimmed", product.Name)
	}
	if product.ID == "" {
		t.Fatalf("product id must be generated")
	}
	if _, ok := products.products[product.ID]; !ok {
		t.Fatalf("product was not stored")
	}

	if _, err := service.CreateProduct(context.Background(), domain.NewProductInput{Name: " "}); !errors.Is(err, domain.ErrEmptyName) {
		t.Fatalf("err = %v, want %v", err, domain.ErrEmptyName)
	}
	if _, err := service.CreateProduct(context.Background(), domain.NewProductInput{Name: "x", WholesalePrice: -1}); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidPrice)
	}
}

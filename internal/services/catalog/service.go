// Package catalog serves viewer-facing product reads through price projection.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
	"github.com/harlowe/wholesail/internal/services/catalog/domain"
	"github.com/harlowe/wholesail/internal/services/catalog/storage"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	membersstorage "github.com/harlowe/wholesail/internal/services/members/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	// ErrServiceNotConfigured indicates the catalog service is missing wiring.
	ErrServiceNotConfigured = errors.New("catalog service is not configured")
	// ErrProductNotFound indicates no product matched the identifier.
	ErrProductNotFound = apperrors.New(apperrors.CodeNotFound, "product not found")
)

// MemberReader resolves current member approval state for viewer construction.
type MemberReader interface {
	GetMember(ctx context.Context, memberID string) (membersdomain.Member, error)
}

// Service funnels every catalog read through price projection.
type Service struct {
	products storage.Store
	members  MemberReader
	clock    func() time.Time
}

// NewService builds the catalog read/write service.
func NewService(products storage.Store, members MemberReader, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		products: products,
		members:  members,
		clock:    clock,
	}
}

// ViewerFor constructs the viewer context for one request.
//
// Approval state is read fresh from the member store on every call; session
// claims alone are never trusted because the admission decision may have
// changed since the session was issued. An empty member ID or a session
// pointing at a deleted member yields an unauthenticated viewer.
func (s *Service) ViewerFor(ctx context.Context, memberID string) (domain.ViewerContext, error) {
	if s == nil || s.members == nil {
		return domain.ViewerContext{}, ErrServiceNotConfigured
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return domain.ViewerContext{}, nil
	}
	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, membersstorage.ErrNotFound) {
			return domain.ViewerContext{}, nil
		}
		return domain.ViewerContext{}, apperrors.Wrap(apperrors.CodeExternalService, "resolve viewer member", err)
	}
	return domain.ViewerContext{
		Authenticated: true,
		Approved:      member.Status == membersdomain.StatusApproved,
		Tier:          member.Tier,
	}, nil
}

// GetProduct returns one projected product for the viewer.
func (s *Service) GetProduct(ctx context.Context, productID string, viewer domain.ViewerContext) (domain.ProjectedProduct, error) {
	if s == nil || s.products == nil {
		return domain.ProjectedProduct{}, ErrServiceNotConfigured
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.ProjectedProduct{}, ErrProductNotFound
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ProjectedProduct{}, ErrProductNotFound
		}
		return domain.ProjectedProduct{}, apperrors.Wrap(apperrors.CodeExternalService, "get product", err)
	}
	return domain.Project(product, viewer)
}

// ListInput narrows and pages the viewer product listing.
type ListInput struct {
	Search string
	Page   int
	Limit  int
}

// ProjectedPage is one projected page plus the unpaged match count.
type ProjectedPage struct {
	Products   []domain.ProjectedProduct
	TotalCount int
}

// ListProducts returns one projected page of products for the viewer.
func (s *Service) ListProducts(ctx context.Context, input ListInput, viewer domain.ViewerContext) (ProjectedPage, error) {
	if s == nil || s.products == nil {
		return ProjectedPage{}, ErrServiceNotConfigured
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}

	result, err := s.products.ListProducts(ctx, storage.ListFilter{
		Search: strings.TrimSpace(input.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return ProjectedPage{}, apperrors.Wrap(apperrors.CodeExternalService, "list products", err)
	}

	projected := ProjectedPage{TotalCount: result.TotalCount}
	for _, product := range result.Products {
		view, err := domain.Project(product, viewer)
		if err != nil {
			return ProjectedPage{}, err
		}
		projected.Products = append(projected.Products, view)
	}
	return projected, nil
}

// ListProductsRaw returns one page of products with both stored prices.
//
// This bypasses projection and exists only for the administrative surface;
// the transport layer gates it behind the authorization gate.
func (s *Service) ListProductsRaw(ctx context.Context, input ListInput) (storage.ProductPage, error) {
	if s == nil || s.products == nil {
		return storage.ProductPage{}, ErrServiceNotConfigured
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}

	result, err := s.products.ListProducts(ctx, storage.ListFilter{
		Search: strings.TrimSpace(input.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return storage.ProductPage{}, apperrors.Wrap(apperrors.CodeExternalService, "list products", err)
	}
	return result, nil
}

// CreateProduct stores one new catalog product.
//
// Catalog management is an administrative concern; the transport layer gates
// this behind the authorization gate before calling in.
func (s *Service) CreateProduct(ctx context.Context, input domain.NewProductInput) (domain.Product, error) {
	if s == nil || s.products == nil {
		return domain.Product{}, ErrServiceNotConfigured
	}
	product, err := domain.NewProduct(input, s.clock, nil)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.products.PutProduct(ctx, product); err != nil {
		return domain.Product{}, apperrors.Wrap(apperrors.CodeExternalService, "put product", err)
	}
	return product, nil
}

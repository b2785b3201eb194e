package services

import (
	"context"

	"samsonix/internal/api"
	"samsonix/internal/domain"
)

const defaultPageSize = 12

type CatalogService struct {
	Cats  *api.CategoryClient
	Prods *api.ProductClient
}

func NewCatalogService(cats *api.CategoryClient, prods *api.ProductClient) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.Cats.Get(ctx, id)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// ListProducts clamps the page request and forwards the filter; the page
// echoed by the backend is returned untouched.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	if filter.PageNumber < 1 {
		filter.PageNumber = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	return s.Prods.View(ctx, filter)
}

// HotDeals fetches the first page of hot-deal products for the home page.
func (s *CatalogService) HotDeals(ctx context.Context, n int) ([]domain.Product, error) {
	if n <= 0 {
		n = 4
	}
	hot := true
	page, err := s.Prods.View(ctx, domain.ProductFilter{PageNumber: 1, PageSize: n, HotDeals: &hot})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

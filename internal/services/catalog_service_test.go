package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"samsonix/internal/api"
	"samsonix/internal/domain"
	"samsonix/internal/services"
)

type tokenless struct{}

func (tokenless) Get() (string, error) { return "", nil }

func catalogAgainst(t *testing.T, h http.HandlerFunc) *services.CatalogService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, tokenless{})
	return services.NewCatalogService(api.NewCategoryClient(client), api.NewProductClient(client))
}

func TestListProductsClampsPaging(t *testing.T) {
	var got domain.ProductFilter
	svc := catalogAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		env, _ := json.Marshal(map[string]any{
			"success": true, "successMessage": "", "errorMessage": nil,
			"data": domain.ProductPage{Items: []domain.Product{}, PageNumber: got.PageNumber, PageSize: got.PageSize},
		})
		_, _ = w.Write(env)
	})

	if _, err := svc.ListProducts(context.Background(), domain.ProductFilter{PageNumber: -3, PageSize: 0}); err != nil {
		t.Fatal(err)
	}
	if got.PageNumber != 1 || got.PageSize != 12 {
		t.Fatalf("clamped filter on the wire: page %d size %d", got.PageNumber, got.PageSize)
	}
}

func TestHotDealsRequestsFlaggedProducts(t *testing.T) {
	var got domain.ProductFilter
	svc := catalogAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		env, _ := json.Marshal(map[string]any{
			"success": true, "successMessage": "", "errorMessage": nil,
			"data": domain.ProductPage{Items: []domain.Product{{ProductID: "p1", HotDeals: true}}},
		})
		_, _ = w.Write(env)
	})

	items, err := svc.HotDeals(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.HotDeals == nil || !*got.HotDeals {
		t.Fatalf("hotdeals flag not sent: %+v", got)
	}
	if got.PageSize != 4 {
		t.Fatalf("default hot-deal count: %d", got.PageSize)
	}
	if len(items) != 1 || items[0].ProductID != "p1" {
		t.Fatalf("items: %+v", items)
	}
}

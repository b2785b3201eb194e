package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"samsonix/internal/config"
	"samsonix/internal/domain"
	"samsonix/internal/http/handlers"
	"samsonix/internal/token"
)

func catalogPage() domain.ProductPage {
	return domain.ProductPage{
		Items: []domain.Product{
			{ProductID: "prod-s24", CategoryID: "cat-phones", Name: "Galaxy S24", Description: "Flagship smartphone"},
			{ProductID: "prod-buds", CategoryID: "cat-audio", Name: "Buds Pro", Description: "Noise-cancelling earbuds"},
		},
		TotalCount: 2,
		PageNumber: 1,
		PageSize:   12,
	}
}

func newAdminListApp(t *testing.T) *fiber.App {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var data any
		switch r.URL.Path {
		case "/product/view":
			data = catalogPage()
		case "/category/all":
			data = []domain.Category{
				{CategoryID: "cat-phones", CategoryName: "Smartphones"},
				{CategoryID: "cat-audio", CategoryName: "Audio"},
			}
		}
		env, _ := json.Marshal(map[string]any{
			"success": true, "successMessage": "", "errorMessage": nil, "data": data,
		})
		_, _ = w.Write(env)
	}))
	t.Cleanup(backend.Close)

	tokens, err := token.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tokens.Close() })
	if err := tokens.Set(wellFormedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	deps := handlers.NewDeps(config.Config{APIBaseURL: backend.URL}, tokens)
	engine := html.New("../../../web/templates", ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	app := fiber.New(fiber.Config{Views: engine})
	admin := app.Group("/admin", handlers.RequireSession(deps.Session))
	admin.Get("/products", deps.AdminProducts.List)
	return app
}

func adminListBody(t *testing.T, app *fiber.App, target string) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil), 5000)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: %d", target, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

// The search box and category select narrow the fetched page in place; they
// do not travel to the backend, whose view filter has no category or text
// parameter.
func TestAdminListFiltersWithinPage(t *testing.T) {
	app := newAdminListApp(t)

	full := adminListBody(t, app, "/admin/products")
	if !strings.Contains(full, "Galaxy S24") || !strings.Contains(full, "Buds Pro") {
		t.Fatalf("unfiltered table missing rows:\n%s", full)
	}

	byText := adminListBody(t, app, "/admin/products?q=buds")
	if strings.Contains(byText, "Galaxy S24") || !strings.Contains(byText, "Buds Pro") {
		t.Fatal("search box did not narrow the page")
	}

	// the description is searched too
	byDesc := adminListBody(t, app, "/admin/products?q=flagship")
	if !strings.Contains(byDesc, "Galaxy S24") || strings.Contains(byDesc, "Buds Pro") {
		t.Fatal("description search did not narrow the page")
	}

	byCat := adminListBody(t, app, "/admin/products?category=cat-audio")
	if strings.Contains(byCat, "Galaxy S24") || !strings.Contains(byCat, "Buds Pro") {
		t.Fatal("category select did not narrow the page")
	}
}

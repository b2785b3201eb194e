package stub_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/domain"
	"samsonix/internal/session"
	"samsonix/internal/stub"
)

type envelope struct {
	Success        bool            `json:"success"`
	SuccessMessage string          `json:"successMessage"`
	ErrorMessage   string          `json:"errorMessage"`
	Data           json.RawMessage `json:"data"`
}

func newStub(t *testing.T) (*fiber.App, *stub.Store) {
	t.Helper()
	store, err := stub.OpenStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	srv := stub.NewServer(store, stub.Options{Secret: "test-secret"})
	return srv.App(), store
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, env := call(t, app, "POST", "/api/user/login", "",
		map[string]string{"email": "admin@samsonix.test", "password": "Passw0rd!"})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("login failed: %d %s", status, env.ErrorMessage)
	}
	var tok string
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestLoginIssuesWellFormedToken(t *testing.T) {
	app, _ := newStub(t)

	tok := login(t, app)
	if !session.VerifyFormat(tok, time.Now()) {
		t.Fatalf("issued token fails format verification: %s", tok)
	}

	// wrong password fails inside the envelope, not at the HTTP layer
	status, env := call(t, app, "POST", "/api/user/login", "",
		map[string]string{"email": "admin@samsonix.test", "password": "nope-nope"})
	if status != http.StatusOK {
		t.Fatalf("failed login status: %d", status)
	}
	if env.Success || env.ErrorMessage != "Invalid credentials" {
		t.Fatalf("failed login envelope: %+v", env)
	}
}

func TestMutationsRequireBearer(t *testing.T) {
	app, _ := newStub(t)

	status, _ := call(t, app, "POST", "/api/category", "", domain.Category{CategoryName: "Wearables"})
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: want 401, got %d", status)
	}

	status, _ = call(t, app, "POST", "/api/category", "garbage.token.here", domain.Category{CategoryName: "Wearables"})
	if status != http.StatusUnauthorized {
		t.Fatalf("forged token: want 401, got %d", status)
	}

	status, env := call(t, app, "POST", "/api/category", login(t, app), domain.Category{CategoryName: "Wearables"})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("authenticated create: %d %s", status, env.ErrorMessage)
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	app, _ := newStub(t)
	tok := login(t, app)

	cat := domain.Category{
		CategoryName: "Wearables",
		Attributes: []domain.CategoryAttribute{
			{AttributeName: "Band Size", Type: domain.AttributeDropdown, IsRequired: true,
				PossibleValues: []string{"S", "M", "L"}},
			{AttributeName: "GPS", Type: domain.AttributeCheckbox},
		},
	}
	if status, env := call(t, app, "POST", "/api/category", tok, cat); status != http.StatusOK || !env.Success {
		t.Fatalf("create: %d %+v", status, env)
	}

	_, env := call(t, app, "GET", "/api/category/all", "", nil)
	var cats []domain.Category
	if err := json.Unmarshal(env.Data, &cats); err != nil {
		t.Fatal(err)
	}
	var got *domain.Category
	for i := range cats {
		if cats[i].CategoryName == "Wearables" {
			got = &cats[i]
		}
	}
	if got == nil {
		t.Fatal("created category not listed")
	}
	if len(got.Attributes) != 2 || got.Attributes[0].AttributeName != "Band Size" {
		t.Fatalf("schema round trip: %+v", got.Attributes)
	}
	if len(got.Attributes[0].PossibleValues) != 3 {
		t.Fatalf("dropdown options round trip: %+v", got.Attributes[0].PossibleValues)
	}
}

// Paging slices a known population and echoes the request unclamped.
func TestViewProductsPaging(t *testing.T) {
	app, store := newStub(t)

	// the seed ships 4 products; top up to 25
	qty, price := 1, 9.99
	for i := 0; i < 21; i++ {
		_, err := store.CreateProduct(domain.Product{
			CategoryID:  "cat-audio",
			Name:        fmt.Sprintf("Speaker %02d", i),
			Description: "Bookshelf speaker",
			Quantity:    &qty,
			UnitPrice:   &price,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	view := func(page, size int) domain.ProductPage {
		t.Helper()
		status, env := call(t, app, "POST", "/api/product/view", "",
			domain.ProductFilter{PageNumber: page, PageSize: size})
		if status != http.StatusOK || !env.Success {
			t.Fatalf("view: %d %s", status, env.ErrorMessage)
		}
		var pp domain.ProductPage
		if err := json.Unmarshal(env.Data, &pp); err != nil {
			t.Fatal(err)
		}
		return pp
	}

	p2 := view(2, 12)
	if p2.TotalCount != 25 || len(p2.Items) != 12 {
		t.Fatalf("page 2: total %d, items %d", p2.TotalCount, len(p2.Items))
	}
	if p2.PageNumber != 2 || p2.PageSize != 12 || p2.TotalPages() != 3 {
		t.Fatalf("page 2 echo: %+v", p2)
	}

	if p3 := view(3, 12); len(p3.Items) != 1 {
		t.Fatalf("last page: %d items", len(p3.Items))
	}

	// a page past the end comes back empty but still echoed as requested
	if p99 := view(99, 12); len(p99.Items) != 0 || p99.PageNumber != 99 {
		t.Fatalf("page 99: %d items, echoed %d", len(p99.Items), p99.PageNumber)
	}
}

func TestViewProductsPriceFilter(t *testing.T) {
	app, _ := newStub(t)

	min, max := 400.0, 1000.0
	status, env := call(t, app, "POST", "/api/product/view", "",
		domain.ProductFilter{PageNumber: 1, PageSize: 10, MinPrice: &min, MaxPrice: &max})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("view: %d %s", status, env.ErrorMessage)
	}
	var pp domain.ProductPage
	if err := json.Unmarshal(env.Data, &pp); err != nil {
		t.Fatal(err)
	}
	// seed prices: 999, 449, 1299, 199
	if pp.TotalCount != 2 {
		t.Fatalf("price band [400,1000]: want 2 products, got %d", pp.TotalCount)
	}
	for _, p := range pp.Items {
		if p.UnitPrice == nil || *p.UnitPrice < min || *p.UnitPrice > max {
			t.Fatalf("product outside band: %+v", p)
		}
	}
}

func TestGetProductCarriesAttributes(t *testing.T) {
	app, _ := newStub(t)

	status, env := call(t, app, "GET", "/api/product/prod-s24", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("get: %d %s", status, env.ErrorMessage)
	}
	var p domain.Product
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Attributes) != 3 {
		t.Fatalf("attributes: %+v", p.Attributes)
	}
	var fiveG *domain.ProductAttribute
	for i := range p.Attributes {
		if p.Attributes[i].CategoryAttrID == "attr-5g" {
			fiveG = &p.Attributes[i]
		}
	}
	if fiveG == nil || fiveG.AttributeValue != "true" || fiveG.Type != domain.AttributeCheckbox {
		t.Fatalf("checkbox attribute on the wire: %+v", fiveG)
	}

	if status, _ := call(t, app, "GET", "/api/product/prod-nope", "", nil); status != http.StatusNotFound {
		t.Fatalf("missing product: want 404, got %d", status)
	}
}

package api_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"samsonix/internal/api"
	"samsonix/internal/domain"
	"samsonix/internal/services"
	"samsonix/internal/token"
)

type staticTokens struct{ tok string }

func (s *staticTokens) Get() (string, error) { return s.tok, nil }

func okEnvelope(data any) string {
	b, _ := json.Marshal(map[string]any{
		"success": true, "successMessage": "", "errorMessage": nil, "data": data,
	})
	return string(b)
}

func TestBearerAttachedWhenTokenPresent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(okEnvelope([]domain.Category{})))
	}))
	defer srv.Close()

	c := api.NewCategoryClient(api.NewClient(srv.URL, &staticTokens{tok: "tok-123"}))
	if _, err := c.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer tok-123" {
		t.Fatalf("Authorization header: %q", got)
	}
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(okEnvelope([]domain.Category{})))
	}))
	defer srv.Close()

	c := api.NewCategoryClient(api.NewClient(srv.URL, &staticTokens{}))
	if _, err := c.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("logged-out request carried Authorization %q", got)
	}
}

func TestEnvelopeFailureMapsToAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"successMessage":null,"errorMessage":"Category not found","data":null}`))
	}))
	defer srv.Close()

	c := api.NewCategoryClient(api.NewClient(srv.URL, &staticTokens{}))
	_, err := c.Get(context.Background(), "cat-missing")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Message != "Category not found" {
		t.Fatalf("message: %q", apiErr.Message)
	}
}

func TestEnvelopeFailureWithoutMessageGetsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"successMessage":null,"errorMessage":null,"data":null}`))
	}))
	defer srv.Close()

	c := api.NewCategoryClient(api.NewClient(srv.URL, &staticTokens{}))
	_, err := c.List(context.Background())
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Message != "Request failed" {
		t.Fatalf("message: %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("status: %d", apiErr.Status)
	}
}

func TestNetworkFailureIsNotAPIError(t *testing.T) {
	c := api.NewCategoryClient(api.NewClient("http://127.0.0.1:1", &staticTokens{}))
	_, err := c.List(context.Background())
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want NetworkError, got %v", err)
	}
}

// A backend 401 forces exactly one logout: the first response clears the
// token slot, later ones find the session already unauthenticated.
func TestUnauthorizedClearsTokenExactlyOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens, err := token.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer tokens.Close()

	client := api.NewClient(srv.URL, tokens)
	sess := services.NewSessionManager(tokens, api.NewUserClient(client))
	client.OnUnauthorized(sess.Invalidate)

	if err := tokens.Set(expiringToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	var clears int
	tokens.Watch(func() {
		if tok, _ := tokens.Get(); tok == "" {
			clears++
		}
	})

	cats := api.NewCategoryClient(client)
	for i := 0; i < 3; i++ {
		if _, err := cats.List(context.Background()); !errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("call %d: want ErrUnauthorized, got %v", i, err)
		}
	}

	if clears != 1 {
		t.Fatalf("token slot cleared %d times, want once", clears)
	}
	if sess.State() != services.StateUnauthenticated {
		t.Fatalf("state after 401: %s", sess.State())
	}
}

func expiringToken(t *testing.T, exp time.Time) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(map[string]any{"alg": "HS256", "typ": "JWT"}) + "." +
		enc(map[string]any{"exp": exp.Unix()}) + ".sig"
}

func TestProductCreateEncodesMultipartContract(t *testing.T) {
	var form struct {
		fields map[string]string
		image  string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		form.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form.fields[k] = v[0]
		}
		if fhs := r.MultipartForm.File["ProductImage"]; len(fhs) > 0 {
			form.image = fhs[0].Filename
		}
		_, _ = w.Write([]byte(okEnvelope(nil)))
	}))
	defer srv.Close()

	pc := api.NewProductClient(api.NewClient(srv.URL, &staticTokens{tok: "tok"}))
	_, err := pc.Create(context.Background(), api.ProductForm{
		CategoryID:  "cat-phones",
		Name:        "Galaxy S24",
		Description: "Flagship smartphone",
		Quantity:    15,
		UnitPrice:   999,
		HotDeals:    true,
		Attributes: []domain.ProductAttribute{
			{CategoryAttrID: "attr-5g", AttributeName: "5G", AttributeValue: "true", Type: domain.AttributeCheckbox},
		},
		Image: &api.ImageUpload{Filename: "s24.jpg", Content: strings.NewReader("jpeg-bytes")},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"CategoryId":         "cat-phones",
		"ProductName":        "Galaxy S24",
		"ProductDescription": "Flagship smartphone",
		"ProductQuantity":    "15",
		"ProductUnitPrice":   "999",
		"HotDeals":           "true",
	}
	for k, v := range want {
		if form.fields[k] != v {
			t.Errorf("field %s: want %q, got %q", k, v, form.fields[k])
		}
	}
	var attrs []domain.ProductAttribute
	if err := json.Unmarshal([]byte(form.fields["ProductAttributes"]), &attrs); err != nil {
		t.Fatalf("ProductAttributes not valid JSON: %v", err)
	}
	if len(attrs) != 1 || attrs[0].AttributeValue != "true" {
		t.Fatalf("attributes on the wire: %+v", attrs)
	}
	if form.image != "s24.jpg" {
		t.Fatalf("image part: %q", form.image)
	}
}

func TestViewSendsFilterInBodyAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pageNumber") != "2" || q.Get("pageSize") != "12" {
			t.Errorf("query paging: %s", r.URL.RawQuery)
		}
		var filter domain.ProductFilter
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if filter.PageNumber != 2 || filter.PageSize != 12 {
			t.Errorf("body paging: %+v", filter)
		}
		if filter.MinPrice == nil || *filter.MinPrice != 100 {
			t.Errorf("body minPrice: %+v", filter.MinPrice)
		}
		_, _ = w.Write([]byte(okEnvelope(domain.ProductPage{
			Items: []domain.Product{}, TotalCount: 25, PageNumber: 2, PageSize: 12,
		})))
	}))
	defer srv.Close()

	min := 100.0
	pc := api.NewProductClient(api.NewClient(srv.URL, &staticTokens{}))
	page, err := pc.View(context.Background(), domain.ProductFilter{PageNumber: 2, PageSize: 12, MinPrice: &min})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 25 || page.TotalPages() != 3 {
		t.Fatalf("page math: total %d, pages %d", page.TotalCount, page.TotalPages())
	}
}

package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"samsonix/internal/domain"
)

// Server exposes the catalog REST surface the storefront consumes, wrapped
// in the usual {success, successMessage, errorMessage, data} envelope.
type Server struct {
	store    *Store
	secret   []byte
	tokenTTL time.Duration
	mediaDir string
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	MediaDir string
}

func NewServer(store *Store, opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "samsonix-dev-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	return &Server{store: store, secret: []byte(opts.Secret), tokenTTL: opts.TokenTTL, mediaDir: opts.MediaDir}
}

func ok(c *fiber.Ctx, msg string, data any) error {
	return c.JSON(fiber.Map{"success": true, "successMessage": msg, "errorMessage": nil, "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "successMessage": nil, "errorMessage": msg, "data": nil})
}

// App builds the Fiber application with all routes mounted under /api.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api")
	api.Post("/user/login", s.login)
	api.Post("/user/change-password", s.requireToken, s.changePassword)

	api.Get("/category/all", s.listCategories)
	api.Get("/category/:id", s.getCategory)
	api.Post("/category", s.requireToken, s.createCategory)
	api.Put("/category/:id", s.requireToken, s.updateCategory)
	api.Delete("/category/:id", s.requireToken, s.deleteCategory)

	api.Post("/product/view", s.viewProducts)
	api.Get("/product/:id", s.getProduct)
	api.Post("/product", s.requireToken, s.createProduct)
	api.Put("/product/:id", s.requireToken, s.updateProduct)
	api.Delete("/product/:id", s.requireToken, s.deleteProduct)

	if s.mediaDir != "" {
		app.Static("/media", s.mediaDir)
	}
	return app
}

// requireToken guards mutating endpoints with the issued HS256 bearer token.
func (s *Server) requireToken(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return fail(c, fiber.StatusUnauthorized, "Missing bearer token")
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, okm := t.Method.(*jwt.SigningMethodHMAC); !okm {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if claims, okc := tok.Claims.(jwt.MapClaims); okc {
		if sub, _ := claims.GetSubject(); sub != "" {
			c.Locals("email", sub)
		}
	}
	return c.Next()
}

func (s *Server) login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Malformed request body")
	}
	if !s.store.Authenticate(body.Email, body.Password) {
		return fail(c, fiber.StatusOK, "Invalid credentials")
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": body.Email,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not issue token")
	}
	return ok(c, "Login successful", signed)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Malformed request body")
	}
	email, _ := c.Locals("email").(string)
	if err := s.store.ChangePassword(email, body.CurrentPassword, body.NewPassword); err != nil {
		return fail(c, fiber.StatusOK, err.Error())
	}
	return ok(c, "Password updated", nil)
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	cats, err := s.store.ListCategories()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not load categories")
	}
	return ok(c, "", cats)
}

func (s *Server) getCategory(c *fiber.Ctx) error {
	cat, err := s.store.GetCategory(c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not load category")
	}
	return ok(c, "", cat)
}

func (s *Server) createCategory(c *fiber.Ctx) error {
	cat, err := parseCategory(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if _, err := s.store.CreateCategory(cat); err != nil {
		return fail(c, fiber.StatusOK, "Could not create category: "+err.Error())
	}
	return ok(c, "Category created successfully", nil)
}

func (s *Server) updateCategory(c *fiber.Ctx) error {
	cat, err := parseCategory(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	err = s.store.UpdateCategory(c.Params("id"), cat)
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		return fail(c, fiber.StatusOK, "Could not update category: "+err.Error())
	}
	return ok(c, "Category updated successfully", nil)
}

func parseCategory(c *fiber.Ctx) (domain.Category, error) {
	var cat domain.Category
	if err := json.Unmarshal(c.Body(), &cat); err != nil {
		return domain.Category{}, errors.New("malformed category payload")
	}
	if strings.TrimSpace(cat.CategoryName) == "" {
		return domain.Category{}, errors.New("categoryName is required")
	}
	for _, a := range cat.Attributes {
		if _, err := domain.ParseAttributeType(string(a.Type)); err != nil {
			return domain.Category{}, err
		}
	}
	return cat, nil
}

func (s *Server) deleteCategory(c *fiber.Ctx) error {
	err := s.store.DeleteCategory(c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		return fail(c, fiber.StatusOK, "Could not delete category: "+err.Error())
	}
	return ok(c, "Category deleted successfully", nil)
}

func (s *Server) viewProducts(c *fiber.Ctx) error {
	var filter domain.ProductFilter
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &filter); err != nil {
			return fail(c, fiber.StatusBadRequest, "Malformed filter payload")
		}
	}
	if filter.PageNumber < 1 {
		filter.PageNumber = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	page, err := s.store.ViewProducts(filter)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not load products")
	}
	return ok(c, "", page)
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	p, err := s.store.GetProduct(c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not load product")
	}
	return ok(c, "", p)
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	p, err := s.parseProductForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if _, err := s.store.CreateProduct(p); err != nil {
		return fail(c, fiber.StatusOK, "Could not create product: "+err.Error())
	}
	return ok(c, "Product created successfully", nil)
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	p, err := s.parseProductForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	err = s.store.UpdateProduct(c.Params("id"), p)
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err != nil {
		return fail(c, fiber.StatusOK, "Could not update product: "+err.Error())
	}
	return ok(c, "Product updated successfully", nil)
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	err := s.store.DeleteProduct(c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	if err != nil {
		return fail(c, fiber.StatusOK, "Could not delete product: "+err.Error())
	}
	return ok(c, "Product deleted successfully", nil)
}

// parseProductForm reads the PascalCase multipart contract. A missing
// ProductImage part leaves ImageURL empty, which the store treats as
// "keep the existing image" on update.
func (s *Server) parseProductForm(c *fiber.Ctx) (domain.Product, error) {
	var p domain.Product
	p.CategoryID = c.FormValue("CategoryId")
	p.Name = c.FormValue("ProductName")
	p.Description = c.FormValue("ProductDescription")
	if p.CategoryID == "" || p.Name == "" {
		return domain.Product{}, errors.New("CategoryId and ProductName are required")
	}

	if qv := c.FormValue("ProductQuantity"); qv != "" {
		q, err := strconv.Atoi(qv)
		if err != nil || q < 0 {
			return domain.Product{}, errors.New("ProductQuantity must be a non-negative integer")
		}
		p.Quantity = &q
	}
	if pv := c.FormValue("ProductUnitPrice"); pv != "" {
		price, err := strconv.ParseFloat(pv, 64)
		if err != nil || price <= 0 {
			return domain.Product{}, errors.New("ProductUnitPrice must be a positive number")
		}
		p.UnitPrice = &price
	}
	p.HotDeals = c.FormValue("HotDeals") == "true"

	if raw := c.FormValue("ProductAttributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Attributes); err != nil {
			return domain.Product{}, errors.New("ProductAttributes must be a JSON array")
		}
	}

	file, err := c.FormFile("ProductImage")
	if err == nil && file != nil && s.mediaDir != "" {
		name := fmt.Sprintf("upload-%d%s", time.Now().UnixNano(), filepath.Ext(file.Filename))
		if err := c.SaveFile(file, filepath.Join(s.mediaDir, name)); err != nil {
			return domain.Product{}, fmt.Errorf("save image: %w", err)
		}
		p.ImageURL = "/media/" + name
	}
	return p, nil
}

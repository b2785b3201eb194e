package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/domain"
	applog "samsonix/internal/log"
	"samsonix/internal/services"
	"samsonix/internal/validate"
)

// ProductHandler serves the public product listing and detail pages.
type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	filter := domain.ProductFilter{
		PageNumber: c.QueryInt("page", 1),
		PageSize:   c.QueryInt("size", 12),
	}
	if v := c.Query("min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			filter.MinPrice = &f
		}
	}
	if v := c.Query("max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			filter.MaxPrice = &f
		}
	}
	if c.Query("hot") == "1" {
		hot := true
		filter.HotDeals = &hot
	}

	page, err := h.Catalog.ListProducts(c.Context(), filter)
	if err != nil {
		applog.Error(c, "products.list.fail", err, nil)
		return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{
			"Message": "Products are unavailable right now. Please try again shortly.",
		})
	}
	return render(c, "products", fiber.Map{
		"Page":   page,
		"Pages":  page.TotalPages(),
		"Filter": filter,
		"Hot":    filter.HotDeals != nil,
	})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(c.Context(), id)
	if err != nil || p.ProductID == "" {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	return render(c, "product", fiber.Map{"P": p})
}

package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/api"
	"samsonix/internal/domain"
	applog "samsonix/internal/log"
	"samsonix/internal/services"
	"samsonix/internal/validate"
)

type AdminCategoryHandler struct {
	Catalog    *services.CatalogService
	Categories *api.CategoryClient
}

// GET /admin/categories
func (h *AdminCategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.Context())
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.categories.list.fail", err, nil)
		flash(c, "error", "Failed to fetch categories")
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

// GET /admin/categories/new and /admin/categories/:id/edit
func (h *AdminCategoryHandler) Form(c *fiber.Ctx) error {
	var cat domain.Category
	if id := c.Params("id"); id != "" {
		var err error
		cat, err = h.Catalog.GetCategory(c.Context(), id)
		if err != nil {
			if done, rerr := redirectOnAuthErr(c, err); done {
				return rerr
			}
			applog.Error(c, "admin.categories.load.fail", err, map[string]any{"category_id": id})
			flash(c, "error", "Failed to fetch category")
			return c.Redirect("/admin/categories")
		}
	}
	return render(c, "admin_category_form", fiber.Map{"Cat": cat})
}

// POST /admin/categories. The schema builder posts indexed rows:
// attr_name_i, attr_type_i, attr_required_i, attr_values_i (one option per
// line) and attr_id_i for attributes that already exist.
func (h *AdminCategoryHandler) Save(c *fiber.Ctx) error {
	categoryID := c.FormValue("category_id")
	cat := domain.Category{CategoryName: strings.TrimSpace(c.FormValue("name"))}
	if cat.CategoryName == "" {
		return c.Status(fiber.StatusBadRequest).Render("admin_category_form", fiber.Map{
			"Cat": cat, "Err": "Category name is required", "CSRFToken": csrfToken(c), "Authenticated": true,
		})
	}

	for i := 0; ; i++ {
		name := strings.TrimSpace(c.FormValue(fmt.Sprintf("attr_name_%d", i), "\x00"))
		if name == "\x00" {
			break
		}
		if name == "" {
			continue // an emptied row in the builder
		}
		kind, err := domain.ParseAttributeType(c.FormValue(fmt.Sprintf("attr_type_%d", i)))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).Render("admin_category_form", fiber.Map{
				"Cat": cat, "Err": err.Error(), "CSRFToken": csrfToken(c), "Authenticated": true,
			})
		}
		attr := domain.CategoryAttribute{
			AttributeID:   c.FormValue(fmt.Sprintf("attr_id_%d", i)),
			AttributeName: name,
			Type:          kind,
			IsRequired:    c.FormValue(fmt.Sprintf("attr_required_%d", i)) == "on",
		}
		if kind == domain.AttributeDropdown || kind == domain.AttributeCheckbox {
			for _, line := range strings.Split(c.FormValue(fmt.Sprintf("attr_values_%d", i)), "\n") {
				if v := strings.TrimSpace(line); v != "" {
					attr.PossibleValues = append(attr.PossibleValues, v)
				}
			}
		}
		if kind == domain.AttributeDropdown && len(attr.PossibleValues) == 0 {
			return c.Status(fiber.StatusBadRequest).Render("admin_category_form", fiber.Map{
				"Cat": cat, "Err": name + ": a dropdown needs at least one value", "CSRFToken": csrfToken(c), "Authenticated": true,
			})
		}
		cat.Attributes = append(cat.Attributes, attr)
	}

	var msg string
	var err error
	if categoryID == "" {
		msg, err = h.Categories.Create(c.Context(), cat)
	} else {
		msg, err = h.Categories.Update(c.Context(), categoryID, cat)
	}
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.categories.save.fail", err, map[string]any{"category_id": categoryID})
		cat.CategoryID = categoryID
		return render(c, "admin_category_form", fiber.Map{"Cat": cat, "Err": errorMessage(err)})
	}

	if msg == "" {
		msg = "Category saved successfully"
	}
	applog.Audit(c, "admin.categories.save", map[string]any{"category_id": categoryID, "name": cat.CategoryName})
	flash(c, "success", msg)
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id/delete
func (h *AdminCategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	msg, err := h.Categories.Delete(c.Context(), id)
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.categories.delete.fail", err, map[string]any{"category_id": id})
		flash(c, "error", errorMessage(err))
		return c.Redirect("/admin/categories")
	}
	if msg == "" {
		msg = "Category deleted successfully"
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	flash(c, "success", msg)
	return c.Redirect("/admin/categories")
}

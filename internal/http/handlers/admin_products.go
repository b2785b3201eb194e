package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/api"
	"samsonix/internal/domain"
	applog "samsonix/internal/log"
	"samsonix/internal/services"
	"samsonix/internal/validate"
)

type AdminProductHandler struct {
	Catalog  *services.CatalogService
	Products *api.ProductClient
}

// attrField is the template-facing view of one attribute editor.
type attrField struct {
	Index    int
	Name     string
	Kind     domain.AttributeType
	Required bool
	Options  []string
	Value    string
	Checked  bool
	Err      string
}

func attrFields(editors []services.AttributeEditor, errs map[string]string) []attrField {
	out := make([]attrField, 0, len(editors))
	for i, ed := range editors {
		attr := ed.Schema()
		out = append(out, attrField{
			Index:    i,
			Name:     attr.AttributeName,
			Kind:     attr.Type,
			Required: attr.IsRequired,
			Options:  attr.PossibleValues,
			Value:    ed.Value(),
			Checked:  attr.Type == domain.AttributeCheckbox && ed.Value() == "true",
			Err:      errs[attr.AttributeName],
		})
	}
	return out
}

// GET /admin/products
func (h *AdminProductHandler) List(c *fiber.Ctx) error {
	filter := domain.ProductFilter{
		PageNumber: c.QueryInt("page", 1),
		PageSize:   c.QueryInt("size", 12),
	}
	page, err := h.Catalog.ListProducts(c.Context(), filter)
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.products.list.fail", err, nil)
		flash(c, "error", "Failed to fetch products")
		page = domain.ProductPage{PageNumber: 1, PageSize: filter.PageSize}
	}

	// Search and category filter are applied over the fetched page, like the
	// admin table's client-side filter box.
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	catID := c.Query("category")
	if q != "" || catID != "" {
		kept := page.Items[:0]
		for _, p := range page.Items {
			if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
				!strings.Contains(strings.ToLower(p.Description), q) {
				continue
			}
			if catID != "" && p.CategoryID != catID {
				continue
			}
			kept = append(kept, p)
		}
		page.Items = kept
	}

	cats, err := h.Catalog.ListCategories(c.Context())
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.categories.list.fail", err, nil)
	}
	return render(c, "admin_products", fiber.Map{
		"Page":       page,
		"Pages":      page.TotalPages(),
		"Categories": cats,
		"Query":      c.Query("q"),
		"CategoryID": catID,
	})
}

// GET /admin/products/new and /admin/products/:id/edit. The category select
// re-submits this route with ?category=, which rebuilds the attribute
// editors from the newly selected schema; values whose attribute id is not
// in that schema are dropped.
func (h *AdminProductHandler) Form(c *fiber.Ctx) error {
	var product domain.Product
	if id := c.Params("id"); id != "" {
		var err error
		product, err = h.Catalog.GetProduct(c.Context(), id)
		if err != nil {
			if done, rerr := redirectOnAuthErr(c, err); done {
				return rerr
			}
			applog.Error(c, "admin.products.load.fail", err, map[string]any{"product_id": id})
			flash(c, "error", "Failed to fetch product")
			return c.Redirect("/admin/products")
		}
	}

	categoryID := c.Query("category", product.CategoryID)
	var fields []attrField
	if categoryID != "" {
		cat, err := h.Catalog.GetCategory(c.Context(), categoryID)
		if err != nil {
			if done, rerr := redirectOnAuthErr(c, err); done {
				return rerr
			}
			applog.Error(c, "admin.products.schema.fail", err, map[string]any{"category_id": categoryID})
		} else {
			editors, berr := services.BuildEditors(cat.Attributes, product.Attributes)
			if berr != nil {
				applog.Error(c, "admin.products.schema.fail", berr, map[string]any{"category_id": categoryID})
			} else {
				fields = attrFields(editors, nil)
			}
		}
	}

	cats, err := h.Catalog.ListCategories(c.Context())
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.categories.list.fail", err, nil)
	}
	return render(c, "admin_product_form", fiber.Map{
		"P":          product,
		"CategoryID": categoryID,
		"Categories": cats,
		"Attrs":      fields,
	})
}

type productFormDTO struct {
	CategoryID  string  `validate:"required"`
	Name        string  `validate:"required,min=2,max=120"`
	Description string  `validate:"required,min=10,max=2000"`
	Quantity    int     `validate:"gte=0"`
	UnitPrice   float64 `validate:"gt=0"`
}

// POST /admin/products
func (h *AdminProductHandler) Save(c *fiber.Ctx) error {
	productID := c.FormValue("product_id")

	qty, qerr := strconv.Atoi(c.FormValue("quantity", "0"))
	price, perr := strconv.ParseFloat(c.FormValue("unit_price", "0"), 64)
	dto := productFormDTO{
		CategoryID:  c.FormValue("category_id"),
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Quantity:    qty,
		UnitPrice:   price,
	}
	errs := validate.Struct(dto)
	if errs == nil {
		errs = map[string]string{}
	}
	if qerr != nil {
		errs["Quantity"] = "Quantity must be a whole number"
	}
	if perr != nil {
		errs["UnitPrice"] = "Price must be a number"
	}

	var editors []services.AttributeEditor
	if dto.CategoryID != "" {
		cat, err := h.Catalog.GetCategory(c.Context(), dto.CategoryID)
		if err != nil {
			if done, rerr := redirectOnAuthErr(c, err); done {
				return rerr
			}
			applog.Error(c, "admin.products.schema.fail", err, map[string]any{"category_id": dto.CategoryID})
			errs["CategoryID"] = "Could not load the category schema"
		} else {
			editors, err = services.BuildEditors(cat.Attributes, nil)
			if err != nil {
				errs["CategoryID"] = err.Error()
			} else if err := services.ApplyFormValues(editors, func(name string) string { return c.FormValue(name) }); err != nil {
				errs["Attributes"] = err.Error()
			}
			for name, msg := range services.ValidateEditors(editors) {
				errs[name] = msg
			}
		}
	}

	if len(errs) > 0 {
		return h.rerenderForm(c, productID, dto, editors, errs)
	}

	form := api.ProductForm{
		CategoryID:  dto.CategoryID,
		Name:        dto.Name,
		Description: dto.Description,
		Quantity:    dto.Quantity,
		UnitPrice:   dto.UnitPrice,
		HotDeals:    c.FormValue("hot_deals") == "on",
		Attributes:  services.SerializeEditors(editors),
	}
	if file, err := c.FormFile("product_image"); err == nil && file != nil {
		f, oerr := file.Open()
		if oerr != nil {
			applog.Error(c, "admin.products.image.fail", oerr, nil)
			errs["Image"] = "Could not read the uploaded image"
			return h.rerenderForm(c, productID, dto, editors, errs)
		}
		defer f.Close()
		form.Image = &api.ImageUpload{Filename: file.Filename, Content: f}
	}

	var msg string
	var err error
	if productID == "" {
		msg, err = h.Products.Create(c.Context(), form)
	} else {
		msg, err = h.Products.Update(c.Context(), productID, form)
	}
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.products.save.fail", err, map[string]any{"product_id": productID})
		errs["Form"] = errorMessage(err)
		return h.rerenderForm(c, productID, dto, editors, errs)
	}

	if msg == "" {
		msg = "Product saved successfully"
	}
	applog.Audit(c, "admin.products.save", map[string]any{"product_id": productID, "name": dto.Name})
	flash(c, "success", msg)
	return c.Redirect("/admin/products")
}

func (h *AdminProductHandler) rerenderForm(c *fiber.Ctx, productID string, dto productFormDTO, editors []services.AttributeEditor, errs map[string]string) error {
	cats, err := h.Catalog.ListCategories(c.Context())
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
	}
	return c.Status(fiber.StatusBadRequest).Render("admin_product_form", fiber.Map{
		"P": domain.Product{
			ProductID:   productID,
			CategoryID:  dto.CategoryID,
			Name:        dto.Name,
			Description: dto.Description,
			Quantity:    &dto.Quantity,
			UnitPrice:   &dto.UnitPrice,
			HotDeals:    c.FormValue("hot_deals") == "on",
		},
		"CategoryID":    dto.CategoryID,
		"Categories":    cats,
		"Attrs":         attrFields(editors, errs),
		"Errors":        errs,
		"CSRFToken":     csrfToken(c),
		"Authenticated": true,
	})
}

// POST /admin/products/:id/delete
func (h *AdminProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	msg, err := h.Products.Delete(c.Context(), id)
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "admin.products.delete.fail", err, map[string]any{"product_id": id})
		flash(c, "error", errorMessage(err))
		return c.Redirect("/admin/products")
	}
	if msg == "" {
		msg = "Product deleted successfully"
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	flash(c, "success", msg)
	return c.Redirect("/admin/products")
}

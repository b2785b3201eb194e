package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "samsonix/internal/log"
	"samsonix/internal/mail"
	"samsonix/internal/services"
	"samsonix/internal/validate"
)

// PageHandler serves the public storefront pages.
type PageHandler struct {
	Catalog *services.CatalogService
	Mailer  *mail.Mailer
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.Context())
	if err != nil {
		applog.Error(c, "home.categories.fail", err, nil)
		cats = nil // the page still renders without the category strip
	}
	hot, err := h.Catalog.HotDeals(c.Context(), 4)
	if err != nil {
		applog.Error(c, "home.hotdeals.fail", err, nil)
	}
	return render(c, "home", fiber.Map{"Categories": cats, "HotDeals": hot})
}

func (h *PageHandler) About(c *fiber.Ctx) error {
	return render(c, "about", fiber.Map{})
}

func (h *PageHandler) WhyChooseUs(c *fiber.Ctx) error {
	return render(c, "why_choose_us", fiber.Map{})
}

func (h *PageHandler) ContactForm(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{})
}

type contactDTO struct {
	Name    string `validate:"required,min=2,max=100"`
	Email   string `validate:"required,email"`
	Subject string `validate:"required,min=5,max=120"`
	Message string `validate:"required,min=10,max=4000"`
}

func (h *PageHandler) ContactSubmit(c *fiber.Ctx) error {
	dto := contactDTO{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Subject: c.FormValue("subject"),
		Message: c.FormValue("message"),
	}
	if errs := validate.Struct(dto); len(errs) > 0 {
		return render(c, "contact", fiber.Map{"Errors": errs, "Form": dto})
	}

	if err := h.Mailer.SendContact(dto.Name, dto.Email, dto.Subject, dto.Message); err != nil {
		applog.Error(c, "contact.send.fail", err, map[string]any{"from": dto.Email})
		return render(c, "contact", fiber.Map{
			"Err": "Failed to send message. Please try again.", "Form": dto,
		})
	}
	applog.Info(c, "contact.send", map[string]any{"from": dto.Email})
	flash(c, "success", "Message sent successfully!")
	return c.Redirect("/contact")
}

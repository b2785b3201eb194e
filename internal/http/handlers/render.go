package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Pick up the token the CSRF middleware put into Locals
	if tok, ok := c.Locals("CSRFToken").(string); ok && tok != "" {
		data["CSRFToken"] = tok
	}
	if auth, ok := c.Locals("authenticated").(bool); ok {
		data["Authenticated"] = auth
	}
	if msg, kind := popFlash(c); msg != "" {
		data["Flash"] = msg
		data["FlashKind"] = kind
	}
	return c.Render(tmpl, data)
}

// flash queues a one-shot notification for the next rendered page; the
// server-side stand-in for the SPA's toasts.
func flash(c *fiber.Ctx, kind, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     "flash",
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func popFlash(c *fiber.Ctx) (msg, kind string) {
	raw := c.Cookies("flash")
	if raw == "" {
		return "", ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     "flash",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	dec, err := url.QueryUnescape(raw)
	if err != nil {
		return "", ""
	}
	for i := 0; i < len(dec); i++ {
		if dec[i] == '|' {
			return dec[i+1:], dec[:i]
		}
	}
	return dec, "info"
}

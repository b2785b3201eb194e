package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"samsonix/internal/config"
	"samsonix/internal/http/handlers"
	applog "samsonix/internal/log"
	"samsonix/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	tokens, err := token.Open(cfg.TokenDB)
	if err != nil {
		log.Fatal(err)
	}
	defer tokens.Close()

	deps := handlers.NewDeps(cfg, tokens)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard; product images go through here
	app.Server().MaxRequestBodySize = 8 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})
	// Expose session state to templates (admin nav, logout button)
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("authenticated", deps.Session.VerifyCurrentSession())
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", "./web/static")
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- Public storefront ----------
	app.Get("/", deps.PageHandler.Home)
	app.Get("/products", deps.ProductHandler.List)
	app.Get("/products/:id", deps.ProductHandler.Detail)
	app.Get("/about", deps.PageHandler.About)
	app.Get("/why-choose-us", deps.PageHandler.WhyChooseUs)
	app.Get("/contact", deps.PageHandler.ContactForm)
	app.Post("/contact", limiter.New(limiter.Config{Max: 5, Expiration: 10 * time.Minute}), deps.PageHandler.ContactSubmit)

	// ---------- Admin ----------
	app.Get("/admin/login", deps.AuthHandler.LoginForm)
	app.Post("/admin/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("admin_login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)

	admin := app.Group("/admin", handlers.RequireSession(deps.Session))
	admin.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/admin/products") })
	admin.Post("/logout", deps.AuthHandler.Logout)
	admin.Get("/products", deps.AdminProducts.List)
	admin.Get("/products/new", deps.AdminProducts.Form)
	admin.Get("/products/:id/edit", deps.AdminProducts.Form)
	admin.Post("/products", deps.AdminProducts.Save)
	admin.Post("/products/:id/delete", deps.AdminProducts.Delete)
	admin.Get("/categories", deps.AdminCategories.List)
	admin.Get("/categories/new", deps.AdminCategories.Form)
	admin.Get("/categories/:id/edit", deps.AdminCategories.Form)
	admin.Post("/categories", deps.AdminCategories.Save)
	admin.Post("/categories/:id/delete", deps.AdminCategories.Delete)
	admin.Get("/change-password", deps.AuthHandler.ChangePasswordForm)
	admin.Post("/change-password", deps.AuthHandler.ChangePassword)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(cfg.Addr))
}

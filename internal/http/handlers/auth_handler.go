package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/api"
	applog "samsonix/internal/log"
	"samsonix/internal/services"
	"samsonix/internal/validate"
)

type AuthHandler struct {
	Session *services.SessionManager
	Users   *api.UserClient
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if h.Session.Resolve() == services.StateAuthenticated {
		return c.Redirect("/admin/products")
	}
	return render(c, "admin_login", fiber.Map{"Next": c.Query("next")})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok || !validate.Password(pass) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("admin_login", fiber.Map{
			"Err": "Invalid email or password", "Email": email, "CSRFToken": csrfToken(c),
		})
	}

	if err := h.Session.Login(c.Context(), email, pass); err != nil {
		var authErr *services.AuthError
		msg := "Login failed"
		if errors.As(err, &authErr) {
			msg = authErr.Reason
		}
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("admin_login", fiber.Map{
			"Err": msg, "Email": email, "CSRFToken": csrfToken(c),
		})
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	next := c.FormValue("next")
	if !isLocalPath(next) {
		next = "/admin/products"
	}
	return c.Redirect(next)
}

// isLocalPath accepts only same-site absolute paths. A second leading slash
// or backslash would be a protocol-relative URL to another host.
func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	return len(p) == 1 || (p[1] != '/' && p[1] != '\\')
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	_ = h.Session.Logout()
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/admin/login")
}

func (h *AuthHandler) ChangePasswordForm(c *fiber.Ctx) error {
	return render(c, "admin_change_password", fiber.Map{})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	current := c.FormValue("current_password")
	next := c.FormValue("new_password")
	confirm := c.FormValue("confirm_password")

	if !validate.Password(next) {
		return render(c, "admin_change_password", fiber.Map{"Err": "New password must be 8-64 characters"})
	}
	if next != confirm {
		return render(c, "admin_change_password", fiber.Map{"Err": "Passwords do not match"})
	}

	msg, err := h.Users.ChangePassword(c.Context(), current, next)
	if err != nil {
		if done, rerr := redirectOnAuthErr(c, err); done {
			return rerr
		}
		applog.Error(c, "auth.change_password.fail", err, nil)
		return render(c, "admin_change_password", fiber.Map{"Err": errorMessage(err)})
	}
	if msg == "" {
		msg = "Password updated"
	}
	applog.Audit(c, "auth.change_password", nil)
	flash(c, "success", msg)
	return c.Redirect("/admin/products")
}

func csrfToken(c *fiber.Ctx) string {
	tok, _ := c.Locals("CSRFToken").(string)
	return tok
}

// errorMessage keeps server-reported envelope messages and hides everything
// else behind a generic line.
func errorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"samsonix/internal/api"
	applog "samsonix/internal/log"
	"samsonix/internal/services"
)

// RequireSession gates the admin views. While the session state is still
// unknown it resolves first and never redirects before resolution; once
// resolved false the request is bounced to the login page with the attempted
// location attached. The manager is consulted on every request, so a logout
// elsewhere takes effect immediately.
func RequireSession(sess *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := sess.State()
		if state == services.StateUnknown {
			state = sess.Resolve()
		}
		if state != services.StateAuthenticated {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/admin/login?next=" + url.QueryEscape(c.Path()))
		}
		return c.Next()
	}
}

// redirectOnAuthErr translates a backend 401 into the forced trip to the
// login page; the token slot was already cleared by the client wrapper.
func redirectOnAuthErr(c *fiber.Ctx, err error) (bool, error) {
	if errors.Is(err, api.ErrUnauthorized) {
		applog.Security(c, "session.expired", nil)
		return true, c.Redirect("/admin/login")
	}
	return false, nil
}

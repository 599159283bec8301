package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

// Session keys shared with the middleware layer.
const (
	AUTH_KEY      = usercontext.AuthKey
	USER_ID       = usercontext.KeyUserID
	USER_NAME     = usercontext.KeyUsername
	USER_IS_ADMIN = usercontext.KeyIsAdmin
)

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func jsonUnauthorized(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
}

func jsonNotFound(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusNotFound, "not_found", message)
}

func jsonInternal(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

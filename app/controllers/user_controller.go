package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/database"
	"github.com/panelflow/panelflow/internal/pkg/entitlements"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

// HandleGetUserAccount returns account information for the authenticated user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonNotFound(c, "User not found")
		}
		return jsonInternal(c, "Failed to load user")
	}

	db := database.GetDB()
	if db == nil {
		return jsonInternal(c, "Database unavailable")
	}
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "Failed to load user settings")
	}

	effective := entitlements.Effective(settings.Plan, settings.ProUntil, time.Now())

	seriesCount, _ := repository.GetGlobalFactory().GetSeriesRepository().CountByUserID(userCtx.UserID)

	return c.JSON(fiber.Map{
		"id":            account.ID,
		"username":      account.Name,
		"email":         account.Email,
		"pen_name":      account.PenName,
		"status":        account.Status,
		"is_admin":      account.Role == models.ROLE_ADMIN,
		"created_at":    account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(account.LastLoginAt),
		"plan": fiber.Map{
			"stored":    settings.Plan,
			"effective": string(effective),
			"pro_until": formatTimePtr(settings.ProUntil),
		},
		"limits": fiber.Map{
			"max_series":              entitlements.MaxSeries(effective),
			"max_chapters_per_series": entitlements.MaxChaptersPerSeries(effective),
		},
		"stats": fiber.Map{
			"series_count": seriesCount,
		},
		"api_key": fiber.Map{
			"active":       settings.HasActiveAPIKey(),
			"prefix":       settings.APIKeyPrefix,
			"created_at":   formatTimePtr(settings.APIKeyCreatedAt),
			"last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		},
	})
}

// HandleIssueAPIKey generates a fresh API key. The raw secret appears in
// this response only; the server stores its hash.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "Failed to load user settings")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return jsonInternal(c, "Failed to generate API key")
	}
	if err := db.Save(settings).Error; err != nil {
		return jsonInternal(c, "Failed to save API key")
	}

	return c.JSON(fiber.Map{
		"api_key": rawKey,
		"prefix":  settings.APIKeyPrefix,
	})
}

// HandleRevokeAPIKey revokes the current API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "Failed to load user settings")
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return jsonInternal(c, "Failed to revoke API key")
	}

	return c.JSON(fiber.Map{"ok": true})
}

// HandleUpdateProfile updates pen name, bio and avatar URL.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	var req struct {
		PenName   string `json:"pen_name" form:"pen_name"`
		Bio       string `json:"bio" form:"bio"`
		AvatarURL string `json:"avatar_url" form:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "Failed to load user")
	}

	user.PenName = req.PenName
	user.Bio = req.Bio
	user.AvatarURL = req.AvatarURL
	if err := user.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := repo.Update(user); err != nil {
		return jsonInternal(c, "Failed to update profile")
	}

	return c.JSON(user)
}

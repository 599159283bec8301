package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/database"
	"github.com/panelflow/panelflow/internal/pkg/entitlements"
	"github.com/panelflow/panelflow/internal/pkg/imageproc"
	"github.com/panelflow/panelflow/internal/pkg/storage"
	"github.com/panelflow/panelflow/internal/pkg/upload"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

type seriesRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// effectivePlan resolves the user's plan with expiry applied. A pro window
// that has lapsed reads as free without waiting for a webhook.
func effectivePlan(userID uint) entitlements.Plan {
	db := database.GetDB()
	if db == nil {
		return entitlements.PlanFree
	}
	us, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		return entitlements.PlanFree
	}
	return entitlements.Effective(us.Plan, us.ProUntil, time.Now())
}

// HandleSeriesCreate creates a series for the logged-in creator.
func HandleSeriesCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	var req seriesRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetSeriesRepository()

	count, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "failed to check series limit")
	}
	plan := effectivePlan(userCtx.UserID)
	if !entitlements.WithinLimit(count, entitlements.MaxSeries(plan)) {
		return jsonError(c, fiber.StatusForbidden, "plan_limit_reached",
			"free plan allows a single series; upgrade to pro for unlimited series")
	}

	series := &models.Series{
		UserID:      userCtx.UserID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := series.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := repo.Create(series); err != nil {
		return jsonInternal(c, "failed to create series")
	}

	return c.Status(fiber.StatusCreated).JSON(series)
}

// HandleSeriesList returns the logged-in creator's series.
func HandleSeriesList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	repo := repository.GetGlobalFactory().GetSeriesRepository()
	series, err := repo.GetByUserID(userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "failed to load series")
	}
	return c.JSON(fiber.Map{"series": series})
}

// ownedSeries loads a series by UUID and checks ownership.
func ownedSeries(c *fiber.Ctx) (*models.Series, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, jsonUnauthorized(c)
	}

	repo := repository.GetGlobalFactory().GetSeriesRepository()
	series, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonNotFound(c, "series not found")
		}
		return nil, jsonInternal(c, "failed to load series")
	}
	if series.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, jsonNotFound(c, "series not found")
	}
	return series, nil
}

// HandleSeriesGet returns one owned series with its chapters.
func HandleSeriesGet(c *fiber.Ctx) error {
	series, err := ownedSeries(c)
	if series == nil {
		return err
	}

	chapters, err := repository.GetGlobalFactory().GetChapterRepository().GetBySeriesID(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to load chapters")
	}
	return c.JSON(fiber.Map{"series": series, "chapters": chapters})
}

// HandleSeriesUpdate updates title/description of an owned series.
func HandleSeriesUpdate(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	var req seriesRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	if req.Title != "" {
		series.Title = req.Title
	}
	series.Description = req.Description

	if err := series.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := repository.GetGlobalFactory().GetSeriesRepository().Update(series); err != nil {
		return jsonInternal(c, "failed to update series")
	}
	return c.JSON(series)
}

// HandleSeriesPublishToggle flips the published flag.
func HandleSeriesPublishToggle(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	if err := series.TogglePublish(database.GetDB()); err != nil {
		return jsonInternal(c, "failed to toggle publish state")
	}
	return c.JSON(fiber.Map{"uuid": series.UUID, "is_published": series.IsPublished})
}

// HandleSeriesDelete removes an owned series, its chapters and stored pages.
func HandleSeriesDelete(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	chapterRepo := repository.GetGlobalFactory().GetChapterRepository()
	chapters, err := chapterRepo.GetBySeriesID(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to load chapters")
	}
	for _, ch := range chapters {
		if err := chapterRepo.DeletePages(ch.ID); err != nil {
			return jsonInternal(c, "failed to delete chapter pages")
		}
		if err := chapterRepo.Delete(ch.ID); err != nil {
			return jsonInternal(c, "failed to delete chapter")
		}
	}
	if err := repository.GetGlobalFactory().GetSeriesRepository().Delete(series.ID); err != nil {
		return jsonInternal(c, "failed to delete series")
	}

	// Object storage cleanup is best-effort; the rows are already gone.
	if client := storage.GetClient(); client != nil {
		go func(userID uint, seriesUUID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			_ = client.DeletePrefix(ctx, seriesPrefix(userID, seriesUUID))
		}(series.UserID, series.UUID)
	}

	return c.JSON(fiber.Map{"ok": true})
}

func seriesPrefix(userID uint, seriesUUID string) string {
	return fmt.Sprintf("%d/%s/", userID, seriesUUID)
}

// HandleSeriesCoverUpload stores a normalized cover image for an owned series.
func HandleSeriesCoverUpload(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	client := storage.GetClient()
	if client == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "cover file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return jsonInternal(c, "failed to read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return jsonInternal(c, "failed to read upload")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateImageBySniff(fileHeader.Filename, head); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_image", err.Error())
	}

	normalized, err := imageproc.NormalizeCover(data)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_image", err.Error())
	}

	key := storage.CoverObjectKey(series.UserID, series.UUID, uuid.New().String(), ".jpg")
	result, err := client.PutObject(c.Context(), key, normalized, "image/jpeg")
	if err != nil {
		return jsonInternal(c, "failed to store cover image")
	}

	series.CoverImageURL = result.PublicURL
	if err := repository.GetGlobalFactory().GetSeriesRepository().Update(series); err != nil {
		return jsonInternal(c, "failed to save cover image")
	}

	return c.JSON(fiber.Map{"cover_image_url": series.CoverImageURL})
}

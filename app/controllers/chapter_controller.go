package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/database"
	"github.com/panelflow/panelflow/internal/pkg/entitlements"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

type chapterRequest struct {
	Title string `json:"title" form:"title"`
}

// HandleChapterCreate appends a chapter to an owned series. The chapter
// number is assigned server-side.
func HandleChapterCreate(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	var req chapterRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetChapterRepository()

	count, err := repo.CountBySeriesID(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to check chapter limit")
	}
	plan := effectivePlan(series.UserID)
	if !entitlements.WithinLimit(count, entitlements.MaxChaptersPerSeries(plan)) {
		return jsonError(c, fiber.StatusForbidden, "plan_limit_reached",
			"free plan allows 5 chapters per series; upgrade to pro for unlimited chapters")
	}

	number, err := repo.NextChapterNumber(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to assign chapter number")
	}

	chapter := &models.Chapter{
		SeriesID:      series.ID,
		ChapterNumber: number,
		Title:         req.Title,
	}
	if err := repo.Create(chapter); err != nil {
		return jsonInternal(c, "failed to create chapter")
	}

	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// HandleChapterList returns all chapters of an owned series.
func HandleChapterList(c *fiber.Ctx) error {
	series, errResp := ownedSeries(c)
	if series == nil {
		return errResp
	}

	chapters, err := repository.GetGlobalFactory().GetChapterRepository().GetBySeriesID(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to load chapters")
	}
	return c.JSON(fiber.Map{"chapters": chapters})
}

// ownedChapter loads a chapter by UUID and checks series ownership.
func ownedChapter(c *fiber.Ctx) (*models.Chapter, *models.Series, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, nil, jsonUnauthorized(c)
	}

	chapterRepo := repository.GetGlobalFactory().GetChapterRepository()
	chapter, err := chapterRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, jsonNotFound(c, "chapter not found")
		}
		return nil, nil, jsonInternal(c, "failed to load chapter")
	}

	series, err := repository.GetGlobalFactory().GetSeriesRepository().GetByID(chapter.SeriesID)
	if err != nil {
		return nil, nil, jsonInternal(c, "failed to load series")
	}
	if series.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, nil, jsonNotFound(c, "chapter not found")
	}
	return chapter, series, nil
}

// HandleChapterGet returns one owned chapter with its pages.
func HandleChapterGet(c *fiber.Ctx) error {
	chapter, _, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	pages, err := repository.GetGlobalFactory().GetChapterRepository().GetPages(chapter.ID)
	if err != nil {
		return jsonInternal(c, "failed to load pages")
	}
	return c.JSON(fiber.Map{"chapter": chapter, "pages": pages})
}

// HandleChapterUpdate updates the chapter title.
func HandleChapterUpdate(c *fiber.Ctx) error {
	chapter, _, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	var req chapterRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	chapter.Title = req.Title

	if err := repository.GetGlobalFactory().GetChapterRepository().Update(chapter); err != nil {
		return jsonInternal(c, "failed to update chapter")
	}
	return c.JSON(chapter)
}

// HandleChapterPublishToggle flips the published flag.
func HandleChapterPublishToggle(c *fiber.Ctx) error {
	chapter, _, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	if err := chapter.TogglePublish(database.GetDB()); err != nil {
		return jsonInternal(c, "failed to toggle publish state")
	}
	return c.JSON(fiber.Map{"uuid": chapter.UUID, "is_published": chapter.IsPublished})
}

// HandleChapterDelete removes an owned chapter and its pages.
func HandleChapterDelete(c *fiber.Ctx) error {
	chapter, _, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	repo := repository.GetGlobalFactory().GetChapterRepository()
	if err := repo.DeletePages(chapter.ID); err != nil {
		return jsonInternal(c, "failed to delete pages")
	}
	if err := repo.Delete(chapter.ID); err != nil {
		return jsonInternal(c, "failed to delete chapter")
	}
	return c.JSON(fiber.Map{"ok": true})
}

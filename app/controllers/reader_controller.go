package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/metrics/counter"
)

// publishedSeriesByShareLink resolves a share-link slug to a published
// series. Unpublished series are indistinguishable from missing ones.
func publishedSeriesByShareLink(c *fiber.Ctx) (*models.Series, error) {
	series, err := repository.GetGlobalFactory().GetSeriesRepository().GetByShareLink(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonNotFound(c, "series not found")
		}
		return nil, jsonInternal(c, "failed to load series")
	}
	if !series.IsPublished {
		return nil, jsonNotFound(c, "series not found")
	}
	return series, nil
}

// HandleReaderSeries returns a published series with its published chapters.
func HandleReaderSeries(c *fiber.Ctx) error {
	series, errResp := publishedSeriesByShareLink(c)
	if series == nil {
		return errResp
	}

	chapters, err := repository.GetGlobalFactory().GetChapterRepository().GetPublishedBySeriesID(series.ID)
	if err != nil {
		return jsonInternal(c, "failed to load chapters")
	}

	if err := counter.AddSeriesView(series.ID); err != nil {
		log.Printf("failed to count series view: %v", err)
	}

	return c.JSON(fiber.Map{
		"series": fiber.Map{
			"uuid":            series.UUID,
			"title":           series.Title,
			"description":     series.Description,
			"cover_image_url": series.CoverImageURL,
			"view_count":      series.ViewCount,
		},
		"chapters": chapters,
	})
}

// HandleReaderChapter returns a published chapter's pages in reading order
// plus its published neighbors for prev/next navigation.
func HandleReaderChapter(c *fiber.Ctx) error {
	series, errResp := publishedSeriesByShareLink(c)
	if series == nil {
		return errResp
	}

	chapterRepo := repository.GetGlobalFactory().GetChapterRepository()
	chapter, err := chapterRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonNotFound(c, "chapter not found")
		}
		return jsonInternal(c, "failed to load chapter")
	}
	if chapter.SeriesID != series.ID || !chapter.IsPublished {
		return jsonNotFound(c, "chapter not found")
	}

	pages, err := chapterRepo.GetPages(chapter.ID)
	if err != nil {
		return jsonInternal(c, "failed to load pages")
	}

	prev, next, err := chapterRepo.Siblings(series.ID, chapter.ChapterNumber)
	if err != nil {
		return jsonInternal(c, "failed to load chapter navigation")
	}

	if err := counter.AddChapterView(chapter.ID); err != nil {
		log.Printf("failed to count chapter view: %v", err)
	}

	resp := fiber.Map{
		"chapter": fiber.Map{
			"uuid":           chapter.UUID,
			"chapter_number": chapter.ChapterNumber,
			"title":          chapter.Title,
			"view_count":     chapter.ViewCount,
		},
		"pages": pages,
	}
	if prev != nil {
		resp["prev_chapter"] = fiber.Map{"uuid": prev.UUID, "chapter_number": prev.ChapterNumber, "title": prev.Title}
	}
	if next != nil {
		resp["next_chapter"] = fiber.Map{"uuid": next.UUID, "chapter_number": next.ChapterNumber, "title": next.Title}
	}
	return c.JSON(resp)
}

package controllers

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/storage"
	"github.com/panelflow/panelflow/internal/pkg/upload"
)

// HandlePageUpload accepts one or more page images for an owned chapter.
// Files are appended in filename order; page numbers are assigned
// server-side so the reading order survives concurrent clients.
func HandlePageUpload(c *fiber.Ctx) error {
	chapter, series, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	client := storage.GetClient()
	if client == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "multipart form is required")
	}
	files := form.File["pages"]
	if len(files) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "at least one page file is required")
	}

	// Stable upload order independent of multipart part order.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})

	repo := repository.GetGlobalFactory().GetChapterRepository()
	nextNumber, err := repo.NextPageNumber(chapter.ID)
	if err != nil {
		return jsonInternal(c, "failed to assign page numbers")
	}

	created := make([]models.ChapterPage, 0, len(files))
	for _, fileHeader := range files {
		f, err := fileHeader.Open()
		if err != nil {
			return jsonInternal(c, "failed to read upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return jsonInternal(c, "failed to read upload")
		}

		head := data
		if len(head) > 512 {
			head = head[:512]
		}
		mime, err := upload.ValidateImageBySniff(fileHeader.Filename, head)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_image", err.Error())
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		key := storage.PageObjectKey(series.UserID, series.UUID, chapter.UUID, uuid.New().String(), ext)

		result, err := client.PutObject(c.Context(), key, data, mime)
		if err != nil {
			return jsonInternal(c, "failed to store page image")
		}

		page := &models.ChapterPage{
			ChapterID:  chapter.ID,
			PageNumber: nextNumber,
			ImageURL:   result.PublicURL,
			ObjectKey:  result.ObjectKey,
			FileSize:   result.Size,
			FileType:   mime,
		}
		if err := repo.AddPage(page); err != nil {
			return jsonInternal(c, "failed to save page")
		}
		created = append(created, *page)
		nextNumber++
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"pages": created})
}

// HandlePageList returns the pages of an owned chapter in reading order.
func HandlePageList(c *fiber.Ctx) error {
	chapter, _, errResp := ownedChapter(c)
	if chapter == nil {
		return errResp
	}

	pages, err := repository.GetGlobalFactory().GetChapterRepository().GetPages(chapter.ID)
	if err != nil {
		return jsonInternal(c, "failed to load pages")
	}
	return c.JSON(fiber.Map{"pages": pages})
}

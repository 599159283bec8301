package repository

import (
	"errors"

	"github.com/panelflow/panelflow/app/models"
	"gorm.io/gorm"
)

// chapterRepository implements the ChapterRepository interface
type chapterRepository struct {
	db *gorm.DB
}

// NewChapterRepository creates a new chapter repository instance
func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

// Create creates a new chapter in the database
func (r *chapterRepository) Create(chapter *models.Chapter) error {
	return r.db.Create(chapter).Error
}

// GetByID retrieves a chapter by its ID
func (r *chapterRepository) GetByID(id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	err := r.db.First(&chapter, id).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// GetByUUID retrieves a chapter by its UUID
func (r *chapterRepository) GetByUUID(uuid string) (*models.Chapter, error) {
	var chapter models.Chapter
	err := r.db.Where("uuid = ?", uuid).First(&chapter).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// GetBySeriesID retrieves all chapters of a series in reading order
func (r *chapterRepository) GetBySeriesID(seriesID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := r.db.Where("series_id = ?", seriesID).
		Order("chapter_number ASC").Find(&chapters).Error
	return chapters, err
}

// GetPublishedBySeriesID retrieves the published chapters of a series in
// reading order. This is what anonymous readers see.
func (r *chapterRepository) GetPublishedBySeriesID(seriesID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := r.db.Where("series_id = ? AND is_published = ?", seriesID, true).
		Order("chapter_number ASC").Find(&chapters).Error
	return chapters, err
}

// Update updates an existing chapter in the database
func (r *chapterRepository) Update(chapter *models.Chapter) error {
	return r.db.Save(chapter).Error
}

// Delete soft deletes a chapter by its ID
func (r *chapterRepository) Delete(id uint) error {
	return r.db.Delete(&models.Chapter{}, id).Error
}

// CountBySeriesID returns the number of chapters in a series. Plan limits
// are enforced against this count.
func (r *chapterRepository) CountBySeriesID(seriesID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Chapter{}).Where("series_id = ?", seriesID).Count(&count).Error
	return count, err
}

// NextChapterNumber returns the next free chapter number for a series.
func (r *chapterRepository) NextChapterNumber(seriesID uint) (int, error) {
	var max int
	err := r.db.Model(&models.Chapter{}).
		Where("series_id = ?", seriesID).
		Select("COALESCE(MAX(chapter_number), 0)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Siblings returns the previous and next published chapters around the given
// chapter number. Missing neighbors come back as nil, not as an error.
func (r *chapterRepository) Siblings(seriesID uint, chapterNumber int) (*models.Chapter, *models.Chapter, error) {
	var prev, next models.Chapter

	err := r.db.Where("series_id = ? AND is_published = ? AND chapter_number < ?", seriesID, true, chapterNumber).
		Order("chapter_number DESC").First(&prev).Error
	hasPrev := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	err = r.db.Where("series_id = ? AND is_published = ? AND chapter_number > ?", seriesID, true, chapterNumber).
		Order("chapter_number ASC").First(&next).Error
	hasNext := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	var p, n *models.Chapter
	if hasPrev {
		p = &prev
	}
	if hasNext {
		n = &next
	}
	return p, n, nil
}

// AddPage appends a page row to a chapter
func (r *chapterRepository) AddPage(page *models.ChapterPage) error {
	return r.db.Create(page).Error
}

// GetPages retrieves the pages of a chapter in reading order
func (r *chapterRepository) GetPages(chapterID uint) ([]models.ChapterPage, error) {
	var pages []models.ChapterPage
	err := r.db.Where("chapter_id = ?", chapterID).
		Order("page_number ASC").Find(&pages).Error
	return pages, err
}

// CountPages returns the number of pages in a chapter
func (r *chapterRepository) CountPages(chapterID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChapterPage{}).Where("chapter_id = ?", chapterID).Count(&count).Error
	return count, err
}

// NextPageNumber returns the next free page number for a chapter.
func (r *chapterRepository) NextPageNumber(chapterID uint) (int, error) {
	var max int
	err := r.db.Model(&models.ChapterPage{}).
		Where("chapter_id = ?", chapterID).
		Select("COALESCE(MAX(page_number), 0)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// DeletePages soft deletes all pages of a chapter
func (r *chapterRepository) DeletePages(chapterID uint) error {
	return r.db.Where("chapter_id = ?", chapterID).Delete(&models.ChapterPage{}).Error
}

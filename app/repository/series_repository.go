package repository

import (
	"github.com/panelflow/panelflow/app/models"
	"gorm.io/gorm"
)

// seriesRepository implements the SeriesRepository interface
type seriesRepository struct {
	db *gorm.DB
}

// NewSeriesRepository creates a new series repository instance
func NewSeriesRepository(db *gorm.DB) SeriesRepository {
	return &seriesRepository{db: db}
}

// Create creates a new series in the database
func (r *seriesRepository) Create(series *models.Series) error {
	return r.db.Create(series).Error
}

// GetByID retrieves a series by its ID
func (r *seriesRepository) GetByID(id uint) (*models.Series, error) {
	var series models.Series
	err := r.db.First(&series, id).Error
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// GetByUUID retrieves a series by its UUID
func (r *seriesRepository) GetByUUID(uuid string) (*models.Series, error) {
	var series models.Series
	err := r.db.Where("uuid = ?", uuid).First(&series).Error
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// GetByShareLink retrieves a series by its public share link slug
func (r *seriesRepository) GetByShareLink(shareLink string) (*models.Series, error) {
	var series models.Series
	err := r.db.Where("share_link = ?", shareLink).First(&series).Error
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// GetByUserID retrieves all series owned by a user, newest first
func (r *seriesRepository) GetByUserID(userID uint) ([]models.Series, error) {
	var series []models.Series
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&series).Error
	return series, err
}

// Update updates an existing series in the database
func (r *seriesRepository) Update(series *models.Series) error {
	return r.db.Save(series).Error
}

// Delete soft deletes a series by its ID
func (r *seriesRepository) Delete(id uint) error {
	return r.db.Delete(&models.Series{}, id).Error
}

// CountByUserID returns the number of series a user owns. Plan limits are
// enforced against this count.
func (r *seriesRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Series{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetPublished retrieves a paginated list of published series
func (r *seriesRepository) GetPublished(offset, limit int) ([]models.Series, error) {
	var series []models.Series
	err := r.db.Where("is_published = ?", true).
		Order("updated_at DESC").Offset(offset).Limit(limit).Find(&series).Error
	return series, err
}

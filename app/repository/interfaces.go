package repository

import (
	"github.com/panelflow/panelflow/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// SeriesRepository defines the interface for series-related database operations
type SeriesRepository interface {
	Create(series *models.Series) error
	GetByID(id uint) (*models.Series, error)
	GetByUUID(uuid string) (*models.Series, error)
	GetByShareLink(shareLink string) (*models.Series, error)
	GetByUserID(userID uint) ([]models.Series, error)
	Update(series *models.Series) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	GetPublished(offset, limit int) ([]models.Series, error)
}

// ChapterRepository defines the interface for chapter and page operations
type ChapterRepository interface {
	Create(chapter *models.Chapter) error
	GetByID(id uint) (*models.Chapter, error)
	GetByUUID(uuid string) (*models.Chapter, error)
	GetBySeriesID(seriesID uint) ([]models.Chapter, error)
	GetPublishedBySeriesID(seriesID uint) ([]models.Chapter, error)
	Update(chapter *models.Chapter) error
	Delete(id uint) error
	CountBySeriesID(seriesID uint) (int64, error)
	NextChapterNumber(seriesID uint) (int, error)
	// Siblings returns the previous and next published chapters around the
	// given chapter number, either of which may be nil at the edges.
	Siblings(seriesID uint, chapterNumber int) (*models.Chapter, *models.Chapter, error)

	AddPage(page *models.ChapterPage) error
	GetPages(chapterID uint) ([]models.ChapterPage, error)
	CountPages(chapterID uint) (int64, error)
	NextPageNumber(chapterID uint) (int, error)
	DeletePages(chapterID uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Series  SeriesRepository
	Chapter ChapterRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Series:  NewSeriesRepository(db),
		Chapter: NewChapterRepository(db),
	}
}

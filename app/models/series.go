package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/internal/pkg/shortener"
)

// Series is one manga title owned by a creator. Chapters hang off it.
type Series struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          string    `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID        uint      `gorm:"index" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Description   string    `gorm:"type:text" json:"description" validate:"max=5000"`
	CoverImageURL string    `gorm:"type:varchar(255)" json:"cover_image_url"`
	ShareLink     string    `gorm:"type:varchar(255) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex" json:"share_link"`
	IsPublished   bool      `gorm:"default:false;index" json:"is_published"`
	ViewCount     int64     `gorm:"default:0" json:"view_count"`
	Chapters      []Chapter `gorm:"foreignKey:SeriesID" json:"chapters,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Series) Validate() error {
	return validator.New().Struct(s)
}

func (s *Series) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	if s.ShareLink == "" {
		slug, err := shortener.GenerateSecureSlug(8)
		if err != nil {
			return err
		}
		s.ShareLink = slug
	}
	return nil
}

// TogglePublish flips the published flag for readers.
func (s *Series) TogglePublish(db *gorm.DB) error {
	s.IsPublished = !s.IsPublished
	return db.Model(s).Update("is_published", s.IsPublished).Error
}

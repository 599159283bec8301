package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chapter is one readable unit of a series. The reader consumes its pages
// in page_number order.
type Chapter struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UUID          string        `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	SeriesID      uint          `gorm:"index;not null" json:"series_id"`
	Series        Series        `gorm:"foreignKey:SeriesID" json:"series,omitempty"`
	ChapterNumber int           `gorm:"not null;index" json:"chapter_number"`
	Title         string        `gorm:"type:varchar(255)" json:"title"`
	IsPublished   bool          `gorm:"default:false;index" json:"is_published"`
	ViewCount     int64         `gorm:"default:0" json:"view_count"`
	Pages         []ChapterPage `gorm:"foreignKey:ChapterID" json:"pages,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	return nil
}

// TogglePublish flips the published flag for readers.
func (c *Chapter) TogglePublish(db *gorm.DB) error {
	c.IsPublished = !c.IsPublished
	return db.Model(c).Update("is_published", c.IsPublished).Error
}

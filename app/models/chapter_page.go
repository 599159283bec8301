package models

import (
	"time"

	"gorm.io/gorm"
)

// ChapterPage is a single page image inside a chapter. ImageURL is the
// public object-storage URL; ObjectKey is kept for deletion.
type ChapterPage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChapterID  uint      `gorm:"index;not null" json:"chapter_id"`
	Chapter    Chapter   `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
	PageNumber int       `gorm:"not null;index" json:"page_number"`
	ImageURL   string    `gorm:"type:varchar(512);not null" json:"image_url"`
	ObjectKey  string    `gorm:"type:varchar(512);not null" json:"-"`
	FileSize   int64     `gorm:"type:bigint" json:"file_size"`
	FileType   string    `gorm:"type:varchar(50)" json:"file_type"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

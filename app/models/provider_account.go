package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderAccount links an OAuth identity (Google) to a local user.
type ProviderAccount struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"user_id"`
	Provider       string         `gorm:"type:varchar(50);not null;index:ux_provider_accounts,unique,priority:1" json:"provider"`
	ProviderUserID string         `gorm:"type:varchar(191);not null;index:ux_provider_accounts,unique,priority:2" json:"-"`
	AccessToken    string         `gorm:"type:text" json:"-"`
	RefreshToken   string         `gorm:"type:text" json:"-"`
	ExpiresAt      *time.Time     `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

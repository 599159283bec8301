package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentProviderPayFast = "payfast"
	PaymentProviderStripe  = "stripe"
)

// PaymentIntent records one initiated payment attempt. Reference is the
// unique m_payment_id sent to the gateway and echoed back in the ITN;
// ConsumedAt marks the one callback that was allowed to apply an upgrade.
// The unique reference plus the conditional consume update is what makes
// redelivered callbacks idempotent across app instances.
type PaymentIntent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Reference  string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	UserID     uint           `gorm:"index;not null" json:"user_id"`
	Provider   string         `gorm:"type:varchar(20);not null;default:'payfast'" json:"provider"`
	Amount     string         `gorm:"type:varchar(20);not null" json:"amount"`
	ItemName   string         `gorm:"type:varchar(100);not null" json:"item_name"`
	ConsumedAt *time.Time     `gorm:"type:timestamp;default:null;index" json:"consumed_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panelflow/panelflow/app/models"
)

// Repository provides the DB operations the billing service needs.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserSettings(userID uint) (*models.UserSettings, error)
	CreatePaymentIntent(intent *models.PaymentIntent) error
	// ApplyProUpgrade atomically consumes the payment reference and, if this
	// call was the first to consume it, writes the absolute-expiry upgrade.
	// Returns false when the reference was already consumed (redelivery).
	ApplyProUpgrade(reference string, userID uint, proUntil time.Time) (bool, error)
	SetStripeSubscription(userID uint, customerID, subscriptionID string) error
	SetPlanByStripeSubscription(subscriptionID, plan string) error
	RecordNotificationIfNew(event *models.PaymentNotification) (bool, *models.PaymentNotification, error)
	MarkNotificationProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserSettings(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

func (r *gormRepository) CreatePaymentIntent(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

func (r *gormRepository) ApplyProUpgrade(reference string, userID uint, proUntil time.Time) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Conditional consume: only the first delivery flips consumed_at.
		res := tx.Model(&models.PaymentIntent{}).
			Where("reference = ? AND consumed_at IS NULL", reference).
			Update("consumed_at", &now)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var existing models.PaymentIntent
			err := tx.Where("reference = ?", reference).First(&existing).Error
			if err == nil {
				// Known reference, already consumed: redelivery, no-op.
				return nil
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			// No intent row (initiation did not persist one). Insert a
			// consumed marker; the unique reference index arbitrates races.
			marker := &models.PaymentIntent{
				Reference:  reference,
				UserID:     userID,
				Provider:   models.PaymentProviderPayFast,
				ConsumedAt: &now,
			}
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "reference"}},
				DoNothing: true,
			}).Create(marker)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				return nil
			}
		}

		us, err := models.GetOrCreateUserSettings(tx, userID)
		if err != nil {
			return err
		}
		us.Plan = "pro"
		us.ProUntil = &proUntil
		if err := tx.Save(us).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *gormRepository) SetStripeSubscription(userID uint, customerID, subscriptionID string) error {
	us, err := models.GetOrCreateUserSettings(r.db, userID)
	if err != nil {
		return err
	}
	us.Plan = "pro"
	us.ProUntil = nil
	us.StripeCustomerID = customerID
	us.StripeSubscriptionID = subscriptionID
	return r.db.Save(us).Error
}

func (r *gormRepository) SetPlanByStripeSubscription(subscriptionID, plan string) error {
	return r.db.Model(&models.UserSettings{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{"plan": plan, "pro_until": nil}).Error
}

func (r *gormRepository) RecordNotificationIfNew(event *models.PaymentNotification) (bool, *models.PaymentNotification, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentNotification
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkNotificationProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentNotification{}).Where("id = ?", id).Updates(updates).Error
}

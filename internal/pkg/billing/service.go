package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/internal/pkg/payfast"
)

// ProDuration is the entitlement window one completed PayFast payment buys.
const ProDuration = 30 * 24 * time.Hour

// Service implements payment initiation and ITN verification. It is
// stateless: every request is a pure function of its input, the config and
// the backing store, so multiple instances can run side by side.
type Service struct {
	repo Repository
	cfg  *PayFastConfig
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, cfg *PayFastConfig) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg *PayFastConfig) *Service {
	return NewService(NewRepository(db), cfg)
}

// InitiatePayment builds and signs the field set for one pro upgrade. The
// caller submits it to the gateway as an auto-POST form (preferred) or via
// the assembled redirect URL.
func (s *Service) InitiatePayment(ctx context.Context, user *models.User) (*Initiation, error) {
	_ = ctx
	if user == nil || user.ID == 0 {
		return nil, ErrUnauthenticated
	}

	reference := payfast.MakePaymentReference(user.ID)

	fields := map[string]string{
		payfast.FieldMerchantID:  s.cfg.MerchantID,
		payfast.FieldMerchantKey: s.cfg.MerchantKey,
		payfast.FieldReturnURL:   s.cfg.ReturnURL(),
		payfast.FieldCancelURL:   s.cfg.CancelURL(),
		payfast.FieldNotifyURL:   s.cfg.NotifyURL(),
		payfast.FieldPaymentID:   reference,
		payfast.FieldAmount:      s.cfg.Amount,
		payfast.FieldItemName:    s.cfg.ItemName,
		payfast.FieldCustomStr1:  strconv.FormatUint(uint64(user.ID), 10),
	}
	if email := strings.TrimSpace(user.Email); email != "" {
		fields[payfast.FieldEmailAddress] = email
	}

	fields[payfast.FieldSignature] = payfast.Sign(fields, s.cfg.Passphrase, s.cfg.Policy)

	// The intent row correlates the eventual ITN with this attempt and is
	// the anchor for consume-once idempotency.
	intent := &models.PaymentIntent{
		Reference: reference,
		UserID:    user.ID,
		Provider:  models.PaymentProviderPayFast,
		Amount:    s.cfg.Amount,
		ItemName:  s.cfg.ItemName,
	}
	if err := s.repo.CreatePaymentIntent(intent); err != nil {
		return nil, &TransientStorageError{Err: err}
	}

	return &Initiation{
		ProcessURL:  s.cfg.ProcessURL,
		RedirectURL: s.cfg.ProcessURL + "?" + payfast.BuildCanonicalString(fields, nil),
		Fields:      fields,
		Reference:   reference,
	}, nil
}

// HandleNotification validates one ITN callback and applies the entitlement
// upgrade exactly once per genuine, completed, correctly-priced payment.
//
// Pipeline: signature -> status -> amount -> reference -> apply. Signature
// and amount failures are permanent (400); a non-COMPLETE status is an
// acknowledged no-op (200); storage failures are retryable (500).
func (s *Service) HandleNotification(ctx context.Context, fields map[string]string) (*NotificationResult, error) {
	_ = ctx

	// The signature is the only authentication the callback has. Nothing is
	// recorded or mutated before it checks out.
	if !payfast.VerifySignature(fields, s.cfg.Passphrase, s.cfg.Policy) {
		return nil, ErrBadSignature
	}

	reference := strings.TrimSpace(fields[payfast.FieldPaymentID])
	stored := s.recordNotification(fields)

	status := strings.ToUpper(strings.TrimSpace(fields[payfast.FieldPaymentStatus]))
	if status != payfast.PaymentStatusComplete {
		s.markProcessed(stored, nil)
		return &NotificationResult{Outcome: OutcomeIgnored, Reference: reference}, nil
	}

	gross := strings.TrimSpace(fields[payfast.FieldAmountGross])
	if gross == "" {
		gross = strings.TrimSpace(fields[payfast.FieldAmount])
	}
	if !amountsEqual(gross, s.cfg.Amount) {
		s.markProcessed(stored, ErrAmountMismatch)
		return nil, ErrAmountMismatch
	}

	userID, err := payfast.ParsePaymentReference(reference)
	if err != nil {
		s.markProcessed(stored, ErrBadReference)
		return nil, ErrBadReference
	}
	if _, err := s.repo.GetUserByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.markProcessed(stored, ErrBadReference)
			return nil, ErrBadReference
		}
		return nil, &TransientStorageError{Err: err}
	}

	// Absolute expiry, consumed exactly once: a redelivered callback finds
	// the reference consumed and leaves pro_until untouched.
	applied, err := s.repo.ApplyProUpgrade(reference, userID, s.now().Add(ProDuration))
	if err != nil {
		return nil, &TransientStorageError{Err: err}
	}

	s.markProcessed(stored, nil)
	outcome := OutcomeApplied
	if !applied {
		outcome = OutcomeAlreadyApplied
	}
	return &NotificationResult{Outcome: outcome, Reference: reference, UserID: userID}, nil
}

// ApplyStripeCheckout upgrades a user after checkout.session.completed.
// Stripe subscriptions have no fixed window; downgrades arrive by webhook.
func (s *Service) ApplyStripeCheckout(ctx context.Context, userID uint, customerID, subscriptionID string) error {
	_ = ctx
	if userID == 0 {
		return ErrBadReference
	}
	if err := s.repo.SetStripeSubscription(userID, customerID, subscriptionID); err != nil {
		return &TransientStorageError{Err: err}
	}
	return nil
}

// SyncStripeSubscriptionStatus reconciles plan state on subscription
// lifecycle events. Active and trialing keep pro; everything else drops to
// free.
func (s *Service) SyncStripeSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	_ = ctx
	plan := "free"
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		plan = "pro"
	}
	if err := s.repo.SetPlanByStripeSubscription(subscriptionID, plan); err != nil {
		return &TransientStorageError{Err: err}
	}
	return nil
}

// recordNotification persists the callback payload for audit, deduplicated
// on the gateway's payment id. Audit failures are logged by the caller's
// recover path, never block verification.
func (s *Service) recordNotification(fields map[string]string) *models.PaymentNotification {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil
	}

	eventID := strings.TrimSpace(fields["pf_payment_id"])
	if eventID == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	_, stored, err := s.repo.RecordNotificationIfNew(&models.PaymentNotification{
		Provider:        models.PaymentProviderPayFast,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(fields[payfast.FieldPaymentStatus]),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return nil
	}
	return stored
}

func (s *Service) markProcessed(stored *models.PaymentNotification, processingErr error) {
	if stored == nil {
		return
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	_ = s.repo.MarkNotificationProcessed(stored.ID, msg)
}

// amountsEqual compares two decimal money strings at fixed precision.
// Floating point never enters the comparison.
func amountsEqual(a, b string) bool {
	ca, errA := parseAmountCents(a)
	cb, errB := parseAmountCents(b)
	if errA != nil || errB != nil {
		return false
	}
	return ca == cb
}

func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, errors.New("too many decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, errors.New("invalid amount")
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, errors.New("invalid amount")
	}
	return w*100 + f, nil
}

package billing

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/internal/pkg/payfast"
)

type fakeRepo struct {
	users         map[uint]*models.User
	settings      map[uint]*models.UserSettings
	intents       map[string]*models.PaymentIntent
	notifications map[string]*models.PaymentNotification
	nextNotifID   uint

	failCreateIntent bool
	failApply        bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:         make(map[uint]*models.User),
		settings:      make(map[uint]*models.UserSettings),
		intents:       make(map[string]*models.PaymentIntent),
		notifications: make(map[string]*models.PaymentNotification),
	}
}

func (f *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserSettings(userID uint) (*models.UserSettings, error) {
	s, ok := f.settings[userID]
	if !ok {
		s = &models.UserSettings{UserID: userID, Plan: "free"}
		f.settings[userID] = s
	}
	return s, nil
}

func (f *fakeRepo) CreatePaymentIntent(intent *models.PaymentIntent) error {
	if f.failCreateIntent {
		return errors.New("db down")
	}
	if _, exists := f.intents[intent.Reference]; exists {
		return errors.New("duplicate reference")
	}
	f.intents[intent.Reference] = intent
	return nil
}

func (f *fakeRepo) ApplyProUpgrade(reference string, userID uint, proUntil time.Time) (bool, error) {
	if f.failApply {
		return false, errors.New("db down")
	}
	intent, ok := f.intents[reference]
	if !ok {
		now := time.Now()
		intent = &models.PaymentIntent{Reference: reference, UserID: userID, ConsumedAt: &now}
		f.intents[reference] = intent
	} else {
		if intent.ConsumedAt != nil {
			return false, nil
		}
		now := time.Now()
		intent.ConsumedAt = &now
	}
	s, _ := f.GetUserSettings(userID)
	s.Plan = "pro"
	s.ProUntil = &proUntil
	return true, nil
}

func (f *fakeRepo) SetStripeSubscription(userID uint, customerID, subscriptionID string) error {
	s, _ := f.GetUserSettings(userID)
	s.Plan = "pro"
	s.ProUntil = nil
	s.StripeCustomerID = customerID
	s.StripeSubscriptionID = subscriptionID
	return nil
}

func (f *fakeRepo) SetPlanByStripeSubscription(subscriptionID, plan string) error {
	for _, s := range f.settings {
		if s.StripeSubscriptionID == subscriptionID {
			s.Plan = plan
			s.ProUntil = nil
		}
	}
	return nil
}

func (f *fakeRepo) RecordNotificationIfNew(event *models.PaymentNotification) (bool, *models.PaymentNotification, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.notifications[key]; ok {
		return false, stored, nil
	}
	f.nextNotifID++
	event.ID = f.nextNotifID
	f.notifications[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkNotificationProcessed(id uint, processingError string) error {
	for _, n := range f.notifications {
		if n.ID == id {
			now := time.Now()
			n.ProcessedAt = &now
			n.ProcessingError = processingError
		}
	}
	return nil
}

func testConfig() *PayFastConfig {
	return &PayFastConfig{
		AppBaseURL:  "https://panelflow.example",
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		ProcessURL:  DefaultProcessURL,
		Amount:      "99.00",
		ItemName:    "PanelFlow Pro",
		Policy:      payfast.DefaultPolicy,
	}
}

func testService(repo Repository) *Service {
	svc := NewService(repo, testConfig())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// itnFields builds a callback payload signed with the service's own config,
// mimicking what the gateway would deliver for the given intent.
func itnFields(cfg *PayFastConfig, reference, status, amountGross string) map[string]string {
	fields := map[string]string{
		payfast.FieldMerchantID:    cfg.MerchantID,
		payfast.FieldPaymentID:     reference,
		payfast.FieldPaymentStatus: status,
		payfast.FieldAmountGross:   amountGross,
		payfast.FieldItemName:      cfg.ItemName,
		"pf_payment_id":            "1089250",
	}
	fields[payfast.FieldSignature] = payfast.Sign(fields, cfg.Passphrase, cfg.Policy)
	return fields
}

func TestInitiatePaymentRequiresUser(t *testing.T) {
	svc := testService(newFakeRepo())

	if _, err := svc.InitiatePayment(context.Background(), nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("nil user: got %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.InitiatePayment(context.Background(), &models.User{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("zero user id: got %v, want ErrUnauthenticated", err)
	}
}

func TestInitiatePaymentBuildsSignedFields(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{Email: "ami@example.com"}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, err := svc.InitiatePayment(context.Background(), user)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	if init.ProcessURL != DefaultProcessURL {
		t.Errorf("process url = %q", init.ProcessURL)
	}
	if init.Fields[payfast.FieldAmount] != "99.00" {
		t.Errorf("amount = %q", init.Fields[payfast.FieldAmount])
	}
	if init.Fields[payfast.FieldNotifyURL] != "https://panelflow.example/api/payfast/itn" {
		t.Errorf("notify url = %q", init.Fields[payfast.FieldNotifyURL])
	}
	if init.Fields[payfast.FieldCustomStr1] != "42" {
		t.Errorf("custom_str1 = %q", init.Fields[payfast.FieldCustomStr1])
	}

	uid, err := payfast.ParsePaymentReference(init.Reference)
	if err != nil || uid != 42 {
		t.Errorf("reference %q: uid=%d err=%v", init.Reference, uid, err)
	}
	if !payfast.VerifySignature(init.Fields, svc.cfg.Passphrase, svc.cfg.Policy) {
		t.Error("initiation fields do not verify against their own signature")
	}
	if _, ok := repo.intents[init.Reference]; !ok {
		t.Error("payment intent was not persisted")
	}
}

func TestInitiatePaymentStorageFailure(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 7
	repo.failCreateIntent = true
	svc := testService(repo)

	_, err := svc.InitiatePayment(context.Background(), user)
	var tse *TransientStorageError
	if !errors.As(err, &tse) {
		t.Fatalf("got %v, want TransientStorageError", err)
	}
}

func TestHandleNotificationAppliesUpgrade(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, err := svc.InitiatePayment(context.Background(), user)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	res, err := svc.HandleNotification(context.Background(), itnFields(svc.cfg, init.Reference, "COMPLETE", "99.00"))
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want applied", res.Outcome)
	}
	if res.UserID != 42 {
		t.Errorf("user id = %d", res.UserID)
	}

	s := repo.settings[42]
	if s == nil || s.Plan != "pro" {
		t.Fatalf("settings after upgrade: %+v", s)
	}
	want := svc.now().Add(ProDuration)
	if s.ProUntil == nil || !s.ProUntil.Equal(want) {
		t.Errorf("pro_until = %v, want %v", s.ProUntil, want)
	}
}

func TestHandleNotificationReplayIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)
	fields := itnFields(svc.cfg, init.Reference, "COMPLETE", "99.00")

	if _, err := svc.HandleNotification(context.Background(), fields); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	firstUntil := *repo.settings[42].ProUntil

	res, err := svc.HandleNotification(context.Background(), fields)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if res.Outcome != OutcomeAlreadyApplied {
		t.Fatalf("redelivery outcome = %q, want already_applied", res.Outcome)
	}
	if got := *repo.settings[42].ProUntil; !got.Equal(firstUntil) {
		t.Errorf("pro_until moved on replay: %v -> %v", firstUntil, got)
	}
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)
	fields := itnFields(svc.cfg, init.Reference, "COMPLETE", "99.00")
	fields[payfast.FieldAmountGross] = "0.01" // tamper after signing

	if _, err := svc.HandleNotification(context.Background(), fields); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("got %v, want ErrBadSignature", err)
	}
	if s := repo.settings[42]; s != nil && s.Plan == "pro" {
		t.Error("tampered callback upgraded the plan")
	}
	if len(repo.notifications) != 0 {
		t.Error("unauthenticated callback was recorded")
	}
}

func TestHandleNotificationRejectsAmountMismatch(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)
	// Correctly signed, but for the wrong amount.
	fields := itnFields(svc.cfg, init.Reference, "COMPLETE", "9.00")

	if _, err := svc.HandleNotification(context.Background(), fields); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("got %v, want ErrAmountMismatch", err)
	}
	if s := repo.settings[42]; s != nil && s.Plan == "pro" {
		t.Error("mismatched amount upgraded the plan")
	}
}

func TestHandleNotificationIgnoresNonComplete(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)

	for _, status := range []string{"PENDING", "CANCELLED", "FAILED"} {
		res, err := svc.HandleNotification(context.Background(), itnFields(svc.cfg, init.Reference, status, "99.00"))
		if err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
		if res.Outcome != OutcomeIgnored {
			t.Errorf("status %s: outcome = %q, want ignored", status, res.Outcome)
		}
	}
	if s := repo.settings[42]; s != nil && s.Plan == "pro" {
		t.Error("non-complete status upgraded the plan")
	}
	if intent := repo.intents[init.Reference]; intent.ConsumedAt != nil {
		t.Error("non-complete status consumed the reference")
	}
}

func TestHandleNotificationRejectsBadReference(t *testing.T) {
	svc := testService(newFakeRepo())

	for _, ref := range []string{"order-123", "pf__", "pf_0_1", ""} {
		_, err := svc.HandleNotification(context.Background(), itnFields(svc.cfg, ref, "COMPLETE", "99.00"))
		if !errors.Is(err, ErrBadReference) {
			t.Errorf("reference %q: got %v, want ErrBadReference", ref, err)
		}
	}
}

func TestHandleNotificationUnknownUser(t *testing.T) {
	svc := testService(newFakeRepo())

	ref := "pf_42_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	_, err := svc.HandleNotification(context.Background(), itnFields(svc.cfg, ref, "COMPLETE", "99.00"))
	if !errors.Is(err, ErrBadReference) {
		t.Fatalf("got %v, want ErrBadReference", err)
	}
}

func TestHandleNotificationStorageFailureIsRetryable(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)
	repo.failApply = true

	_, err := svc.HandleNotification(context.Background(), itnFields(svc.cfg, init.Reference, "COMPLETE", "99.00"))
	var tse *TransientStorageError
	if !errors.As(err, &tse) {
		t.Fatalf("got %v, want TransientStorageError", err)
	}
	if intent := repo.intents[init.Reference]; intent.ConsumedAt != nil {
		t.Error("failed apply must not leave the reference consumed")
	}
}

func TestHandleNotificationFallsBackToAmountField(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{}
	user.ID = 42
	repo.users[42] = user
	svc := testService(repo)

	init, _ := svc.InitiatePayment(context.Background(), user)
	fields := map[string]string{
		payfast.FieldMerchantID:    svc.cfg.MerchantID,
		payfast.FieldPaymentID:     init.Reference,
		payfast.FieldPaymentStatus: "COMPLETE",
		payfast.FieldAmount:        "99.0", // equal value, different formatting
	}
	fields[payfast.FieldSignature] = payfast.Sign(fields, svc.cfg.Passphrase, svc.cfg.Policy)

	res, err := svc.HandleNotification(context.Background(), fields)
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want applied", res.Outcome)
	}
}

func TestSyncStripeSubscriptionStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)

	if err := svc.ApplyStripeCheckout(context.Background(), 9, "cus_1", "sub_1"); err != nil {
		t.Fatalf("ApplyStripeCheckout: %v", err)
	}
	if repo.settings[9].Plan != "pro" {
		t.Fatalf("plan after checkout = %q", repo.settings[9].Plan)
	}

	if err := svc.SyncStripeSubscriptionStatus(context.Background(), "sub_1", "canceled"); err != nil {
		t.Fatalf("SyncStripeSubscriptionStatus: %v", err)
	}
	if repo.settings[9].Plan != "free" {
		t.Errorf("plan after cancel = %q", repo.settings[9].Plan)
	}

	if err := svc.SyncStripeSubscriptionStatus(context.Background(), "sub_1", "trialing"); err != nil {
		t.Fatalf("SyncStripeSubscriptionStatus: %v", err)
	}
	if repo.settings[9].Plan != "pro" {
		t.Errorf("plan after trialing = %q", repo.settings[9].Plan)
	}
}

func TestAmountsEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"99.00", "99.00", true},
		{"99.00", "99", true},
		{"99.00", "99.0", true},
		{"99.00", "99.000", false}, // more than cents precision is invalid
		{"99.00", "99.01", false},
		{"99.00", "9.90", false},
		{"0.50", ".50", true},
		{"99.00", "", false},
		{"99.00", "abc", false},
		{"-1.00", "-1.00", false},
	}
	for _, c := range cases {
		if got := amountsEqual(c.a, c.b); got != c.want {
			t.Errorf("amountsEqual(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

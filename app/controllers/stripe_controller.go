package controllers

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/internal/pkg/billing"
	"github.com/panelflow/panelflow/internal/pkg/database"
	"github.com/panelflow/panelflow/internal/pkg/env"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

func stripeBaseURL() string {
	base := env.GetEnv("APP_BASE_URL", "")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// HandleStripeCheckout creates a subscription checkout session for the
// logged-in user and returns its redirect URL.
func HandleStripeCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	secret := env.GetEnv("STRIPE_SECRET_KEY", "")
	priceID := env.GetEnv("STRIPE_PRICE_ID", "")
	if secret == "" || priceID == "" {
		return jsonError(c, fiber.StatusInternalServerError, "configuration_error", "Stripe is not configured")
	}
	stripe.Key = secret

	base := stripeBaseURL()
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(base + "/billing/success"),
		CancelURL:         stripe.String(base + "/pricing"),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(userCtx.UserID), 10)),
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userCtx.UserID), 10))

	sess, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("stripe checkout session failed for user %d: %v", userCtx.UserID, err)
		return jsonInternal(c, "failed to create checkout session")
	}

	return c.JSON(fiber.Map{"url": sess.URL, "session_id": sess.ID})
}

// HandleStripeWebhook verifies and processes Stripe events. Signature
// verification happens before anything else; unhandled event types are
// acknowledged so Stripe stops redelivering them.
func HandleStripeWebhook(c *fiber.Ctx) error {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		return jsonError(c, fiber.StatusInternalServerError, "configuration_error", "Stripe webhook secret is not configured")
	}

	event, err := webhook.ConstructEvent(c.BodyRaw(), c.Get("Stripe-Signature"), secret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_signature"})
	}

	cfg := &billing.PayFastConfig{} // Stripe handlers never touch PayFast settings
	svc := billing.NewServiceFromDB(database.GetDB(), cfg)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_payload"})
		}
		userID := parseStripeUserID(&sess)
		if userID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_reference"})
		}
		customerID, subscriptionID := "", ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}
		if err := svc.ApplyStripeCheckout(c.Context(), userID, customerID, subscriptionID); err != nil {
			log.Printf("stripe checkout apply failed for user %d: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "storage_unavailable"})
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_payload"})
		}
		status := string(sub.Status)
		if event.Type == "customer.subscription.deleted" {
			status = "canceled"
		}
		if err := svc.SyncStripeSubscriptionStatus(c.Context(), sub.ID, status); err != nil {
			log.Printf("stripe subscription sync failed for %s: %v", sub.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "storage_unavailable"})
		}
	}

	return c.JSON(fiber.Map{"ok": true})
}

func parseStripeUserID(sess *stripe.CheckoutSession) uint {
	ref := sess.ClientReferenceID
	if ref == "" {
		ref = sess.Metadata["user_id"]
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// HandleStripePortal creates a billing-portal session for the logged-in
// subscriber.
func HandleStripePortal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	secret := env.GetEnv("STRIPE_SECRET_KEY", "")
	if secret == "" {
		return jsonError(c, fiber.StatusInternalServerError, "configuration_error", "Stripe is not configured")
	}
	stripe.Key = secret

	us, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "failed to load user settings")
	}
	if us.StripeCustomerID == "" {
		return jsonError(c, fiber.StatusBadRequest, "no_subscription", "no Stripe subscription on this account")
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(us.StripeCustomerID),
		ReturnURL: stripe.String(stripeBaseURL() + "/dashboard"),
	})
	if err != nil {
		log.Printf("stripe portal session failed for user %d: %v", userCtx.UserID, err)
		return jsonInternal(c, "failed to create portal session")
	}

	return c.JSON(fiber.Map{"url": sess.URL})
}

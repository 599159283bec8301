package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/billing"
	"github.com/panelflow/panelflow/internal/pkg/database"
	"github.com/panelflow/panelflow/internal/pkg/session"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

func payFastService(c *fiber.Ctx) (*billing.Service, error) {
	cfg, err := billing.LoadPayFastConfig()
	if err != nil {
		var ce *billing.ConfigurationError
		if errors.As(err, &ce) {
			log.Printf("payfast configuration error: %v", ce)
			return nil, jsonError(c, fiber.StatusInternalServerError, "configuration_error", ce.Error())
		}
		return nil, jsonInternal(c, "payment configuration failed")
	}
	return billing.NewServiceFromDB(database.GetDB(), cfg), nil
}

// HandlePayFastStart builds a signed payment initiation for the logged-in
// user. The response carries both the field set for an auto-POST form and a
// prebuilt redirect URL; clients pick one.
func HandlePayFastStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonUnauthorized(c)
	}

	svc, errResp := payFastService(c)
	if svc == nil {
		return errResp
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonInternal(c, "failed to load user")
	}

	init, err := svc.InitiatePayment(c.Context(), user)
	if err != nil {
		if errors.Is(err, billing.ErrUnauthenticated) {
			return jsonUnauthorized(c)
		}
		log.Printf("payfast initiation failed for user %d: %v", userCtx.UserID, err)
		return jsonInternal(c, "failed to start payment")
	}

	return c.JSON(fiber.Map{
		"process_url":  init.ProcessURL,
		"fields":       init.Fields,
		"redirect_url": init.RedirectURL,
		"reference":    init.Reference,
	})
}

// HandlePayFastITN is the gateway's server-to-server notification endpoint.
//
// Responses steer the gateway's retry behavior: 200 means handled or
// permanently ignorable-with-ack, 400 means permanently invalid, 500 means
// try again later.
func HandlePayFastITN(c *fiber.Ctx) error {
	svc, errResp := payFastService(c)
	if svc == nil {
		return errResp
	}

	fields := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		fields[string(key)] = string(value)
	})
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_signature"})
	}

	result, err := svc.HandleNotification(c.Context(), fields)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrBadSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_signature"})
		case errors.Is(err, billing.ErrAmountMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "amount_mismatch"})
		case errors.Is(err, billing.ErrBadReference):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "bad_reference"})
		}
		var tse *billing.TransientStorageError
		if errors.As(err, &tse) {
			log.Printf("payfast itn transient failure: %v", tse)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "storage_unavailable"})
		}
		log.Printf("payfast itn unexpected failure: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal"})
	}

	return c.JSON(fiber.Map{"ok": true, "outcome": string(result.Outcome)})
}

// HandleBillingSuccess is the browser return URL after a gateway payment.
// Entitlement state comes from the ITN, not from this redirect; this just
// refreshes the cached plan in the session.
func HandleBillingSuccess(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		_ = session.SetSessionValue(c, usercontext.KeyPlan, "")
	}
	return c.JSON(fiber.Map{"ok": true, "message": "payment received; your plan updates as soon as the gateway confirms"})
}

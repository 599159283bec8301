package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/panelflow/panelflow/app/models"
	"github.com/panelflow/panelflow/app/repository"
	"github.com/panelflow/panelflow/internal/pkg/cache"
	"github.com/panelflow/panelflow/internal/pkg/env"
	"github.com/panelflow/panelflow/internal/pkg/hcaptcha"
	"github.com/panelflow/panelflow/internal/pkg/session"
	"github.com/panelflow/panelflow/internal/pkg/usercontext"
)

type registerRequest struct {
	Username      string `json:"username" form:"username"`
	Email         string `json:"email" form:"email"`
	Password      string `json:"password" form:"password"`
	CaptchaToken  string `json:"h-captcha-response" form:"h-captcha-response"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// HandleAuthRegister creates a new account after captcha validation.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	// Verify hCaptcha token (skipped when no secret is configured, e.g. dev)
	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			if err != nil {
				log.Printf("hCaptcha validation error: %v", err)
			}
			return jsonError(c, fiber.StatusBadRequest, "captcha_failed", "Captcha validation failed. Please try again.")
		}
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	// Accounts are active right away; the activation token is kept for a
	// later email-verification rollout.
	user.Status = models.STATUS_ACTIVE
	if err := user.GenerateActivationToken(); err != nil {
		return jsonInternal(c, "failed to prepare account")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		return jsonError(c, fiber.StatusConflict, "registration_failed", "email is already in use")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

const (
	loginFailLimit  = 10
	loginFailWindow = 15 * time.Minute
)

func recordLoginFailure(ip string) {
	key := "login:fail:" + ip
	if n, err := cache.Increment(key); err == nil && n == 1 {
		_ = cache.Expire(key, loginFailWindow)
	}
}

// HandleAuthLogin verifies credentials and starts a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	if fails, err := cache.GetInt("login:fail:" + c.IP()); err == nil && fails >= loginFailLimit {
		return jsonError(c, fiber.StatusTooManyRequests, "too_many_attempts", "too many failed logins, try again later")
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			recordLoginFailure(c.IP())
			return jsonError(c, fiber.StatusUnauthorized, "login_failed", "invalid credentials")
		}
		return jsonInternal(c, "login failed")
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		recordLoginFailure(c.IP())
		return jsonError(c, fiber.StatusUnauthorized, "login_failed", "invalid credentials")
	}
	if user.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "account disabled")
	}

	_ = cache.Delete("login:fail:" + c.IP())

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternal(c, fmt.Sprintf("something went wrong: %s", err))
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)

	if err := sess.Save(); err != nil {
		return jsonInternal(c, fmt.Sprintf("something went wrong: %s", err))
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = repo.Update(user)

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// HandleAuthLogout destroys the current session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return c.JSON(fiber.Map{"ok": true})
}

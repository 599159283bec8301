package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/panelflow/panelflow/app/controllers"
	apiv1 "github.com/panelflow/panelflow/internal/api/v1"
	"github.com/panelflow/panelflow/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Payment endpoints. The ITN and the Stripe webhook are server-to-server
	// and authenticate by signature, not session.
	api.Post("/payfast/start", middleware.RequireAuth, controllers.HandlePayFastStart)
	api.Post("/payfast/itn", controllers.HandlePayFastITN)
	api.Post("/stripe/checkout", middleware.RequireAuth, controllers.HandleStripeCheckout)
	api.Post("/stripe/webhook", controllers.HandleStripeWebhook)
	api.Post("/stripe/portal", middleware.RequireAuth, controllers.HandleStripePortal)

	// API v1 routes (API key auth)
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelflow/panelflow/app/controllers"
	"github.com/panelflow/panelflow/internal/pkg/middleware"
	"github.com/panelflow/panelflow/internal/pkg/oauth"
	"github.com/panelflow/panelflow/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerAccountRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

// registerPublicRoutes wires everything reachable without a session.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// First-party auth
	app.Post("/register", controllers.HandleAuthRegister)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/logout", controllers.HandleAuthLogout)

	// OAuth (Google)
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Public reader endpoints, keyed by share-link slug
	app.Get("/read/:slug", controllers.HandleReaderSeries)
	app.Get("/read/:slug/chapters/:uuid", controllers.HandleReaderChapter)

	// Browser return target after gateway checkout
	app.Get("/billing/success", controllers.HandleBillingSuccess)
}

// registerAccountRoutes wires the session-authenticated dashboard surface.
func (h HttpRouter) registerAccountRoutes(app *fiber.App) {
	user := app.Group("/user", middleware.RequireAuth)
	user.Get("/profile", controllers.HandleGetUserAccount)
	user.Put("/profile", controllers.HandleUpdateProfile)
	user.Post("/api-key", controllers.HandleIssueAPIKey)
	user.Delete("/api-key", controllers.HandleRevokeAPIKey)

	series := app.Group("/series", middleware.RequireAuth)
	series.Post("/", controllers.HandleSeriesCreate)
	series.Get("/", controllers.HandleSeriesList)
	series.Get("/:uuid", controllers.HandleSeriesGet)
	series.Put("/:uuid", controllers.HandleSeriesUpdate)
	series.Delete("/:uuid", controllers.HandleSeriesDelete)
	series.Post("/:uuid/publish", controllers.HandleSeriesPublishToggle)
	series.Post("/:uuid/cover", controllers.HandleSeriesCoverUpload)
	series.Post("/:uuid/chapters", controllers.HandleChapterCreate)
	series.Get("/:uuid/chapters", controllers.HandleChapterList)

	chapters := app.Group("/chapters", middleware.RequireAuth)
	chapters.Get("/:uuid", controllers.HandleChapterGet)
	chapters.Put("/:uuid", controllers.HandleChapterUpdate)
	chapters.Delete("/:uuid", controllers.HandleChapterDelete)
	chapters.Post("/:uuid/publish", controllers.HandleChapterPublishToggle)
	chapters.Post("/:uuid/pages", controllers.HandlePageUpload)
	chapters.Get("/:uuid/pages", controllers.HandlePageList)
}

package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/panelflow/panelflow/app/controllers"
)

// APIServer implements the programmatic v1 API, authenticated by API key.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Pong is the ping response payload.
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetSeries lists the authenticated user's series.
func (s *APIServer) GetSeries(c *fiber.Ctx) error {
	return controllers.HandleSeriesList(c)
}

// PostSeries creates a series.
func (s *APIServer) PostSeries(c *fiber.Ctx) error {
	return controllers.HandleSeriesCreate(c)
}

// PostChapterPages uploads page images to a chapter.
func (s *APIServer) PostChapterPages(c *fiber.Ctx) error {
	return controllers.HandlePageUpload(c)
}

// RegisterHandlers wires the v1 routes onto the given group. The caller is
// responsible for attaching authentication middleware.
func RegisterHandlers(router fiber.Router, server *APIServer) {
	router.Get("/ping", server.GetPing)
	router.Get("/user/profile", server.GetUserProfile)
	router.Get("/series", server.GetSeries)
	router.Post("/series", server.PostSeries)
	router.Post("/chapters/:uuid/pages", server.PostChapterPages)
}

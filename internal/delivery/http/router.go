package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/delivery/ws"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, orch *service.Orchestrator, repo domain.SnapshotRepository, hub *ws.Hub) {
	handler := NewHandler(orch, repo)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// Scene push for map clients
	app.Use("/ws", ws.Upgrade)
	app.Get("/ws", hub.Handler())

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/scene", handler.GetScene)
		api.Get("/metrics", handler.GetMetrics)
		api.Get("/history", handler.GetHistory)

		api.Post("/selection", handler.PostSelection)
		api.Post("/mode", handler.PostMode)
		api.Post("/hour", handler.PostHour)
		api.Post("/construction", handler.PostConstruction)
		api.Post("/recommend", handler.PostRecommend)
	}
}

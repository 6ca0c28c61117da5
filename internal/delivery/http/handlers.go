package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	orch *service.Orchestrator
	repo domain.SnapshotRepository
}

// NewHandler creates a new handler
func NewHandler(orch *service.Orchestrator, repo domain.SnapshotRepository) *Handler {
	return &Handler{
		orch: orch,
		repo: repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "corridor-monitor",
		"version": "1.0.0",
	})
}

// GetScene returns the current reconciled render scene
func (h *Handler) GetScene(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.orch.Scene(),
	})
}

// GetMetrics returns the current aggregate metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.orch.Metrics(),
	})
}

type selectionRequest struct {
	SegmentoID *int `json:"segmento_id"`
}

// PostSelection toggles segment selection; a null id clears it
func (h *Handler) PostSelection(c *fiber.Ctx) error {
	var req selectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.SegmentoID == nil {
		h.orch.ClearSelection()
	} else {
		h.orch.ToggleSelection(c.Context(), *req.SegmentoID)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.orch.Scene(),
	})
}

type modeRequest struct {
	Prediction bool   `json:"prediction"`
	Fecha      string `json:"fecha"`
}

// PostMode enters or exits prediction mode
func (h *Handler) PostMode(c *fiber.Ctx) error {
	var req modeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if !req.Prediction {
		h.orch.ExitPrediction()
		return c.JSON(fiber.Map{"success": true, "data": h.orch.Scene()})
	}

	if err := h.orch.EnterPrediction(c.Context(), req.Fecha); err != nil {
		if errors.Is(err, service.ErrDateRequired) {
			return fiber.NewError(fiber.StatusBadRequest, "Seleccione una fecha para la predicción")
		}
		return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch predictions")
	}

	return c.JSON(fiber.Map{"success": true, "data": h.orch.Scene()})
}

type hourRequest struct {
	Hora string `json:"hora"`
}

// PostHour re-filters the prediction batch by hour of day
func (h *Handler) PostHour(c *fiber.Ctx) error {
	var req hourRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Hora == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Seleccione una hora")
	}

	if err := h.orch.SetHour(req.Hora); err != nil {
		return fiber.NewError(fiber.StatusConflict, "Hour filter requires prediction mode")
	}

	return c.JSON(fiber.Map{"success": true, "data": h.orch.Scene()})
}

type constructionRequest struct {
	SegmentoID *int `json:"segmento_id"`
}

// PostConstruction marks or clears the under-construction segment
func (h *Handler) PostConstruction(c *fiber.Ctx) error {
	var req constructionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	h.orch.SetConstruction(req.SegmentoID)

	return c.JSON(fiber.Map{"success": true, "data": h.orch.Scene()})
}

type recommendRequest struct {
	FechaHora string `json:"fecha_hora"`
}

// PostRecommend requests a route recommendation from the prediction backend
func (h *Handler) PostRecommend(c *fiber.Ctx) error {
	var req recommendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.orch.Recommend(c.Context(), req.FechaHora); err != nil {
		switch {
		case errors.Is(err, service.ErrDateRequired):
			return fiber.NewError(fiber.StatusBadRequest, "Seleccione fecha y hora para recomendar una ruta")
		case errors.Is(err, service.ErrPredictionOnly):
			return fiber.NewError(fiber.StatusConflict, "La recomendación requiere el modo predicción")
		default:
			return fiber.NewError(fiber.StatusBadGateway, "Failed to get route recommendation")
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": h.orch.Scene()})
}

// GetHistory returns metrics history within a time range
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	ctx := c.Context()

	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	data, err := h.repo.GetMetricsHistory(ctx, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch metrics history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

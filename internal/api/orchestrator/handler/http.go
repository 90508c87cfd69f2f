package orchestratorHandler

import (
	orchestratorService "MayaCRM/internal/api/orchestrator/service"
	"MayaCRM/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type OrchestratorHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	orchestrator orchestratorService.IOrchestratorService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	os orchestratorService.IOrchestratorService,
) *OrchestratorHandler {
	return &OrchestratorHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		orchestrator: os,
	}
}

func (h *OrchestratorHandler) Start(srv fiber.Router) {
	orchestrator := srv.Group("/orchestrator")

	orchestrator.Use(h.middleware.NewRateLimiter)
	orchestrator.Use(h.middleware.NewTokenMiddleware)

	// Session lifecycle
	orchestrator.Post("/sessions", h.InitializeSession)
	orchestrator.Get("/sessions", h.GetActiveSessions)
	orchestrator.Get("/sessions/:session_id", h.GetSession)
	orchestrator.Delete("/sessions/:session_id", h.EndSession)

	// Message pipeline
	orchestrator.Post("/sessions/:session_id/messages", h.ProcessMessage)

	// Command queue
	orchestrator.Post("/sessions/:session_id/queue/drain", h.DrainQueue)

	// Observability
	orchestrator.Get("/metrics", h.GetMetrics)
}

package orchestratorHandler

import (
	"MayaCRM/internal/api/orchestrator"
	contextPkg "MayaCRM/pkg/context"
	"MayaCRM/pkg/handlerUtil"
	"MayaCRM/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *OrchestratorHandler) ProcessMessage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing inbound message request")

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("session_id is required"), ctx.Path())
	}

	var req orchestrator.ProcessMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.orchestrator.ProcessMessage(c, sessionID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_message")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *OrchestratorHandler) DrainQueue(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("session_id is required"), ctx.Path())
	}

	result, err := h.orchestrator.ProcessQueuedCommands(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "drain_queue")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

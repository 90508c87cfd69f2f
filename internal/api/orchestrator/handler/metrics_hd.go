package orchestratorHandler

import (
	contextPkg "MayaCRM/pkg/context"
	"MayaCRM/pkg/handlerUtil"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *OrchestratorHandler) GetMetrics(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	metrics, err := h.orchestrator.GetMetrics(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_metrics")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, metrics)
	}
}

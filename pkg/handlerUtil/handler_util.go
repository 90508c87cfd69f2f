package handlerUtil

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/api/team"
	"MayaCRM/pkg/log"
	"MayaCRM/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	// Orchestrator domain errors
	if errors.Is(err, orchestrator.ErrSessionNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Session not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Session not found",
			"code":    "SESSION_NOT_FOUND",
		})
	}

	if errors.Is(err, orchestrator.ErrSessionEnded) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Session has ended")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Session has already ended",
			"code":    "SESSION_ENDED",
		})
	}

	if errors.Is(err, orchestrator.ErrSessionNotActive) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Session not active")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Session is not active",
			"code":    "SESSION_NOT_ACTIVE",
		})
	}

	if errors.Is(err, orchestrator.ErrInvalidTransition) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Invalid session status transition")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Invalid session status transition",
			"code":    "INVALID_TRANSITION",
		})
	}

	if errors.Is(err, orchestrator.ErrCustomerNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Customer not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Customer not found",
			"code":    "CUSTOMER_NOT_FOUND",
		})
	}

	if errors.Is(err, orchestrator.ErrInvalidMode) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Invalid session mode")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid session mode",
			"code":    "INVALID_MODE",
		})
	}

	if errors.Is(err, orchestrator.ErrClassification) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Message classification failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Failed to classify message",
			"code":    "CLASSIFICATION_FAILED",
		})
	}

	if errors.Is(err, orchestrator.ErrResponseFailed) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Response generation failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Failed to generate response",
			"code":    "RESPONSE_FAILED",
		})
	}

	// Team domain errors
	if errors.Is(err, team.ErrNoAgentAvailable) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("No agent available")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No agent available for assignment",
			"code":    "NO_AGENT_AVAILABLE",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}

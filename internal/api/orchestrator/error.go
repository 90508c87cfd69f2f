package orchestrator

import "MayaCRM/pkg/response"

var (
	ErrSessionNotFound     = response.NewError(404, "session not found")
	ErrSessionNotActive    = response.NewError(409, "session is not active")
	ErrSessionEnded        = response.NewError(409, "session has ended")
	ErrCustomerNotFound    = response.NewError(404, "customer not found")
	ErrInvalidMode         = response.NewError(400, "invalid session mode")
	ErrInvalidTransition   = response.NewError(409, "invalid session status transition")
	ErrClassification      = response.NewError(502, "failed to classify message")
	ErrResponseFailed      = response.NewError(502, "failed to generate response")
	ErrCommandFailed       = response.NewError(500, "failed to execute command")
	ErrMissingConversation = response.NewError(400, "session has no linked conversation")
)

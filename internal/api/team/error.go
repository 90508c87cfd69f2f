package team

import "MayaCRM/pkg/response"

var (
	ErrNoAgentAvailable = response.NewError(404, "no agent available for assignment")
	ErrAgentNotFound    = response.NewError(404, "agent not found")
)

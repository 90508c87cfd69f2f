package entity

import "time"

type CommandType string

const (
	CommandVoiceResponse    CommandType = "voice_response"
	CommandTextResponse     CommandType = "text_response"
	CommandTransferAgent    CommandType = "transfer_agent"
	CommandCreateTask       CommandType = "create_task"
	CommandScheduleCallback CommandType = "schedule_callback"
	CommandEndSession       CommandType = "end_session"
)

type CommandPriority string

const (
	CommandPriorityHigh   CommandPriority = "high"
	CommandPriorityMedium CommandPriority = "medium"
	CommandPriorityLow    CommandPriority = "low"
)

// Command is a deferred or immediate side effect produced from one classified
// message. High priority commands run synchronously inside the request that
// produced them; everything else waits in the per-session FIFO queue until its
// scheduled time has passed. A command is consumed exactly once.
type Command struct {
	ID          string                 `json:"id"`
	SessionID   string                 `json:"session_id"`
	Type        CommandType            `json:"type"`
	Priority    CommandPriority        `json:"priority"`
	Payload     map[string]interface{} `json:"payload"`
	ScheduledAt *time.Time             `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Due reports whether the command may execute at the given instant.
func (c Command) Due(now time.Time) bool {
	return c.ScheduledAt == nil || !c.ScheduledAt.After(now)
}

package orchestrator

import (
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/voice"
	"time"
)

type CreateSessionRequest struct {
	CustomerID     string               `json:"customer_id" validate:"required"`
	CustomerPhone  string               `json:"customer_phone,omitempty"`
	ConversationID string               `json:"conversation_id,omitempty"`
	Mode           string               `json:"mode" validate:"required,oneof=voice chat hybrid"`
	VoiceOverrides *VoiceConfigOverride `json:"voice_overrides,omitempty"`
}

// VoiceConfigOverride carries only the fields the caller wants to change;
// nil pointers keep the defaults.
type VoiceConfigOverride struct {
	Provider   *string  `json:"provider,omitempty"`
	Speed      *float64 `json:"speed,omitempty" validate:"omitempty,gt=0"`
	Pitch      *float64 `json:"pitch,omitempty"`
	Stability  *float64 `json:"stability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Similarity *float64 `json:"similarity,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type ProcessMessageRequest struct {
	Content   string `json:"content" validate:"required,min=1,max=4000"`
	Type      string `json:"type" validate:"required,oneof=text voice"`
	AudioData string `json:"audio_data,omitempty"`
}

type MessageResponse struct {
	Text  string              `json:"text"`
	Voice *voice.SpeechResult `json:"voice,omitempty"`
}

type CommandResult struct {
	ID       string                 `json:"id"`
	Type     entity.CommandType     `json:"type"`
	Priority entity.CommandPriority `json:"priority"`
	Success  bool                   `json:"success"`
}

type ProcessMessageResult struct {
	Success        bool                   `json:"success"`
	SessionID      string                 `json:"session_id"`
	Strategy       Strategy               `json:"strategy"`
	Classification *entity.Classification `json:"classification,omitempty"`
	Response       *MessageResponse       `json:"response,omitempty"`
	Commands       []CommandResult        `json:"commands"`
}

type EndSessionRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

type DrainQueueResult struct {
	SessionID string          `json:"session_id"`
	Executed  []CommandResult `json:"executed"`
	Remaining int             `json:"remaining"`
}

type SessionMetrics struct {
	ActiveSessions    int              `json:"active_sessions"`
	SessionsStarted   int64            `json:"sessions_started"`
	SessionsEnded     int64            `json:"sessions_ended"`
	MessagesProcessed int64            `json:"messages_processed"`
	VoiceMessages     int64            `json:"voice_messages"`
	FailedMessages    int64            `json:"failed_messages"`
	CommandsGenerated int64            `json:"commands_generated"`
	CommandsExecuted  map[string]int64 `json:"commands_executed"`
	CommandsFailed    int64            `json:"commands_failed"`
	AvgDurationSec    float64          `json:"avg_session_duration_seconds"`
	CollectedAt       time.Time        `json:"collected_at"`
}

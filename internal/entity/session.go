package entity

import "time"

type SessionMode string

const (
	SessionModeVoice  SessionMode = "voice"
	SessionModeChat   SessionMode = "chat"
	SessionModeHybrid SessionMode = "hybrid"
)

func (m SessionMode) Valid() bool {
	switch m {
	case SessionModeVoice, SessionModeChat, SessionModeHybrid:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusPaused SessionStatus = "paused"
	SessionStatusEnded  SessionStatus = "ended"
)

// CanTransitionTo enforces the session state machine:
// active→{paused,ended}, paused→{active,ended}, ended is terminal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusActive:
		return next == SessionStatusPaused || next == SessionStatusEnded
	case SessionStatusPaused:
		return next == SessionStatusActive || next == SessionStatusEnded
	default:
		return false
	}
}

type VoiceConfig struct {
	Provider   string  `json:"provider"`
	Language   string  `json:"language"`
	Speed      float64 `json:"speed"`
	Pitch      float64 `json:"pitch"`
	Stability  float64 `json:"stability"`
	Similarity float64 `json:"similarity"`
}

// Session is one customer conversation's live state. The registry holds the
// working copy; conversation_sessions in Postgres is the system of record for
// everything that must survive a restart.
type Session struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	ConversationID    string                 `json:"conversation_id"`
	CustomerID        string                 `json:"customer_id"`
	CustomerName      string                 `json:"customer_name"`
	CustomerPhone     string                 `json:"customer_phone"`
	Mode              SessionMode            `json:"mode"`
	Status            SessionStatus          `json:"status"`
	Language          string                 `json:"language"`
	VoiceConfig       VoiceConfig            `json:"voice_config"`
	Context           map[string]interface{} `json:"context"`
	StartedAt         time.Time              `json:"started_at"`
	EndedAt           *time.Time             `json:"ended_at,omitempty"`
	EndReason         string                 `json:"end_reason,omitempty"`
	TotalDuration     int64                  `json:"total_duration_seconds"`
	MessageCount      int                    `json:"message_count"`
	VoiceMessageCount int                    `json:"voice_message_count"`
}

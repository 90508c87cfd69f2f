package entity

import "time"

type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CustomerID  string    `json:"customer_id"`
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	DueAt       time.Time `json:"due_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Callback struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CustomerID    string    `json:"customer_id"`
	SessionID     string    `json:"session_id"`
	CustomerPhone string    `json:"customer_phone"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type AgentAssignment struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	ConversationID string    `json:"conversation_id"`
	SessionID      string    `json:"session_id"`
	AssignedAt     time.Time `json:"assigned_at"`
}

type Agent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Specializations []string  `json:"specializations"`
	IsAvailable     bool      `json:"is_available"`
	ActiveLoad      int       `json:"active_load"`
	MaxLoad         int       `json:"max_load"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

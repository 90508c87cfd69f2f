package entity

import "time"

type Customer struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Name      string                 `json:"name"`
	Phone     string                 `json:"phone"`
	Email     string                 `json:"email"`
	Language  string                 `json:"language"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Classification struct {
	Intent       string  `json:"intent"`
	Sentiment    string  `json:"sentiment"`
	UrgencyScore int     `json:"urgency_score"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
}

type UserLoginData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

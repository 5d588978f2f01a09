package models

import "time"

const (
	RoleUser   = "user"
	RoleBot    = "bot"
	RoleSystem = "system"
)

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

type ChatSession struct {
	ID           string    `json:"session_id"`
	UserIP       string    `json:"user_ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active"`
	MessageCount int       `json:"message_count"`
}

// ChatMessage is immutable once stored. Intent and Confidence are nil for
// user messages.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       string    `json:"message_type"`
	Content    string    `json:"content"`
	Intent     *string   `json:"intent"`
	Confidence *float64  `json:"confidence"`
	TokensUsed int       `json:"ai_tokens_used"`
	Payload    Payload   `json:"response_data,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type CachedAnswer struct {
	ID           int64     `json:"id"`
	QuestionHash string    `json:"question_hash"`
	Question     string    `json:"question"`
	Response     string    `json:"response"`
	Payload      Payload   `json:"response_data,omitempty"`
	Intent       string    `json:"intent"`
	Confidence   float64   `json:"confidence"`
	UsageCount   int       `json:"usage_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
}

type IntentDefinition struct {
	Name           string    `json:"name"`
	Keywords       string    `json:"keywords"`
	Template       string    `json:"response_template"`
	RequiresRemote bool      `json:"requires_ai"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type SupportTicket struct {
	ID        int64     `json:"id"`
	TicketID  string    `json:"ticket_id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

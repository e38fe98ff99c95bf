package conversation

import (
	"context"
	"time"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// Message is a single turn in a conversation.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-user conversation state. Pending holds the most recent
// parsed maintenance request awaiting confirmation; there is at most one,
// and a newer parse replaces it wholesale.
type Session struct {
	UserID   string                           `json:"user_id"`
	Messages []Message                        `json:"messages"`
	Pending  *models.ParsedMaintenanceRequest `json:"pending,omitempty"`
	Metadata Metadata                         `json:"metadata"`
}

// Metadata contains session bookkeeping.
type Metadata struct {
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Store defines the interface for conversation storage. Implementations:
// Redis for durable sessions, in-memory for single-process deployments and
// tests.
type Store interface {
	// LoadSession loads a session, returning an empty one if none exists.
	LoadSession(ctx context.Context, userID string) (*Session, error)

	// AppendMessage appends a message to a session.
	AppendMessage(ctx context.Context, userID string, msg Message) error

	// SetPending stores the pending parsed request, replacing any prior one.
	SetPending(ctx context.Context, userID string, req *models.ParsedMaintenanceRequest) error

	// ClearPending discards the pending parsed request.
	ClearPending(ctx context.Context, userID string) error

	// ClearSession removes a session entirely.
	ClearSession(ctx context.Context, userID string) error
}

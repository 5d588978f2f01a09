package chatbot

import (
	"context"
	"time"

	"github.com/westend/backend/internal/models"
)

// IntentSource returns active intents ordered by descending priority.
type IntentSource interface {
	ActiveIntents(ctx context.Context) ([]models.IntentDefinition, error)
}

type Catalog interface {
	// ListSearchableProducts returns active, public products with their
	// vertical title filled in.
	ListSearchableProducts(ctx context.Context) ([]models.Product, error)
	ListVerticals(ctx context.Context) ([]models.Vertical, error)
	ListVerticalProducts(ctx context.Context, verticalID int64, limit int) ([]models.Product, error)
}

type Conversations interface {
	CreateSession(ctx context.Context, s models.ChatSession) (models.ChatSession, error)
	GetActiveSession(ctx context.Context, id string) (models.ChatSession, error)
	DeactivateSession(ctx context.Context, id string) error
	// AppendMessage stores m and bumps the owning session's activity
	// timestamp and message count.
	AppendMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	CreateTicket(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error)
}

type AnswerCache interface {
	// UseAnswer returns the answer stored under hash if it was last used
	// after notBefore, incrementing its usage count.
	UseAnswer(ctx context.Context, hash string, notBefore time.Time) (models.CachedAnswer, bool, error)
	SaveAnswer(ctx context.Context, a models.CachedAnswer) error
	PurgeAnswers(ctx context.Context, lastUsedBefore time.Time) (int64, error)
}

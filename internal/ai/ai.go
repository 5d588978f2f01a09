// Package ai talks to an OpenAI-compatible chat completion API on behalf of
// the chatbot, with a daily token budget and a response cache in front.
package ai

import (
	"context"
	"errors"

	"github.com/westend/backend/internal/models"
)

var (
	ErrNotConfigured = errors.New("remote completion is not configured")
	ErrDailyLimit    = errors.New("daily AI token limit exceeded")
)

// Result never carries a Go error up to the caller as a failure of the
// request itself: when Success is false, Fallback holds text that can be
// shown to the user instead.
type Result struct {
	Success     bool
	Response    string
	Fallback    string
	Err         error
	Model       string
	TokensUsed  int
	TokenBudget int
	Cached      bool
}

// VerticalLister feeds live catalog context into the system prompt.
type VerticalLister interface {
	ListVerticals(ctx context.Context) ([]models.Vertical, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

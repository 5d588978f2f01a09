package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/ai"
	"github.com/westend/backend/internal/config"
	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/metrics"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/notify"
	"github.com/westend/backend/internal/utils"
)

const (
	SourceCache      = "cache"
	SourceTemplate   = "template"
	SourceAI         = "ai"
	SourceAIFallback = "ai_fallback"
	SourceFallback   = "fallback"
)

const (
	intentAIAssisted = "ai_assisted"
	intentAIFallback = "ai_fallback"
	intentFallback   = "fallback"

	aiConfidence       = 0.9
	fallbackConfidence = 0.6

	historyTurns       = 3
	searchLimit        = 10
	maxUserAgentLength = 500
)

const fallbackGuidance = "I'm here to help! You can ask me about:\n\n" +
	"- **Products**: \"show me rice products\", \"spices\", \"ghee\"\n" +
	"- **Contact**: \"phone number\", \"address\"\n" +
	"- **Categories**: \"baked goods\", \"dairy products\"\n" +
	"- **Pricing**: \"how much for rice\"\n\n" +
	"What would you like to know?"

var (
	ErrInvalidInput    = errors.New("session id and message are required")
	ErrSessionNotFound = errors.New("session not found")
)

type Completer interface {
	Available() bool
	Complete(ctx context.Context, message string, history []models.ChatMessage) ai.Result
}

type Notifier interface {
	Dispatch(m notify.Message)
}

type Reply struct {
	SessionID string             `json:"session_id"`
	Message   models.ChatMessage `json:"message"`
	Source    string             `json:"source"`
}

type TicketRequest struct {
	SessionID string
	Name      string
	Email     string
	Phone     string
	Company   string
	Subject   string
	Message   string
}

// Service runs the per-message pipeline: answer cache, intent resolution,
// templates or remote completion depending on Policy, then a static fallback.
type Service struct {
	Conversations Conversations
	Answers       AnswerCache
	Resolver      *Resolver
	Searcher      *Searcher
	Catalog       Catalog
	Completer     Completer
	Notifier      Notifier

	Policy             string
	CacheMinConfidence float64
	AnswerTTL          time.Duration
	Company            models.CompanyInfo
	SupportEmail       string

	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	text = strings.TrimSpace(text)
	if sessionID == "" || text == "" {
		return Reply{}, ErrInvalidInput
	}
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return Reply{}, err
	}

	history, err := s.Conversations.RecentMessages(ctx, sessionID, historyTurns)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}
	if _, err := s.Conversations.AppendMessage(ctx, models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}); err != nil {
		return Reply{}, fmt.Errorf("store user message: %w", err)
	}

	hash := utils.QuestionHash(text)
	if reply, ok, err := s.fromCache(ctx, sessionID, hash); err != nil || ok {
		return reply, err
	}

	res, resolved, err := s.Resolver.Resolve(ctx, text)
	if err != nil {
		return Reply{}, fmt.Errorf("resolve intent: %w", err)
	}
	if resolved {
		s.Logger.Debug().
			Str("session_id", sessionID).
			Str("intent", res.Intent.Name).
			Float64("confidence", res.Confidence).
			Bool("exact", res.Exact).
			Msg("intent resolved")
	}

	if s.Policy == config.PolicyTemplateFirst && resolved && !res.Intent.RequiresRemote && res.Confidence >= s.CacheMinConfidence {
		reply, ok, err := s.fromTemplate(ctx, sessionID, text, hash, res)
		if err != nil || ok {
			return reply, err
		}
	}

	if s.Completer != nil {
		result := s.Completer.Complete(ctx, text, history)
		if result.Success {
			return s.reply(ctx, SourceAI, models.ChatMessage{
				SessionID:  sessionID,
				Content:    result.Response,
				Intent:     strPtr(intentAIAssisted),
				Confidence: floatPtr(aiConfidence),
				TokensUsed: result.TokensUsed,
				Payload: models.CompletionPayload{
					Model:          result.Model,
					Cached:         result.Cached,
					TokensUsed:     result.TokensUsed,
					TokenBudget:    result.TokenBudget,
					ResolvedIntent: res.Intent.Name,
				},
			})
		}
		if result.Fallback != "" {
			payload := models.FallbackPayload{Reason: "remote_unavailable"}
			if result.Err != nil {
				payload.Error = result.Err.Error()
			}
			return s.reply(ctx, SourceAIFallback, models.ChatMessage{
				SessionID:  sessionID,
				Content:    result.Fallback,
				Intent:     strPtr(intentAIFallback),
				Confidence: floatPtr(fallbackConfidence),
				Payload:    payload,
			})
		}
	}

	return s.reply(ctx, SourceFallback, models.ChatMessage{
		SessionID:  sessionID,
		Content:    fallbackGuidance,
		Intent:     strPtr(intentFallback),
		Confidence: floatPtr(fallbackConfidence),
		Payload:    models.FallbackPayload{Reason: "no_answer"},
	})
}

func (s *Service) fromCache(ctx context.Context, sessionID, hash string) (Reply, bool, error) {
	if s.Answers == nil {
		return Reply{}, false, nil
	}
	var notBefore time.Time
	if s.AnswerTTL > 0 {
		notBefore = s.now().Add(-s.AnswerTTL)
	}
	answer, ok, err := s.Answers.UseAnswer(ctx, hash, notBefore)
	metrics.RecordCacheLookup("answer", ok)
	if err != nil {
		return Reply{}, false, fmt.Errorf("answer cache: %w", err)
	}
	if !ok {
		return Reply{}, false, nil
	}

	payload := models.CachePayload{QuestionHash: hash, UsageCount: answer.UsageCount}
	if answer.Payload != nil {
		payload.Origin = answer.Payload.Kind()
	}
	reply, err := s.reply(ctx, SourceCache, models.ChatMessage{
		SessionID:  sessionID,
		Content:    answer.Response,
		Intent:     strPtr(answer.Intent),
		Confidence: floatPtr(answer.Confidence),
		Payload:    payload,
	})
	return reply, err == nil, err
}

func (s *Service) fromTemplate(ctx context.Context, sessionID, text, hash string, res Resolution) (Reply, bool, error) {
	rc := RenderContext{Message: text, Company: s.Company, Confidence: res.Confidence}
	switch res.Intent.Name {
	case IntentProductSearch:
		products, err := s.Searcher.Search(ctx, text, searchLimit)
		if err != nil {
			return Reply{}, false, fmt.Errorf("search products: %w", err)
		}
		rc.Products = products
		fallthrough
	case IntentCategories:
		verticals, err := s.Catalog.ListVerticals(ctx)
		if err != nil {
			return Reply{}, false, fmt.Errorf("list verticals: %w", err)
		}
		rc.Verticals = verticals
	}

	rendered := Render(res.Intent, rc)
	if strings.TrimSpace(rendered.Text) == "" {
		return Reply{}, false, nil
	}

	if s.Answers != nil && rendered.Confidence >= s.CacheMinConfidence {
		if err := s.Answers.SaveAnswer(ctx, models.CachedAnswer{
			QuestionHash: hash,
			Question:     utils.NormalizeQuestion(text),
			Response:     rendered.Text,
			Payload:      rendered.Payload,
			Intent:       res.Intent.Name,
			Confidence:   rendered.Confidence,
			CreatedAt:    s.now(),
			LastUsed:     s.now(),
		}); err != nil {
			s.Logger.Warn().Err(err).Str("intent", res.Intent.Name).Msg("cache template answer")
		}
	}

	reply, err := s.reply(ctx, SourceTemplate, models.ChatMessage{
		SessionID:  sessionID,
		Content:    rendered.Text,
		Intent:     strPtr(res.Intent.Name),
		Confidence: floatPtr(rendered.Confidence),
		Payload:    rendered.Payload,
	})
	return reply, err == nil, err
}

func (s *Service) reply(ctx context.Context, source string, m models.ChatMessage) (Reply, error) {
	m.Role = models.RoleBot
	m.Timestamp = s.now()
	stored, err := s.Conversations.AppendMessage(ctx, m)
	if err != nil {
		return Reply{}, fmt.Errorf("store bot message: %w", err)
	}
	metrics.RecordChatMessage(source)
	return Reply{SessionID: m.SessionID, Message: stored, Source: source}, nil
}

func (s *Service) CreateSession(ctx context.Context, ip, userAgent string) (models.ChatSession, error) {
	if r := []rune(userAgent); len(r) > maxUserAgentLength {
		userAgent = string(r[:maxUserAgentLength])
	}
	now := s.now()
	return s.Conversations.CreateSession(ctx, models.ChatSession{
		ID:           uuid.NewString(),
		UserIP:       ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	})
}

func (s *Service) GetSession(ctx context.Context, id string) (models.ChatSession, error) {
	return s.activeSession(ctx, id)
}

func (s *Service) EndSession(ctx context.Context, id string) error {
	err := s.Conversations.DeactivateSession(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func (s *Service) History(ctx context.Context, id string) (models.ChatSession, []models.ChatMessage, error) {
	session, err := s.activeSession(ctx, id)
	if err != nil {
		return models.ChatSession{}, nil, err
	}
	messages, err := s.Conversations.ListMessages(ctx, id)
	if err != nil {
		return models.ChatSession{}, nil, err
	}
	return session, messages, nil
}

func (s *Service) CreateTicket(ctx context.Context, req TicketRequest) (models.SupportTicket, error) {
	if _, err := s.activeSession(ctx, req.SessionID); err != nil {
		return models.SupportTicket{}, err
	}
	now := s.now()
	ticket, err := s.Conversations.CreateTicket(ctx, models.SupportTicket{
		TicketID:  NewTicketID(now),
		SessionID: req.SessionID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.SupportTicket{}, err
	}

	if s.Notifier != nil && s.SupportEmail != "" {
		s.Notifier.Dispatch(notify.Message{
			To:      []string{s.SupportEmail},
			ReplyTo: ticket.Email,
			Subject: "New Chat Support Ticket: " + ticket.TicketID,
			Body: fmt.Sprintf("New support ticket created via chat:\n\n"+
				"Ticket ID: %s\nName: %s\nEmail: %s\nPhone: %s\nCompany: %s\n\n"+
				"Subject: %s\n\nMessage:\n%s\n",
				ticket.TicketID, ticket.Name, ticket.Email, ticket.Phone, ticket.Company,
				ticket.Subject, ticket.Message),
		})
	}
	return ticket, nil
}

// NewTicketID returns TKT-YYYYMMDD-XXXXXX.
func NewTicketID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), suffix)
}

func (s *Service) PurgeExpiredAnswers(ctx context.Context) (int64, error) {
	if s.Answers == nil || s.AnswerTTL <= 0 {
		return 0, nil
	}
	return s.Answers.PurgeAnswers(ctx, s.now().Add(-s.AnswerTTL))
}

// RunPurgeLoop purges expired cached answers every interval until ctx is
// cancelled.
func (s *Service) RunPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpiredAnswers(ctx)
			if err != nil {
				s.Logger.Error().Err(err).Msg("purge cached answers")
				continue
			}
			if n > 0 {
				s.Logger.Info().Int64("purged", n).Msg("purged expired cached answers")
			}
		}
	}
}

func (s *Service) activeSession(ctx context.Context, id string) (models.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return models.ChatSession{}, ErrSessionNotFound
	}
	session, err := s.Conversations.GetActiveSession(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.ChatSession{}, ErrSessionNotFound
	}
	return session, err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func strPtr(v string) *string { return &v }
func floatPtr(v float64) *float64 { return &v }

package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/westend/backend/internal/models"
)

func (s *Store) CreateSession(ctx context.Context, cs models.ChatSession) (models.ChatSession, error) {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO chat_sessions (id, user_ip, user_agent, created_at, last_activity, is_active, message_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)`,
		cs.ID, cs.UserIP, cs.UserAgent, cs.CreatedAt, cs.LastActivity, cs.IsActive)
	if err != nil {
		return models.ChatSession{}, err
	}
	cs.MessageCount = 0
	return cs, nil
}

func (s *Store) GetActiveSession(ctx context.Context, id string) (models.ChatSession, error) {
	var cs models.ChatSession
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_ip, user_agent, created_at, last_activity, is_active, message_count
		FROM chat_sessions WHERE id = $1 AND is_active`, id).
		Scan(&cs.ID, &cs.UserIP, &cs.UserAgent, &cs.CreatedAt, &cs.LastActivity, &cs.IsActive, &cs.MessageCount)
	if err != nil {
		return models.ChatSession{}, notFound(err)
	}
	return cs, nil
}

func (s *Store) DeactivateSession(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE chat_sessions SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage inserts m and bumps the session's activity and counter in
// the same transaction.
func (s *Store) AppendMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	payload, err := models.EncodePayload(m.Payload)
	if err != nil {
		return models.ChatMessage{}, err
	}
	err = s.WithTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO chat_messages (session_id, message_type, content, intent, confidence, ai_tokens_used, response_data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			m.SessionID, m.Role, m.Content, m.Intent, m.Confidence, m.TokensUsed, payload, m.Timestamp).Scan(&m.ID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE chat_sessions SET last_activity = $2, message_count = message_count + 1
			WHERE id = $1`, m.SessionID, m.Timestamp)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.ChatMessage{}, err
	}
	return m, nil
}

const messageColumns = `id, session_id, message_type, content, intent, confidence, ai_tokens_used, response_data, created_at`

func scanMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	defer rows.Close()
	var out []models.ChatMessage
	for rows.Next() {
		var (
			m   models.ChatMessage
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Intent, &m.Confidence, &m.TokensUsed, &raw, &m.Timestamp); err != nil {
			return nil, err
		}
		p, err := models.DecodePayload(raw)
		if err != nil {
			return nil, err
		}
		m.Payload = p
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecentMessages returns the last limit messages of a session, oldest first.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+messageColumns+` FROM chat_messages
		WHERE session_id = $1 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *Store) CreateTicket(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO support_tickets (ticket_id, session_id, name, email, phone, company, subject, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		t.TicketID, t.SessionID, t.Name, t.Email, t.Phone, t.Company, t.Subject, t.Message, t.Status, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if err != nil {
		return models.SupportTicket{}, err
	}
	return t, nil
}

// UseAnswer bumps usage on a cached answer last used at or after notBefore
// and returns it with the new count.
func (s *Store) UseAnswer(ctx context.Context, hash string, notBefore time.Time) (models.CachedAnswer, bool, error) {
	var (
		a   models.CachedAnswer
		raw []byte
	)
	err := s.Pool.QueryRow(ctx, `
		UPDATE cached_answers SET usage_count = usage_count + 1, last_used = now()
		WHERE question_hash = $1 AND last_used >= $2
		RETURNING id, question_hash, question, response, response_data, intent, confidence, usage_count, created_at, last_used`,
		hash, notBefore).
		Scan(&a.ID, &a.QuestionHash, &a.Question, &a.Response, &raw, &a.Intent, &a.Confidence, &a.UsageCount, &a.CreatedAt, &a.LastUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CachedAnswer{}, false, nil
		}
		return models.CachedAnswer{}, false, err
	}
	if a.Payload, err = models.DecodePayload(raw); err != nil {
		return models.CachedAnswer{}, false, err
	}
	return a, true, nil
}

func (s *Store) SaveAnswer(ctx context.Context, a models.CachedAnswer) error {
	payload, err := models.EncodePayload(a.Payload)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO cached_answers (question_hash, question, response, response_data, intent, confidence, usage_count, created_at, last_used)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		ON CONFLICT (question_hash) DO UPDATE SET
			question = EXCLUDED.question,
			response = EXCLUDED.response,
			response_data = EXCLUDED.response_data,
			intent = EXCLUDED.intent,
			confidence = EXCLUDED.confidence,
			last_used = EXCLUDED.last_used`,
		a.QuestionHash, a.Question, a.Response, payload, a.Intent, a.Confidence, a.CreatedAt, a.LastUsed)
	return err
}

func (s *Store) PurgeAnswers(ctx context.Context, lastUsedBefore time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cached_answers WHERE last_used < $1`, lastUsedBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const intentColumns = `name, keywords, response_template, requires_ai, priority, is_active, created_at`

func (s *Store) queryIntents(ctx context.Context, query string) ([]models.IntentDefinition, error) {
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IntentDefinition
	for rows.Next() {
		var in models.IntentDefinition
		if err := rows.Scan(&in.Name, &in.Keywords, &in.Template, &in.RequiresRemote, &in.Priority, &in.IsActive, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) ActiveIntents(ctx context.Context) ([]models.IntentDefinition, error) {
	return s.queryIntents(ctx, `SELECT `+intentColumns+` FROM intent_definitions WHERE is_active ORDER BY priority DESC, name ASC`)
}

func (s *Store) ListIntents(ctx context.Context) ([]models.IntentDefinition, error) {
	return s.queryIntents(ctx, `SELECT `+intentColumns+` FROM intent_definitions ORDER BY priority DESC, name ASC`)
}

func (s *Store) UpsertIntent(ctx context.Context, in models.IntentDefinition) (models.IntentDefinition, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO intent_definitions (name, keywords, response_template, requires_ai, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			keywords = EXCLUDED.keywords,
			response_template = EXCLUDED.response_template,
			requires_ai = EXCLUDED.requires_ai,
			priority = EXCLUDED.priority,
			is_active = EXCLUDED.is_active
		RETURNING created_at`,
		in.Name, in.Keywords, in.Template, in.RequiresRemote, in.Priority, in.IsActive).Scan(&in.CreatedAt)
	if err != nil {
		return models.IntentDefinition{}, err
	}
	return in, nil
}

package chatbot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/westend/backend/internal/ai"
	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/notify"
)

type memStore struct {
	mu        sync.Mutex
	intents   []models.IntentDefinition
	verticals []models.Vertical
	products  []models.Product
	sessions  map[string]*models.ChatSession
	messages  []models.ChatMessage
	answers   map[string]models.CachedAnswer
	tickets   []models.SupportTicket

	catalogReads int
}

func newMemStore() *memStore {
	return &memStore{
		intents:  testIntents(),
		sessions: map[string]*models.ChatSession{},
		answers:  map[string]models.CachedAnswer{},
		verticals: []models.Vertical{
			{ID: 1, Title: "Groceries", Description: "Rice, flour and daily staples", ProductCount: 3, IsActive: true},
			{ID: 2, Title: "Spices & Masala", Description: "Whole and ground spices", ProductCount: 2, IsActive: true},
			{ID: 3, Title: "Dairy Products", Description: "Ghee and milk powders", ProductCount: 1, IsActive: true},
		},
		products: []models.Product{
			{ID: 1, VerticalID: 1, VerticalTitle: "Groceries", Name: "Basmati Rice", Slug: "basmati-rice", Description: "Long grain aged basmati", MOQ: "1 MT"},
			{ID: 2, VerticalID: 1, VerticalTitle: "Groceries", Name: "Sona Masoori Rice", Slug: "sona-masoori-rice", Description: "Lightweight medium grain rice"},
			{ID: 3, VerticalID: 1, VerticalTitle: "Groceries", Name: "Chakki Atta", Slug: "chakki-atta"},
			{ID: 4, VerticalID: 2, VerticalTitle: "Spices & Masala", Name: "Garam Masala", Slug: "garam-masala"},
			{ID: 5, VerticalID: 2, VerticalTitle: "Spices & Masala", Name: "Turmeric Powder", Slug: "turmeric-powder"},
			{ID: 6, VerticalID: 3, VerticalTitle: "Dairy Products", Name: "Amul Ghee", Slug: "amul-ghee"},
		},
	}
}

func testIntents() []models.IntentDefinition {
	return []models.IntentDefinition{
		{Name: "goodbye", Keywords: "bye,goodbye,thanks,thank you", Template: "Thank you for contacting Westend Corporation!", Priority: 20, IsActive: true},
		{Name: "greeting", Keywords: "hello,hi,hey,greetings,good morning", Template: "Hello! Welcome to Westend Corporation. What can I assist you with today?", Priority: 100, IsActive: true},
		{Name: IntentProductSearch, Keywords: "product,show,find,looking for,search", Template: "Let me search our catalog.", Priority: 90, IsActive: true},
		{Name: IntentContactInfo, Keywords: "contact,phone,email,address,reach", Template: "Let me provide our contact information.", Priority: 85, IsActive: true},
		{Name: IntentCategories, Keywords: "categories,vertical,types", Template: "We offer several categories.", Priority: 70, IsActive: true},
		{Name: "complex_query", Keywords: "why,explain,compare", Template: "Let me help with details.", RequiresRemote: true, Priority: 30, IsActive: true},
		{Name: "retired", Keywords: "legacy", Template: "old", Priority: 500, IsActive: false},
	}
}

func (m *memStore) ActiveIntents(ctx context.Context) ([]models.IntentDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.IntentDefinition, len(m.intents))
	copy(out, m.intents)
	return out, nil
}

func (m *memStore) ListSearchableProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogReads++
	return append([]models.Product(nil), m.products...), nil
}

func (m *memStore) ListVerticals(ctx context.Context) ([]models.Vertical, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Vertical(nil), m.verticals...), nil
}

func (m *memStore) ListVerticalProducts(ctx context.Context, verticalID int64, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if p.VerticalID == verticalID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateSession(ctx context.Context, s models.ChatSession) (models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.sessions[s.ID] = &cp
	return s, nil
}

func (m *memStore) GetActiveSession(ctx context.Context, id string) (models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsActive {
		return models.ChatSession{}, db.ErrNotFound
	}
	return *s, nil
}

func (m *memStore) DeactivateSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsActive {
		return db.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (m *memStore) AppendMessage(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[msg.SessionID]
	if !ok {
		return models.ChatMessage{}, db.ErrNotFound
	}
	msg.ID = int64(len(m.messages) + 1)
	m.messages = append(m.messages, msg)
	s.MessageCount++
	s.LastActivity = msg.Timestamp
	return msg, nil
}

func (m *memStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	all, _ := m.ListMessages(ctx, sessionID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *memStore) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) CreateTicket(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = int64(len(m.tickets) + 1)
	m.tickets = append(m.tickets, t)
	return t, nil
}

func (m *memStore) UseAnswer(ctx context.Context, hash string, notBefore time.Time) (models.CachedAnswer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[hash]
	if !ok || a.LastUsed.Before(notBefore) {
		return models.CachedAnswer{}, false, nil
	}
	a.UsageCount++
	a.LastUsed = time.Now().UTC()
	m.answers[hash] = a
	return a, true, nil
}

func (m *memStore) SaveAnswer(ctx context.Context, a models.CachedAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.answers[a.QuestionHash]; ok {
		a.UsageCount = prev.UsageCount
	}
	m.answers[a.QuestionHash] = a
	return nil
}

func (m *memStore) PurgeAnswers(ctx context.Context, lastUsedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, a := range m.answers {
		if a.LastUsed.Before(lastUsedBefore) {
			delete(m.answers, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type stubCompleter struct {
	result  ai.Result
	calls   int
	history []models.ChatMessage
}

func (s *stubCompleter) Available() bool { return true }

func (s *stubCompleter) Complete(ctx context.Context, message string, history []models.ChatMessage) ai.Result {
	s.calls++
	s.history = history
	return s.result
}

type captureNotifier struct {
	sent []notify.Message
}

func (c *captureNotifier) Dispatch(m notify.Message) {
	c.sent = append(c.sent, m)
}

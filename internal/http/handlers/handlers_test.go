package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/chatbot"
	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/notify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChat struct {
	sessions map[string]models.ChatSession
	tickets  []chatbot.TicketRequest
	purged   int64
	failWith error
}

func (f *fakeChat) HandleMessage(_ context.Context, sessionID, text string) (chatbot.Reply, error) {
	if f.failWith != nil {
		return chatbot.Reply{}, f.failWith
	}
	if strings.TrimSpace(text) == "" {
		return chatbot.Reply{}, chatbot.ErrInvalidInput
	}
	if _, ok := f.sessions[sessionID]; !ok {
		return chatbot.Reply{}, chatbot.ErrSessionNotFound
	}
	return chatbot.Reply{
		SessionID: sessionID,
		Message:   models.ChatMessage{SessionID: sessionID, Role: models.RoleBot, Content: "echo: " + text},
		Source:    chatbot.SourceTemplate,
	}, nil
}

func (f *fakeChat) CreateSession(_ context.Context, ip, userAgent string) (models.ChatSession, error) {
	s := models.ChatSession{ID: "s-new", UserIP: ip, UserAgent: userAgent, CreatedAt: time.Now(), IsActive: true}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeChat) GetSession(_ context.Context, id string) (models.ChatSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return models.ChatSession{}, chatbot.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeChat) EndSession(_ context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return chatbot.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeChat) History(ctx context.Context, id string) (models.ChatSession, []models.ChatMessage, error) {
	s, err := f.GetSession(ctx, id)
	return s, nil, err
}

func (f *fakeChat) CreateTicket(_ context.Context, req chatbot.TicketRequest) (models.SupportTicket, error) {
	if _, ok := f.sessions[req.SessionID]; !ok {
		return models.SupportTicket{}, chatbot.ErrSessionNotFound
	}
	f.tickets = append(f.tickets, req)
	return models.SupportTicket{TicketID: "TKT-20260101-ABCDEF", SessionID: req.SessionID}, nil
}

func (f *fakeChat) PurgeExpiredAnswers(context.Context) (int64, error) {
	return f.purged, nil
}

type fakeStore struct {
	products []models.Product
	intents  map[string]models.IntentDefinition
	contacts []models.ContactInquiry
	quotes   []models.QuoteRequest
	lastCat  int64
}

func (f *fakeStore) ListVerticals(context.Context) ([]models.Vertical, error) {
	return []models.Vertical{{ID: 1, Title: "Groceries", ProductCount: len(f.products)}}, nil
}

func (f *fakeStore) ListProducts(_ context.Context, verticalID int64) ([]models.Product, error) {
	f.lastCat = verticalID
	return f.products, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, db.ErrNotFound
}

func (f *fakeStore) CreateContactInquiry(_ context.Context, in models.ContactInquiry) (models.ContactInquiry, error) {
	in.ID = int64(len(f.contacts) + 1)
	f.contacts = append(f.contacts, in)
	return in, nil
}

func (f *fakeStore) CreateQuoteRequest(_ context.Context, q models.QuoteRequest) (models.QuoteRequest, error) {
	q.ID = int64(len(f.quotes) + 1)
	f.quotes = append(f.quotes, q)
	return q, nil
}

func (f *fakeStore) ListIntents(context.Context) ([]models.IntentDefinition, error) {
	out := make([]models.IntentDefinition, 0, len(f.intents))
	for _, in := range f.intents {
		out = append(out, in)
	}
	return out, nil
}

func (f *fakeStore) UpsertIntent(_ context.Context, in models.IntentDefinition) (models.IntentDefinition, error) {
	f.intents[in.Name] = in
	return in, nil
}

type fakeUsage struct{ used, limit int64 }

func (f fakeUsage) Allow(context.Context) (bool, error) { return f.used < f.limit, nil }
func (f fakeUsage) Record(context.Context, int) (int64, error) { return f.used, nil }
func (f fakeUsage) Usage(context.Context) (int64, int64, error) { return f.used, f.limit, nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingNotifier) Dispatch(m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type fixture struct {
	chat   *fakeChat
	store  *fakeStore
	mail   *recordingNotifier
	router *gin.Engine
}

func newFixture() *fixture {
	f := &fixture{
		chat: &fakeChat{sessions: map[string]models.ChatSession{
			"s-1": {ID: "s-1", IsActive: true},
		}},
		store: &fakeStore{
			products: []models.Product{{ID: 7, Name: "Basmati Rice", VerticalTitle: "Groceries"}},
			intents:  map[string]models.IntentDefinition{},
		},
		mail: &recordingNotifier{},
	}
	h := &Handler{
		Chat:         f.chat,
		Catalog:      f.store,
		Leads:        f.store,
		Intents:      f.store,
		Usage:        fakeUsage{used: 1200, limit: 1000},
		Notifier:     f.mail,
		SupportEmail: "support@example.com",
		Validator:    validator.New(),
		Logger:       zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.POST("/api/chat/message", h.ChatMessage)
	r.POST("/api/chat/sessions", h.ChatSessionCreate)
	r.GET("/api/chat/sessions/:id", h.ChatSessionGet)
	r.DELETE("/api/chat/sessions/:id", h.ChatSessionEnd)
	r.GET("/api/chat/history/:id", h.ChatHistory)
	r.POST("/api/chat/ticket", h.ChatTicket)
	r.GET("/api/verticals", h.VerticalsList)
	r.GET("/api/products", h.ProductsList)
	r.GET("/api/products/:id", h.ProductDetails)
	r.POST("/api/contact", h.ContactCreate)
	r.POST("/api/quote-request", h.QuoteCreate)
	r.GET("/api/admin/intents", h.IntentsList)
	r.PUT("/api/admin/intents/:name", h.IntentUpsert)
	r.POST("/api/admin/cache/purge", h.CachePurge)
	r.GET("/api/admin/usage", h.UsageGet)
	f.router = r
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func TestChatMessage(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/chat/message", gin.H{"session_id": "s-1", "message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reply chatbot.Reply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Message.Content != "echo: hello" || reply.Source != chatbot.SourceTemplate {
		t.Fatalf("unexpected reply %+v", reply)
	}

	w = f.do(http.MethodPost, "/api/chat/message", gin.H{"session_id": "missing", "message": "hello"})
	if w.Code != http.StatusNotFound || errorCode(t, w) != "SESSION_NOT_FOUND" {
		t.Fatalf("expected 404 SESSION_NOT_FOUND, got %d %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/chat/message", gin.H{"session_id": "s-1", "message": "   "})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_REQUEST" {
		t.Fatalf("expected 400 INVALID_REQUEST for blank message, got %d %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/chat/message", gin.H{"session_id": "s-1"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("expected 400 VALIDATION_ERROR, got %d %s", w.Code, w.Body.String())
	}

	f.chat.failWith = errors.New("db down")
	w = f.do(http.MethodPost, "/api/chat/message", gin.H{"session_id": "s-1", "message": "hello"})
	if w.Code != http.StatusInternalServerError || errorCode(t, w) != "INTERNAL_ERROR" {
		t.Fatalf("expected 500 INTERNAL_ERROR, got %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Fatalf("internal error detail leaked: %s", w.Body.String())
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/chat/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var created ChatSessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.SessionID != "s-new" {
		t.Fatalf("unexpected session id %q", created.SessionID)
	}

	if w = f.do(http.MethodGet, "/api/chat/sessions/s-new", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/api/chat/history/s-new", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"messages":[]`) {
		t.Fatalf("expected empty message list, got %d %s", w.Code, w.Body.String())
	}

	if w = f.do(http.MethodDelete, "/api/chat/sessions/s-new", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w = f.do(http.MethodGet, "/api/chat/sessions/s-new", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", w.Code)
	}
}

func TestChatTicket(t *testing.T) {
	f := newFixture()
	body := gin.H{
		"session_id": "s-1",
		"name":       "Asha",
		"email":      "asha@example.com",
		"subject":    "Bulk order",
		"message":    "Need 20 tonnes of basmati",
	}

	w := f.do(http.MethodPost, "/api/chat/ticket", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp ChatTicketResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TicketID != "TKT-20260101-ABCDEF" || len(f.chat.tickets) != 1 {
		t.Fatalf("unexpected ticket response %+v", resp)
	}

	body["email"] = "not-an-email"
	if w = f.do(http.MethodPost, "/api/chat/ticket", body); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", w.Code)
	}

	body["email"] = "asha@example.com"
	body["session_id"] = "gone"
	if w = f.do(http.MethodPost, "/api/chat/ticket", body); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture()

	if w := f.do(http.MethodGet, "/api/verticals", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w := f.do(http.MethodGet, "/api/products?category=3", nil)
	if w.Code != http.StatusOK || f.store.lastCat != 3 {
		t.Fatalf("expected filtered list for category 3, got %d (cat %d)", w.Code, f.store.lastCat)
	}
	if w = f.do(http.MethodGet, "/api/products?category=abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad category, got %d", w.Code)
	}

	if w = f.do(http.MethodGet, "/api/products/7", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w = f.do(http.MethodGet, "/api/products/99", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLeadsDispatchMail(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/contact", gin.H{
		"name": "Ravi", "email": "ravi@example.com", "message": "Do you ship to Dubai?",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/quote-request", gin.H{
		"product_id": 7, "name": "Ravi", "email": "ravi@example.com", "quantity": "2 containers",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(f.store.contacts) != 1 || len(f.store.quotes) != 1 {
		t.Fatalf("expected one stored lead of each kind, got %d/%d", len(f.store.contacts), len(f.store.quotes))
	}
	if len(f.mail.sent) != 2 {
		t.Fatalf("expected 2 notification mails, got %d", len(f.mail.sent))
	}
	for _, m := range f.mail.sent {
		if len(m.To) != 1 || m.To[0] != "support@example.com" || m.ReplyTo != "ravi@example.com" {
			t.Fatalf("unexpected mail routing %+v", m)
		}
	}
	if !strings.Contains(f.mail.sent[1].Body, "Product: #7") {
		t.Fatalf("quote mail should reference the product: %q", f.mail.sent[1].Body)
	}

	if w = f.do(http.MethodPost, "/api/contact", gin.H{"name": "Ravi"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete contact form, got %d", w.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture()
	f.chat.purged = 4

	w := f.do(http.MethodPut, "/api/admin/intents/shipping", gin.H{
		"keywords": "shipping, delivery", "response_template": "We ship worldwide.", "priority": 6,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	in := f.store.intents["shipping"]
	if !in.IsActive || in.Priority != 6 {
		t.Fatalf("intent should default to active, got %+v", in)
	}

	w = f.do(http.MethodPut, "/api/admin/intents/shipping", gin.H{
		"keywords": "shipping", "response_template": "x", "is_active": false,
	})
	if w.Code != http.StatusOK || f.store.intents["shipping"].IsActive {
		t.Fatalf("explicit is_active=false should deactivate, got %d", w.Code)
	}

	if w = f.do(http.MethodGet, "/api/admin/intents", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/api/admin/cache/purge", nil)
	var purge PurgeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &purge)
	if purge.Purged != 4 {
		t.Fatalf("expected 4 purged, got %d", purge.Purged)
	}

	w = f.do(http.MethodGet, "/api/admin/usage", nil)
	var usage UsageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &usage)
	if usage.Used != 1200 || usage.Limit != 1000 || usage.Remaining != 0 {
		t.Fatalf("unexpected usage %+v", usage)
	}
}

func TestHealthzReportsDatabaseFailure(t *testing.T) {
	f := newFixture()
	if w := f.do(http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 without a database, got %d", w.Code)
	}

	h := &Handler{DB: failingPinger{}, Logger: zerolog.Nop()}
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable || errorCode(t, w) != "DB_UNAVAILABLE" {
		t.Fatalf("expected 503 DB_UNAVAILABLE, got %d %s", w.Code, w.Body.String())
	}
}

func TestQuoteRejectsUnknownProduct(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/quote-request", gin.H{
		"product_id": 99, "name": "Ravi", "email": "ravi@example.com", "quantity": "1 container",
	})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("expected 400 VALIDATION_ERROR, got %d %s", w.Code, w.Body.String())
	}
	if len(f.store.quotes) != 0 || len(f.mail.sent) != 0 {
		t.Fatalf("rejected quote must not be stored or mailed")
	}

	w = f.do(http.MethodPost, "/api/quote-request", gin.H{
		"name": "Ravi", "email": "ravi@example.com", "message": "General catalogue pricing",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("quote without product should be accepted, got %d %s", w.Code, w.Body.String())
	}
}

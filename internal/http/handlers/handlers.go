package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/chatbot"
	"github.com/westend/backend/internal/http/middleware"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/quota"
)

type ChatService interface {
	HandleMessage(ctx context.Context, sessionID, text string) (chatbot.Reply, error)
	CreateSession(ctx context.Context, ip, userAgent string) (models.ChatSession, error)
	GetSession(ctx context.Context, id string) (models.ChatSession, error)
	EndSession(ctx context.Context, id string) error
	History(ctx context.Context, id string) (models.ChatSession, []models.ChatMessage, error)
	CreateTicket(ctx context.Context, req chatbot.TicketRequest) (models.SupportTicket, error)
	PurgeExpiredAnswers(ctx context.Context) (int64, error)
}

type CatalogStore interface {
	ListVerticals(ctx context.Context) ([]models.Vertical, error)
	ListProducts(ctx context.Context, verticalID int64) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
}

type LeadStore interface {
	CreateContactInquiry(ctx context.Context, in models.ContactInquiry) (models.ContactInquiry, error)
	CreateQuoteRequest(ctx context.Context, q models.QuoteRequest) (models.QuoteRequest, error)
}

type IntentStore interface {
	ListIntents(ctx context.Context) ([]models.IntentDefinition, error)
	UpsertIntent(ctx context.Context, in models.IntentDefinition) (models.IntentDefinition, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Chat         ChatService
	Catalog      CatalogStore
	Leads        LeadStore
	Intents      IntentStore
	Usage        quota.Limiter
	DB           Pinger
	Notifier     chatbot.Notifier
	SupportEmail string
	Validator    *validator.Validate
	Logger       zerolog.Logger
}

type ErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorBody
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes and validates a JSON body, writing the error response itself
// when it fails.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) internalError(c *gin.Context, err error, msg string) {
	h.Logger.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDHeader)).
		Str("path", c.FullPath()).
		Msg(msg)
	writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Sorry, something went wrong on our side. Please try again.", nil)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/westend/backend/internal/chatbot"
	"github.com/westend/backend/internal/models"
)

type ChatMessageRequest struct {
	SessionID string `json:"session_id" validate:"required,max=100"`
	Message   string `json:"message" validate:"required,max=2000"`
}

type ChatSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	Session  models.ChatSession   `json:"session"`
	Messages []models.ChatMessage `json:"messages"`
}

type ChatTicketRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=20"`
	Company   string `json:"company" validate:"max=200"`
	Subject   string `json:"subject" validate:"required,max=200"`
	Message   string `json:"message" validate:"required"`
}

type ChatTicketResponse struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
}

// @Summary Send a chat message
// @Description Runs the message through the answer cache, intent templates and remote completion
// @Tags chat
// @Accept json
// @Produce json
// @Param body body ChatMessageRequest true "Message"
// @Success 200 {object} chatbot.Reply
// @Failure 400 {object} ErrorBody
// @Failure 404 {object} ErrorBody
// @Router /api/chat/message [post]
func (h *Handler) ChatMessage(c *gin.Context) {
	var req ChatMessageRequest
	if !h.bind(c, &req) {
		return
	}
	reply, err := h.Chat.HandleMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		h.chatError(c, err, "An error occurred while processing your message")
		return
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, reply)
}

// @Summary Start a chat session
// @Tags chat
// @Produce json
// @Success 201 {object} ChatSessionResponse
// @Router /api/chat/sessions [post]
func (h *Handler) ChatSessionCreate(c *gin.Context) {
	s, err := h.Chat.CreateSession(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.internalError(c, err, "create chat session")
		return
	}
	c.JSON(http.StatusCreated, ChatSessionResponse{SessionID: s.ID, CreatedAt: s.CreatedAt})
}

// @Summary Chat session summary
// @Tags chat
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ChatSession
// @Failure 404 {object} ErrorBody
// @Router /api/chat/sessions/{id} [get]
func (h *Handler) ChatSessionGet(c *gin.Context) {
	s, err := h.Chat.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.chatError(c, err, "load chat session")
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary End a chat session
// @Tags chat
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorBody
// @Router /api/chat/sessions/{id} [delete]
func (h *Handler) ChatSessionEnd(c *gin.Context) {
	if err := h.Chat.EndSession(c.Request.Context(), c.Param("id")); err != nil {
		h.chatError(c, err, "end chat session")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Chat history
// @Tags chat
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} ChatHistoryResponse
// @Failure 404 {object} ErrorBody
// @Router /api/chat/history/{id} [get]
func (h *Handler) ChatHistory(c *gin.Context) {
	s, messages, err := h.Chat.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.chatError(c, err, "load chat history")
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, ChatHistoryResponse{Session: s, Messages: messages})
}

// @Summary Open a support ticket from chat
// @Tags chat
// @Accept json
// @Produce json
// @Param body body ChatTicketRequest true "Ticket"
// @Success 201 {object} ChatTicketResponse
// @Failure 400 {object} ErrorBody
// @Failure 404 {object} ErrorBody
// @Router /api/chat/ticket [post]
func (h *Handler) ChatTicket(c *gin.Context) {
	var req ChatTicketRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.Chat.CreateTicket(c.Request.Context(), chatbot.TicketRequest{
		SessionID: req.SessionID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		h.chatError(c, err, "Failed to create support ticket")
		return
	}
	c.JSON(http.StatusCreated, ChatTicketResponse{
		TicketID: t.TicketID,
		Message:  "Support ticket created successfully. We will contact you soon.",
	})
}

func (h *Handler) chatError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, chatbot.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	case errors.Is(err, chatbot.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		h.internalError(c, err, msg)
	}
}

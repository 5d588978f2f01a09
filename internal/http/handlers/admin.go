package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/westend/backend/internal/models"
)

type IntentRequest struct {
	Keywords       string `json:"keywords" validate:"required,max=1000"`
	Template       string `json:"response_template" validate:"required"`
	RequiresRemote bool   `json:"requires_ai"`
	Priority       int    `json:"priority" validate:"gte=0,lte=100"`
	IsActive       *bool  `json:"is_active"`
}

type PurgeResponse struct {
	Purged int64 `json:"purged"`
}

type UsageResponse struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

// @Summary List intent definitions
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {array} models.IntentDefinition
// @Router /api/admin/intents [get]
func (h *Handler) IntentsList(c *gin.Context) {
	items, err := h.Intents.ListIntents(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "list intents")
		return
	}
	if items == nil {
		items = []models.IntentDefinition{}
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Create or update an intent
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param name path string true "Intent name"
// @Param body body IntentRequest true "Intent"
// @Success 200 {object} models.IntentDefinition
// @Failure 400 {object} ErrorBody
// @Router /api/admin/intents/{name} [put]
func (h *Handler) IntentUpsert(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || len(name) > 50 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid intent name", name)
		return
	}
	var req IntentRequest
	if !h.bind(c, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	in, err := h.Intents.UpsertIntent(c.Request.Context(), models.IntentDefinition{
		Name:           name,
		Keywords:       req.Keywords,
		Template:       req.Template,
		RequiresRemote: req.RequiresRemote,
		Priority:       req.Priority,
		IsActive:       active,
	})
	if err != nil {
		h.internalError(c, err, "upsert intent")
		return
	}
	c.JSON(http.StatusOK, in)
}

// @Summary Purge expired cached answers
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} PurgeResponse
// @Router /api/admin/cache/purge [post]
func (h *Handler) CachePurge(c *gin.Context) {
	n, err := h.Chat.PurgeExpiredAnswers(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "purge cached answers")
		return
	}
	c.JSON(http.StatusOK, PurgeResponse{Purged: n})
}

// @Summary Daily completion token usage
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} UsageResponse
// @Router /api/admin/usage [get]
func (h *Handler) UsageGet(c *gin.Context) {
	used, limit, err := h.Usage.Usage(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "read token usage")
		return
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	c.JSON(http.StatusOK, UsageResponse{Used: used, Limit: limit, Remaining: remaining})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/notify"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=20"`
	Company string `json:"company" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type QuoteRequestBody struct {
	ProductID *int64 `json:"product_id" validate:"omitempty,gt=0"`
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=20"`
	Company   string `json:"company" validate:"max=200"`
	Quantity  string `json:"quantity" validate:"max=100"`
	Message   string `json:"message" validate:"max=5000"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// @Summary Submit the contact form
// @Tags leads
// @Accept json
// @Produce json
// @Param body body ContactRequest true "Inquiry"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorBody
// @Router /api/contact [post]
func (h *Handler) ContactCreate(c *gin.Context) {
	var req ContactRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := h.Leads.CreateContactInquiry(c.Request.Context(), models.ContactInquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Message: req.Message,
	})
	if err != nil {
		h.internalError(c, err, "save contact inquiry")
		return
	}

	h.notify(notify.Message{
		ReplyTo: in.Email,
		Subject: "New Contact Inquiry: " + in.Name,
		Body: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\nCompany: %s\n\nMessage:\n%s\n",
			in.Name, in.Email, in.Phone, in.Company, in.Message),
	})
	c.JSON(http.StatusCreated, MessageResponse{Message: "Thank you for contacting us. We will get back to you shortly."})
}

// @Summary Request a quote
// @Tags leads
// @Accept json
// @Produce json
// @Param body body QuoteRequestBody true "Quote request"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorBody "Validation failed or unknown product_id"
// @Router /api/quote-request [post]
func (h *Handler) QuoteCreate(c *gin.Context) {
	var req QuoteRequestBody
	if !h.bind(c, &req) {
		return
	}
	if req.ProductID != nil {
		_, err := h.Catalog.GetProduct(c.Request.Context(), *req.ProductID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown product", *req.ProductID)
			return
		}
		if err != nil {
			h.internalError(c, err, "load quoted product")
			return
		}
	}
	q, err := h.Leads.CreateQuoteRequest(c.Request.Context(), models.QuoteRequest{
		ProductID: req.ProductID,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Quantity:  req.Quantity,
		Message:   req.Message,
	})
	if err != nil {
		h.internalError(c, err, "save quote request")
		return
	}

	product := "-"
	if q.ProductID != nil {
		product = fmt.Sprintf("#%d", *q.ProductID)
	}
	h.notify(notify.Message{
		ReplyTo: q.Email,
		Subject: "New Quote Request: " + q.Name,
		Body: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\nCompany: %s\nProduct: %s\nQuantity: %s\n\nMessage:\n%s\n",
			q.Name, q.Email, q.Phone, q.Company, product, q.Quantity, q.Message),
	})
	c.JSON(http.StatusCreated, MessageResponse{Message: "Your quote request has been received. Our team will contact you soon."})
}

func (h *Handler) notify(m notify.Message) {
	if h.Notifier == nil || h.SupportEmail == "" {
		return
	}
	m.To = []string{h.SupportEmail}
	h.Notifier.Dispatch(m)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/models"
)

// @Summary List product categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Vertical
// @Router /api/verticals [get]
func (h *Handler) VerticalsList(c *gin.Context) {
	items, err := h.Catalog.ListVerticals(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "list verticals")
		return
	}
	if items == nil {
		items = []models.Vertical{}
	}
	c.JSON(http.StatusOK, items)
}

// @Summary List products
// @Tags catalog
// @Produce json
// @Param category query int false "Vertical ID"
// @Success 200 {array} models.Product
// @Failure 400 {object} ErrorBody
// @Router /api/products [get]
func (h *Handler) ProductsList(c *gin.Context) {
	var verticalID int64
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "category must be a positive integer", raw)
			return
		}
		verticalID = id
	}
	items, err := h.Catalog.ListProducts(c.Request.Context(), verticalID)
	if err != nil {
		h.internalError(c, err, "list products")
		return
	}
	if items == nil {
		items = []models.Product{}
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Product details
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} ErrorBody
// @Router /api/products/{id} [get]
func (h *Handler) ProductDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product id", c.Param("id"))
		return
	}
	p, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		return
	}
	if err != nil {
		h.internalError(c, err, "load product")
		return
	}
	c.JSON(http.StatusOK, p)
}

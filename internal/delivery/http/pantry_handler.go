package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grocerybutler/backend/internal/domain"
)

// PantryRequest adds a staple
type PantryRequest struct {
	Ingredient string `json:"ingredient" validate:"required"`
	Category   string `json:"category"`
}

// ListPantry returns the pantry staples
func (h *Handler) ListPantry(c *gin.Context) {
	staples, err := h.pantry.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staples": nonNil(staples)})
}

// AddPantryStaple registers a staple
func (h *Handler) AddPantryStaple(c *gin.Context) {
	var req PantryRequest
	if !h.bind(c, &req) {
		return
	}

	staple, err := h.pantry.Add(c.Request.Context(), req.Ingredient, domain.Category(req.Category))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, staple)
}

// RemovePantryStaple removes a staple
func (h *Handler) RemovePantryStaple(c *gin.Context) {
	if err := h.pantry.Remove(c.Request.Context(), c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

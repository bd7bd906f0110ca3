package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grocerybutler/backend/internal/domain"
)

// TrackRequest registers an inventory item with its shopping defaults
type TrackRequest struct {
	Ingredient      string  `json:"ingredient" validate:"required"`
	Category        string  `json:"category"`
	Status          string  `json:"status"`
	DefaultQuantity float64 `json:"default_quantity" validate:"gte=0"`
	DefaultUnit     string  `json:"default_unit"`
	SearchTerm      string  `json:"search_term"`
	Notes           string  `json:"notes"`
}

// StatusRequest moves an item to a new lifecycle status
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RestockRequest marks the named items on hand
type RestockRequest struct {
	Items []string `json:"items" validate:"required,min=1,dive,required"`
}

// ListInventory returns every tracked item
func (h *Handler) ListInventory(c *gin.Context) {
	entries, err := h.ledger.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(entries)})
}

// TrackInventory adds or updates an item's defaults
func (h *Handler) TrackInventory(c *gin.Context) {
	var req TrackRequest
	if !h.bind(c, &req) {
		return
	}

	entry := domain.InventoryEntry{
		DisplayName:     req.Ingredient,
		Category:        domain.Category(req.Category),
		DefaultQuantity: req.DefaultQuantity,
		DefaultUnit:     req.DefaultUnit,
		SearchTerm:      req.SearchTerm,
		Notes:           req.Notes,
	}
	if req.Status != "" {
		status, err := domain.ParseInventoryStatus(req.Status)
		if err != nil {
			h.fail(c, err)
			return
		}
		entry.Status = status
	}

	tracked, err := h.ledger.Track(c.Request.Context(), entry)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tracked)
}

// UntrackInventory stops tracking an item
func (h *Handler) UntrackInventory(c *gin.Context) {
	if err := h.ledger.Untrack(c.Request.Context(), c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetInventoryStatus applies a status transition
func (h *Handler) SetInventoryStatus(c *gin.Context) {
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	status, err := domain.ParseInventoryStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	t, err := h.ledger.SetStatus(c.Request.Context(), c.Param("key"), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":    t.Entry,
		"from":    t.From,
		"changed": t.Changed,
	})
}

// RestockQueue lists low and out items, oldest first
func (h *Handler) RestockQueue(c *gin.Context) {
	queue, err := h.ledger.RestockQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(queue)})
}

// Restock marks named items on hand, resolving names through the matcher
func (h *Handler) Restock(c *gin.Context) {
	var req RestockRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.ledger.Restock(c.Request.Context(), req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ClearRestockQueue sets every queued item back on hand
func (h *Handler) ClearRestockQueue(c *gin.Context) {
	cleared, err := h.ledger.ClearRestockQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

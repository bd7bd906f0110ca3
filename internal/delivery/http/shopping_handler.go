package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/usecase"
)

// ConsolidateRequest carries already parsed meals. Malformed meals are reported in the
// result rather than rejecting the request.
type ConsolidateRequest struct {
	Meals          []domain.ParsedMeal `json:"meals" validate:"required,min=1"`
	Additions      []domain.Ingredient `json:"additions"`
	IncludeRestock bool                `json:"include_restock"`
}

// BuildShoppingList plans meals by name and returns the consolidated list
func (h *Handler) BuildShoppingList(c *gin.Context) {
	var req usecase.PlanRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.shopping.BuildList(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConsolidateMeals merges meals the client already decomposed
func (h *Handler) ConsolidateMeals(c *gin.Context) {
	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if len(req.Meals) == 0 {
		h.respondError(c, http.StatusUnprocessableEntity, "at least one meal is required", nil)
		return
	}

	result, err := h.shopping.Consolidate(c.Request.Context(), req.Meals, req.Additions, req.IncludeRestock)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

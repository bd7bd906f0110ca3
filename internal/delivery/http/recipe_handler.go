package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grocerybutler/backend/internal/domain"
)

// ListRecipes returns recipe memory ordered by key
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": nonNil(recipes)})
}

// CreateRecipe stores a new recipe
func (h *Handler) CreateRecipe(c *gin.Context) {
	var recipe domain.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if err := h.recipes.Create(c.Request.Context(), &recipe); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// GetRecipe returns one recipe by key
func (h *Handler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipes.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// UpdateRecipe replaces a recipe, renaming it when the display name changes
func (h *Handler) UpdateRecipe(c *gin.Context) {
	var recipe domain.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if err := h.recipes.Update(c.Request.Context(), c.Param("key"), &recipe); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe forgets a recipe
func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Forget(c.Request.Context(), c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolveRecipe looks up a free-text meal name. Misses answer 404 with the
// match details so clients can offer the contenders.
func (h *Handler) ResolveRecipe(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		h.respondError(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	recipe, match, err := h.recipes.Resolve(c.Request.Context(), query)
	if err != nil {
		if match.Ambiguous {
			h.respondError(c, http.StatusNotFound, err.Error(), gin.H{"match": match})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe, "match": match})
}

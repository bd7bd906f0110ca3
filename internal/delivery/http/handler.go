package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/usecase"
	"github.com/grocerybutler/backend/pkg/logger"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	shopping *usecase.ShoppingService
	recipes  *usecase.RecipeService
	ledger   *usecase.InventoryLedger
	pantry   *usecase.PantryService
	validate *validator.Validate
	logger   *zap.Logger
}

// Services groups the use cases served over HTTP
type Services struct {
	Shopping *usecase.ShoppingService
	Recipes  *usecase.RecipeService
	Ledger   *usecase.InventoryLedger
	Pantry   *usecase.PantryService
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, log *zap.Logger) *Handler {
	return &Handler{
		shopping: services.Shopping,
		recipes:  services.Recipes,
		ledger:   services.Ledger,
		pantry:   services.Pantry,
		validate: usecase.NewValidator(),
		logger:   logger.OrNop(log).Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "grocerybutler-backend",
		"version": "1.0.0",
	})
}

// bind decodes the JSON body into req and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(c, http.StatusUnprocessableEntity, "request failed validation",
			usecase.MalformedFromValidation("request", err))
		return false
	}
	return true
}

func (h *Handler) respondError(c *gin.Context, status int, message string, details any) {
	body := gin.H{
		"error":      message,
		"request_id": c.GetString(requestIDKey),
	}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

// fail maps a use case error onto an HTTP status
func (h *Handler) fail(c *gin.Context, err error) {
	var violation *domain.PolicyViolationError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrInventoryItemNotFound),
		errors.Is(err, domain.ErrStapleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRecipeExists),
		errors.Is(err, domain.ErrStapleExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDecomposerFailure),
		errors.Is(err, domain.ErrMealNotRecognized):
		status = http.StatusBadGateway
	case errors.As(err, &violation):
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	_ = c.Error(err)
	h.respondError(c, status, err.Error(), nil)
}

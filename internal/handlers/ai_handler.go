package handlers

import (
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AIHandler exposes category suggestions from the language model
type AIHandler struct {
	suggestionService services.SuggestionServiceInterface
}

func NewAIHandler(suggestionService services.SuggestionServiceInterface) *AIHandler {
	return &AIHandler{suggestionService: suggestionService}
}

// SuggestCategory proposes a category for a single transaction
// @Summary Suggest category
// @Description Falls back to a heuristic pick with low confidence when the model is unavailable
// @Tags AI
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SuggestCategoryRequest true "Transaction"
// @Success 200 {object} SuccessResponse{data=dto.CategorySuggestion}
// @Router /ai/suggest-category [post]
func (h *AIHandler) SuggestCategory(c echo.Context) error {
	if _, ok, err := requireUser(c); !ok {
		return err
	}

	var req dto.SuggestCategoryRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	suggestion, err := h.suggestionService.SuggestCategory(c.Request().Context(), req.Counterparty, req.Description, req.Amount)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: suggestion})
}

// CategorizeBulk suggests categories for up to 100 stored transactions
// @Summary Bulk categorize
// @Tags AI
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BulkCategorizeRequest true "Transaction IDs"
// @Success 200 {object} SuccessResponse{data=dto.BulkCategorizeResponse}
// @Failure 400 {object} errors.ErrorResponse "AI_002 - Too many IDs"
// @Router /ai/categorize-bulk [post]
func (h *AIHandler) CategorizeBulk(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var req dto.BulkCategorizeRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if len(req.TransactionIDs) > services.MaxBulkCategorize {
		return SendError(c, errors.AITooManyIDs)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := h.suggestionService.BulkCategorize(c.Request().Context(), userID, req.TransactionIDs)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: resp})
}

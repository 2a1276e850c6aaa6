package handlers

import (
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// CategoryRuleHandler handles the user's counterparty rules
type CategoryRuleHandler struct {
	ruleService services.CategoryRuleServiceInterface
}

func NewCategoryRuleHandler(ruleService services.CategoryRuleServiceInterface) *CategoryRuleHandler {
	return &CategoryRuleHandler{ruleService: ruleService}
}

// ListRules returns the rules in evaluation order
// @Summary List category rules
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.CategoryRule}
// @Router /category-rules [get]
func (h *CategoryRuleHandler) ListRules(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	list, err := h.ruleService.List(userID)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: list})
}

// CreateRule adds a glob rule such as "*REWE*"
// @Summary Create category rule
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateCategoryRuleRequest true "Rule"
// @Success 201 {object} SuccessResponse{data=models.CategoryRule}
// @Failure 400 {object} errors.ErrorResponse "CATEGORY_007 - Pattern only has wildcards"
// @Router /category-rules [post]
func (h *CategoryRuleHandler) CreateRule(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var req dto.CreateCategoryRuleRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	rule, err := h.ruleService.Create(userID, &req)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Data: rule})
}

// DeleteRule removes one of the user's rules
// @Summary Delete category rule
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Rule ID"
// @Success 204
// @Router /category-rules/{id} [delete]
func (h *CategoryRuleHandler) DeleteRule(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.ruleService.Delete(userID, id); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

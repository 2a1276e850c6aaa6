package handlers

import (
	"net/http"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// BudgetHandler handles budgets and their progress
type BudgetHandler struct {
	budgetService services.BudgetServiceInterface
	now           func() time.Time
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService services.BudgetServiceInterface) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		now:           time.Now,
	}
}

// asOf reads the optional as_of date; progress defaults to today
func (h *BudgetHandler) asOf(c echo.Context) (time.Time, bool, error) {
	raw := c.QueryParam("as_of")
	if raw == "" {
		return h.now().UTC(), true, nil
	}

	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, false, SendError(c, errors.ValidationInvalidDate,
			errors.WithDetails("as_of must be a date in format YYYY-MM-DD"))
	}
	return t, true, nil
}

// ListBudgets returns all budgets with progress in the current period
// @Summary List budgets
// @Tags Budgets
// @Security BearerAuth
// @Produce json
// @Param as_of query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} SuccessResponse{data=[]dto.BudgetWithProgress}
// @Router /budgets [get]
func (h *BudgetHandler) ListBudgets(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	asOf, ok, err := h.asOf(c)
	if !ok {
		return err
	}

	budgets, err := h.budgetService.List(userID, asOf)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: budgets})
}

// GetSummary aggregates all active budgets
// @Summary Budget summary
// @Tags Budgets
// @Security BearerAuth
// @Produce json
// @Param as_of query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} SuccessResponse{data=dto.BudgetSummary}
// @Router /budgets/summary [get]
func (h *BudgetHandler) GetSummary(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	asOf, ok, err := h.asOf(c)
	if !ok {
		return err
	}

	summary, err := h.budgetService.Summary(userID, asOf)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: summary})
}

// GetBudget returns one budget with progress
// @Summary Get budget
// @Tags Budgets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Budget ID"
// @Param as_of query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} SuccessResponse{data=dto.BudgetWithProgress}
// @Failure 404 {object} errors.ErrorResponse "BUDGET_001 - Not found"
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	asOf, ok, err := h.asOf(c)
	if !ok {
		return err
	}

	budget, err := h.budgetService.Get(userID, id, asOf)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: budget})
}

// CreateBudget adds a budget for a category
// @Summary Create budget
// @Tags Budgets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateBudgetRequest true "Budget"
// @Success 201 {object} SuccessResponse{data=models.Budget}
// @Failure 400 {object} errors.ErrorResponse "BUDGET_002/BUDGET_003/BUDGET_004"
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var req dto.CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	budget, err := h.budgetService.Create(userID, &req)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Data: budget})
}

// UpdateBudget changes the given fields of a budget
// @Summary Update budget
// @Tags Budgets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param request body dto.UpdateBudgetRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Budget}
// @Router /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req dto.UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	budget, err := h.budgetService.Update(userID, id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: budget})
}

// DeleteBudget removes a budget
// @Summary Delete budget
// @Tags Budgets
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 204
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.budgetService.Delete(userID, id); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package dto

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBudgetRequest contains the fields of a new budget
type CreateBudgetRequest struct {
	CategoryID uuid.UUID       `json:"category_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"decimal_gt0"`
	Period     string          `json:"period" validate:"required,budget_period"`
	StartDate  string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    *string         `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	IsActive   *bool           `json:"is_active"`
}

// UpdateBudgetRequest changes a budget. Absent fields keep their value.
type UpdateBudgetRequest struct {
	CategoryID *uuid.UUID       `json:"category_id"`
	Amount     *decimal.Decimal `json:"amount" validate:"omitempty,decimal_gt0"`
	Period     *string          `json:"period" validate:"omitempty,budget_period"`
	StartDate  *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ClearEnd   bool             `json:"clear_end_date"`
	IsActive   *bool            `json:"is_active"`
}

// BudgetProgress is the state of a budget inside one period window
type BudgetProgress struct {
	PeriodStart *time.Time      `json:"period_start,omitempty"`
	PeriodEnd   *time.Time      `json:"period_end,omitempty"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  float64         `json:"percentage"`
	OverBudget  bool            `json:"over_budget"`
}

// BudgetWithProgress is a budget with its current period progress
type BudgetWithProgress struct {
	models.Budget
	BudgetProgress
	CategoryName   string `json:"category_name"`
	CategoryNameDE string `json:"category_name_de,omitempty"`
}

// BudgetSummary aggregates the progress of all active budgets of a user
type BudgetSummary struct {
	AsOf            time.Time            `json:"as_of"`
	Budgets         []BudgetWithProgress `json:"budgets"`
	TotalBudgeted   decimal.Decimal      `json:"total_budgeted"`
	TotalSpent      decimal.Decimal      `json:"total_spent"`
	TotalRemaining  decimal.Decimal      `json:"total_remaining"`
	OverBudgetCount int                  `json:"over_budget_count"`
}

package services

import (
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// calendarDate drops the clock so window bounds compare as whole days
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PeriodWindow returns the inclusive [start, end] days of the budget period containing asOf,
// clipped to the budget's own start and end dates. ok is false when asOf lies outside the budget.
func PeriodWindow(budget *models.Budget, asOf time.Time) (start, end time.Time, ok bool) {
	day := calendarDate(asOf)
	budgetStart := calendarDate(budget.StartDate)

	if day.Before(budgetStart) {
		return time.Time{}, time.Time{}, false
	}
	if budget.EndDate != nil && day.After(calendarDate(*budget.EndDate)) {
		return time.Time{}, time.Time{}, false
	}

	switch budget.Period {
	case models.BudgetPeriodWeekly:
		elapsed := int(day.Sub(budgetStart).Hours() / 24)
		start = budgetStart.AddDate(0, 0, (elapsed/7)*7)
		end = start.AddDate(0, 0, 6)
	case models.BudgetPeriodYearly:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	}

	if start.Before(budgetStart) {
		start = budgetStart
	}
	if budget.EndDate != nil {
		if budgetEnd := calendarDate(*budget.EndDate); end.After(budgetEnd) {
			end = budgetEnd
		}
	}
	return start, end, !end.Before(start)
}

// Spent sums the absolute expense amounts booked on categoryID, as category or
// subcategory, with dates inside [start, end]. Income is never counted.
func Spent(transactions []models.Transaction, categoryID uuid.UUID, start, end time.Time) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range transactions {
		if !tx.Amount.IsNegative() {
			continue
		}
		day := calendarDate(tx.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		if !matchesCategory(tx, categoryID) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

func matchesCategory(tx models.Transaction, categoryID uuid.UUID) bool {
	return (tx.CategoryID != nil && *tx.CategoryID == categoryID) ||
		(tx.SubcategoryID != nil && *tx.SubcategoryID == categoryID)
}

// Progress compares spent against the budget amount. A zero amount reports 0% when nothing
// was spent and 100% otherwise.
func Progress(amount, spent decimal.Decimal) dto.BudgetProgress {
	progress := dto.BudgetProgress{
		Spent:      spent,
		Remaining:  amount.Sub(spent),
		OverBudget: spent.GreaterThan(amount),
	}

	switch {
	case amount.IsZero() && spent.IsZero():
		progress.Percentage = 0
	case amount.IsZero():
		progress.Percentage = 100
	default:
		progress.Percentage = spent.Div(amount).Mul(hundred).Round(2).InexactFloat64()
	}
	return progress
}

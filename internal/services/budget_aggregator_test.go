package services

import (
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetFrom(period string, start time.Time, end *time.Time) *models.Budget {
	return &models.Budget{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Amount:     decimal.NewFromInt(500),
		Period:     period,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
}

func TestPeriodWindow(t *testing.T) {
	endMarch := date(2024, time.March, 10)

	tests := []struct {
		name      string
		budget    *models.Budget
		asOf      time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}{
		{
			name:      "monthly uses the calendar month",
			budget:    budgetFrom(models.BudgetPeriodMonthly, date(2024, time.January, 1), nil),
			asOf:      date(2024, time.February, 14),
			wantStart: date(2024, time.February, 1),
			wantEnd:   date(2024, time.February, 29),
			wantOK:    true,
		},
		{
			name:      "monthly is clipped to a mid month start",
			budget:    budgetFrom(models.BudgetPeriodMonthly, date(2024, time.February, 10), nil),
			asOf:      date(2024, time.February, 14),
			wantStart: date(2024, time.February, 10),
			wantEnd:   date(2024, time.February, 29),
			wantOK:    true,
		},
		{
			name:      "monthly is clipped to the end date",
			budget:    budgetFrom(models.BudgetPeriodMonthly, date(2024, time.January, 1), &endMarch),
			asOf:      date(2024, time.March, 5),
			wantStart: date(2024, time.March, 1),
			wantEnd:   endMarch,
			wantOK:    true,
		},
		{
			name:      "yearly uses the calendar year",
			budget:    budgetFrom(models.BudgetPeriodYearly, date(2023, time.June, 1), nil),
			asOf:      date(2024, time.August, 3),
			wantStart: date(2024, time.January, 1),
			wantEnd:   date(2024, time.December, 31),
			wantOK:    true,
		},
		{
			name:      "weekly is aligned to the start date",
			budget:    budgetFrom(models.BudgetPeriodWeekly, date(2024, time.January, 3), nil),
			asOf:      date(2024, time.January, 18),
			wantStart: date(2024, time.January, 17),
			wantEnd:   date(2024, time.January, 23),
			wantOK:    true,
		},
		{
			name:      "weekly on the first day",
			budget:    budgetFrom(models.BudgetPeriodWeekly, date(2024, time.January, 3), nil),
			asOf:      date(2024, time.January, 3),
			wantStart: date(2024, time.January, 3),
			wantEnd:   date(2024, time.January, 9),
			wantOK:    true,
		},
		{
			name:   "before the start date",
			budget: budgetFrom(models.BudgetPeriodMonthly, date(2024, time.March, 1), nil),
			asOf:   date(2024, time.February, 28),
		},
		{
			name:   "after the end date",
			budget: budgetFrom(models.BudgetPeriodMonthly, date(2024, time.January, 1), &endMarch),
			asOf:   date(2024, time.March, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := PeriodWindow(tt.budget, tt.asOf)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
		})
	}
}

func TestPeriodWindow_IgnoresClock(t *testing.T) {
	budget := budgetFrom(models.BudgetPeriodMonthly, date(2024, time.January, 1), nil)

	start, end, ok := PeriodWindow(budget, time.Date(2024, time.May, 31, 23, 59, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, date(2024, time.May, 1).Equal(start))
	assert.True(t, date(2024, time.May, 31).Equal(end))
}

func TestSpent(t *testing.T) {
	categoryID := uuid.New()
	other := uuid.New()
	tx := func(day int, amount string, category, subcategory *uuid.UUID) models.Transaction {
		return models.Transaction{
			ID:            uuid.New(),
			Date:          date(2024, time.March, day),
			Amount:        decimal.RequireFromString(amount),
			CategoryID:    category,
			SubcategoryID: subcategory,
		}
	}

	txs := []models.Transaction{
		tx(2, "-50.00", &categoryID, nil),
		tx(5, "-70.00", &other, &categoryID),
		tx(6, "200.00", &categoryID, nil),
		tx(7, "-30.00", &other, nil),
		tx(20, "-99.00", &categoryID, nil),
	}

	spent := Spent(txs, categoryID, date(2024, time.March, 1), date(2024, time.March, 15))
	assert.True(t, decimal.NewFromInt(120).Equal(spent), "spent %s", spent)
}

func TestSpent_Empty(t *testing.T) {
	spent := Spent(nil, uuid.New(), date(2024, time.March, 1), date(2024, time.March, 31))
	assert.True(t, spent.IsZero())
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		spent      string
		remaining  string
		percentage float64
		over       bool
	}{
		{"under budget", "500", "120", "380", 24, false},
		{"over budget", "100", "150", "-50", 150, true},
		{"exactly spent", "100", "100", "0", 100, false},
		{"rounded percentage", "300", "100", "200", 33.33, false},
		{"zero amount nothing spent", "0", "0", "0", 0, false},
		{"zero amount with spending", "0", "10", "-10", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Progress(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.spent))
			assert.True(t, decimal.RequireFromString(tt.remaining).Equal(p.Remaining), "remaining %s", p.Remaining)
			assert.Equal(t, tt.percentage, p.Percentage)
			assert.Equal(t, tt.over, p.OverBudget)
		})
	}
}

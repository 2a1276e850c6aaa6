package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBudgetNotFound  = errors.New("budget not found")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrBudgetDateRange = models.ErrBudgetDateRange
)

type budgetService struct {
	budgetRepo      repositories.BudgetRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	logger          *slog.Logger
}

func NewBudgetService(
	budgetRepo repositories.BudgetRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	logger *slog.Logger,
) BudgetServiceInterface {
	return &budgetService{
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *budgetService) List(userID uuid.UUID, asOf time.Time) ([]dto.BudgetWithProgress, error) {
	budgets, err := s.budgetRepo.ListByUser(userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return s.withProgress(userID, budgets, asOf)
}

func (s *budgetService) Get(userID, id uuid.UUID, asOf time.Time) (*dto.BudgetWithProgress, error) {
	budget, err := s.getBudget(userID, id)
	if err != nil {
		return nil, err
	}
	result, err := s.withProgress(userID, []models.Budget{*budget}, asOf)
	if err != nil {
		return nil, err
	}
	return &result[0], nil
}

func (s *budgetService) Create(userID uuid.UUID, req *dto.CreateBudgetRequest) (*models.Budget, error) {
	if err := s.checkCategory(req.CategoryID); err != nil {
		return nil, err
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  start,
		IsActive:   true,
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		budget.EndDate = &end
	}
	if req.IsActive != nil {
		budget.IsActive = *req.IsActive
	}

	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.Create(budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	s.logger.Info("budget created", "user_id", userID, "budget_id", budget.ID, "period", budget.Period)
	return budget, nil
}

func (s *budgetService) Update(userID, id uuid.UUID, req *dto.UpdateBudgetRequest) (*models.Budget, error) {
	budget, err := s.getBudget(userID, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != budget.CategoryID {
		if err := s.checkCategory(*req.CategoryID); err != nil {
			return nil, err
		}
		budget.CategoryID = *req.CategoryID
		budget.Category = nil
	}
	if req.Amount != nil {
		budget.Amount = *req.Amount
	}
	if req.Period != nil {
		budget.Period = *req.Period
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		budget.StartDate = start
	}
	switch {
	case req.ClearEnd:
		budget.EndDate = nil
	case req.EndDate != nil:
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		budget.EndDate = &end
	}
	if req.IsActive != nil {
		budget.IsActive = *req.IsActive
	}

	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.Update(budget); err != nil {
		if errors.Is(err, repositories.ErrBudgetNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	return budget, nil
}

func (s *budgetService) Delete(userID, id uuid.UUID) error {
	if err := s.budgetRepo.Delete(userID, id); err != nil {
		if errors.Is(err, repositories.ErrBudgetNotFound) {
			return ErrBudgetNotFound
		}
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// Summary reports every active budget and the totals across them
func (s *budgetService) Summary(userID uuid.UUID, asOf time.Time) (*dto.BudgetSummary, error) {
	budgets, err := s.budgetRepo.ListByUser(userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	entries, err := s.withProgress(userID, budgets, asOf)
	if err != nil {
		return nil, err
	}

	summary := &dto.BudgetSummary{
		AsOf:           calendarDate(asOf),
		Budgets:        entries,
		TotalBudgeted:  decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalRemaining: decimal.Zero,
	}
	for _, entry := range entries {
		summary.TotalBudgeted = summary.TotalBudgeted.Add(entry.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(entry.Spent)
		if entry.OverBudget {
			summary.OverBudgetCount++
		}
	}
	summary.TotalRemaining = summary.TotalBudgeted.Sub(summary.TotalSpent)
	return summary, nil
}

func (s *budgetService) withProgress(userID uuid.UUID, budgets []models.Budget, asOf time.Time) ([]dto.BudgetWithProgress, error) {
	result := make([]dto.BudgetWithProgress, 0, len(budgets))
	for _, budget := range budgets {
		entry := dto.BudgetWithProgress{Budget: budget}
		if budget.Category != nil {
			entry.CategoryName = budget.Category.Name
			entry.CategoryNameDE = budget.Category.NameDE
		}

		start, end, ok := PeriodWindow(&budget, asOf)
		spent := decimal.Zero
		if ok {
			txs, err := s.transactionRepo.GetExpensesForCategory(userID, budget.CategoryID, start, end)
			if err != nil {
				return nil, fmt.Errorf("failed to load expenses: %w", err)
			}
			spent = Spent(txs, budget.CategoryID, start, end)
		}

		entry.BudgetProgress = Progress(budget.Amount, spent)
		if ok {
			entry.PeriodStart = &start
			entry.PeriodEnd = &end
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *budgetService) getBudget(userID, id uuid.UUID) (*models.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBudgetNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return budget, nil
}

func (s *budgetService) checkCategory(id uuid.UUID) error {
	if _, err := s.categoryRepo.GetByID(id); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

package repositories

import (
	"errors"
	"fmt"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// budgetRepository implements BudgetRepositoryInterface
type budgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *gorm.DB) BudgetRepositoryInterface {
	return &budgetRepository{
		db: db,
	}
}

// Create inserts the budget. gorm replaces a false is_active with the column default,
// so an inactive budget is written back explicitly.
func (r *budgetRepository) Create(budget *models.Budget) error {
	active := budget.IsActive
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(budget).Error; err != nil {
			return fmt.Errorf("failed to create budget: %w", err)
		}
		if budget.IsActive != active {
			if err := tx.Model(budget).UpdateColumn("is_active", active).Error; err != nil {
				return fmt.Errorf("failed to create budget: %w", err)
			}
			budget.IsActive = active
		}
		return nil
	})
}

// GetByID retrieves a budget owned by the user together with its category
func (r *budgetRepository) GetByID(userID, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	if err := r.db.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &budget, nil
}

func (r *budgetRepository) ListByUser(userID uuid.UUID, activeOnly bool) ([]models.Budget, error) {
	var budgets []models.Budget
	query := r.db.Preload("Category").Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

// Update writes every mutable column so that zero values such as is_active=false persist
func (r *budgetRepository) Update(budget *models.Budget) error {
	result := r.db.Model(budget).
		Where("user_id = ?", budget.UserID).
		Select("category_id", "amount", "period", "start_date", "end_date", "is_active", "updated_at").
		Omit("Category").
		Updates(budget)
	if result.Error != nil {
		return fmt.Errorf("failed to update budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (r *budgetRepository) Delete(userID, id uuid.UUID) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

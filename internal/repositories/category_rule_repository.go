package repositories

import (
	"fmt"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// categoryRuleRepository implements CategoryRuleRepositoryInterface
type categoryRuleRepository struct {
	db *gorm.DB
}

// NewCategoryRuleRepository creates a new category rule repository
func NewCategoryRuleRepository(db *gorm.DB) CategoryRuleRepositoryInterface {
	return &categoryRuleRepository{
		db: db,
	}
}

// Create inserts the rule. A priority of 0 would otherwise be replaced by the column default.
func (r *categoryRuleRepository) Create(rule *models.CategoryRule) error {
	priority := rule.Priority
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(rule).Error; err != nil {
			return fmt.Errorf("failed to create category rule: %w", err)
		}
		if rule.Priority != priority {
			if err := tx.Model(rule).UpdateColumn("priority", priority).Error; err != nil {
				return fmt.Errorf("failed to create category rule: %w", err)
			}
			rule.Priority = priority
		}
		return nil
	})
}

// ListByUser returns the user's rules in evaluation order
func (r *categoryRuleRepository) ListByUser(userID uuid.UUID) ([]models.CategoryRule, error) {
	var rules []models.CategoryRule
	if err := r.db.Where("user_id = ?", userID).
		Order("priority ASC").Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	return rules, nil
}

func (r *categoryRuleRepository) Delete(userID, id uuid.UUID) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CategoryRule{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete category rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryRuleNotFound
	}
	return nil
}

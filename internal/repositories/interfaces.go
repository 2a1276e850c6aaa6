package repositories

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

// TransactionRepositoryInterface defines the contract for transaction repository operations.
// Every lookup is scoped to the owning user.
type TransactionRepositoryInterface interface {
	Create(transaction *models.Transaction) error
	GetByID(userID, id uuid.UUID) (*models.Transaction, error)
	List(filters models.TransactionFilters) ([]models.Transaction, int64, error)
	Statistics(filters models.TransactionFilters) (*models.TransactionStatistics, error)
	UpdateFields(userID, id uuid.UUID, fields map[string]interface{}) error
	Delete(userID, id uuid.UUID) error

	// Import support
	ExistingImportHashes(userID uuid.UUID) (map[string]struct{}, error)
	InsertBatch(transactions []models.Transaction) (int64, error)

	// Budget and receipt support
	GetExpensesForCategory(userID, categoryID uuid.UUID, start, end time.Time) ([]models.Transaction, error)
	GetInDateRange(userID uuid.UUID, start, end time.Time, limit int) ([]models.Transaction, error)
	GetRecent(userID uuid.UUID, limit int) ([]models.Transaction, error)
	CountByCategory(categoryID uuid.UUID) (int64, error)
}

// CategoryRepositoryInterface defines the contract for category repository operations
type CategoryRepositoryInterface interface {
	Create(category *models.Category) error
	GetByID(id uuid.UUID) (*models.Category, error)
	GetAll() ([]models.Category, error)
	GetTopLevel() ([]models.Category, error)
	GetChildren(parentID uuid.UUID) ([]models.Category, error)
	Update(category *models.Category) error
	Delete(id uuid.UUID) error
	CountChildren(id uuid.UUID) (int64, error)
}

// BudgetRepositoryInterface defines the contract for budget repository operations
type BudgetRepositoryInterface interface {
	Create(budget *models.Budget) error
	GetByID(userID, id uuid.UUID) (*models.Budget, error)
	ListByUser(userID uuid.UUID, activeOnly bool) ([]models.Budget, error)
	Update(budget *models.Budget) error
	Delete(userID, id uuid.UUID) error
}

// ReceiptRepositoryInterface defines the contract for receipt repository operations
type ReceiptRepositoryInterface interface {
	Create(receipt *models.Receipt) error
	GetByID(userID, id uuid.UUID) (*models.Receipt, error)
	ListByUser(userID uuid.UUID, offset, limit int) ([]models.Receipt, int64, error)
	Update(receipt *models.Receipt) error
	SetTransaction(userID, id uuid.UUID, transactionID *uuid.UUID) error
	Delete(userID, id uuid.UUID) error
}

// CategoryRuleRepositoryInterface defines the contract for category rule repository operations
type CategoryRuleRepositoryInterface interface {
	Create(rule *models.CategoryRule) error
	ListByUser(userID uuid.UUID) ([]models.CategoryRule, error)
	Delete(userID, id uuid.UUID) error
}

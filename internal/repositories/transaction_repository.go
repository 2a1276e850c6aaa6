package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// Create creates a new transaction
func (r *transactionRepository) Create(transaction *models.Transaction) error {
	if err := r.db.Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction owned by the user
func (r *transactionRepository) GetByID(userID, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.Preload("Category").Preload("Subcategory").
		Where("id = ? AND user_id = ?", id, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

func (r *transactionRepository) applyFilters(query *gorm.DB, filters models.TransactionFilters) *gorm.DB {
	query = query.Where("user_id = ?", filters.UserID)

	if filters.StartDate != nil {
		query = query.Where("date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("date <= ?", *filters.EndDate)
	}
	if filters.CategoryID != nil {
		query = query.Where("(category_id = ? OR subcategory_id = ?)", *filters.CategoryID, *filters.CategoryID)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(counterparty) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	return query
}

// List returns one page of the user's transactions, newest first, with the total match count
func (r *transactionRepository) List(filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	if err := r.applyFilters(r.db.Model(&models.Transaction{}), filters).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := r.applyFilters(r.db.Preload("Category").Preload("Subcategory"), filters).
		Order("date DESC").Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}

// Statistics sums income and expenses over the filtered transactions; paging is ignored
func (r *transactionRepository) Statistics(filters models.TransactionFilters) (*models.TransactionStatistics, error) {
	// summing as strings keeps decimal precision out of the driver's hands
	var raw struct {
		TotalIncome   string
		TotalExpenses string
		Count         int64
	}

	filters.Offset, filters.Limit = 0, 0
	err := r.applyFilters(r.db.Model(&models.Transaction{}), filters).
		Select("CAST(COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS TEXT) AS total_income, " +
			"CAST(COALESCE(SUM(CASE WHEN amount < 0 THEN amount ELSE 0 END), 0) AS TEXT) AS total_expenses, " +
			"COUNT(*) AS count").
		Scan(&raw).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute transaction statistics: %w", err)
	}
	stats, err := newStatistics(raw.TotalIncome, raw.TotalExpenses, raw.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction statistics: %w", err)
	}
	return stats, nil
}

// UpdateFields applies a partial update to a transaction owned by the user
func (r *transactionRepository) UpdateFields(userID, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()

	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction owned by the user. Linked receipts are unlinked first.
func (r *transactionRepository) Delete(userID, id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Receipt{}).
			Where("transaction_id = ? AND user_id = ?", id, userID).
			Update("transaction_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unlink receipts: %w", err)
		}

		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTransactionNotFound
		}
		return nil
	})
}

// ExistingImportHashes loads every import fingerprint the user already has
func (r *transactionRepository) ExistingImportHashes(userID uuid.UUID) (map[string]struct{}, error) {
	var hashes []string
	if err := r.db.Model(&models.Transaction{}).
		Where("user_id = ? AND import_hash IS NOT NULL", userID).
		Pluck("import_hash", &hashes).Error; err != nil {
		return nil, fmt.Errorf("failed to load import hashes: %w", err)
	}

	existing := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		existing[h] = struct{}{}
	}
	return existing, nil
}

// InsertBatch inserts the batch in one statement and silently skips rows whose
// (user_id, import_hash) already exists. It returns the number of rows written.
func (r *transactionRepository) InsertBatch(transactions []models.Transaction) (int64, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "import_hash"}},
				DoNothing: true,
			}).
			Create(&transactions)
		if result.Error != nil {
			return fmt.Errorf("failed to insert transaction batch: %w", result.Error)
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetExpensesForCategory returns the user's expenses booked on the category, as main
// or subcategory, with dates inside [start, end]
func (r *transactionRepository) GetExpensesForCategory(userID, categoryID uuid.UUID, start, end time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.Where("user_id = ? AND (category_id = ? OR subcategory_id = ?)", userID, categoryID, categoryID).
		Where("date >= ? AND date <= ? AND amount < 0", start, end).
		Order("date ASC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get category expenses: %w", err)
	}
	return transactions, nil
}

// GetInDateRange retrieves the user's transactions with dates inside [start, end]
func (r *transactionRepository) GetInDateRange(userID uuid.UUID, start, end time.Time, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get transactions by date range: %w", err)
	}
	return transactions, nil
}

// GetRecent retrieves the user's most recent transactions
func (r *transactionRepository) GetRecent(userID uuid.UUID, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.Where("user_id = ?", userID).
		Order("date DESC").Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}
	return transactions, nil
}

// CountByCategory counts transactions of any user referencing the category
func (r *transactionRepository) CountByCategory(categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Transaction{}).
		Where("category_id = ? OR subcategory_id = ?", categoryID, categoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions by category: %w", err)
	}
	return count, nil
}

func newStatistics(income, expenses string, count int64) (*models.TransactionStatistics, error) {
	totalIncome, err := decimal.NewFromString(income)
	if err != nil {
		return nil, err
	}
	totalExpenses, err := decimal.NewFromString(expenses)
	if err != nil {
		return nil, err
	}

	totalIncome = totalIncome.Round(2)
	totalExpenses = totalExpenses.Abs().Round(2)
	return &models.TransactionStatistics{
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		Balance:       totalIncome.Sub(totalExpenses),
		Count:         count,
	}, nil
}

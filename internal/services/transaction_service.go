package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 100
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidCategoryID    = errors.New("invalid category id")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
	ErrSubcategoryMismatch  = errors.New("subcategory does not belong to the category")
	ErrEmptyTransactionEdit = errors.New("no updatable field given")
)

type transactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	logger          *slog.Logger
}

func NewTransactionService(
	transactionRepo repositories.TransactionRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &transactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		logger:          logger,
	}
}

func (s *transactionService) List(userID uuid.UUID, query dto.TransactionQuery) (*dto.ListTransactionsResponse, error) {
	filters, err := buildFilters(userID, query)
	if err != nil {
		return nil, err
	}

	transactions, total, err := s.transactionRepo.List(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: transactions,
		Pagination: dto.PaginationInfo{
			Offset:  filters.Offset,
			Limit:   filters.Limit,
			Total:   total,
			HasMore: int64(filters.Offset+len(transactions)) < total,
		},
	}, nil
}

// Statistics aggregates over the same filters as List, ignoring paging
func (s *transactionService) Statistics(userID uuid.UUID, query dto.TransactionQuery) (*models.TransactionStatistics, error) {
	filters, err := buildFilters(userID, query)
	if err != nil {
		return nil, err
	}
	filters.Offset, filters.Limit = 0, 0

	stats, err := s.transactionRepo.Statistics(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return stats, nil
}

func (s *transactionService) Get(userID, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

// Create books a manual transaction. Manual rows carry no import fingerprint.
func (s *transactionService) Create(userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategories(req.CategoryID, req.SubcategoryID); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Date:          day,
		Amount:        req.Amount.Round(2),
		Currency:      strings.ToUpper(req.Currency),
		Counterparty:  strings.TrimSpace(req.Counterparty),
		Description:   strings.TrimSpace(req.Description),
		AccountName:   req.AccountName,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Tags:          models.StringList(req.Tags),
		Notes:         req.Notes,
		Source:        models.TransactionSourceManual,
	}

	if err := s.transactionRepo.Create(transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.logger.Info("transaction created", "user_id", userID, "transaction_id", transaction.ID)
	return transaction, nil
}

// Update writes only category, subcategory, tags and notes
func (s *transactionService) Update(userID, id uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyTransactionEdit
	}

	current, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	categoryID, subcategoryID := current.CategoryID, current.SubcategoryID
	if req.CategoryID != nil {
		categoryID = req.CategoryID
	}
	if req.SubcategoryID != nil {
		subcategoryID = req.SubcategoryID
	}
	if req.CategoryID != nil || req.SubcategoryID != nil {
		if err := s.checkCategories(categoryID, subcategoryID); err != nil {
			return nil, err
		}
	}

	fields := make(map[string]interface{})
	if req.CategoryID != nil {
		fields["category_id"] = *req.CategoryID
	}
	if req.SubcategoryID != nil {
		fields["subcategory_id"] = *req.SubcategoryID
	}
	if req.Tags != nil {
		fields["tags"] = models.StringList(*req.Tags)
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if err := s.transactionRepo.UpdateFields(userID, id, fields); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	return s.Get(userID, id)
}

func (s *transactionService) Delete(userID, id uuid.UUID) error {
	if err := s.transactionRepo.Delete(userID, id); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// checkCategories verifies both references exist and that the subcategory hangs below the category
func (s *transactionService) checkCategories(categoryID, subcategoryID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.lookupCategory(*categoryID); err != nil {
			return err
		}
	}
	if subcategoryID == nil {
		return nil
	}

	sub, err := s.lookupCategory(*subcategoryID)
	if err != nil {
		return err
	}
	if categoryID != nil && (sub.ParentID == nil || *sub.ParentID != *categoryID) {
		return ErrSubcategoryMismatch
	}
	return nil
}

func (s *transactionService) lookupCategory(id uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func buildFilters(userID uuid.UUID, query dto.TransactionQuery) (models.TransactionFilters, error) {
	filters := models.TransactionFilters{
		UserID: userID,
		Search: strings.TrimSpace(query.Search),
		Offset: query.Offset,
		Limit:  query.Limit,
	}

	if filters.Offset < 0 {
		filters.Offset = 0
	}
	if filters.Limit <= 0 {
		filters.Limit = DefaultTransactionLimit
	}
	if filters.Limit > MaxTransactionLimit {
		filters.Limit = MaxTransactionLimit
	}

	if query.StartDate != "" {
		start, err := parseDate(query.StartDate)
		if err != nil {
			return filters, err
		}
		filters.StartDate = &start
	}
	if query.EndDate != "" {
		end, err := parseDate(query.EndDate)
		if err != nil {
			return filters, err
		}
		filters.EndDate = &end
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.StartDate.After(*filters.EndDate) {
		return filters, ErrInvalidDateRange
	}

	if query.CategoryID != "" {
		id, err := uuid.Parse(query.CategoryID)
		if err != nil {
			return filters, fmt.Errorf("%w: %q", ErrInvalidCategoryID, query.CategoryID)
		}
		filters.CategoryID = &id
	}

	return filters, nil
}


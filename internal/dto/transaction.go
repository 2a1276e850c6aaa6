package dto

import (
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates in requests and query strings
const DateLayout = "2006-01-02"

// TransactionQuery contains filtering and paging options for transaction queries
type TransactionQuery struct {
	StartDate  string `query:"start_date"`
	EndDate    string `query:"end_date"`
	CategoryID string `query:"category_id"`
	Search     string `query:"search"`
	Offset     int    `query:"offset"`
	Limit      int    `query:"limit"`
}

// CreateTransactionRequest books a manual transaction
type CreateTransactionRequest struct {
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Counterparty  string          `json:"counterparty" validate:"required_without=Description,max=255"`
	Description   string          `json:"description"`
	AccountName   string          `json:"account_name" validate:"max=255"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	SubcategoryID *uuid.UUID      `json:"subcategory_id"`
	Tags          []string        `json:"tags" validate:"max=20,dive,max=50"`
	Notes         string          `json:"notes"`
}

// UpdateTransactionRequest changes the user-editable fields of a transaction.
// Only fields present in the request are written.
type UpdateTransactionRequest struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	Tags          *[]string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Notes         *string    `json:"notes"`
}

// IsEmpty reports whether the update carries no field at all
func (r *UpdateTransactionRequest) IsEmpty() bool {
	return r.CategoryID == nil && r.SubcategoryID == nil && r.Tags == nil && r.Notes == nil
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// ListTransactionsResponse represents the response for listing transactions
type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   PaginationInfo       `json:"pagination"`
}

// ImportReport summarizes one import call. Duplicates and errors are counted apart.
type ImportReport struct {
	TotalRows    int      `json:"total_rows"`
	Imported     int      `json:"imported"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details"`
}

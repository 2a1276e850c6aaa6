package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuggestCategoryRequest describes a transaction that should be categorized
type SuggestCategoryRequest struct {
	Counterparty string          `json:"counterparty" validate:"required_without=Description,max=255"`
	Description  string          `json:"description" validate:"max=2000"`
	Amount       decimal.Decimal `json:"amount"`
}

// CategorySuggestion is the model's pick among the known categories
type CategorySuggestion struct {
	Category   string     `json:"category"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning,omitempty"`
}

// BulkCategorizeRequest lists the transactions to categorize
type BulkCategorizeRequest struct {
	TransactionIDs []uuid.UUID `json:"transaction_ids" validate:"required,min=1,max=100"`
}

// BulkCategorizeResult is the outcome for a single transaction
type BulkCategorizeResult struct {
	TransactionID     uuid.UUID  `json:"transaction_id"`
	SuggestedCategory string     `json:"suggested_category,omitempty"`
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
	Confidence        float64    `json:"confidence"`
	Error             string     `json:"error,omitempty"`
}

// BulkCategorizeResponse aggregates a bulk categorization run
type BulkCategorizeResponse struct {
	Results    []BulkCategorizeResult `json:"results"`
	Total      int                    `json:"total"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
}

package dto

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListReceiptsResponse represents the response for listing receipts
type ListReceiptsResponse struct {
	Receipts   []models.Receipt `json:"receipts"`
	Pagination PaginationInfo   `json:"pagination"`
}

// LinkReceiptRequest links a receipt to one of the user's transactions
type LinkReceiptRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
}

// ReceiptMatch is one ranked candidate transaction for a receipt
type ReceiptMatch struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Score         float64         `json:"score"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Counterparty  string          `json:"counterparty,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// ReceiptMatchesResponse lists match candidates, best first
type ReceiptMatchesResponse struct {
	ReceiptID uuid.UUID      `json:"receipt_id"`
	Matches   []ReceiptMatch `json:"matches"`
}

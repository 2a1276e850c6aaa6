package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ReceiptStatusPending    = "pending"
	ReceiptStatusProcessing = "processing"
	ReceiptStatusCompleted  = "completed"
	ReceiptStatusFailed     = "failed"
)

// Receipt is an uploaded receipt image or PDF and what OCR read from it
type Receipt struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TransactionID    *uuid.UUID     `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	OriginalFilename string         `gorm:"type:varchar(255);not null" json:"original_filename"`
	StoredPath       string         `gorm:"type:varchar(500);not null" json:"-"`
	FileSize         int64          `json:"file_size"`
	MimeType         string         `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	OCRRawText       string         `gorm:"column:ocr_raw_text;type:text" json:"ocr_raw_text,omitempty"`
	OCRModel         string         `gorm:"column:ocr_model;type:varchar(100)" json:"ocr_model,omitempty"`
	OCRProcessedAt   *time.Time     `gorm:"column:ocr_processed_at" json:"ocr_processed_at,omitempty"`
	ExtractedData    *ExtractedData `gorm:"type:text" json:"extracted_data,omitempty"`
	Status           string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID;constraint:OnDelete:SET NULL" json:"-"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReceiptStatusPending
	}

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	return nil
}

func (r *Receipt) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}

// IsLinked reports whether the receipt belongs to a transaction
func (r *Receipt) IsLinked() bool {
	return r.TransactionID != nil
}

func (r *Receipt) TableName() string {
	return "receipts"
}

// ReceiptItem is one purchased line on a receipt
type ReceiptItem struct {
	Name     string           `json:"name"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// VATLine is the tax charged at one rate
type VATLine struct {
	Rate   *decimal.Decimal `json:"rate,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// ExtractedData holds the validated fields read from a receipt
type ExtractedData struct {
	Merchant string           `json:"merchant,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
	VAT      []VATLine        `json:"vat,omitempty"`
	Items    []ReceiptItem    `json:"items,omitempty"`
	// Warnings lists fields that were present but unusable
	Warnings []string `json:"warnings,omitempty"`
}

// Value implements driver.Valuer interface
func (d *ExtractedData) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	// Return string for SQLite compatibility
	return string(bytes), nil
}

func (d *ExtractedData) Scan(value interface{}) error {
	bytes, err := scanBytes(value, "ExtractedData")
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*d = ExtractedData{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

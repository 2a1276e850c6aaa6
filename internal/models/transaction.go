package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionSourceManual     = "manual"
	TransactionSourceFinanzguru = "finanzguru"

	DefaultCurrency = "EUR"
)

var (
	ErrTransactionUserRequired = errors.New("user ID is required")
	ErrTransactionDateRequired = errors.New("transaction date is required")
	ErrInvalidCurrency         = errors.New("currency must be a three-letter code")
	ErrInvalidSource           = errors.New("invalid transaction source")
)

// Transaction is a single booked movement on one of the user's accounts.
// Negative amounts are expenses, positive amounts income.
type Transaction struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_transactions_user_import_hash,priority:1" json:"user_id"`
	AccountName      string           `gorm:"type:varchar(255)" json:"account_name,omitempty"`
	AccountIBANLast4 string           `gorm:"column:account_iban_last4;type:varchar(4)" json:"account_iban_last4,omitempty"`
	Date             time.Time        `gorm:"type:date;not null;index" json:"date"`
	Amount           decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency         string           `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	BalanceAfter     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"balance_after,omitempty"`
	Counterparty     string           `gorm:"type:varchar(255)" json:"counterparty,omitempty"`
	CounterpartyIBAN string           `gorm:"column:counterparty_iban;type:varchar(34)" json:"counterparty_iban,omitempty"`
	Description      string           `gorm:"type:text" json:"description,omitempty"`
	ERef             string           `gorm:"column:e_ref;type:varchar(255)" json:"e_ref,omitempty"`
	MandateRef       string           `gorm:"type:varchar(255)" json:"mandate_ref,omitempty"`
	CreditorID       string           `gorm:"type:varchar(255)" json:"creditor_id,omitempty"`
	CategoryID       *uuid.UUID       `gorm:"type:uuid;index" json:"category_id,omitempty"`
	SubcategoryID    *uuid.UUID       `gorm:"type:uuid;index" json:"subcategory_id,omitempty"`

	// Analysis columns as delivered by the Finanzguru export
	FGMainCategory       string           `gorm:"column:fg_main_category;type:varchar(255)" json:"fg_main_category,omitempty"`
	FGSubcategory        string           `gorm:"column:fg_subcategory;type:varchar(255)" json:"fg_subcategory,omitempty"`
	FGContractName       string           `gorm:"column:fg_contract_name;type:varchar(255)" json:"fg_contract_name,omitempty"`
	FGContractFrequency  string           `gorm:"column:fg_contract_frequency;type:varchar(50)" json:"fg_contract_frequency,omitempty"`
	FGContractID         string           `gorm:"column:fg_contract_id;type:varchar(255)" json:"fg_contract_id,omitempty"`
	FGIsTransfer         bool             `gorm:"column:fg_is_transfer;not null;default:false" json:"fg_is_transfer"`
	FGExcludedFromBudget bool             `gorm:"column:fg_excluded_from_budget;not null;default:false" json:"fg_excluded_from_budget"`
	FGTransactionType    string           `gorm:"column:fg_transaction_type;type:varchar(50)" json:"fg_transaction_type,omitempty"`
	FGAnalysisAmount     *decimal.Decimal `gorm:"column:fg_analysis_amount;type:decimal(12,2)" json:"fg_analysis_amount,omitempty"`
	FGWeek               string           `gorm:"column:fg_week;type:varchar(20)" json:"fg_week,omitempty"`
	FGMonth              string           `gorm:"column:fg_month;type:varchar(20)" json:"fg_month,omitempty"`
	FGQuarter            string           `gorm:"column:fg_quarter;type:varchar(20)" json:"fg_quarter,omitempty"`
	FGYear               string           `gorm:"column:fg_year;type:varchar(10)" json:"fg_year,omitempty"`

	Tags       StringList `gorm:"type:text" json:"tags"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`
	Source     string     `gorm:"type:varchar(20);not null;default:'manual'" json:"source"`
	ImportHash *string    `gorm:"type:varchar(64);uniqueIndex:idx_transactions_user_import_hash,priority:2" json:"-"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`

	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Subcategory *Category `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:SET NULL" json:"subcategory,omitempty"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	if t.Source == "" {
		t.Source = TransactionSourceManual
	}

	// Set timestamps if not already set (for tests)
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}

// Validate validates the transaction fields
func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrTransactionUserRequired
	}

	if t.Date.IsZero() {
		return ErrTransactionDateRequired
	}

	if len(t.Currency) != 3 {
		return ErrInvalidCurrency
	}

	if t.Source != TransactionSourceManual && t.Source != TransactionSourceFinanzguru {
		return ErrInvalidSource
	}

	return nil
}

// IsExpense reports whether the transaction lowers the balance
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

func (t *Transaction) TableName() string {
	return "transactions"
}

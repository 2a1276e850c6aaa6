package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BudgetPeriodWeekly  = "weekly"
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)

var (
	ErrInvalidBudgetPeriod = errors.New("period must be weekly, monthly or yearly")
	ErrInvalidBudgetAmount = errors.New("budget amount must be positive")
	ErrBudgetDateRange     = errors.New("end date must not be before start date")
	ErrBudgetStartRequired = errors.New("start date is required")
)

// Budget caps the spending of one category over a recurring period
type Budget struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Period     string          `gorm:"type:varchar(20);not null;default:'monthly'" json:"period"`
	StartDate  time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate    *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	IsActive   bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}

	return b.Validate()
}

func (b *Budget) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = time.Now()
	// map-based updates carry no full model to validate
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}
	return b.Validate()
}

func (b *Budget) Validate() error {
	if !IsValidBudgetPeriod(b.Period) {
		return ErrInvalidBudgetPeriod
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidBudgetAmount
	}
	if b.StartDate.IsZero() {
		return ErrBudgetStartRequired
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return ErrBudgetDateRange
	}
	return nil
}

// IsValidBudgetPeriod checks if a period string is one of the supported kinds
func IsValidBudgetPeriod(period string) bool {
	switch period {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodYearly:
		return true
	default:
		return false
	}
}

func (b *Budget) TableName() string {
	return "budgets"
}

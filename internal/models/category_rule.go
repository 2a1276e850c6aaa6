package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRulePatternRequired = errors.New("rule pattern is required")

// CategoryRule assigns a category to imported rows whose counterparty matches a glob pattern.
// Lower priority values are tried first.
type CategoryRule struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Pattern    string    `gorm:"type:varchar(255);not null" json:"pattern"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null" json:"category_id"`
	Priority   int       `gorm:"not null;default:100" json:"priority"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

func (r *CategoryRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Pattern == "" {
		return ErrRulePatternRequired
	}
	return nil
}

func (r *CategoryRule) TableName() string {
	return "category_rules"
}

package dto

import "github.com/google/uuid"

// CategoryRequest creates or replaces a category
type CategoryRequest struct {
	Name      string     `json:"name" validate:"required,max=100"`
	NameDE    string     `json:"name_de" validate:"max=100"`
	ParentID  *uuid.UUID `json:"parent_id"`
	IsIncome  bool       `json:"is_income"`
	Icon      string     `json:"icon" validate:"max=50"`
	Color     string     `json:"color" validate:"omitempty,hex_color"`
	SortOrder int        `json:"sort_order" validate:"min=0"`
}

// CreateCategoryRuleRequest adds a glob rule over counterparty names
type CreateCategoryRuleRequest struct {
	Pattern    string    `json:"pattern" validate:"required,max=255"`
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	Priority   *int      `json:"priority" validate:"omitempty,min=0,max=10000"`
}

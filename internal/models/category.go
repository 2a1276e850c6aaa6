package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UncategorizedName is reported when no category can be chosen at all
const UncategorizedName = "Uncategorized"

var (
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrInvalidColor         = errors.New("color must be a hex value like #A1B2C3")

	hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
)

// Category is global and shared by all users. Categories form a tree through ParentID.
type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	NameDE    string     `gorm:"column:name_de;type:varchar(100)" json:"name_de,omitempty"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	IsIncome  bool       `gorm:"not null;default:false" json:"is_income"`
	Icon      string     `gorm:"type:varchar(50)" json:"icon,omitempty"`
	Color     string     `gorm:"type:varchar(7)" json:"color,omitempty"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	return c.Validate()
}

func (c *Category) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrCategoryNameRequired
	}
	if c.Color != "" && !hexColorRegex.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// IsTopLevel reports whether the category has no parent
func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}

func (c *Category) TableName() string {
	return "categories"
}

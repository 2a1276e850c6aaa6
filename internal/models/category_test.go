package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Validate(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  error
	}{
		{"name only", Category{Name: "Groceries"}, nil},
		{"long hex color", Category{Name: "Groceries", Color: "#2E7D32"}, nil},
		{"short hex color", Category{Name: "Groceries", Color: "#abc"}, nil},
		{"missing name", Category{NameDE: "Lebensmittel"}, ErrCategoryNameRequired},
		{"named color", Category{Name: "Groceries", Color: "green"}, ErrInvalidColor},
		{"hex without hash", Category{Name: "Groceries", Color: "2E7D32"}, ErrInvalidColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategory_IsTopLevel(t *testing.T) {
	parentID := uuid.New()
	assert.True(t, (&Category{Name: "Housing"}).IsTopLevel())
	assert.False(t, (&Category{Name: "Rent", ParentID: &parentID}).IsTopLevel())
}

func TestCategoryRule_BeforeCreate(t *testing.T) {
	rule := &CategoryRule{UserID: uuid.New(), CategoryID: uuid.New(), Pattern: "*REWE*"}
	require.NoError(t, rule.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())

	assert.ErrorIs(t, (&CategoryRule{}).BeforeCreate(nil), ErrRulePatternRequired)
}

func TestReceipt_BeforeCreateDefaults(t *testing.T) {
	r := &Receipt{UserID: uuid.New(), OriginalFilename: "bon.jpg", StoredPath: "u/bon.jpg"}
	require.NoError(t, r.BeforeCreate(nil))
	assert.Equal(t, ReceiptStatusPending, r.Status)
	assert.False(t, r.IsLinked())

	txID := uuid.New()
	r.TransactionID = &txID
	assert.True(t, r.IsLinked())
}

func TestExtractedData_ValueScan(t *testing.T) {
	var empty *ExtractedData
	value, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	date := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("23.47")
	data := &ExtractedData{Merchant: "REWE", Date: &date, Total: &total, Warnings: []string{"vat"}}

	value, err = data.Value()
	require.NoError(t, err)

	var scanned ExtractedData
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, "REWE", scanned.Merchant)
	require.NotNil(t, scanned.Total)
	assert.True(t, scanned.Total.Equal(total))
	assert.True(t, scanned.Date.Equal(date))
	assert.Equal(t, []string{"vat"}, scanned.Warnings)

	require.NoError(t, scanned.Scan(""))
	assert.Empty(t, scanned.Merchant)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitBreakerState(0).String())
	assert.Equal(t, "open", CircuitBreakerState(1).String())
	assert.Equal(t, "half_open", CircuitBreakerState(2).String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"finance-tracker/internal/locale"
	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

var ErrMalformedExtraction = errors.New("receipt answer is not a JSON object")

// receiptPrompt asks the vision model for a fixed JSON shape
const receiptPrompt = `You are reading a German shop receipt. Extract the following fields and answer
with JSON only:
{"merchant": "shop name", "date": "YYYY-MM-DD", "total": 12.34,
 "vat": [{"rate": 19, "amount": 1.97}],
 "items": [{"name": "item", "quantity": 1, "price": 1.99}]}
Use null for fields that cannot be read.`

// ParseExtraction validates an OCR answer field by field. Malformed fields are
// dropped and recorded as warnings; only an answer that is not a JSON object fails.
func ParseExtraction(answer string) (*models.ExtractedData, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(answer), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if payload == nil {
		return nil, ErrMalformedExtraction
	}

	data := &models.ExtractedData{}
	warn := func(field string) {
		data.Warnings = append(data.Warnings, field)
	}

	if raw, ok := payload["merchant"]; ok && raw != nil {
		if merchant, ok := raw.(string); ok {
			data.Merchant = strings.TrimSpace(merchant)
		} else {
			warn("merchant")
		}
	}

	if raw, ok := payload["date"]; ok && raw != nil {
		if d, ok := extractDate(raw); ok {
			data.Date = &d
		} else {
			warn("date")
		}
	}

	if raw, ok := payload["total"]; ok && raw != nil {
		if total, ok := extractAmount(raw); ok {
			data.Total = &total
		} else {
			warn("total")
		}
	}

	if raw, ok := payload["vat"]; ok && raw != nil {
		lines, ok := raw.([]interface{})
		if !ok {
			warn("vat")
		}
		for i, line := range lines {
			entry, ok := line.(map[string]interface{})
			if !ok {
				warn(fmt.Sprintf("vat[%d]", i))
				continue
			}
			data.VAT = append(data.VAT, models.VATLine{
				Rate:   optionalExtractAmount(entry["rate"]),
				Amount: optionalExtractAmount(entry["amount"]),
			})
		}
	}

	if raw, ok := payload["items"]; ok && raw != nil {
		items, ok := raw.([]interface{})
		if !ok {
			warn("items")
		}
		for i, item := range items {
			entry, ok := item.(map[string]interface{})
			if !ok {
				warn(fmt.Sprintf("items[%d]", i))
				continue
			}
			name, _ := entry["name"].(string)
			if name = strings.TrimSpace(name); name == "" {
				warn(fmt.Sprintf("items[%d]", i))
				continue
			}
			data.Items = append(data.Items, models.ReceiptItem{
				Name:     name,
				Quantity: optionalExtractAmount(entry["quantity"]),
				Price:    optionalExtractAmount(entry["price"]),
			})
		}
	}

	return data, nil
}

// extractDate accepts ISO and German dates
func extractDate(raw interface{}) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := locale.ParseDate(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// extractAmount accepts JSON numbers and both dot- and comma-decimal strings
func extractAmount(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v).Round(locale.AmountPlaces), true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "€"))
		if strings.Contains(s, ",") {
			if amount, err := locale.ParseAmount(s); err == nil {
				return amount, true
			}
			return decimal.Zero, false
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return amount.Round(locale.AmountPlaces), true
	default:
		return decimal.Zero, false
	}
}

func optionalExtractAmount(raw interface{}) *decimal.Decimal {
	if raw == nil {
		return nil
	}
	amount, ok := extractAmount(raw)
	if !ok {
		return nil
	}
	return &amount
}

const rawTextLimit = 10000

// rawText caps the stored answer at rawTextLimit bytes without splitting a
// rune; the column must stay valid UTF-8.
func rawText(answer string) string {
	if len(answer) <= rawTextLimit {
		return answer
	}
	cut := rawTextLimit
	for cut > 0 && !utf8.RuneStart(answer[cut]) {
		cut--
	}
	return answer[:cut]
}

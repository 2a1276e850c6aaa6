package locale

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMalformedDate   = errors.New("malformed date")
	ErrMalformedAmount = errors.New("malformed amount")
)

// AmountPlaces is the fixed precision of parsed and formatted amounts
const AmountPlaces = 2

// thousandsReplacer strips every thousands separator the exporter is known to emit
var thousandsReplacer = strings.NewReplacer(
	".", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// ParseDate parses a German DD.MM.YYYY (or DD.MM.YY) date into a UTC calendar date
func ParseDate(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q, expected DD.MM.YYYY", ErrMalformedDate, s)
	}

	day, ok := parseDigits(parts[0], 1, 2)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid day in %q", ErrMalformedDate, s)
	}

	month, ok := parseDigits(parts[1], 1, 2)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid month in %q", ErrMalformedDate, s)
	}

	var year int
	switch len(parts[2]) {
	case 2:
		year, ok = parseDigits(parts[2], 2, 2)
		year += 2000
	case 4:
		year, ok = parseDigits(parts[2], 4, 4)
	default:
		ok = false
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid year in %q", ErrMalformedDate, s)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31.02 -> 02.03), reject that
	if date.Day() != day || int(date.Month()) != month || date.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrMalformedDate, s)
	}

	return date, nil
}

// FormatDate renders a date as DD.MM.YYYY
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// ParseAmount parses a comma-decimal amount such as "-1.234,56" into a two-place decimal
func ParseAmount(s string) (decimal.Decimal, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrMalformedAmount)
	}

	sign := ""
	switch value[0] {
	case '-', '+':
		if value[0] == '-' {
			sign = "-"
		}
		value = strings.TrimSpace(value[1:])
	}

	value = thousandsReplacer.Replace(value)
	if strings.Count(value, ",") > 1 {
		return decimal.Zero, fmt.Errorf("%w: more than one decimal separator in %q", ErrMalformedAmount, s)
	}

	intPart, fracPart, hasFrac := strings.Cut(value, ",")
	if intPart == "" && (!hasFrac || fracPart == "") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, fmt.Errorf("%w: %q is not numeric", ErrMalformedAmount, s)
	}
	if hasFrac && fracPart == "" {
		return decimal.Zero, fmt.Errorf("%w: missing decimals in %q", ErrMalformedAmount, s)
	}

	canonical := sign + zeroIfEmpty(intPart)
	if hasFrac {
		canonical += "." + fracPart
	}

	amount, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	return amount.Round(AmountPlaces), nil
}

// FormatAmount renders a decimal as German comma-decimal with dot thousands separators
func FormatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(AmountPlaces)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(AmountPlaces).IsNegative() {
		b.WriteByte('-')
	}

	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}

	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// ParseBool interprets the yes/no flags of the export
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ja", "yes", "true", "1", "wahr":
		return true
	default:
		return false
	}
}

func parseDigits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen || !allDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

package importer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"finance-tracker/internal/locale"

	"github.com/shopspring/decimal"
)

const (
	// SourceFinanzguru is the provenance tag of imported rows
	SourceFinanzguru = "finanzguru"
	DefaultCurrency  = "EUR"
)

var (
	ErrMissingColumns     = errors.New("missing required columns")
	ErrMissingCounterpart = errors.New("counterparty and description are both empty")
)

// Row is one source row keyed by the file's own column labels
type Row map[string]string

// RowError describes why a single row could not be normalized
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Candidate is a normalized transaction that has not been persisted yet
type Candidate struct {
	Row                int
	Date               time.Time
	Amount             decimal.Decimal
	Currency           string
	Counterparty       string
	CounterpartyIBAN   string
	Description        string
	AccountName        string
	AccountIBANLast4   string
	BalanceAfter       *decimal.Decimal
	ERef               string
	MandateRef         string
	CreditorID         string
	MainCategory       string
	Subcategory        string
	ContractName       string
	ContractFrequency  string
	ContractID         string
	IsTransfer         bool
	ExcludedFromBudget bool
	TransactionType    string
	AnalysisAmount     *decimal.Decimal
	Week               string
	Month              string
	Quarter            string
	Year               string
	Tags               []string
	Notes              string
}

// Normalizer turns source rows into candidates using the column dictionary
type Normalizer struct {
	fields map[string]Field
}

// NewNormalizer resolves the header once so rows can be normalized by label lookup
func NewNormalizer(header []string) (*Normalizer, error) {
	fields := make(map[string]Field, len(header))
	present := make(map[Field]bool, len(header))
	for _, label := range header {
		field, ok := FieldForHeader(label)
		if !ok {
			continue
		}
		fields[label] = field
		present[field] = true
	}

	var missing []string
	for _, field := range RequiredFields {
		if !present[field] {
			missing = append(missing, LabelFor(field))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return &Normalizer{fields: fields}, nil
}

// Normalize maps one row. The returned error is always a *RowError.
func (n *Normalizer) Normalize(number int, row Row) (*Candidate, error) {
	values := make(map[Field]string, len(row))
	for label, raw := range row {
		if field, ok := n.fields[label]; ok {
			values[field] = strings.TrimSpace(raw)
		}
	}

	date, err := locale.ParseDate(values[FieldDate])
	if err != nil {
		return nil, &RowError{Row: number, Err: err}
	}

	amount, err := locale.ParseAmount(values[FieldAmount])
	if err != nil {
		return nil, &RowError{Row: number, Err: err}
	}

	c := &Candidate{
		Row:          number,
		Date:         date,
		Amount:       amount,
		Currency:     DefaultCurrency,
		Counterparty: values[FieldCounterparty],
		Description:  values[FieldDescription],
	}
	if c.Counterparty == "" && c.Description == "" {
		return nil, &RowError{Row: number, Err: ErrMissingCounterpart}
	}

	if v := values[FieldCurrency]; v != "" {
		c.Currency = strings.ToUpper(v)
	}
	if v := values[FieldAccountIBAN]; len(v) >= 4 {
		c.AccountIBANLast4 = v[len(v)-4:]
	}

	c.AccountName = values[FieldAccountName]
	c.CounterpartyIBAN = values[FieldCounterpartyIBAN]
	c.ERef = values[FieldERef]
	c.MandateRef = values[FieldMandateRef]
	c.CreditorID = values[FieldCreditorID]
	c.MainCategory = values[FieldCategory]
	c.Subcategory = values[FieldSubcategory]
	c.ContractName = values[FieldContract]
	c.ContractFrequency = values[FieldContractFrequency]
	c.ContractID = values[FieldContractID]
	c.TransactionType = values[FieldTransactionType]
	c.Week = values[FieldWeek]
	c.Month = values[FieldMonth]
	c.Quarter = values[FieldQuarter]
	c.Year = values[FieldYear]
	c.Notes = values[FieldNotes]
	c.IsTransfer = locale.ParseBool(values[FieldIsTransfer])
	c.ExcludedFromBudget = locale.ParseBool(values[FieldExcludedFromBudget])
	c.BalanceAfter = optionalAmount(values[FieldBalance])
	c.AnalysisAmount = optionalAmount(values[FieldAnalysisAmount])
	c.Tags = splitTags(values[FieldTags])

	return c, nil
}

// optionalAmount drops malformed values instead of failing the row
func optionalAmount(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	amount, err := locale.ParseAmount(raw)
	if err != nil {
		return nil
	}
	return &amount
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

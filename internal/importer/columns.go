package importer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Field is the internal name of a normalized transaction attribute
type Field string

const (
	FieldDate               Field = "date"
	FieldAccountIBAN        Field = "account_iban"
	FieldAccountName        Field = "account_name"
	FieldAmount             Field = "amount"
	FieldBalance            Field = "balance"
	FieldCurrency           Field = "currency"
	FieldCounterparty       Field = "counterparty"
	FieldCounterpartyIBAN   Field = "counterparty_iban"
	FieldDescription        Field = "description"
	FieldERef               Field = "e_ref"
	FieldMandateRef         Field = "mandate_ref"
	FieldCreditorID         Field = "creditor_id"
	FieldCategory           Field = "category"
	FieldSubcategory        Field = "subcategory"
	FieldContract           Field = "contract"
	FieldContractFrequency  Field = "contract_frequency"
	FieldContractID         Field = "contract_id"
	FieldIsTransfer         Field = "is_transfer"
	FieldExcludedFromBudget Field = "excluded_from_budget"
	FieldTransactionType    Field = "transaction_type"
	FieldAnalysisAmount     Field = "analysis_amount"
	FieldWeek               Field = "week"
	FieldMonth              Field = "month"
	FieldQuarter            Field = "quarter"
	FieldYear               Field = "year"
	FieldTags               Field = "tags"
	FieldNotes              Field = "notes"
)

// Columns maps Finanzguru export labels to internal fields
var Columns = map[string]Field{
	"Buchungstag":                     FieldDate,
	"Referenzkonto":                   FieldAccountIBAN,
	"Name Referenzkonto":              FieldAccountName,
	"Betrag":                          FieldAmount,
	"Kontostand":                      FieldBalance,
	"Waehrung":                        FieldCurrency,
	"Beguenstigter/Auftraggeber":      FieldCounterparty,
	"IBAN Beguenstigter/Auftraggeber": FieldCounterpartyIBAN,
	"Verwendungszweck":                FieldDescription,
	"E-Ref":                           FieldERef,
	"Mandatsreferenz":                 FieldMandateRef,
	"Glaeubiger-ID":                   FieldCreditorID,
	"Analyse-Hauptkategorie":          FieldCategory,
	"Analyse-Unterkategorie":          FieldSubcategory,
	"Analyse-Vertrag":                 FieldContract,
	"Analyse-Vertragsturnus":          FieldContractFrequency,
	"Analyse-Vertrags-ID":             FieldContractID,
	"Analyse-Umbuchung":               FieldIsTransfer,
	"Analyse-Vom frei verfuegbaren Einkommen ausgeschlossen": FieldExcludedFromBudget,
	"Analyse-Umsatzart": FieldTransactionType,
	"Analyse-Betrag":    FieldAnalysisAmount,
	"Analyse-Woche":     FieldWeek,
	"Analyse-Monat":     FieldMonth,
	"Analyse-Quartal":   FieldQuarter,
	"Analyse-Jahr":      FieldYear,
	"Tags":              FieldTags,
	"Notiz":             FieldNotes,
}

// RequiredFields must be present as columns for a file to be importable
var RequiredFields = []Field{FieldDate, FieldAmount, FieldCounterparty, FieldDescription}

// numericFields hold amounts that spreadsheet containers may store as native numbers
var numericFields = map[Field]bool{
	FieldAmount:         true,
	FieldBalance:        true,
	FieldAnalysisAmount: true,
}

var (
	umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

	columnsByKey = buildColumnIndex()
)

func buildColumnIndex() map[string]Field {
	index := make(map[string]Field, len(Columns))
	for label, field := range Columns {
		index[headerKey(label)] = field
	}
	return index
}

// headerKey folds a column label so that "Währung", "WAEHRUNG" and "Waehrung" collide.
// Decomposed umlauts from some spreadsheet tools are composed first.
func headerKey(label string) string {
	key := norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(label, "\ufeff")))
	// a Caser is stateful and must not be shared between goroutines
	key = cases.Fold().String(key)
	key = umlauts.Replace(key)
	return strings.Join(strings.Fields(key), " ")
}

// FieldForHeader resolves a raw header label to its internal field
func FieldForHeader(label string) (Field, bool) {
	field, ok := columnsByKey[headerKey(label)]
	return field, ok
}

// LabelFor returns the export label of a field
func LabelFor(field Field) string {
	for label, f := range Columns {
		if f == field {
			return label
		}
	}
	return string(field)
}

package services

import (
	"sort"
	"strings"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// MinMatchScore is the lowest total score a candidate needs to be reported
	MinMatchScore    = 10.0
	MaxMatchResults  = 10
	MatchWindowDays  = 7
	MatchPoolLimit   = 100
	minSharedWordLen = 4
)

var (
	oneCent   = decimal.RequireFromString("0.01")
	oneEuro   = decimal.NewFromInt(1)
	fiveEuros = decimal.NewFromInt(5)
)

// ReceiptFields are the extracted values a receipt is matched on
type ReceiptFields struct {
	Merchant string
	Date     *time.Time
	Total    *decimal.Decimal
}

// FieldsFromExtraction picks the matchable values out of validated OCR data
func FieldsFromExtraction(data *models.ExtractedData) ReceiptFields {
	if data == nil {
		return ReceiptFields{}
	}
	return ReceiptFields{Merchant: data.Merchant, Date: data.Date, Total: data.Total}
}

// Score adds up the date, amount and merchant points of one candidate
func Score(fields ReceiptFields, tx *models.Transaction) float64 {
	return dateScore(fields.Date, tx.Date) +
		amountScore(fields.Total, tx.Amount) +
		merchantScore(fields.Merchant, tx.Counterparty)
}

func dateScore(receiptDate *time.Time, txDate time.Time) float64 {
	if receiptDate == nil {
		return 0
	}
	switch days := daysApart(*receiptDate, txDate); {
	case days == 0:
		return 40
	case days <= 2:
		return 30
	case days <= MatchWindowDays:
		return 20
	default:
		return 0
	}
}

func amountScore(total *decimal.Decimal, amount decimal.Decimal) float64 {
	if total == nil {
		return 0
	}
	diff := total.Abs().Sub(amount.Abs()).Abs()
	switch {
	case diff.IsZero():
		return 40
	case diff.LessThanOrEqual(oneCent):
		return 35
	case diff.LessThanOrEqual(oneEuro):
		return 25
	case diff.LessThanOrEqual(fiveEuros):
		return 15
	default:
		return 0
	}
}

func merchantScore(merchant, counterparty string) float64 {
	m, c := foldName(merchant), foldName(counterparty)
	if m == "" || c == "" {
		return 0
	}
	switch {
	case m == c:
		return 20
	case strings.Contains(c, m), strings.Contains(m, c):
		return 15
	case shareWord(m, c):
		return 10
	default:
		return 0
	}
}

func shareWord(a, b string) bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		if len([]rune(w)) >= minSharedWordLen {
			words[w] = true
		}
	}
	for _, w := range strings.Fields(b) {
		if words[w] {
			return true
		}
	}
	return false
}

func daysApart(a, b time.Time) int {
	d := calendarDate(a).Sub(calendarDate(b))
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// Match scores every candidate and returns those reaching minScore, best first.
// Ties go to the closer date, then to the lower transaction id.
func Match(fields ReceiptFields, candidates []models.Transaction, minScore float64, maxResults int) []dto.ReceiptMatch {
	type scored struct {
		tx    *models.Transaction
		score float64
		days  int
	}

	var hits []scored
	for i := range candidates {
		tx := &candidates[i]
		score := Score(fields, tx)
		if score < minScore {
			continue
		}
		days := 0
		if fields.Date != nil {
			days = daysApart(*fields.Date, tx.Date)
		}
		hits = append(hits, scored{tx: tx, score: score, days: days})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].days != hits[j].days {
			return hits[i].days < hits[j].days
		}
		return hits[i].tx.ID.String() < hits[j].tx.ID.String()
	})

	if maxResults > 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	matches := make([]dto.ReceiptMatch, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, dto.ReceiptMatch{
			TransactionID: hit.tx.ID,
			Score:         hit.score,
			Date:          hit.tx.Date,
			Amount:        hit.tx.Amount,
			Counterparty:  hit.tx.Counterparty,
			Description:   hit.tx.Description,
		})
	}
	return matches
}

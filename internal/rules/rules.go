// Package rules matches counterparties against a user's category rules.
package rules

import (
	"strings"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"golang.org/x/text/cases"
)

type compiled struct {
	id         uuid.UUID
	pattern    string
	categoryID uuid.UUID
}

// Set is an ordered, immutable list of glob rules. The zero value matches nothing.
type Set struct {
	rules []compiled
}

// NewSet keeps the order of rules, which repositories return by priority
func NewSet(rules []models.CategoryRule) *Set {
	fold := cases.Fold()
	set := &Set{rules: make([]compiled, 0, len(rules))}
	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			continue
		}
		set.rules = append(set.rules, compiled{
			id:         rule.ID,
			pattern:    fold.String(pattern),
			categoryID: rule.CategoryID,
		})
	}
	return set
}

// Match returns the category of the first rule whose pattern matches the counterparty.
// Matching ignores case; "*" matches any run of characters.
func (s *Set) Match(counterparty string) (categoryID, ruleID uuid.UUID, ok bool) {
	if s == nil || counterparty == "" {
		return uuid.Nil, uuid.Nil, false
	}

	name := cases.Fold().String(strings.TrimSpace(counterparty))
	for _, rule := range s.rules {
		if glob.Glob(rule.pattern, name) {
			return rule.categoryID, rule.id, true
		}
	}
	return uuid.Nil, uuid.Nil, false
}

// Len is the number of usable rules
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

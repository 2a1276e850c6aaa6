package services

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchStrategy picks one of candidates for a suggested name. Strategies are pure.
type MatchStrategy func(suggested string, candidates []string) (string, bool)

// DefaultMatchStrategies is the order in which suggested names are resolved
var DefaultMatchStrategies = []MatchStrategy{
	MatchExact,
	MatchSubstring,
	MatchWordOverlap,
	MatchFirst,
}

// CategoryMatcher runs strategies in order until one produces a candidate
type CategoryMatcher struct {
	strategies []MatchStrategy
}

func NewCategoryMatcher(strategies ...MatchStrategy) *CategoryMatcher {
	if len(strategies) == 0 {
		strategies = DefaultMatchStrategies
	}
	return &CategoryMatcher{strategies: strategies}
}

// Match returns UncategorizedName when there are no candidates
func (m *CategoryMatcher) Match(suggested string, candidates []string) string {
	if len(candidates) == 0 {
		return uncategorized
	}
	for _, strategy := range m.strategies {
		if name, ok := strategy(suggested, candidates); ok {
			return name
		}
	}
	return candidates[0]
}

func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// MatchExact compares names ignoring case
func MatchExact(suggested string, candidates []string) (string, bool) {
	key := foldName(suggested)
	for _, candidate := range candidates {
		if foldName(candidate) == key {
			return candidate, true
		}
	}
	return "", false
}

// MatchSubstring accepts a candidate contained in the suggestion or the other way round
func MatchSubstring(suggested string, candidates []string) (string, bool) {
	key := foldName(suggested)
	if key == "" {
		return "", false
	}
	for _, candidate := range candidates {
		name := foldName(candidate)
		if name == "" {
			continue
		}
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return candidate, true
		}
	}
	return "", false
}

// MatchWordOverlap picks the candidate sharing the most whitespace-separated words.
// The earliest candidate wins a tie.
func MatchWordOverlap(suggested string, candidates []string) (string, bool) {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(foldName(suggested)) {
		words[w] = struct{}{}
	}
	if len(words) == 0 {
		return "", false
	}

	best, bestScore := "", 0
	for _, candidate := range candidates {
		seen := make(map[string]struct{})
		score := 0
		for _, w := range strings.Fields(foldName(candidate)) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := words[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore > 0
}

// MatchFirst always answers with the first candidate
func MatchFirst(_ string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxBulkCategorize = 100

	defaultSuggestionConfidence = 0.5
	fuzzyMatchPenalty           = 0.7
	fallbackConfidence          = 0.1
	maxReasonLength             = 100
)

var ErrTooManyTransactionIDs = fmt.Errorf("at most %d transaction ids per request", MaxBulkCategorize)

const categorySuggestionPrompt = `Based on this transaction, suggest the most appropriate category:

Transaction details:
- Counterparty: %s
- Description: %s
- Amount: %s EUR

Available categories: %s

Respond with ONLY valid JSON (no explanations):
{
  "category": "category_name",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation"
}

Consider:
- Counterparty name (e.g., REWE = Groceries, Deutsche Bahn = Transport)
- Description keywords
- Amount range (e.g., large amounts might be rent, small amounts might be food)
`

type suggestionAnswer struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

type suggestionService struct {
	categories      CategoryCacheInterface
	transactionRepo repositories.TransactionRepositoryInterface
	llm             LLMClientInterface
	matcher         *CategoryMatcher
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

// NewSuggestionService works without a language model; every suggestion is then a fallback
func NewSuggestionService(
	categories CategoryCacheInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	llm LLMClientInterface,
	matcher *CategoryMatcher,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) SuggestionServiceInterface {
	if matcher == nil {
		matcher = NewCategoryMatcher()
	}
	return &suggestionService{
		categories:      categories,
		transactionRepo: transactionRepo,
		llm:             llm,
		matcher:         matcher,
		metrics:         metrics,
		logger:          logger,
	}
}

// SuggestCategory never fails on model errors; those produce a low-confidence fallback
func (s *suggestionService) SuggestCategory(ctx context.Context, counterparty, description string, amount decimal.Decimal) (*dto.CategorySuggestion, error) {
	topLevel, err := s.categories.TopLevel()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	names := make([]string, 0, len(topLevel))
	for _, c := range topLevel {
		names = append(names, c.Name)
	}

	suggestion, err := s.ask(ctx, counterparty, description, amount, names)
	if err != nil {
		s.logger.Warn("category suggestion failed", "error", err)
		suggestion = fallbackSuggestion(amount, names, err)
		s.count("fallback")
	} else {
		s.count("llm")
	}

	suggestion.CategoryID = categoryIDFor(topLevel, suggestion.Category)
	return suggestion, nil
}

func (s *suggestionService) ask(ctx context.Context, counterparty, description string, amount decimal.Decimal, names []string) (*dto.CategorySuggestion, error) {
	if s.llm == nil {
		return nil, ErrLLMUnavailable
	}

	if counterparty = strings.TrimSpace(counterparty); counterparty == "" {
		counterparty = "Unknown"
	}
	if description = strings.TrimSpace(description); description == "" {
		description = "No description"
	}
	prompt := fmt.Sprintf(categorySuggestionPrompt, counterparty, description, amount.StringFixed(2), strings.Join(names, ", "))

	answer, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed suggestionAnswer
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return nil, fmt.Errorf("invalid suggestion answer: %w", err)
	}

	confidence := defaultSuggestionConfidence
	if parsed.Confidence != nil {
		confidence = clamp(*parsed.Confidence, 0, 1)
	}

	category := strings.TrimSpace(parsed.Category)
	if !slices.Contains(names, category) {
		category = s.matcher.Match(category, names)
		confidence *= fuzzyMatchPenalty
	}

	return &dto.CategorySuggestion{
		Category:   category,
		Confidence: confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}

// BulkCategorize suggests a category for each of the user's transactions in order
func (s *suggestionService) BulkCategorize(ctx context.Context, userID uuid.UUID, transactionIDs []uuid.UUID) (*dto.BulkCategorizeResponse, error) {
	if len(transactionIDs) > MaxBulkCategorize {
		return nil, ErrTooManyTransactionIDs
	}

	response := &dto.BulkCategorizeResponse{
		Results: make([]dto.BulkCategorizeResult, 0, len(transactionIDs)),
		Total:   len(transactionIDs),
	}

	for _, id := range transactionIDs {
		result := dto.BulkCategorizeResult{TransactionID: id}

		tx, err := s.transactionRepo.GetByID(userID, id)
		switch {
		case errors.Is(err, repositories.ErrTransactionNotFound):
			result.Error = "Transaction not found"
		case err != nil:
			result.Error = truncate(err.Error(), maxReasonLength)
		default:
			suggestion, err := s.SuggestCategory(ctx, tx.Counterparty, tx.Description, tx.Amount)
			if err != nil {
				result.Error = truncate(err.Error(), maxReasonLength)
				break
			}
			result.SuggestedCategory = suggestion.Category
			result.CategoryID = suggestion.CategoryID
			result.Confidence = suggestion.Confidence
		}

		if result.Error != "" {
			response.Failed++
		} else {
			response.Successful++
		}
		response.Results = append(response.Results, result)
	}

	return response, nil
}

func (s *suggestionService) count(source string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter("category_suggestion", map[string]string{"source": source})
	}
}

// fallbackSuggestion prefers an expense or income category by amount sign
func fallbackSuggestion(amount decimal.Decimal, names []string, cause error) *dto.CategorySuggestion {
	category := uncategorized
	if len(names) > 0 {
		category = names[0]
	}

	keyword := ""
	switch {
	case amount.IsNegative():
		keyword = "expense"
	case amount.IsPositive():
		keyword = "income"
	}
	if keyword != "" {
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), keyword) {
				category = name
				break
			}
		}
	}

	return &dto.CategorySuggestion{
		Category:   category,
		Confidence: fallbackConfidence,
		Reasoning:  "AI error: " + truncate(cause.Error(), maxReasonLength),
	}
}

func categoryIDFor(categories []models.Category, name string) *uuid.UUID {
	for i := range categories {
		if categories[i].Name == name {
			id := categories[i].ID
			return &id
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

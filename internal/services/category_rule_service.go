package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/rules"

	"github.com/google/uuid"
)

// DefaultRulePriority is used when a rule is created without one
const DefaultRulePriority = 100

var (
	ErrCategoryRuleNotFound = errors.New("category rule not found")
	ErrInvalidRulePattern   = errors.New("rule pattern must contain more than wildcards")
)

type categoryRuleService struct {
	ruleRepo     repositories.CategoryRuleRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	logger       *slog.Logger
}

func NewCategoryRuleService(
	ruleRepo repositories.CategoryRuleRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	logger *slog.Logger,
) CategoryRuleServiceInterface {
	return &categoryRuleService{
		ruleRepo:     ruleRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

func (s *categoryRuleService) List(userID uuid.UUID) ([]models.CategoryRule, error) {
	list, err := s.ruleRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	return list, nil
}

func (s *categoryRuleService) Create(userID uuid.UUID, req *dto.CreateCategoryRuleRequest) (*models.CategoryRule, error) {
	pattern := strings.TrimSpace(req.Pattern)
	if strings.Trim(pattern, "* ") == "" {
		return nil, ErrInvalidRulePattern
	}

	if _, err := s.categoryRepo.GetByID(req.CategoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	priority := DefaultRulePriority
	if req.Priority != nil {
		priority = *req.Priority
	}

	rule := &models.CategoryRule{
		UserID:     userID,
		Pattern:    pattern,
		CategoryID: req.CategoryID,
		Priority:   priority,
	}
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, fmt.Errorf("failed to create category rule: %w", err)
	}

	s.logger.Info("category rule created", "user_id", userID, "rule_id", rule.ID, "pattern", rule.Pattern)
	return rule, nil
}

func (s *categoryRuleService) Delete(userID, id uuid.UUID) error {
	if err := s.ruleRepo.Delete(userID, id); err != nil {
		if errors.Is(err, repositories.ErrCategoryRuleNotFound) {
			return ErrCategoryRuleNotFound
		}
		return fmt.Errorf("failed to delete category rule: %w", err)
	}
	return nil
}

// RulesFor compiles the user's rules in priority order
func (s *categoryRuleService) RulesFor(userID uuid.UUID) (*rules.Set, error) {
	list, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	return rules.NewSet(list), nil
}

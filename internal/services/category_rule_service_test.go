package services

import (
	"log/slog"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type CategoryRuleServiceTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	ruleRepo     *repository_mocks.MockCategoryRuleRepositoryInterface
	categoryRepo *repository_mocks.MockCategoryRepositoryInterface
	service      CategoryRuleServiceInterface
	userID       uuid.UUID
	category     *models.Category
}

func (s *CategoryRuleServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ruleRepo = repository_mocks.NewMockCategoryRuleRepositoryInterface(s.ctrl)
	s.categoryRepo = repository_mocks.NewMockCategoryRepositoryInterface(s.ctrl)
	s.service = NewCategoryRuleService(s.ruleRepo, s.categoryRepo, slog.Default())
	s.userID = uuid.New()
	s.category = &models.Category{ID: uuid.New(), Name: "Groceries"}
}

func (s *CategoryRuleServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCategoryRuleServiceSuite(t *testing.T) {
	suite.Run(t, new(CategoryRuleServiceTestSuite))
}

func (s *CategoryRuleServiceTestSuite) TestCreate_DefaultPriority() {
	s.categoryRepo.EXPECT().GetByID(s.category.ID).Return(s.category, nil)
	s.ruleRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(rule *models.CategoryRule) error {
		s.Equal(DefaultRulePriority, rule.Priority)
		s.Equal(s.userID, rule.UserID)
		return nil
	})

	rule, err := s.service.Create(s.userID, &dto.CreateCategoryRuleRequest{Pattern: "REWE*", CategoryID: s.category.ID})
	s.NoError(err)
	s.Equal("REWE*", rule.Pattern)
}

func (s *CategoryRuleServiceTestSuite) TestCreate_ExplicitZeroPriority() {
	zero := 0
	s.categoryRepo.EXPECT().GetByID(s.category.ID).Return(s.category, nil)
	s.ruleRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(rule *models.CategoryRule) error {
		s.Equal(0, rule.Priority)
		return nil
	})

	_, err := s.service.Create(s.userID, &dto.CreateCategoryRuleRequest{Pattern: "*Miete*", CategoryID: s.category.ID, Priority: &zero})
	s.NoError(err)
}

func (s *CategoryRuleServiceTestSuite) TestCreate_WildcardOnlyPattern() {
	_, err := s.service.Create(s.userID, &dto.CreateCategoryRuleRequest{Pattern: " ** ", CategoryID: s.category.ID})
	s.ErrorIs(err, ErrInvalidRulePattern)
}

func (s *CategoryRuleServiceTestSuite) TestCreate_UnknownCategory() {
	id := uuid.New()
	s.categoryRepo.EXPECT().GetByID(id).Return(nil, repositories.ErrCategoryNotFound)

	_, err := s.service.Create(s.userID, &dto.CreateCategoryRuleRequest{Pattern: "x", CategoryID: id})
	s.ErrorIs(err, ErrCategoryNotFound)
}

func (s *CategoryRuleServiceTestSuite) TestDelete_NotFound() {
	id := uuid.New()
	s.ruleRepo.EXPECT().Delete(s.userID, id).Return(repositories.ErrCategoryRuleNotFound)

	s.ErrorIs(s.service.Delete(s.userID, id), ErrCategoryRuleNotFound)
}

func (s *CategoryRuleServiceTestSuite) TestRulesFor() {
	s.ruleRepo.EXPECT().ListByUser(s.userID).Return([]models.CategoryRule{
		{ID: uuid.New(), Pattern: "rewe*", CategoryID: s.category.ID},
	}, nil)

	set, err := s.service.RulesFor(s.userID)
	s.Require().NoError(err)
	categoryID, _, ok := set.Match("REWE Sagt Danke")
	s.True(ok)
	s.Equal(s.category.ID, categoryID)
}

package handlers

import (
	"context"
	"net/http"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AIHandlerTestSuite struct {
	suite.Suite
	ctrl              *gomock.Controller
	suggestionService *service_mocks.MockSuggestionServiceInterface
	handler           *AIHandler
	e                 *echo.Echo
	userID            uuid.UUID
}

func TestAIHandlerSuite(t *testing.T) {
	suite.Run(t, new(AIHandlerTestSuite))
}

func (s *AIHandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.suggestionService = service_mocks.NewMockSuggestionServiceInterface(s.ctrl)
	s.handler = NewAIHandler(s.suggestionService)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *AIHandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AIHandlerTestSuite) TestSuggestCategory() {
	s.suggestionService.EXPECT().
		SuggestCategory(gomock.Any(), "REWE Markt", "Einkauf", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, amount decimal.Decimal) (*dto.CategorySuggestion, error) {
			s.True(amount.Equal(decimal.RequireFromString("-23.5")))
			return &dto.CategorySuggestion{Category: "Groceries", Confidence: 0.9}, nil
		})

	c, rec := jsonContext(s.e, http.MethodPost, "/ai/suggest-category", map[string]interface{}{
		"counterparty": "REWE Markt",
		"description":  "Einkauf",
		"amount":       "-23.50",
	}, &s.userID)

	s.Require().NoError(s.handler.SuggestCategory(c))
	s.Equal(http.StatusOK, rec.Code)

	var suggestion dto.CategorySuggestion
	decodeData(s.T(), rec, &suggestion)
	s.Equal("Groceries", suggestion.Category)
	s.Equal(0.9, suggestion.Confidence)
}

func (s *AIHandlerTestSuite) TestSuggestCategory_NothingToCategorize() {
	c, _ := jsonContext(s.e, http.MethodPost, "/ai/suggest-category", map[string]interface{}{
		"amount": "-1",
	}, &s.userID)

	s.Error(s.handler.SuggestCategory(c))
}

func (s *AIHandlerTestSuite) TestCategorizeBulk() {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	s.suggestionService.EXPECT().BulkCategorize(gomock.Any(), s.userID, ids).Return(&dto.BulkCategorizeResponse{
		Results: []dto.BulkCategorizeResult{
			{TransactionID: ids[0], SuggestedCategory: "Groceries", Confidence: 0.8},
			{TransactionID: ids[1], Error: "Transaction not found"},
		},
		Total:      2,
		Successful: 1,
		Failed:     1,
	}, nil)

	c, rec := jsonContext(s.e, http.MethodPost, "/ai/categorize-bulk", map[string]interface{}{
		"transaction_ids": ids,
	}, &s.userID)

	s.Require().NoError(s.handler.CategorizeBulk(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.BulkCategorizeResponse
	decodeData(s.T(), rec, &resp)
	s.Equal(1, resp.Failed)
}

func (s *AIHandlerTestSuite) TestCategorizeBulk_TooMany() {
	ids := make([]uuid.UUID, 101)
	for i := range ids {
		ids[i] = uuid.New()
	}

	c, rec := jsonContext(s.e, http.MethodPost, "/ai/categorize-bulk", map[string]interface{}{
		"transaction_ids": ids,
	}, &s.userID)

	s.Require().NoError(s.handler.CategorizeBulk(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("AI_002", decodeError(s.T(), rec).Code)
}

func (s *AIHandlerTestSuite) TestCategorizeBulk_Empty() {
	c, _ := jsonContext(s.e, http.MethodPost, "/ai/categorize-bulk", map[string]interface{}{
		"transaction_ids": []uuid.UUID{},
	}, &s.userID)

	s.Error(s.handler.CategorizeBulk(c))
}

package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ResponseTestSuite defines the test suite for error responses
type ResponseTestSuite struct {
	suite.Suite
	traceID string
}

func (s *ResponseTestSuite) SetupTest() {
	s.traceID = "550e8400-e29b-41d4-a716-446655440000"
}

func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestNewErrorResponse_Defaults() {
	response := NewErrorResponse(BudgetNotFound, s.traceID)

	s.Equal("BUDGET_001", response.Error.Code)
	s.Equal("Budget not found", response.Error.Message)
	s.Equal(s.traceID, response.Error.TraceID)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestNewErrorResponse_Options() {
	response := NewErrorResponse(
		ImportMissingColumns,
		s.traceID,
		WithMessage("Missing Betrag"),
		WithDetails("Betrag", "Buchungstag"),
	)

	s.Equal("IMPORT_003", response.Error.Code)
	s.Equal("Missing Betrag", response.Error.Message)
	s.Equal([]string{"Betrag", "Buchungstag"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestWithDetails_LastWins() {
	response := NewErrorResponse(ValidationGeneral, s.traceID,
		WithDetails("detail1", "detail2"),
		WithDetails("detail3"),
	)
	s.Equal([]string{"detail3"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestNewValidationError_FieldMap() {
	response := NewValidationError(map[string]string{
		"amount": "must be greater than 0",
		"period": "is required",
	}, s.traceID)

	s.Equal("VALIDATION_001", response.Error.Code)
	s.Equal("Validation failed", response.Error.Message)
	s.Equal([]string{"amount: must be greater than 0", "period: is required"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestWrapSystemError_HidesInternals() {
	internalErr := errors.New("pq: relation \"transactions\" does not exist")

	response, originalErr := WrapSystemError(internalErr, s.traceID)

	s.Equal("SYSTEM_001", response.Error.Code)
	s.NotContains(response.Error.Message, "relation")
	s.Empty(response.Error.Details)
	s.Equal(internalErr, originalErr)
}

func (s *ResponseTestSuite) TestMarshal_Envelope() {
	response := NewErrorResponse(ReceiptNotFound, s.traceID, WithDetails("receipt_id: 123"))

	jsonBytes, err := json.Marshal(response)
	s.Require().NoError(err)

	var jsonMap map[string]interface{}
	s.Require().NoError(json.Unmarshal(jsonBytes, &jsonMap))

	errorObj := jsonMap["error"].(map[string]interface{})
	s.Equal("RECEIPT_001", errorObj["code"])
	s.Equal("Receipt not found", errorObj["message"])
	s.Equal(s.traceID, errorObj["trace_id"])
	s.IsType([]interface{}{}, errorObj["details"])
}

func (s *ResponseTestSuite) TestMarshal_EmptyDetailsOmitted() {
	jsonBytes, err := json.Marshal(NewErrorResponse(AuthInvalidCredentials, s.traceID))
	s.Require().NoError(err)

	var jsonMap map[string]interface{}
	s.Require().NoError(json.Unmarshal(jsonBytes, &jsonMap))
	_, hasDetails := jsonMap["error"].(map[string]interface{})["details"]
	s.False(hasDetails)
}

func (s *ResponseTestSuite) TestGetHTTPStatus() {
	testCases := []struct {
		code           ErrorCode
		expectedStatus int
	}{
		{ValidationGeneral, http.StatusBadRequest},
		{ValidationInvalidID, http.StatusBadRequest},
		{BudgetInvalidPeriod, http.StatusBadRequest},
		{AITooManyIDs, http.StatusBadRequest},
		{AuthInvalidCredentials, http.StatusUnauthorized},
		{AuthExpiredToken, http.StatusUnauthorized},
		{AuthAccountInactive, http.StatusForbidden},
		{TransactionNotFound, http.StatusNotFound},
		{CategoryNotFound, http.StatusNotFound},
		{ReceiptNotFound, http.StatusNotFound},
		{AuthEmailTaken, http.StatusConflict},
		{CategoryHasChildren, http.StatusConflict},
		{CategoryInUse, http.StatusConflict},
		{ReceiptFileTooLarge, http.StatusRequestEntityTooLarge},
		{ImportUnsupportedFormat, http.StatusUnsupportedMediaType},
		{ReceiptUnsupportedType, http.StatusUnsupportedMediaType},
		{ImportMissingColumns, http.StatusUnprocessableEntity},
		{CategoryCycle, http.StatusUnprocessableEntity},
		{BudgetCategoryMissing, http.StatusUnprocessableEntity},
		{SystemRateLimitExceeded, http.StatusTooManyRequests},
		{AIServiceUnavailable, http.StatusServiceUnavailable},
		{ImportPartialFailure, http.StatusInternalServerError},
		{SystemInternalError, http.StatusInternalServerError},
		{"UNKNOWN_999", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Equal(tc.expectedStatus, GetHTTPStatus(tc.code))
		})
	}
}

func (s *ResponseTestSuite) TestIsServerError() {
	s.False(NewErrorResponse(BudgetNotFound, s.traceID).IsServerError())
	s.True(NewErrorResponse(SystemDatabaseError, s.traceID).IsServerError())
	s.True(NewErrorResponse(ImportPartialFailure, s.traceID).IsServerError())
}

func (s *ResponseTestSuite) TestEveryRegisteredCodeHasStatus() {
	for code := range errorMessages {
		status := GetHTTPStatus(code)
		s.GreaterOrEqual(status, 400, string(code))
		s.Less(status, 600, string(code))
	}
}

func (s *ResponseTestSuite) TestString() {
	str := NewErrorResponse(CategoryNotFound, s.traceID).String()
	s.Contains(str, "CATEGORY_001")
	s.Contains(str, "Category not found")
	s.Contains(str, s.traceID)
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/importer"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const sampleExport = "Buchungstag;Betrag;Beguenstigter/Auftraggeber;Verwendungszweck\n" +
	"03.01.2024;-12,34;REWE Markt;Einkauf\n"

type TransactionHandlerTestSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	transactionService *service_mocks.MockTransactionServiceInterface
	importService      *service_mocks.MockImportServiceInterface
	handler            *TransactionHandler
	e                  *echo.Echo
	userID             uuid.UUID
}

func TestTransactionHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}

func (s *TransactionHandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.transactionService = service_mocks.NewMockTransactionServiceInterface(s.ctrl)
	s.importService = service_mocks.NewMockImportServiceInterface(s.ctrl)
	s.handler = NewTransactionHandler(s.transactionService, s.importService)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *TransactionHandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *TransactionHandlerTestSuite) transaction() *models.Transaction {
	return &models.Transaction{
		ID:           uuid.New(),
		UserID:       s.userID,
		Date:         time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString("-12.34"),
		Currency:     "EUR",
		Counterparty: "REWE Markt",
		Source:       models.TransactionSourceFinanzguru,
	}
}

func (s *TransactionHandlerTestSuite) TestListTransactions_BindsQuery() {
	want := dto.TransactionQuery{
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
		CategoryID: "",
		Search:     "rewe",
		Offset:     10,
		Limit:      5,
	}
	s.transactionService.EXPECT().List(s.userID, want).Return(&dto.ListTransactionsResponse{
		Transactions: []models.Transaction{*s.transaction()},
		Pagination:   dto.PaginationInfo{Offset: 10, Limit: 5, Total: 11},
	}, nil)

	c, rec := jsonContext(s.e, http.MethodGet,
		"/transactions?start_date=2024-01-01&end_date=2024-01-31&search=rewe&offset=10&limit=5", nil, &s.userID)

	s.Require().NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total":11`)
}

func (s *TransactionHandlerTestSuite) TestListTransactions_InvalidDate() {
	s.transactionService.EXPECT().List(s.userID, gomock.Any()).
		Return(nil, fmt.Errorf("%w: %q", services.ErrInvalidDate, "01.01.2024"))

	c, rec := jsonContext(s.e, http.MethodGet, "/transactions?start_date=01.01.2024", nil, &s.userID)

	s.Require().NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_006", decodeError(s.T(), rec).Code)
}

func (s *TransactionHandlerTestSuite) TestListTransactions_Unauthorized() {
	c, rec := jsonContext(s.e, http.MethodGet, "/transactions", nil, nil)

	s.Require().NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestGetStatistics() {
	s.transactionService.EXPECT().Statistics(s.userID, gomock.Any()).Return(&models.TransactionStatistics{
		TotalIncome:   decimal.NewFromInt(2500),
		TotalExpenses: decimal.NewFromInt(900),
		Balance:       decimal.NewFromInt(1600),
		Count:         14,
	}, nil)

	c, rec := jsonContext(s.e, http.MethodGet, "/transactions/statistics", nil, &s.userID)

	s.Require().NoError(s.handler.GetStatistics(c))
	s.Equal(http.StatusOK, rec.Code)

	var stats models.TransactionStatistics
	decodeData(s.T(), rec, &stats)
	s.Equal(int64(14), stats.Count)
	s.True(stats.Balance.Equal(decimal.NewFromInt(1600)))
}

func (s *TransactionHandlerTestSuite) TestGetTransaction() {
	tx := s.transaction()
	s.transactionService.EXPECT().Get(s.userID, tx.ID).Return(tx, nil)

	c, rec := jsonContext(s.e, http.MethodGet, "/", nil, &s.userID)
	withID(c, tx.ID.String())

	s.Require().NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_InvalidID() {
	c, rec := jsonContext(s.e, http.MethodGet, "/", nil, &s.userID)
	withID(c, "not-a-uuid")

	s.Require().NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_007", decodeError(s.T(), rec).Code)
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	id := uuid.New()
	s.transactionService.EXPECT().Get(s.userID, id).Return(nil, services.ErrTransactionNotFound)

	c, rec := jsonContext(s.e, http.MethodGet, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("TRANSACTION_001", decodeError(s.T(), rec).Code)
}

func (s *TransactionHandlerTestSuite) TestCreateTransaction() {
	s.transactionService.EXPECT().
		Create(s.userID, gomock.Any()).
		DoAndReturn(func(_ uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
			s.Equal("2024-02-01", req.Date)
			s.True(req.Amount.Equal(decimal.RequireFromString("-4.5")))
			return s.transaction(), nil
		})

	c, rec := jsonContext(s.e, http.MethodPost, "/transactions", map[string]interface{}{
		"date":         "2024-02-01",
		"amount":       -4.5,
		"counterparty": "Bäckerei",
	}, &s.userID)

	s.Require().NoError(s.handler.CreateTransaction(c))
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestCreateTransaction_ValidationError() {
	c, _ := jsonContext(s.e, http.MethodPost, "/transactions", map[string]interface{}{
		"date":   "01.02.2024",
		"amount": 3,
	}, &s.userID)

	s.Error(s.handler.CreateTransaction(c))
}

func (s *TransactionHandlerTestSuite) TestUpdateTransaction_SubcategoryMismatch() {
	id := uuid.New()
	s.transactionService.EXPECT().Update(s.userID, id, gomock.Any()).Return(nil, services.ErrSubcategoryMismatch)

	c, rec := jsonContext(s.e, http.MethodPatch, "/", map[string]string{
		"category_id":    uuid.NewString(),
		"subcategory_id": uuid.NewString(),
	}, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("TRANSACTION_002", decodeError(s.T(), rec).Code)
}

func (s *TransactionHandlerTestSuite) TestDeleteTransaction() {
	id := uuid.New()
	s.transactionService.EXPECT().Delete(s.userID, id).Return(nil)

	c, rec := jsonContext(s.e, http.MethodDelete, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.DeleteTransaction(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestImportTransactions() {
	s.importService.EXPECT().
		ImportFile(gomock.Any(), s.userID, "export.csv", gomock.Any(), true).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, r io.Reader, _ bool) (*dto.ImportReport, error) {
			content, err := io.ReadAll(r)
			s.Require().NoError(err)
			s.Equal(sampleExport, string(content))
			return &dto.ImportReport{TotalRows: 1, Imported: 1, ErrorDetails: []string{}}, nil
		})

	c, rec := multipartContext(s.T(), s.e, "/transactions/import", "file", "export.csv", []byte(sampleExport), nil, s.userID)

	s.Require().NoError(s.handler.ImportTransactions(c))
	s.Equal(http.StatusOK, rec.Code)

	var report dto.ImportReport
	decodeData(s.T(), rec, &report)
	s.Equal(1, report.Imported)
}

func (s *TransactionHandlerTestSuite) TestImportTransactions_SkipDuplicatesFlag() {
	s.importService.EXPECT().
		ImportFile(gomock.Any(), s.userID, "export.csv", gomock.Any(), false).
		Return(&dto.ImportReport{TotalRows: 1, Skipped: 1, ErrorDetails: []string{}}, nil)

	c, rec := multipartContext(s.T(), s.e, "/transactions/import", "file", "export.csv", []byte(sampleExport),
		map[string]string{"skip_duplicates": "false"}, s.userID)

	s.Require().NoError(s.handler.ImportTransactions(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestImportTransactions_FileRequired() {
	c, rec := multipartContext(s.T(), s.e, "/transactions/import", "", "", nil,
		map[string]string{"skip_duplicates": "true"}, s.userID)

	s.Require().NoError(s.handler.ImportTransactions(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("IMPORT_004", decodeError(s.T(), rec).Code)
}

func (s *TransactionHandlerTestSuite) TestImportTransactions_FileErrors() {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported", fmt.Errorf("%w: .pdf", importer.ErrUnsupportedFormat), http.StatusUnsupportedMediaType, "IMPORT_001"},
		{"malformed", fmt.Errorf("%w: empty file", importer.ErrMalformedFile), http.StatusUnprocessableEntity, "IMPORT_002"},
		{"missing columns", fmt.Errorf("%w: Betrag", importer.ErrMissingColumns), http.StatusUnprocessableEntity, "IMPORT_003"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.importService.EXPECT().
				ImportFile(gomock.Any(), s.userID, gomock.Any(), gomock.Any(), true).
				Return(nil, tc.err)

			c, rec := multipartContext(s.T(), s.e, "/transactions/import", "file", "export.csv", []byte("x"), nil, s.userID)

			s.Require().NoError(s.handler.ImportTransactions(c))
			s.Equal(tc.wantStatus, rec.Code)
			s.Equal(tc.wantCode, decodeError(s.T(), rec).Code)
		})
	}
}

func (s *TransactionHandlerTestSuite) TestImportTransactions_PartialFailure() {
	s.importService.EXPECT().
		ImportFile(gomock.Any(), s.userID, gomock.Any(), gomock.Any(), true).
		Return(&dto.ImportReport{TotalRows: 600, Imported: 500, ErrorDetails: []string{}}, errors.New("connection reset"))

	c, rec := multipartContext(s.T(), s.e, "/transactions/import", "file", "export.csv", []byte(sampleExport), nil, s.userID)

	s.Require().NoError(s.handler.ImportTransactions(c))
	s.Equal(http.StatusInternalServerError, rec.Code)

	detail := decodeError(s.T(), rec)
	s.Equal("IMPORT_005", detail.Code)
	s.Contains(detail.Details, "imported: 500")
}

func (s *TransactionHandlerTestSuite) TestImportTransactions_Cancelled() {
	s.importService.EXPECT().
		ImportFile(gomock.Any(), s.userID, gomock.Any(), gomock.Any(), true).
		Return(&dto.ImportReport{TotalRows: 10, Imported: 0, ErrorDetails: []string{}},
			fmt.Errorf("%w: %v", services.ErrImportCancelled, "context canceled"))

	c, rec := multipartContext(s.T(), s.e, "/transactions/import", "file", "export.csv", []byte(sampleExport), nil, s.userID)

	s.Require().NoError(s.handler.ImportTransactions(c))
	detail := decodeError(s.T(), rec)
	s.Equal("IMPORT_005", detail.Code)
	s.Contains(detail.Details, "import was cancelled")
}

package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type ReceiptHandlerTestSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	receiptService *service_mocks.MockReceiptServiceInterface
	handler        *ReceiptHandler
	e              *echo.Echo
	userID         uuid.UUID
}

func TestReceiptHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReceiptHandlerTestSuite))
}

func (s *ReceiptHandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.receiptService = service_mocks.NewMockReceiptServiceInterface(s.ctrl)
	s.handler = NewReceiptHandler(s.receiptService)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *ReceiptHandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ReceiptHandlerTestSuite) receipt() *models.Receipt {
	return &models.Receipt{
		ID:               uuid.New(),
		UserID:           s.userID,
		OriginalFilename: "kassenbon.jpg",
		MimeType:         "image/jpeg",
		Status:           models.ReceiptStatusPending,
	}
}

func (s *ReceiptHandlerTestSuite) TestUploadReceipt() {
	image := []byte("\xff\xd8\xff\xe0 fake jpeg")
	s.receiptService.EXPECT().
		Upload(gomock.Any(), s.userID, "kassenbon.jpg", int64(len(image)), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, _ int64, r io.Reader) (*models.Receipt, error) {
			content, err := io.ReadAll(r)
			s.Require().NoError(err)
			s.Equal(image, content)
			return s.receipt(), nil
		})

	c, rec := multipartContext(s.T(), s.e, "/receipts", "file", "kassenbon.jpg", image, nil, s.userID)

	s.Require().NoError(s.handler.UploadReceipt(c))
	s.Equal(http.StatusCreated, rec.Code)

	var receipt models.Receipt
	decodeData(s.T(), rec, &receipt)
	s.Equal(models.ReceiptStatusPending, receipt.Status)
}

func (s *ReceiptHandlerTestSuite) TestUploadReceipt_Rejected() {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"too large", services.ErrReceiptTooLarge, http.StatusRequestEntityTooLarge, "RECEIPT_002"},
		{"wrong type", services.ErrReceiptUnsupportedType, http.StatusUnsupportedMediaType, "RECEIPT_003"},
		{"empty", services.ErrReceiptEmpty, http.StatusBadRequest, "RECEIPT_004"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.receiptService.EXPECT().
				Upload(gomock.Any(), s.userID, gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tc.err)

			c, rec := multipartContext(s.T(), s.e, "/receipts", "file", "bon.gif", []byte("GIF89a"), nil, s.userID)

			s.Require().NoError(s.handler.UploadReceipt(c))
			s.Equal(tc.wantStatus, rec.Code)
			s.Equal(tc.wantCode, decodeError(s.T(), rec).Code)
		})
	}
}

func (s *ReceiptHandlerTestSuite) TestUploadReceipt_FileRequired() {
	c, rec := multipartContext(s.T(), s.e, "/receipts", "", "", nil, nil, s.userID)

	s.Require().NoError(s.handler.UploadReceipt(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("RECEIPT_004", decodeError(s.T(), rec).Code)
}

func (s *ReceiptHandlerTestSuite) TestListReceipts_DefaultPaging() {
	s.receiptService.EXPECT().List(s.userID, 0, services.DefaultReceiptListLimit).Return(&dto.ListReceiptsResponse{
		Receipts:   []models.Receipt{*s.receipt()},
		Pagination: dto.PaginationInfo{Limit: services.DefaultReceiptListLimit, Total: 1},
	}, nil)

	c, rec := jsonContext(s.e, http.MethodGet, "/receipts", nil, &s.userID)

	s.Require().NoError(s.handler.ListReceipts(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ReceiptHandlerTestSuite) TestGetReceipt_NotFound() {
	id := uuid.New()
	s.receiptService.EXPECT().Get(s.userID, id).Return(nil, services.ErrReceiptNotFound)

	c, rec := jsonContext(s.e, http.MethodGet, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.GetReceipt(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ReceiptHandlerTestSuite) TestProcessReceipt() {
	receipt := s.receipt()
	receipt.Status = models.ReceiptStatusCompleted
	s.receiptService.EXPECT().Process(gomock.Any(), s.userID, receipt.ID).Return(receipt, nil)

	c, rec := jsonContext(s.e, http.MethodPost, "/", nil, &s.userID)
	withID(c, receipt.ID.String())

	s.Require().NoError(s.handler.ProcessReceipt(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ReceiptHandlerTestSuite) TestProcessReceipt_ExtractionFailed() {
	receipt := s.receipt()
	receipt.Status = models.ReceiptStatusFailed
	receipt.ErrorMessage = "language model is unavailable"
	s.receiptService.EXPECT().
		Process(gomock.Any(), s.userID, receipt.ID).
		Return(receipt, fmt.Errorf("%w: %w", services.ErrReceiptProcessingFailed, services.ErrLLMUnavailable))

	c, rec := jsonContext(s.e, http.MethodPost, "/", nil, &s.userID)
	withID(c, receipt.ID.String())

	s.Require().NoError(s.handler.ProcessReceipt(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	detail := decodeError(s.T(), rec)
	s.Equal("RECEIPT_005", detail.Code)
	s.Equal([]string{"language model is unavailable"}, detail.Details)
}

func (s *ReceiptHandlerTestSuite) TestGetMatches() {
	id := uuid.New()
	txID := uuid.New()
	s.receiptService.EXPECT().Matches(s.userID, id).Return(&dto.ReceiptMatchesResponse{
		ReceiptID: id,
		Matches:   []dto.ReceiptMatch{{TransactionID: txID, Score: 100}},
	}, nil)

	c, rec := jsonContext(s.e, http.MethodGet, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.GetMatches(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.ReceiptMatchesResponse
	decodeData(s.T(), rec, &resp)
	s.Require().Len(resp.Matches, 1)
	s.Equal(txID, resp.Matches[0].TransactionID)
}

func (s *ReceiptHandlerTestSuite) TestLinkReceipt() {
	receipt := s.receipt()
	txID := uuid.New()
	receipt.TransactionID = &txID
	s.receiptService.EXPECT().Link(s.userID, receipt.ID, txID).Return(receipt, nil)

	c, rec := jsonContext(s.e, http.MethodPost, "/", map[string]string{"transaction_id": txID.String()}, &s.userID)
	withID(c, receipt.ID.String())

	s.Require().NoError(s.handler.LinkReceipt(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ReceiptHandlerTestSuite) TestLinkReceipt_AlreadyLinked() {
	id := uuid.New()
	txID := uuid.New()
	s.receiptService.EXPECT().Link(s.userID, id, txID).Return(nil, services.ErrReceiptAlreadyLinked)

	c, rec := jsonContext(s.e, http.MethodPost, "/", map[string]string{"transaction_id": txID.String()}, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.LinkReceipt(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("RECEIPT_006", decodeError(s.T(), rec).Code)
}

func (s *ReceiptHandlerTestSuite) TestLinkReceipt_MissingTransaction() {
	c, _ := jsonContext(s.e, http.MethodPost, "/", map[string]string{}, &s.userID)
	withID(c, uuid.NewString())

	s.Error(s.handler.LinkReceipt(c))
}

func (s *ReceiptHandlerTestSuite) TestUnlinkReceipt_NotLinked() {
	id := uuid.New()
	s.receiptService.EXPECT().Unlink(s.userID, id).Return(nil, services.ErrReceiptNotLinked)

	c, rec := jsonContext(s.e, http.MethodPost, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.UnlinkReceipt(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("RECEIPT_007", decodeError(s.T(), rec).Code)
}

func (s *ReceiptHandlerTestSuite) TestDeleteReceipt() {
	id := uuid.New()
	s.receiptService.EXPECT().Delete(gomock.Any(), s.userID, id).Return(nil)

	c, rec := jsonContext(s.e, http.MethodDelete, "/", nil, &s.userID)
	withID(c, id.String())

	s.Require().NoError(s.handler.DeleteReceipt(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

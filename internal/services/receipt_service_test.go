package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"
	"finance-tracker/internal/services/service_mocks"
	"finance-tracker/internal/storage"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReceiptServiceTestSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	receiptRepo     *repository_mocks.MockReceiptRepositoryInterface
	transactionRepo *repository_mocks.MockTransactionRepositoryInterface
	llm             *service_mocks.MockLLMClientInterface
	metrics         *service_mocks.MockMetricsRecorderInterface
	store           *storage.LocalStore
	service         *receiptService
	ctx             context.Context
	userID          uuid.UUID
}

func (s *ReceiptServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.receiptRepo = repository_mocks.NewMockReceiptRepositoryInterface(s.ctrl)
	s.transactionRepo = repository_mocks.NewMockTransactionRepositoryInterface(s.ctrl)
	s.llm = service_mocks.NewMockLLMClientInterface(s.ctrl)
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)

	store, err := storage.NewLocalStore(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store

	cfg := config.UploadConfig{MaxSize: 64, AllowedExtensions: []string{"jpg", "jpeg", "png", "pdf"}}
	s.service = NewReceiptService(s.receiptRepo, s.transactionRepo, s.store, s.llm, s.metrics, cfg, slog.Default()).(*receiptService)
	s.service.now = func() time.Time { return time.Date(2024, time.March, 16, 9, 0, 0, 0, time.UTC) }

	s.ctx = context.Background()
	s.userID = uuid.New()
}

func (s *ReceiptServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestReceiptServiceSuite(t *testing.T) {
	suite.Run(t, new(ReceiptServiceTestSuite))
}

func (s *ReceiptServiceTestSuite) storedReceipt(content string) *models.Receipt {
	key := storage.ReceiptKey(s.userID, ".png")
	_, err := s.store.Save(s.ctx, key, strings.NewReader(content))
	s.Require().NoError(err)
	return &models.Receipt{
		ID:         uuid.New(),
		UserID:     s.userID,
		StoredPath: key,
		MimeType:   "image/png",
		Status:     models.ReceiptStatusPending,
	}
}

func (s *ReceiptServiceTestSuite) TestUpload() {
	s.receiptRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(r *models.Receipt) error {
		s.Equal("bon.JPG", r.OriginalFilename)
		s.Equal("image/jpeg", r.MimeType)
		s.Equal(int64(5), r.FileSize)
		s.True(strings.HasPrefix(r.StoredPath, s.userID.String()+"/"))
		return nil
	})

	receipt, err := s.service.Upload(s.ctx, s.userID, "bon.JPG", 5, strings.NewReader("image"))
	s.Require().NoError(err)

	file, err := s.store.Open(s.ctx, receipt.StoredPath)
	s.Require().NoError(err)
	defer file.Close()
	content, _ := io.ReadAll(file)
	s.Equal("image", string(content))
}

func (s *ReceiptServiceTestSuite) TestUpload_RejectsExtension() {
	_, err := s.service.Upload(s.ctx, s.userID, "bon.gif", 5, strings.NewReader("image"))
	s.ErrorIs(err, ErrReceiptUnsupportedType)
}

func (s *ReceiptServiceTestSuite) TestUpload_RejectsDeclaredSize() {
	_, err := s.service.Upload(s.ctx, s.userID, "bon.png", 65, strings.NewReader("image"))
	s.ErrorIs(err, ErrReceiptTooLarge)
}

func (s *ReceiptServiceTestSuite) TestUpload_RejectsOversizedBody() {
	_, err := s.service.Upload(s.ctx, s.userID, "bon.png", 1, bytes.NewReader(make([]byte, 100)))
	s.ErrorIs(err, ErrReceiptTooLarge)
}

func (s *ReceiptServiceTestSuite) TestUpload_RemovesFileWhenRecordFails() {
	var key string
	s.receiptRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(r *models.Receipt) error {
		key = r.StoredPath
		return errors.New("insert failed")
	})

	_, err := s.service.Upload(s.ctx, s.userID, "bon.pdf", 5, strings.NewReader("%PDF-"))
	s.Error(err)

	_, err = s.store.Open(s.ctx, key)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *ReceiptServiceTestSuite) TestProcess_Completed() {
	receipt := s.storedReceipt("png-bytes")
	var statuses []string

	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.receiptRepo.EXPECT().Update(receipt).DoAndReturn(func(r *models.Receipt) error {
		statuses = append(statuses, r.Status)
		return nil
	}).Times(2)
	s.llm.EXPECT().ExtractFromImage(gomock.Any(), receiptPrompt, []byte("png-bytes"), "image/png").
		Return(`{"merchant": "REWE", "date": "2024-03-15", "total": 23.47}`, nil)
	s.llm.EXPECT().VisionModel().Return("qwen2.5-vl:7b")
	s.metrics.EXPECT().IncrementCounter("receipt_processed", map[string]string{"status": models.ReceiptStatusCompleted})

	result, err := s.service.Process(s.ctx, s.userID, receipt.ID)
	s.Require().NoError(err)
	s.Equal([]string{models.ReceiptStatusProcessing, models.ReceiptStatusCompleted}, statuses)
	s.Equal("qwen2.5-vl:7b", result.OCRModel)
	s.Require().NotNil(result.ExtractedData)
	s.Equal("REWE", result.ExtractedData.Merchant)
	s.NotNil(result.OCRProcessedAt)
}

func (s *ReceiptServiceTestSuite) TestProcess_Failed() {
	receipt := s.storedReceipt("png-bytes")

	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.receiptRepo.EXPECT().Update(receipt).Return(nil).Times(2)
	s.llm.EXPECT().ExtractFromImage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", ErrLLMUnavailable)
	s.llm.EXPECT().VisionModel().Return("qwen2.5-vl:7b")
	s.metrics.EXPECT().IncrementCounter("receipt_processed", map[string]string{"status": models.ReceiptStatusFailed})

	result, err := s.service.Process(s.ctx, s.userID, receipt.ID)
	s.ErrorIs(err, ErrReceiptProcessingFailed)
	s.Require().NotNil(result)
	s.Equal(models.ReceiptStatusFailed, result.Status)
	s.Contains(result.ErrorMessage, "unavailable")
	s.Nil(result.ExtractedData)
}

func (s *ReceiptServiceTestSuite) TestProcess_FailureClearsEarlierExtraction() {
	receipt := s.storedReceipt("png-bytes")
	total := decimal.RequireFromString("23.47")
	receipt.Status = models.ReceiptStatusCompleted
	receipt.ExtractedData = &models.ExtractedData{Merchant: "REWE", Total: &total}

	var persisted []*models.ExtractedData
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.receiptRepo.EXPECT().Update(receipt).DoAndReturn(func(r *models.Receipt) error {
		persisted = append(persisted, r.ExtractedData)
		return nil
	}).Times(2)
	s.llm.EXPECT().ExtractFromImage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Leider unlesbar", nil)
	s.llm.EXPECT().VisionModel().Return("qwen2.5-vl:7b")
	s.metrics.EXPECT().IncrementCounter("receipt_processed", map[string]string{"status": models.ReceiptStatusFailed})

	result, err := s.service.Process(s.ctx, s.userID, receipt.ID)
	s.ErrorIs(err, ErrReceiptProcessingFailed)
	s.Equal(models.ReceiptStatusFailed, result.Status)
	s.Nil(result.ExtractedData)
	s.Require().Len(persisted, 2)
	s.Nil(persisted[1])
	s.Equal("Leider unlesbar", result.OCRRawText)
}

func (s *ReceiptServiceTestSuite) TestProcess_NotFound() {
	id := uuid.New()
	s.receiptRepo.EXPECT().GetByID(s.userID, id).Return(nil, repositories.ErrReceiptNotFound)

	_, err := s.service.Process(s.ctx, s.userID, id)
	s.ErrorIs(err, ErrReceiptNotFound)
}

func (s *ReceiptServiceTestSuite) TestMatches_UsesDateWindow() {
	day := date(2024, time.March, 15)
	total := decimal.RequireFromString("23.47")
	receipt := &models.Receipt{
		ID:            uuid.New(),
		UserID:        s.userID,
		ExtractedData: &models.ExtractedData{Merchant: "REWE", Date: &day, Total: &total},
	}
	best := candidate("REWE", day, "-23.47")

	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.transactionRepo.EXPECT().
		GetInDateRange(s.userID, date(2024, time.March, 8), date(2024, time.March, 22), MatchPoolLimit).
		Return([]models.Transaction{candidate("Shell", day.AddDate(0, 0, 7), "-80"), best}, nil)

	response, err := s.service.Matches(s.userID, receipt.ID)
	s.Require().NoError(err)
	s.Require().Len(response.Matches, 2)
	s.Equal(best.ID, response.Matches[0].TransactionID)
	s.Equal(100.0, response.Matches[0].Score)
}

func (s *ReceiptServiceTestSuite) TestMatches_WithoutDateUsesRecent() {
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID}
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.transactionRepo.EXPECT().GetRecent(s.userID, MatchPoolLimit).Return(nil, nil)

	response, err := s.service.Matches(s.userID, receipt.ID)
	s.Require().NoError(err)
	s.Empty(response.Matches)
}

func (s *ReceiptServiceTestSuite) TestLink() {
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID}
	txID := uuid.New()

	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.transactionRepo.EXPECT().GetByID(s.userID, txID).Return(&models.Transaction{ID: txID}, nil)
	s.receiptRepo.EXPECT().SetTransaction(s.userID, receipt.ID, &txID).Return(nil)

	linked, err := s.service.Link(s.userID, receipt.ID, txID)
	s.Require().NoError(err)
	s.Equal(txID, *linked.TransactionID)
}

func (s *ReceiptServiceTestSuite) TestLink_ForeignTransaction() {
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID}
	txID := uuid.New()

	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.transactionRepo.EXPECT().GetByID(s.userID, txID).Return(nil, repositories.ErrTransactionNotFound)

	_, err := s.service.Link(s.userID, receipt.ID, txID)
	s.ErrorIs(err, ErrTransactionNotFound)
}

func (s *ReceiptServiceTestSuite) TestLink_AlreadyLinked() {
	other := uuid.New()
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID, TransactionID: &other}
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)

	_, err := s.service.Link(s.userID, receipt.ID, uuid.New())
	s.ErrorIs(err, ErrReceiptAlreadyLinked)
}

func (s *ReceiptServiceTestSuite) TestUnlink() {
	txID := uuid.New()
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID, TransactionID: &txID}
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.receiptRepo.EXPECT().SetTransaction(s.userID, receipt.ID, nil).Return(nil)

	unlinked, err := s.service.Unlink(s.userID, receipt.ID)
	s.Require().NoError(err)
	s.Nil(unlinked.TransactionID)
}

func (s *ReceiptServiceTestSuite) TestUnlink_NotLinked() {
	receipt := &models.Receipt{ID: uuid.New(), UserID: s.userID}
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)

	_, err := s.service.Unlink(s.userID, receipt.ID)
	s.ErrorIs(err, ErrReceiptNotLinked)
}

func (s *ReceiptServiceTestSuite) TestDelete_RemovesFile() {
	receipt := s.storedReceipt("png-bytes")
	s.receiptRepo.EXPECT().GetByID(s.userID, receipt.ID).Return(receipt, nil)
	s.receiptRepo.EXPECT().Delete(s.userID, receipt.ID).Return(nil)

	s.Require().NoError(s.service.Delete(s.ctx, s.userID, receipt.ID))

	_, err := s.store.Open(s.ctx, receipt.StoredPath)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *ReceiptServiceTestSuite) TestList_ClampsLimit() {
	s.receiptRepo.EXPECT().ListByUser(s.userID, 0, MaxReceiptListLimit).Return([]models.Receipt{{ID: uuid.New()}}, int64(120), nil)

	response, err := s.service.List(s.userID, -1, 500)
	s.Require().NoError(err)
	s.Equal(MaxReceiptListLimit, response.Pagination.Limit)
	s.True(response.Pagination.HasMore)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
)

const (
	DefaultReceiptListLimit = 50
	MaxReceiptListLimit     = 100
)

var (
	ErrReceiptNotFound         = errors.New("receipt not found")
	ErrReceiptTooLarge         = errors.New("receipt file exceeds the upload limit")
	ErrReceiptEmpty            = errors.New("receipt file is empty")
	ErrReceiptUnsupportedType  = errors.New("receipt file type is not allowed")
	ErrReceiptAlreadyLinked    = errors.New("receipt is already linked to a transaction")
	ErrReceiptNotLinked        = errors.New("receipt is not linked to a transaction")
	ErrReceiptProcessingFailed = errors.New("receipt could not be processed")
)

var receiptMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

type receiptService struct {
	receiptRepo     repositories.ReceiptRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	store           storage.ReceiptStore
	llm             LLMClientInterface
	metrics         MetricsRecorderInterface
	config          config.UploadConfig
	allowed         map[string]bool
	logger          *slog.Logger
	now             func() time.Time
}

func NewReceiptService(
	receiptRepo repositories.ReceiptRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	store storage.ReceiptStore,
	llm LLMClientInterface,
	metrics MetricsRecorderInterface,
	cfg config.UploadConfig,
	logger *slog.Logger,
) ReceiptServiceInterface {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &receiptService{
		receiptRepo:     receiptRepo,
		transactionRepo: transactionRepo,
		store:           store,
		llm:             llm,
		metrics:         metrics,
		config:          cfg,
		allowed:         allowed,
		logger:          logger,
		now:             time.Now,
	}
}

// Upload stores the file and creates a pending receipt record
func (s *receiptService) Upload(ctx context.Context, userID uuid.UUID, filename string, size int64, r io.Reader) (*models.Receipt, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowed[ext] {
		return nil, fmt.Errorf("%w: %q", ErrReceiptUnsupportedType, filepath.Ext(filename))
	}
	if s.config.MaxSize > 0 && size > s.config.MaxSize {
		return nil, ErrReceiptTooLarge
	}

	body := r
	if s.config.MaxSize > 0 {
		body = io.LimitReader(r, s.config.MaxSize+1)
	}

	key := storage.ReceiptKey(userID, "."+ext)
	written, err := s.store.Save(ctx, key, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}
	if written == 0 || (s.config.MaxSize > 0 && written > s.config.MaxSize) {
		s.removeFile(ctx, key)
		if written == 0 {
			return nil, ErrReceiptEmpty
		}
		return nil, ErrReceiptTooLarge
	}

	receipt := &models.Receipt{
		UserID:           userID,
		OriginalFilename: filepath.Base(filename),
		StoredPath:       key,
		FileSize:         written,
		MimeType:         receiptMimeTypes[ext],
		Status:           models.ReceiptStatusPending,
	}
	if err := s.receiptRepo.Create(receipt); err != nil {
		s.removeFile(ctx, key)
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	s.logger.Info("receipt uploaded", "user_id", userID, "receipt_id", receipt.ID, "size", written)
	return receipt, nil
}

func (s *receiptService) List(userID uuid.UUID, offset, limit int) (*dto.ListReceiptsResponse, error) {
	if limit <= 0 {
		limit = DefaultReceiptListLimit
	}
	if limit > MaxReceiptListLimit {
		limit = MaxReceiptListLimit
	}
	if offset < 0 {
		offset = 0
	}

	receipts, total, err := s.receiptRepo.ListByUser(userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	return &dto.ListReceiptsResponse{
		Receipts: receipts,
		Pagination: dto.PaginationInfo{
			Offset:  offset,
			Limit:   limit,
			Total:   total,
			HasMore: int64(offset+len(receipts)) < total,
		},
	}, nil
}

func (s *receiptService) Get(userID, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrReceiptNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// Delete removes the record first; a file that cannot be removed is only logged
func (s *receiptService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	receipt, err := s.Get(userID, id)
	if err != nil {
		return err
	}

	if err := s.receiptRepo.Delete(userID, id); err != nil {
		if errors.Is(err, repositories.ErrReceiptNotFound) {
			return ErrReceiptNotFound
		}
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	s.removeFile(ctx, receipt.StoredPath)
	return nil
}

// Process runs OCR on the stored file. A failed extraction is persisted on the
// receipt and returned together with ErrReceiptProcessingFailed; it also drops
// data left by an earlier successful run so the receipt stops matching.
func (s *receiptService) Process(ctx context.Context, userID, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	receipt.Status = models.ReceiptStatusProcessing
	receipt.ErrorMessage = ""
	if err := s.receiptRepo.Update(receipt); err != nil {
		return nil, fmt.Errorf("failed to update receipt: %w", err)
	}

	answer, data, procErr := s.extract(ctx, receipt)
	processedAt := s.now()
	receipt.OCRProcessedAt = &processedAt
	if s.llm != nil {
		receipt.OCRModel = s.llm.VisionModel()
	}

	if procErr != nil {
		receipt.Status = models.ReceiptStatusFailed
		receipt.ErrorMessage = procErr.Error()
		receipt.OCRRawText = rawText(answer)
		receipt.ExtractedData = nil
	} else {
		receipt.Status = models.ReceiptStatusCompleted
		receipt.OCRRawText = rawText(answer)
		receipt.ExtractedData = data
	}

	if err := s.receiptRepo.Update(receipt); err != nil {
		return nil, fmt.Errorf("failed to update receipt: %w", err)
	}
	s.recordProcessed(receipt.Status)

	if procErr != nil {
		s.logger.Warn("receipt processing failed", "receipt_id", receipt.ID, "error", procErr)
		return receipt, fmt.Errorf("%w: %v", ErrReceiptProcessingFailed, procErr)
	}

	s.logger.Info("receipt processed", "receipt_id", receipt.ID, "warnings", len(data.Warnings))
	return receipt, nil
}

func (s *receiptService) extract(ctx context.Context, receipt *models.Receipt) (string, *models.ExtractedData, error) {
	if s.llm == nil {
		return "", nil, ErrLLMUnavailable
	}

	file, err := s.store.Open(ctx, receipt.StoredPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open receipt file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read receipt file: %w", err)
	}

	answer, err := s.llm.ExtractFromImage(ctx, receiptPrompt, content, receipt.MimeType)
	if err != nil {
		return "", nil, err
	}

	data, err := ParseExtraction(answer)
	if err != nil {
		return answer, nil, err
	}
	return answer, data, nil
}

// Matches ranks the user's transactions around the receipt date
func (s *receiptService) Matches(userID, id uuid.UUID) (*dto.ReceiptMatchesResponse, error) {
	receipt, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	fields := FieldsFromExtraction(receipt.ExtractedData)

	var pool []models.Transaction
	if fields.Date != nil {
		day := calendarDate(*fields.Date)
		pool, err = s.transactionRepo.GetInDateRange(userID,
			day.AddDate(0, 0, -MatchWindowDays), day.AddDate(0, 0, MatchWindowDays), MatchPoolLimit)
	} else {
		pool, err = s.transactionRepo.GetRecent(userID, MatchPoolLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate transactions: %w", err)
	}

	return &dto.ReceiptMatchesResponse{
		ReceiptID: receipt.ID,
		Matches:   Match(fields, pool, MinMatchScore, MaxMatchResults),
	}, nil
}

// Link attaches the receipt to a transaction; both must belong to the user
func (s *receiptService) Link(userID, id, transactionID uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if receipt.IsLinked() {
		if *receipt.TransactionID == transactionID {
			return receipt, nil
		}
		return nil, ErrReceiptAlreadyLinked
	}

	if _, err := s.transactionRepo.GetByID(userID, transactionID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if err := s.receiptRepo.SetTransaction(userID, id, &transactionID); err != nil {
		return nil, fmt.Errorf("failed to link receipt: %w", err)
	}
	receipt.TransactionID = &transactionID

	s.logger.Info("receipt linked", "receipt_id", id, "transaction_id", transactionID)
	return receipt, nil
}

func (s *receiptService) Unlink(userID, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if !receipt.IsLinked() {
		return nil, ErrReceiptNotLinked
	}

	if err := s.receiptRepo.SetTransaction(userID, id, nil); err != nil {
		return nil, fmt.Errorf("failed to unlink receipt: %w", err)
	}
	receipt.TransactionID = nil
	return receipt, nil
}

func (s *receiptService) removeFile(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to remove receipt file", "key", key, "error", err)
	}
}

func (s *receiptService) recordProcessed(status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementCounter("receipt_processed", map[string]string{"status": status})
}

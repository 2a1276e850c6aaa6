package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/importer"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/rules"

	"github.com/google/uuid"
)

// DefaultImportBatchSize bounds the rows held in memory between inserts
const DefaultImportBatchSize = 500

var ErrImportCancelled = errors.New("import cancelled")

type importService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	categories      CategoryCacheInterface
	ruleService     CategoryRuleServiceInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
	batchSize       int
}

func NewImportService(
	transactionRepo repositories.TransactionRepositoryInterface,
	categories CategoryCacheInterface,
	ruleService CategoryRuleServiceInterface,
	metrics MetricsRecorderInterface,
	cfg config.ImportConfig,
	logger *slog.Logger,
) ImportServiceInterface {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	return &importService{
		transactionRepo: transactionRepo,
		categories:      categories,
		ruleService:     ruleService,
		metrics:         metrics,
		logger:          logger,
		batchSize:       batchSize,
	}
}

// ImportFile streams the export row by row. Duplicates are always skipped; the flag is
// accepted for API compatibility. A container error returns no report. A failed batch
// insert returns the totals so far together with the error, earlier batches stay committed.
func (s *importService) ImportFile(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, skipDuplicates bool) (*dto.ImportReport, error) {
	start := time.Now()

	reader, format, err := importer.Open(filename, r)
	if err != nil {
		s.recordImport(format, "invalid_file")
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			s.logger.Warn("failed to close import reader", "error", cerr, "user_id", userID)
		}
	}()

	normalizer, err := importer.NewNormalizer(reader.Header())
	if err != nil {
		s.recordImport(format, "invalid_file")
		return nil, err
	}

	seen, err := s.transactionRepo.ExistingImportHashes(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing fingerprints: %w", err)
	}

	mapper, err := s.newCategoryMapper(userID)
	if err != nil {
		return nil, err
	}

	report := &dto.ImportReport{ErrorDetails: []string{}}
	batch := make([]models.Transaction, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := s.transactionRepo.InsertBatch(batch)
		if err != nil {
			return err
		}
		report.Imported += int(inserted)
		// rows another import committed first are rejected by the unique index
		report.Skipped += len(batch) - int(inserted)
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			s.finish(userID, format, report, start, "cancelled")
			return report, fmt.Errorf("%w: %v", ErrImportCancelled, err)
		}

		number, row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.recordImport(format, "invalid_file")
			return nil, err
		}

		report.TotalRows++

		candidate, err := normalizer.Normalize(number, row)
		if err != nil {
			report.Errors++
			report.ErrorDetails = append(report.ErrorDetails, err.Error())
			continue
		}

		hash := importer.Fingerprint(candidate)
		if _, dup := seen[hash]; dup {
			report.Skipped++
			continue
		}
		seen[hash] = struct{}{}

		batch = append(batch, s.toTransaction(userID, candidate, hash, mapper))
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				s.finish(userID, format, report, start, "failed")
				return report, fmt.Errorf("failed to persist transactions: %w", err)
			}
		}
	}

	if err := flush(); err != nil {
		s.finish(userID, format, report, start, "failed")
		return report, fmt.Errorf("failed to persist transactions: %w", err)
	}

	s.finish(userID, format, report, start, "success")
	return report, nil
}

func (s *importService) toTransaction(userID uuid.UUID, c *importer.Candidate, hash string, mapper *categoryMapper) models.Transaction {
	tx := models.Transaction{
		ID:                   uuid.New(),
		UserID:               userID,
		AccountName:          c.AccountName,
		AccountIBANLast4:     c.AccountIBANLast4,
		Date:                 c.Date,
		Amount:               c.Amount,
		Currency:             c.Currency,
		BalanceAfter:         c.BalanceAfter,
		Counterparty:         c.Counterparty,
		CounterpartyIBAN:     c.CounterpartyIBAN,
		Description:          c.Description,
		ERef:                 c.ERef,
		MandateRef:           c.MandateRef,
		CreditorID:           c.CreditorID,
		FGMainCategory:       c.MainCategory,
		FGSubcategory:        c.Subcategory,
		FGContractName:       c.ContractName,
		FGContractFrequency:  c.ContractFrequency,
		FGContractID:         c.ContractID,
		FGIsTransfer:         c.IsTransfer,
		FGExcludedFromBudget: c.ExcludedFromBudget,
		FGTransactionType:    c.TransactionType,
		FGAnalysisAmount:     c.AnalysisAmount,
		FGWeek:               c.Week,
		FGMonth:              c.Month,
		FGQuarter:            c.Quarter,
		FGYear:               c.Year,
		Tags:                 models.StringList(c.Tags),
		Notes:                c.Notes,
		Source:               models.TransactionSourceFinanzguru,
		ImportHash:           &hash,
	}
	tx.CategoryID, tx.SubcategoryID = mapper.resolve(c.MainCategory, c.Subcategory, c.Counterparty)
	return tx
}

func (s *importService) finish(userID uuid.UUID, format importer.Format, report *dto.ImportReport, start time.Time, status string) {
	duration := time.Since(start)
	s.recordImport(format, status)
	if s.metrics != nil {
		s.metrics.RecordProcessingTime("import_duration", duration)
		s.metrics.RecordGauge("import_rows", float64(report.Imported), map[string]string{"result": "imported"})
		s.metrics.RecordGauge("import_rows", float64(report.Skipped), map[string]string{"result": "skipped"})
		s.metrics.RecordGauge("import_rows", float64(report.Errors), map[string]string{"result": "errored"})
	}

	s.logger.Info("import finished",
		"user_id", userID,
		"format", string(format),
		"status", status,
		"total_rows", report.TotalRows,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"duration_ms", duration.Milliseconds())
}

func (s *importService) recordImport(format importer.Format, status string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter("import_completed", map[string]string{"format": string(format), "status": status})
	}
}

// categoryMapper resolves Finanzguru category labels against the German category names.
// It is built once per import.
type categoryMapper struct {
	topLevel map[string]uuid.UUID
	children map[uuid.UUID]map[string]uuid.UUID
	parentOf map[uuid.UUID]uuid.UUID
	rules    *rules.Set
}

func (s *importService) newCategoryMapper(userID uuid.UUID) (*categoryMapper, error) {
	all, err := s.categories.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	ruleSet, err := s.ruleService.RulesFor(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category rules: %w", err)
	}

	m := &categoryMapper{
		topLevel: make(map[string]uuid.UUID),
		children: make(map[uuid.UUID]map[string]uuid.UUID),
		parentOf: make(map[uuid.UUID]uuid.UUID),
		rules:    ruleSet,
	}
	for _, c := range all {
		key := foldName(c.NameDE)
		if c.ParentID == nil {
			if key != "" {
				m.topLevel[key] = c.ID
			}
			continue
		}
		m.parentOf[c.ID] = *c.ParentID
		if key == "" {
			continue
		}
		if m.children[*c.ParentID] == nil {
			m.children[*c.ParentID] = make(map[string]uuid.UUID)
		}
		m.children[*c.ParentID][key] = c.ID
	}
	return m, nil
}

// resolve maps the main category, then the subcategory among its children. Rows whose
// main category is unknown fall back to the user's counterparty rules.
func (m *categoryMapper) resolve(main, sub, counterparty string) (*uuid.UUID, *uuid.UUID) {
	if id, ok := m.topLevel[foldName(main)]; ok && main != "" {
		categoryID := id
		if childID, ok := m.children[id][foldName(sub)]; ok && sub != "" {
			return &categoryID, &childID
		}
		return &categoryID, nil
	}

	ruleCategory, _, ok := m.rules.Match(counterparty)
	if !ok {
		return nil, nil
	}
	if parentID, isChild := m.parentOf[ruleCategory]; isChild {
		return &parentID, &ruleCategory
	}
	return &ruleCategory, nil
}

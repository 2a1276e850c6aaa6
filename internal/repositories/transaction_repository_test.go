package repositories

import (
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestTransactionRepository(t *testing.T) {
	suite.Run(t, new(TransactionRepositorySuite))
}

type TransactionRepositorySuite struct {
	suite.Suite
	db       *database.DB
	repo     TransactionRepositoryInterface
	user     *models.User
	category *models.Category
}

func (s *TransactionRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewTransactionRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, gofakeit.Email())
	s.category = database.CreateTestCategory(s.T(), s.db, "Groceries", "Lebensmittel", nil)
}

func (s *TransactionRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *TransactionRepositorySuite) newTransaction(day time.Time, amount string, counterparty string) models.Transaction {
	return models.Transaction{
		UserID:       s.user.ID,
		Date:         day,
		Amount:       decimal.RequireFromString(amount),
		Counterparty: counterparty,
		Description:  gofakeit.Sentence(4),
	}
}

func (s *TransactionRepositorySuite) create(day time.Time, amount string, counterparty string) *models.Transaction {
	tx := s.newTransaction(day, amount, counterparty)
	s.Require().NoError(s.repo.Create(&tx))
	return &tx
}

func hashPtr(v string) *string {
	return &v
}

func (s *TransactionRepositorySuite) TestCreateAndGetByID() {
	tx := s.create(date(2024, 3, 15), "-42.50", "REWE")
	s.Equal(models.TransactionSourceManual, tx.Source)
	s.Equal(models.DefaultCurrency, tx.Currency)

	found, err := s.repo.GetByID(s.user.ID, tx.ID)
	s.NoError(err)
	s.Equal("REWE", found.Counterparty)
	s.True(decimal.RequireFromString("-42.50").Equal(found.Amount))

	// other users never see it
	_, err = s.repo.GetByID(uuid.New(), tx.ID)
	s.Equal(ErrTransactionNotFound, err)
}

func (s *TransactionRepositorySuite) TestList_FiltersAndPaging() {
	s.create(date(2024, 1, 10), "-10.00", "Lidl")
	s.create(date(2024, 2, 10), "-20.00", "REWE Markt")
	s.create(date(2024, 3, 10), "2500.00", "Arbeitgeber GmbH")

	other := database.CreateTestUser(s.T(), s.db, gofakeit.Email())
	foreign := s.newTransaction(date(2024, 2, 11), "-5.00", "REWE")
	foreign.UserID = other.ID
	s.Require().NoError(s.repo.Create(&foreign))

	txs, total, err := s.repo.List(models.TransactionFilters{UserID: s.user.ID, Limit: 2})
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Len(txs, 2)
	s.Equal("Arbeitgeber GmbH", txs[0].Counterparty)

	start, end := date(2024, 2, 1), date(2024, 2, 29)
	txs, total, err = s.repo.List(models.TransactionFilters{UserID: s.user.ID, StartDate: &start, EndDate: &end})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal("REWE Markt", txs[0].Counterparty)

	txs, total, err = s.repo.List(models.TransactionFilters{UserID: s.user.ID, Search: "rewe"})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(txs, 1)
}

func (s *TransactionRepositorySuite) TestList_CategoryMatchesSubcategory() {
	sub := database.CreateTestCategory(s.T(), s.db, "Organic", "Bio", s.category)

	tx := s.newTransaction(date(2024, 3, 1), "-12.00", "Alnatura")
	tx.SubcategoryID = &sub.ID
	s.Require().NoError(s.repo.Create(&tx))
	s.create(date(2024, 3, 2), "-3.00", "Kiosk")

	txs, total, err := s.repo.List(models.TransactionFilters{UserID: s.user.ID, CategoryID: &sub.ID})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(txs, 1)
	s.Require().NotNil(txs[0].Subcategory)
	s.Equal("Organic", txs[0].Subcategory.Name)
}

func (s *TransactionRepositorySuite) TestStatistics() {
	s.create(date(2024, 3, 1), "-10.25", "Lidl")
	s.create(date(2024, 3, 2), "-20.50", "REWE")
	s.create(date(2024, 3, 3), "100.00", "Refund")

	stats, err := s.repo.Statistics(models.TransactionFilters{UserID: s.user.ID, Limit: 1})
	s.NoError(err)
	s.Equal(int64(3), stats.Count)
	s.Equal("100.00", stats.TotalIncome.StringFixed(2))
	s.Equal("30.75", stats.TotalExpenses.StringFixed(2))
	s.Equal("69.25", stats.Balance.StringFixed(2))
}

func (s *TransactionRepositorySuite) TestStatistics_Empty() {
	stats, err := s.repo.Statistics(models.TransactionFilters{UserID: s.user.ID})
	s.NoError(err)
	s.Zero(stats.Count)
	s.True(stats.TotalIncome.IsZero())
	s.True(stats.Balance.IsZero())
}

func (s *TransactionRepositorySuite) TestUpdateFieldsAndDelete() {
	tx := s.create(date(2024, 3, 1), "-10.00", "Lidl")

	err := s.repo.UpdateFields(s.user.ID, tx.ID, map[string]interface{}{
		"notes":       "weekly shop",
		"category_id": s.category.ID,
	})
	s.NoError(err)

	found, err := s.repo.GetByID(s.user.ID, tx.ID)
	s.NoError(err)
	s.Equal("weekly shop", found.Notes)
	s.Require().NotNil(found.CategoryID)
	s.Equal(s.category.ID, *found.CategoryID)

	err = s.repo.UpdateFields(uuid.New(), tx.ID, map[string]interface{}{"notes": "x"})
	s.Equal(ErrTransactionNotFound, err)

	s.NoError(s.repo.Delete(s.user.ID, tx.ID))
	s.Equal(ErrTransactionNotFound, s.repo.Delete(s.user.ID, tx.ID))
}

func (s *TransactionRepositorySuite) TestDelete_UnlinksReceipts() {
	tx := s.create(date(2024, 3, 1), "-10.00", "Lidl")
	receipt := &models.Receipt{
		UserID:           s.user.ID,
		TransactionID:    &tx.ID,
		OriginalFilename: "bon.jpg",
		StoredPath:       "x/bon.jpg",
	}
	s.Require().NoError(s.db.Create(receipt).Error)

	s.NoError(s.repo.Delete(s.user.ID, tx.ID))

	var reloaded models.Receipt
	s.Require().NoError(s.db.First(&reloaded, "id = ?", receipt.ID).Error)
	s.Nil(reloaded.TransactionID)
}

func (s *TransactionRepositorySuite) TestInsertBatch_SkipsExistingHashes() {
	first := s.newTransaction(date(2024, 3, 1), "-10.00", "Lidl")
	first.ImportHash = hashPtr("hash-a")
	first.Source = models.TransactionSourceFinanzguru
	inserted, err := s.repo.InsertBatch([]models.Transaction{first})
	s.NoError(err)
	s.Equal(int64(1), inserted)

	again := s.newTransaction(date(2024, 3, 1), "-10.00", "Lidl")
	again.ImportHash = hashPtr("hash-a")
	again.Source = models.TransactionSourceFinanzguru
	fresh := s.newTransaction(date(2024, 3, 2), "-11.00", "Aldi")
	fresh.ImportHash = hashPtr("hash-b")
	fresh.Source = models.TransactionSourceFinanzguru

	inserted, err = s.repo.InsertBatch([]models.Transaction{again, fresh})
	s.NoError(err)
	s.Equal(int64(1), inserted)

	hashes, err := s.repo.ExistingImportHashes(s.user.ID)
	s.NoError(err)
	s.Len(hashes, 2)
	s.Contains(hashes, "hash-a")
	s.Contains(hashes, "hash-b")
}

func (s *TransactionRepositorySuite) TestInsertBatch_SameHashDifferentUsers() {
	other := database.CreateTestUser(s.T(), s.db, gofakeit.Email())

	mine := s.newTransaction(date(2024, 3, 1), "-10.00", "Lidl")
	mine.ImportHash = hashPtr("shared")
	theirs := s.newTransaction(date(2024, 3, 1), "-10.00", "Lidl")
	theirs.UserID = other.ID
	theirs.ImportHash = hashPtr("shared")

	inserted, err := s.repo.InsertBatch([]models.Transaction{mine, theirs})
	s.NoError(err)
	s.Equal(int64(2), inserted)
}

func (s *TransactionRepositorySuite) TestInsertBatch_Empty() {
	inserted, err := s.repo.InsertBatch(nil)
	s.NoError(err)
	s.Zero(inserted)
}

func (s *TransactionRepositorySuite) TestGetExpensesForCategory() {
	sub := database.CreateTestCategory(s.T(), s.db, "Organic", "Bio", s.category)

	inMain := s.newTransaction(date(2024, 3, 5), "-30.00", "REWE")
	inMain.CategoryID = &s.category.ID
	inSub := s.newTransaction(date(2024, 3, 6), "-5.00", "Alnatura")
	inSub.CategoryID = &s.category.ID
	inSub.SubcategoryID = &sub.ID
	refund := s.newTransaction(date(2024, 3, 7), "10.00", "REWE")
	refund.CategoryID = &s.category.ID
	outside := s.newTransaction(date(2024, 4, 1), "-99.00", "REWE")
	outside.CategoryID = &s.category.ID
	for _, tx := range []models.Transaction{inMain, inSub, refund, outside} {
		tx := tx
		s.Require().NoError(s.repo.Create(&tx))
	}

	txs, err := s.repo.GetExpensesForCategory(s.user.ID, s.category.ID, date(2024, 3, 1), date(2024, 3, 31))
	s.NoError(err)
	s.Len(txs, 2)

	txs, err = s.repo.GetExpensesForCategory(s.user.ID, sub.ID, date(2024, 3, 1), date(2024, 3, 31))
	s.NoError(err)
	s.Len(txs, 1)
}

func (s *TransactionRepositorySuite) TestGetInDateRangeAndRecent() {
	s.create(date(2024, 3, 1), "-1.00", "A")
	s.create(date(2024, 3, 4), "-2.00", "B")
	s.create(date(2024, 3, 20), "-3.00", "C")

	txs, err := s.repo.GetInDateRange(s.user.ID, date(2024, 3, 1), date(2024, 3, 5), 0)
	s.NoError(err)
	s.Len(txs, 2)
	s.Equal("B", txs[0].Counterparty)

	recent, err := s.repo.GetRecent(s.user.ID, 1)
	s.NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("C", recent[0].Counterparty)
}

func (s *TransactionRepositorySuite) TestCountByCategory() {
	tx := s.newTransaction(date(2024, 3, 1), "-1.00", "A")
	tx.CategoryID = &s.category.ID
	s.Require().NoError(s.repo.Create(&tx))

	count, err := s.repo.CountByCategory(s.category.ID)
	s.NoError(err)
	s.Equal(int64(1), count)

	count, err = s.repo.CountByCategory(uuid.New())
	s.NoError(err)
	s.Zero(count)
}

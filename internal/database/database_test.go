package database

import (
	"testing"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"github.com/stretchr/testify/suite"
)

type DatabaseTestSuite struct {
	suite.Suite
	db *DB
}

func (s *DatabaseTestSuite) SetupTest() {
	s.db = SetupTestDB(s.T())
}

func TestDatabaseSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) TestSeedCategories_CreatesTree() {
	s.Require().NoError(s.db.SeedCategories())

	var topLevel []models.Category
	s.Require().NoError(s.db.Where("parent_id IS NULL").Order("sort_order").Find(&topLevel).Error)
	s.Len(topLevel, len(defaultCategories))
	s.Equal("Income", topLevel[0].Name)
	s.True(topLevel[0].IsIncome)

	var groceries models.Category
	s.Require().NoError(s.db.Where("name_de = ?", "Lebensmittel").First(&groceries).Error)
	s.Require().NotNil(groceries.ParentID)

	var parent models.Category
	s.Require().NoError(s.db.First(&parent, "id = ?", *groceries.ParentID).Error)
	s.Equal("Lebenshaltung", parent.NameDE)
}

func (s *DatabaseTestSuite) TestSeedCategories_Idempotent() {
	s.Require().NoError(s.db.SeedCategories())

	var first int64
	s.db.Model(&models.Category{}).Count(&first)

	s.Require().NoError(s.db.SeedCategories())

	var second int64
	s.db.Model(&models.Category{}).Count(&second)
	s.Equal(first, second)
}

func (s *DatabaseTestSuite) TestCreateIndexesAndHealthCheck() {
	s.NoError(s.db.CreateIndexes())
	s.NoError(s.db.HealthCheck())
}

func (s *DatabaseTestSuite) TestCleanupTestDB() {
	CreateTestUser(s.T(), s.db, "cleanup@example.com")
	CleanupTestDB(s.T(), s.db)

	var count int64
	s.db.Model(&models.User{}).Count(&count)
	s.Zero(count)
}

func (s *DatabaseTestSuite) TestMigrateFallsBackToAutoMigrate() {
	s.NoError(s.db.migrate())
	s.True(s.db.Migrator().HasTable(&models.Receipt{}))
}

func (s *DatabaseTestSuite) TestNew_UnsupportedDriver() {
	_, err := New(&config.DatabaseConfig{Driver: "mysql"})
	s.ErrorContains(err, `unsupported database driver "mysql"`)
}

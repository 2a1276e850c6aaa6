package repositories

import (
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestCategoryRepository(t *testing.T) {
	suite.Run(t, new(CategoryRepositorySuite))
}

type CategoryRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo CategoryRepositoryInterface
}

func (s *CategoryRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewCategoryRepository(s.db.DB)
}

func (s *CategoryRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *CategoryRepositorySuite) TestCreateAndGet() {
	category := &models.Category{Name: "Housing", NameDE: "Wohnen", Color: "#336699", SortOrder: 2}
	s.NoError(s.repo.Create(category))
	s.NotEqual(uuid.Nil, category.ID)

	found, err := s.repo.GetByID(category.ID)
	s.NoError(err)
	s.Equal("Wohnen", found.NameDE)

	_, err = s.repo.GetByID(uuid.New())
	s.Equal(ErrCategoryNotFound, err)
}

func (s *CategoryRepositorySuite) TestCreate_InvalidColor() {
	err := s.repo.Create(&models.Category{Name: "Bad", Color: "red"})
	s.ErrorIs(err, models.ErrInvalidColor)
}

func (s *CategoryRepositorySuite) TestTree() {
	housing := database.CreateTestCategory(s.T(), s.db, "Housing", "Wohnen", nil)
	database.CreateTestCategory(s.T(), s.db, "Rent", "Miete", housing)
	database.CreateTestCategory(s.T(), s.db, "Utilities", "Nebenkosten", housing)
	database.CreateTestCategory(s.T(), s.db, "Health", "Gesundheit", nil)

	all, err := s.repo.GetAll()
	s.NoError(err)
	s.Len(all, 4)

	top, err := s.repo.GetTopLevel()
	s.NoError(err)
	s.Len(top, 2)
	for _, c := range top {
		s.True(c.IsTopLevel())
	}

	children, err := s.repo.GetChildren(housing.ID)
	s.NoError(err)
	s.Require().Len(children, 2)
	s.Equal("Rent", children[0].Name)

	count, err := s.repo.CountChildren(housing.ID)
	s.NoError(err)
	s.Equal(int64(2), count)
}

func (s *CategoryRepositorySuite) TestUpdateAndDelete() {
	category := database.CreateTestCategory(s.T(), s.db, "Leisure", "Freizeit", nil)

	category.Name = "Free Time"
	category.SortOrder = 0
	category.Color = ""
	s.NoError(s.repo.Update(category))

	found, err := s.repo.GetByID(category.ID)
	s.NoError(err)
	s.Equal("Free Time", found.Name)

	s.NoError(s.repo.Delete(category.ID))
	s.Equal(ErrCategoryNotFound, s.repo.Delete(category.ID))
	s.Equal(ErrCategoryNotFound, s.repo.Update(category))
}

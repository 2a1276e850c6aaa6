package repositories

import (
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

type UserRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo UserRepositoryInterface
}

func (s *UserRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewUserRepository(s.db.DB)
}

func (s *UserRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *UserRepositorySuite) TestUserRepository_Create() {
	user := &models.User{
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
		FullName:     "Test User",
		IsActive:     true,
	}

	err := s.repo.Create(user)
	s.NoError(err)
	s.NotEqual(uuid.Nil, user.ID)
	s.NotZero(user.CreatedAt)
	s.NotZero(user.UpdatedAt)
}

func (s *UserRepositorySuite) TestUserRepository_CreateDuplicateEmail() {
	first := &models.User{Email: "dup@example.com", PasswordHash: "hash"}
	s.Require().NoError(s.repo.Create(first))

	second := &models.User{Email: "DUP@example.com", PasswordHash: "hash"}
	err := s.repo.Create(second)
	s.Equal(ErrUserAlreadyExists, err)
}

func (s *UserRepositorySuite) TestUserRepository_CreateNil() {
	err := s.repo.Create(nil)
	s.Error(err)
	s.Contains(err.Error(), "user cannot be nil")
}

func (s *UserRepositorySuite) TestUserRepository_GetByEmail() {
	user := &models.User{
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
		FullName:     "Test User",
	}
	s.Require().NoError(s.repo.Create(user))

	// lookups are case-insensitive
	foundUser, err := s.repo.GetByEmail("  Test@Example.com ")
	s.NoError(err)
	s.Equal(user.ID, foundUser.ID)
	s.Equal("test@example.com", foundUser.Email)

	_, err = s.repo.GetByEmail("nonexistent@example.com")
	s.Equal(ErrUserNotFound, err)
}

func (s *UserRepositorySuite) TestUserRepository_GetByID() {
	user := database.CreateTestUser(s.T(), s.db, "byid@example.com")

	foundUser, err := s.repo.GetByID(user.ID)
	s.NoError(err)
	s.Equal(user.Email, foundUser.Email)

	_, err = s.repo.GetByID(uuid.New())
	s.Equal(ErrUserNotFound, err)
}

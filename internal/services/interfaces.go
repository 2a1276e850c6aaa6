package services

import (
	"context"
	"io"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/rules"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthServiceInterface defines registration, login and profile lookup
type AuthServiceInterface interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(userID uuid.UUID) (*dto.UserProfileResponse, error)
}

// PasswordServiceInterface hashes and checks passwords
type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// TokenServiceInterface issues and validates access tokens
type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
}

// ImportServiceInterface imports Finanzguru exports
type ImportServiceInterface interface {
	// ImportFile returns a partial report together with the error when a batch write fails
	ImportFile(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, skipDuplicates bool) (*dto.ImportReport, error)
}

// TransactionServiceInterface defines transaction queries and edits
type TransactionServiceInterface interface {
	List(userID uuid.UUID, query dto.TransactionQuery) (*dto.ListTransactionsResponse, error)
	Statistics(userID uuid.UUID, query dto.TransactionQuery) (*models.TransactionStatistics, error)
	Get(userID, id uuid.UUID) (*models.Transaction, error)
	Create(userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error)
	Update(userID, id uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error)
	Delete(userID, id uuid.UUID) error
}

// CategoryCacheInterface is a read-through view of the category table
type CategoryCacheInterface interface {
	All() ([]models.Category, error)
	TopLevel() ([]models.Category, error)
	Children(parentID uuid.UUID) ([]models.Category, error)
	Invalidate()
}

// CategoryServiceInterface defines category tree maintenance
type CategoryServiceInterface interface {
	List() ([]models.Category, error)
	Tree() ([]models.Category, error)
	Get(id uuid.UUID) (*models.Category, error)
	Create(req *dto.CategoryRequest) (*models.Category, error)
	Update(id uuid.UUID, req *dto.CategoryRequest) (*models.Category, error)
	Delete(id uuid.UUID) error
}

// CategoryRuleServiceInterface defines the user's counterparty rules
type CategoryRuleServiceInterface interface {
	List(userID uuid.UUID) ([]models.CategoryRule, error)
	Create(userID uuid.UUID, req *dto.CreateCategoryRuleRequest) (*models.CategoryRule, error)
	Delete(userID, id uuid.UUID) error
	RulesFor(userID uuid.UUID) (*rules.Set, error)
}

// BudgetServiceInterface defines budget maintenance and progress reporting
type BudgetServiceInterface interface {
	List(userID uuid.UUID, asOf time.Time) ([]dto.BudgetWithProgress, error)
	Get(userID, id uuid.UUID, asOf time.Time) (*dto.BudgetWithProgress, error)
	Create(userID uuid.UUID, req *dto.CreateBudgetRequest) (*models.Budget, error)
	Update(userID, id uuid.UUID, req *dto.UpdateBudgetRequest) (*models.Budget, error)
	Delete(userID, id uuid.UUID) error
	Summary(userID uuid.UUID, asOf time.Time) (*dto.BudgetSummary, error)
}

// ReceiptServiceInterface defines receipt storage, OCR and matching
type ReceiptServiceInterface interface {
	Upload(ctx context.Context, userID uuid.UUID, filename string, size int64, r io.Reader) (*models.Receipt, error)
	List(userID uuid.UUID, offset, limit int) (*dto.ListReceiptsResponse, error)
	Get(userID, id uuid.UUID) (*models.Receipt, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Process(ctx context.Context, userID, id uuid.UUID) (*models.Receipt, error)
	Matches(userID, id uuid.UUID) (*dto.ReceiptMatchesResponse, error)
	Link(userID, id, transactionID uuid.UUID) (*models.Receipt, error)
	Unlink(userID, id uuid.UUID) (*models.Receipt, error)
}

// SuggestionServiceInterface asks the language model for categories
type SuggestionServiceInterface interface {
	SuggestCategory(ctx context.Context, counterparty, description string, amount decimal.Decimal) (*dto.CategorySuggestion, error)
	BulkCategorize(ctx context.Context, userID uuid.UUID, transactionIDs []uuid.UUID) (*dto.BulkCategorizeResponse, error)
}

// LLMClientInterface is a JSON-answering language model backend
type LLMClientInterface interface {
	// GenerateJSON sends a text prompt and returns the raw JSON answer
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// ExtractFromImage sends a prompt with one image or PDF and returns the raw JSON answer
	ExtractFromImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
	// VisionModel names the model used for image extraction
	VisionModel() string
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

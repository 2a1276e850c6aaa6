package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"
	"finance-tracker/internal/storage"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	store, closeStore, err := newReceiptStore(ctx, cfg.Upload)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	llm, err := newLLMClient(ctx, cfg.LLM, metrics)
	if err != nil {
		return err
	}

	e := newServer(cfg, db, store, llm, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("starting server", "addr", addr, "environment", cfg.Server.Environment)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(
	cfg *config.Config,
	db *gorm.DB,
	store storage.ReceiptStore,
	llm services.LLMClientInterface,
	metrics services.MetricsRecorderInterface,
	logger *slog.Logger,
) *echo.Echo {
	userRepo := repositories.NewUserRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	ruleRepo := repositories.NewCategoryRuleRepository(db)
	budgetRepo := repositories.NewBudgetRepository(db)
	receiptRepo := repositories.NewReceiptRepository(db)

	tokenService := services.NewTokenService(&cfg.JWT)
	passwordService := services.NewPasswordService(cfg.Security)
	authService := services.NewAuthService(userRepo, passwordService, tokenService, metrics, logger)

	categoryCache := services.NewCategoryCache(categoryRepo, metrics, logger)
	categoryService := services.NewCategoryService(categoryRepo, transactionRepo, categoryCache, logger)
	ruleService := services.NewCategoryRuleService(ruleRepo, categoryRepo, logger)
	transactionService := services.NewTransactionService(transactionRepo, categoryRepo, logger)
	importService := services.NewImportService(transactionRepo, categoryCache, ruleService, metrics, cfg.Import, logger)
	budgetService := services.NewBudgetService(budgetRepo, categoryRepo, transactionRepo, logger)
	receiptService := services.NewReceiptService(receiptRepo, transactionRepo, store, llm, metrics, cfg.Upload, logger)
	suggestionService := services.NewSuggestionService(categoryCache, transactionRepo, llm, services.NewCategoryMatcher(), metrics, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Validator = handlers.NewValidator()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	bodyLimit := cfg.Import.MaxFileSize
	if cfg.Upload.MaxSize > bodyLimit {
		bodyLimit = cfg.Upload.MaxSize
	}
	// multipart framing on top of the file itself
	bodyLimit += 1 << 20

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.TraceIDHeader},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", bodyLimit)))
	e.Use(middleware.RateLimiter(cfg.Security.RateLimitPerSecond, 2*cfg.Security.RateLimitPerSecond))

	registerRoutes(e, &apiHandlers{
		auth:         handlers.NewAuthHandler(authService),
		transactions: handlers.NewTransactionHandler(transactionService, importService),
		categories:   handlers.NewCategoryHandler(categoryService),
		rules:        handlers.NewCategoryRuleHandler(ruleService),
		budgets:      handlers.NewBudgetHandler(budgetService),
		receipts:     handlers.NewReceiptHandler(receiptService),
		ai:           handlers.NewAIHandler(suggestionService),
		health:       handlers.NewHealthCheckHandler(db),
	}, middleware.RequireAuth(tokenService))

	return e
}

func newReceiptStore(ctx context.Context, cfg config.UploadConfig) (storage.ReceiptStore, func(), error) {
	switch cfg.Store {
	case config.ReceiptStoreGCS:
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, "receipts")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open GCS bucket %q: %w", cfg.GCSBucket, err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := storage.NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to prepare upload dir %q: %w", cfg.Dir, err)
		}
		return store, func() {}, nil
	}
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig, metrics services.MetricsRecorderInterface) (services.LLMClientInterface, error) {
	var client services.LLMClientInterface
	switch cfg.Provider {
	case config.LLMProviderGemini:
		gemini, err := services.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		client = gemini
	default:
		client = services.NewOllamaClient(cfg, &http.Client{})
	}

	breaker := services.NewCircuitBreaker(services.DefaultCircuitBreakerConfig("llm_"+cfg.Provider), metrics)
	return services.NewGuardedLLMClient(client, breaker, cfg.Timeout, metrics), nil
}

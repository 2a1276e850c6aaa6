package main

import (
	"finance-tracker/internal/handlers"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type apiHandlers struct {
	auth         *handlers.AuthHandler
	transactions *handlers.TransactionHandler
	categories   *handlers.CategoryHandler
	rules        *handlers.CategoryRuleHandler
	budgets      *handlers.BudgetHandler
	receipts     *handlers.ReceiptHandler
	ai           *handlers.AIHandler
	health       *handlers.HealthCheckHandler
}

// registerRoutes mounts the API under /api/v1. requireAuth guards everything
// except registration, login, health and metrics.
func registerRoutes(e *echo.Echo, h *apiHandlers, requireAuth echo.MiddlewareFunc) {
	e.GET("/health", h.health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)
	auth.GET("/me", h.auth.Me, requireAuth)

	transactions := v1.Group("/transactions", requireAuth)
	transactions.GET("", h.transactions.ListTransactions)
	transactions.POST("", h.transactions.CreateTransaction)
	transactions.POST("/import", h.transactions.ImportTransactions)
	transactions.GET("/statistics", h.transactions.GetStatistics)
	transactions.GET("/:id", h.transactions.GetTransaction)
	transactions.PATCH("/:id", h.transactions.UpdateTransaction)
	transactions.DELETE("/:id", h.transactions.DeleteTransaction)

	categories := v1.Group("/categories", requireAuth)
	categories.GET("", h.categories.ListCategories)
	categories.GET("/tree", h.categories.GetTree)
	categories.POST("", h.categories.CreateCategory)
	categories.GET("/:id", h.categories.GetCategory)
	categories.PUT("/:id", h.categories.UpdateCategory)
	categories.DELETE("/:id", h.categories.DeleteCategory)

	rules := v1.Group("/category-rules", requireAuth)
	rules.GET("", h.rules.ListRules)
	rules.POST("", h.rules.CreateRule)
	rules.DELETE("/:id", h.rules.DeleteRule)

	budgets := v1.Group("/budgets", requireAuth)
	budgets.GET("", h.budgets.ListBudgets)
	budgets.POST("", h.budgets.CreateBudget)
	budgets.GET("/summary", h.budgets.GetSummary)
	budgets.GET("/:id", h.budgets.GetBudget)
	budgets.PUT("/:id", h.budgets.UpdateBudget)
	budgets.DELETE("/:id", h.budgets.DeleteBudget)

	receipts := v1.Group("/receipts", requireAuth)
	receipts.POST("", h.receipts.UploadReceipt)
	receipts.GET("", h.receipts.ListReceipts)
	receipts.GET("/:id", h.receipts.GetReceipt)
	receipts.DELETE("/:id", h.receipts.DeleteReceipt)
	receipts.POST("/:id/process", h.receipts.ProcessReceipt)
	receipts.GET("/:id/matches", h.receipts.GetMatches)
	receipts.POST("/:id/link", h.receipts.LinkReceipt)
	receipts.POST("/:id/unlink", h.receipts.UnlinkReceipt)

	ai := v1.Group("/ai", requireAuth)
	ai.POST("/suggest-category", h.ai.SuggestCategory)
	ai.POST("/categorize-bulk", h.ai.CategorizeBulk)
}

package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// importFileField is the multipart field carrying the export
const importFileField = "file"

// TransactionHandler handles transaction queries, edits and imports
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	importService      services.ImportServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	transactionService services.TransactionServiceInterface,
	importService services.ImportServiceInterface,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		importService:      importService,
	}
}

// ListTransactions returns the user's transactions, newest first
// @Summary List transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param category_id query string false "Category or subcategory ID"
// @Param search query string false "Counterparty or description contains"
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Page size (max 100)" default(50)
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date"
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var query dto.TransactionQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}

	resp, err := h.transactionService.List(userID, query)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetStatistics returns income, expenses and balance over the filtered set
// @Summary Transaction statistics
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.TransactionStatistics}
// @Router /transactions/statistics [get]
func (h *TransactionHandler) GetStatistics(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var query dto.TransactionQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}

	stats, err := h.transactionService.Statistics(userID, query)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

// GetTransaction returns a single transaction
// @Summary Get transaction
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=models.Transaction}
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	tx, err := h.transactionService.Get(userID, id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: tx})
}

// CreateTransaction books a manual transaction
// @Summary Create transaction
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} SuccessResponse{data=models.Transaction}
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	tx, err := h.transactionService.Create(userID, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{Data: tx})
}

// UpdateTransaction changes category, subcategory, tags or notes
// @Summary Update transaction
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body dto.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Transaction}
// @Router /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req dto.UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	tx, err := h.transactionService.Update(userID, id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: tx})
}

// DeleteTransaction removes a transaction
// @Summary Delete transaction
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.transactionService.Delete(userID, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ImportTransactions imports a Finanzguru XLSX or CSV export
// @Summary Import transactions
// @Description Rows that fail to parse are reported, duplicates are skipped
// @Tags Transactions
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Finanzguru export"
// @Param skip_duplicates formData bool false "Skip rows that were imported before" default(true)
// @Success 200 {object} SuccessResponse{data=dto.ImportReport}
// @Failure 400 {object} errors.ErrorResponse "IMPORT_004 - File missing"
// @Failure 415 {object} errors.ErrorResponse "IMPORT_001 - Unsupported format"
// @Failure 422 {object} errors.ErrorResponse "IMPORT_002/IMPORT_003 - Unreadable file"
// @Failure 500 {object} errors.ErrorResponse "IMPORT_005 - Stopped after a storage failure"
// @Router /transactions/import [post]
func (h *TransactionHandler) ImportTransactions(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	fileHeader, err := c.FormFile(importFileField)
	if err != nil {
		return SendError(c, errors.ImportFileRequired)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return SendSystemError(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	skipDuplicates := getBoolParam(c, "skip_duplicates", true)

	report, err := h.importService.ImportFile(c.Request().Context(), userID, fileHeader.Filename, file, skipDuplicates)
	if err != nil {
		if report != nil {
			return h.sendPartialImport(c, report, err)
		}
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    report,
		Message: fmt.Sprintf("Imported %d of %d rows", report.Imported, report.TotalRows),
	})
}

// sendPartialImport reports the batches that were committed before the failure
func (h *TransactionHandler) sendPartialImport(c echo.Context, report *dto.ImportReport, cause error) error {
	logRequestError(c, slog.LevelError, "Import stopped after partial commit", cause)

	details := []string{
		fmt.Sprintf("imported: %d", report.Imported),
		fmt.Sprintf("skipped: %d", report.Skipped),
		fmt.Sprintf("errors: %d", report.Errors),
	}
	if stderrors.Is(cause, services.ErrImportCancelled) {
		details = append(details, "import was cancelled")
	}

	return SendError(c, errors.ImportPartialFailure, errors.WithDetails(details...))
}

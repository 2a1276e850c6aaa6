package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const receiptFileField = "file"

// ReceiptHandler handles receipt upload, OCR and transaction linking
type ReceiptHandler struct {
	receiptService services.ReceiptServiceInterface
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService services.ReceiptServiceInterface) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// UploadReceipt stores an image or PDF receipt
// @Summary Upload receipt
// @Tags Receipts
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image or PDF"
// @Success 201 {object} SuccessResponse{data=models.Receipt}
// @Failure 400 {object} errors.ErrorResponse "RECEIPT_004 - File missing"
// @Failure 413 {object} errors.ErrorResponse "RECEIPT_002 - File too large"
// @Failure 415 {object} errors.ErrorResponse "RECEIPT_003 - File type not allowed"
// @Router /receipts [post]
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	fileHeader, err := c.FormFile(receiptFileField)
	if err != nil {
		return SendError(c, errors.ReceiptFileRequired)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return SendSystemError(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	receipt, err := h.receiptService.Upload(c.Request().Context(), userID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Data: receipt})
}

// ListReceipts returns the user's receipts, newest first
// @Summary List receipts
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Page size (max 100)" default(50)
// @Success 200 {object} dto.ListReceiptsResponse
// @Router /receipts [get]
func (h *ReceiptHandler) ListReceipts(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}

	offset := getIntParam(c, "offset", 0)
	limit := getIntParam(c, "limit", services.DefaultReceiptListLimit)

	resp, err := h.receiptService.List(userID, offset, limit)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetReceipt returns one receipt with its extraction
// @Summary Get receipt
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} SuccessResponse{data=models.Receipt}
// @Failure 404 {object} errors.ErrorResponse "RECEIPT_001 - Not found"
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	receipt, err := h.receiptService.Get(userID, id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: receipt})
}

// DeleteReceipt removes a receipt and its stored file
// @Summary Delete receipt
// @Tags Receipts
// @Security BearerAuth
// @Param id path string true "Receipt ID"
// @Success 204
// @Router /receipts/{id} [delete]
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.receiptService.Delete(c.Request().Context(), userID, id); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ProcessReceipt runs OCR extraction on a stored receipt
// @Summary Process receipt
// @Description A failed extraction is stored on the receipt and answered with RECEIPT_005
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} SuccessResponse{data=models.Receipt}
// @Failure 422 {object} errors.ErrorResponse "RECEIPT_005 - Extraction failed"
// @Router /receipts/{id}/process [post]
func (h *ReceiptHandler) ProcessReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	receipt, err := h.receiptService.Process(c.Request().Context(), userID, id)
	if err != nil {
		if stderrors.Is(err, services.ErrReceiptProcessingFailed) {
			logRequestError(c, slog.LevelWarn, "Receipt extraction failed", err)
			return SendError(c, errors.ReceiptProcessingFailed, errors.WithDetails(receiptFailure(receipt, err)))
		}
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: receipt})
}

// receiptFailure prefers the message stored on the receipt over the wrapped error
func receiptFailure(receipt *models.Receipt, err error) string {
	if receipt != nil && receipt.ErrorMessage != "" {
		return receipt.ErrorMessage
	}
	return err.Error()
}

// GetMatches ranks the user's transactions against the receipt
// @Summary Receipt matches
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} SuccessResponse{data=dto.ReceiptMatchesResponse}
// @Router /receipts/{id}/matches [get]
func (h *ReceiptHandler) GetMatches(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	matches, err := h.receiptService.Matches(userID, id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: matches})
}

// LinkReceipt attaches the receipt to a transaction
// @Summary Link receipt
// @Tags Receipts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.LinkReceiptRequest true "Transaction"
// @Success 200 {object} SuccessResponse{data=models.Receipt}
// @Failure 409 {object} errors.ErrorResponse "RECEIPT_006 - Already linked"
// @Router /receipts/{id}/link [post]
func (h *ReceiptHandler) LinkReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req dto.LinkReceiptRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	receipt, err := h.receiptService.Link(userID, id, req.TransactionID)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: receipt})
}

// UnlinkReceipt detaches the receipt from its transaction
// @Summary Unlink receipt
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} SuccessResponse{data=models.Receipt}
// @Failure 409 {object} errors.ErrorResponse "RECEIPT_007 - Not linked"
// @Router /receipts/{id}/unlink [post]
func (h *ReceiptHandler) UnlinkReceipt(c echo.Context) error {
	userID, ok, err := requireUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	receipt, err := h.receiptService.Unlink(userID, id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: receipt})
}

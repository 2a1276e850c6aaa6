package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/importer"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Error responses go through SendError for client and business errors and
// SendSystemError for everything that must not leak internal details.
// Service errors are mapped with SendServiceError.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

// serviceErrorCodes maps sentinel errors of the service layer to API codes.
// Order matters: the first match wins.
var serviceErrorCodes = []struct {
	err  error
	code errors.ErrorCode
}{
	{services.ErrInvalidCredentials, errors.AuthInvalidCredentials},
	{services.ErrAccountInactive, errors.AuthAccountInactive},
	{services.ErrUserAlreadyExists, errors.AuthEmailTaken},
	{services.ErrUserNotFound, errors.AuthInvalidCredentials},
	{services.ErrPasswordTooShort, errors.ValidationOutOfRange},
	{services.ErrPasswordTooLong, errors.ValidationOutOfRange},
	{services.ErrPasswordEmpty, errors.ValidationRequiredField},

	{services.ErrTransactionNotFound, errors.TransactionNotFound},
	{services.ErrInvalidCategoryID, errors.ValidationInvalidID},
	{services.ErrInvalidDateRange, errors.ValidationInvalidDate},
	{services.ErrInvalidDate, errors.ValidationInvalidDate},
	{services.ErrSubcategoryMismatch, errors.TransactionValidationFailed},
	{services.ErrEmptyTransactionEdit, errors.ValidationRequiredField},
	{models.ErrTransactionDateRequired, errors.ValidationInvalidDate},
	{models.ErrInvalidCurrency, errors.ValidationInvalidFormat},

	{importer.ErrUnsupportedFormat, errors.ImportUnsupportedFormat},
	{importer.ErrMissingColumns, errors.ImportMissingColumns},
	{importer.ErrMalformedFile, errors.ImportMalformedFile},

	{services.ErrCategoryNotFound, errors.CategoryNotFound},
	{services.ErrParentNotFound, errors.CategoryParentNotFound},
	{services.ErrCategoryCycle, errors.CategoryCycle},
	{services.ErrCategoryHasChildren, errors.CategoryHasChildren},
	{services.ErrCategoryHasTransaction, errors.CategoryInUse},
	{services.ErrCategoryRuleNotFound, errors.CategoryRuleNotFound},
	{services.ErrInvalidRulePattern, errors.CategoryRuleInvalid},
	{models.ErrCategoryNameRequired, errors.ValidationRequiredField},
	{models.ErrInvalidColor, errors.ValidationInvalidFormat},

	{services.ErrBudgetNotFound, errors.BudgetNotFound},
	{models.ErrInvalidBudgetPeriod, errors.BudgetInvalidPeriod},
	{models.ErrInvalidBudgetAmount, errors.BudgetInvalidAmount},
	{models.ErrBudgetDateRange, errors.BudgetInvalidDates},
	{models.ErrBudgetStartRequired, errors.ValidationInvalidDate},

	{services.ErrReceiptNotFound, errors.ReceiptNotFound},
	{services.ErrReceiptTooLarge, errors.ReceiptFileTooLarge},
	{services.ErrReceiptEmpty, errors.ReceiptFileRequired},
	{services.ErrReceiptUnsupportedType, errors.ReceiptUnsupportedType},
	{services.ErrReceiptAlreadyLinked, errors.ReceiptAlreadyLinked},
	{services.ErrReceiptNotLinked, errors.ReceiptNotLinked},
	{services.ErrReceiptProcessingFailed, errors.ReceiptProcessingFailed},

	{services.ErrTooManyTransactionIDs, errors.AITooManyIDs},
	{services.ErrLLMUnavailable, errors.AIServiceUnavailable},
}

// getTraceID extracts the trace ID from the Echo context
func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError wraps a system error with a generic message
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, cause := errors.WrapSystemError(err, traceID)
	logRequestError(c, slog.LevelError, "Request failed with system error", cause)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

// SendServiceError answers with the code of a known service error and falls
// back to a system error otherwise
func SendServiceError(c echo.Context, err error) error {
	if code, ok := serviceErrorCode(err); ok {
		return SendError(c, code, errors.WithDetails(err.Error()))
	}
	return SendSystemError(c, err)
}

func serviceErrorCode(err error) (errors.ErrorCode, bool) {
	for _, entry := range serviceErrorCodes {
		if stderrors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return "", false
}

// logRequestError logs err with the request's trace and user IDs
func logRequestError(c echo.Context, level slog.Level, msg string, err error) {
	attrs := []any{
		"trace_id", getTraceID(c),
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err.Error(),
	}
	if userID, ok := c.Get("user_id").(uuid.UUID); ok {
		attrs = append(attrs, "user_id", userID.String())
	}
	slog.Log(c.Request().Context(), level, msg, attrs...)
}

package errors

import (
	"fmt"
	"net/http"
	"sort"
)

// ErrorResponse is the envelope every API error is sent in
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

// ErrorOption adjusts a response built by NewErrorResponse
type ErrorOption func(*ErrorResponse)

// WithDetails replaces the detail list
func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage overrides the default message for the error code
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
			Details: []string{},
		},
	}

	for _, opt := range opts {
		opt(response)
	}

	return response
}

// NewValidationError renders field -> message pairs as "field: message"
// details, sorted by field so responses are stable.
func NewValidationError(fieldErrors map[string]string, traceID string) *ErrorResponse {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, fmt.Sprintf("%s: %s", field, fieldErrors[field]))
	}

	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// WrapSystemError hides err behind SYSTEM_001. err is handed back unchanged
// for server-side logging.
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

var statusByCode = map[ErrorCode]int{}

func init() {
	register := func(status int, codes ...ErrorCode) {
		for _, code := range codes {
			statusByCode[code] = status
		}
	}

	register(http.StatusBadRequest,
		ValidationGeneral, ValidationRequiredField, ValidationInvalidFormat,
		ValidationOutOfRange, ValidationInvalidEmail, ValidationInvalidDate,
		ValidationInvalidID, ImportFileRequired, ReceiptFileRequired,
		BudgetInvalidPeriod, BudgetInvalidAmount, BudgetInvalidDates,
		CategoryRuleInvalid, AITooManyIDs)
	register(http.StatusUnauthorized,
		AuthInvalidCredentials, AuthMissingToken, AuthExpiredToken, AuthInvalidTokenFormat)
	register(http.StatusForbidden, AuthAccountInactive)
	register(http.StatusNotFound,
		TransactionNotFound, CategoryNotFound, CategoryRuleNotFound, BudgetNotFound, ReceiptNotFound)
	register(http.StatusConflict,
		AuthEmailTaken, CategoryHasChildren, CategoryInUse, ReceiptAlreadyLinked, ReceiptNotLinked)
	register(http.StatusRequestEntityTooLarge, ReceiptFileTooLarge)
	register(http.StatusUnsupportedMediaType, ImportUnsupportedFormat, ReceiptUnsupportedType)
	register(http.StatusUnprocessableEntity,
		TransactionValidationFailed, ImportMalformedFile, ImportMissingColumns,
		CategoryParentNotFound, CategoryCycle, BudgetCategoryMissing, ReceiptProcessingFailed)
	register(http.StatusTooManyRequests, SystemRateLimitExceeded)
	register(http.StatusServiceUnavailable, SystemServiceUnavailable, AIServiceUnavailable)
}

// GetHTTPStatus maps an error code to its HTTP status. SYSTEM_*, IMPORT_005
// and unknown codes are 500.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}

func (er *ErrorResponse) IsServerError() bool {
	return er.GetHTTPStatus() >= http.StatusInternalServerError
}

func (er *ErrorResponse) String() string {
	return fmt.Sprintf("[%s] %s (trace: %s)", er.Error.Code, er.Error.Message, er.Error.TraceID)
}

package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials ErrorCode = "AUTH_001"
	AuthMissingToken       ErrorCode = "AUTH_002"
	AuthExpiredToken       ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat ErrorCode = "AUTH_004"
	AuthEmailTaken         ErrorCode = "AUTH_005"
	AuthAccountInactive    ErrorCode = "AUTH_006"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_005"
	ValidationInvalidDate   ErrorCode = "VALIDATION_006"
	ValidationInvalidID     ErrorCode = "VALIDATION_007"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound         ErrorCode = "TRANSACTION_001"
	TransactionValidationFailed ErrorCode = "TRANSACTION_002"
)

// Import error codes (IMPORT_*)
const (
	ImportUnsupportedFormat ErrorCode = "IMPORT_001"
	ImportMalformedFile     ErrorCode = "IMPORT_002"
	ImportMissingColumns    ErrorCode = "IMPORT_003"
	ImportFileRequired      ErrorCode = "IMPORT_004"
	ImportPartialFailure    ErrorCode = "IMPORT_005"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound       ErrorCode = "CATEGORY_001"
	CategoryParentNotFound ErrorCode = "CATEGORY_002"
	CategoryCycle          ErrorCode = "CATEGORY_003"
	CategoryHasChildren    ErrorCode = "CATEGORY_004"
	CategoryInUse          ErrorCode = "CATEGORY_005"
	CategoryRuleNotFound   ErrorCode = "CATEGORY_006"
	CategoryRuleInvalid    ErrorCode = "CATEGORY_007"
)

// Budget error codes (BUDGET_*)
const (
	BudgetNotFound        ErrorCode = "BUDGET_001"
	BudgetInvalidPeriod   ErrorCode = "BUDGET_002"
	BudgetInvalidAmount   ErrorCode = "BUDGET_003"
	BudgetInvalidDates    ErrorCode = "BUDGET_004"
	BudgetCategoryMissing ErrorCode = "BUDGET_005"
)

// Receipt error codes (RECEIPT_*)
const (
	ReceiptNotFound         ErrorCode = "RECEIPT_001"
	ReceiptFileTooLarge     ErrorCode = "RECEIPT_002"
	ReceiptUnsupportedType  ErrorCode = "RECEIPT_003"
	ReceiptFileRequired     ErrorCode = "RECEIPT_004"
	ReceiptProcessingFailed ErrorCode = "RECEIPT_005"
	ReceiptAlreadyLinked    ErrorCode = "RECEIPT_006"
	ReceiptNotLinked        ErrorCode = "RECEIPT_007"
)

// AI error codes (AI_*)
const (
	AIServiceUnavailable ErrorCode = "AI_001"
	AITooManyIDs         ErrorCode = "AI_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemStorageError       ErrorCode = "SYSTEM_007"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials: "Invalid email or password",
	AuthMissingToken:       "Authorization token is required",
	AuthExpiredToken:       "Authorization token has expired",
	AuthInvalidTokenFormat: "Invalid authorization token format",
	AuthEmailTaken:         "An account with this email already exists",
	AuthAccountInactive:    "Account is disabled",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidEmail:  "Invalid email address format",
	ValidationInvalidDate:   "Invalid date format or range",
	ValidationInvalidID:     "Invalid ID format",

	// Transaction errors
	TransactionNotFound:         "Transaction not found",
	TransactionValidationFailed: "Transaction validation failed",

	// Import errors
	ImportUnsupportedFormat: "Unsupported file format, expected XLSX or CSV",
	ImportMalformedFile:     "The file could not be parsed",
	ImportMissingColumns:    "The file is missing required columns",
	ImportFileRequired:      "A file is required",
	ImportPartialFailure:    "Import stopped after a storage failure, earlier batches were saved",

	// Category errors
	CategoryNotFound:       "Category not found",
	CategoryParentNotFound: "Parent category not found",
	CategoryCycle:          "A category cannot be moved below itself or its descendants",
	CategoryHasChildren:    "Category still has subcategories",
	CategoryInUse:          "Category is still assigned to transactions",
	CategoryRuleNotFound:   "Category rule not found",
	CategoryRuleInvalid:    "Category rule is invalid",

	// Budget errors
	BudgetNotFound:        "Budget not found",
	BudgetInvalidPeriod:   "Budget period must be weekly, monthly or yearly",
	BudgetInvalidAmount:   "Budget amount must be greater than zero",
	BudgetInvalidDates:    "Budget end date must not be before its start date",
	BudgetCategoryMissing: "Budget category does not exist",

	// Receipt errors
	ReceiptNotFound:         "Receipt not found",
	ReceiptFileTooLarge:     "Receipt file exceeds the upload limit",
	ReceiptUnsupportedType:  "Receipt file type is not allowed",
	ReceiptFileRequired:     "A receipt file is required",
	ReceiptProcessingFailed: "Receipt could not be processed",
	ReceiptAlreadyLinked:    "Receipt is already linked to a transaction",
	ReceiptNotLinked:        "Receipt is not linked to a transaction",

	// AI errors
	AIServiceUnavailable: "AI service is unavailable",
	AITooManyIDs:         "Too many transactions requested at once",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemStorageError:       "File storage error",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}

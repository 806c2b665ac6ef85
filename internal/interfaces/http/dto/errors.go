package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInvoiceLocked is used when mutating an invoice past finalization
	ErrCodeInvoiceLocked = "ERR_INVOICE_LOCKED"
	// ErrCodeEmptyInvoice is used when finalizing an invoice with no active items
	ErrCodeEmptyInvoice = "ERR_EMPTY_INVOICE"
	// ErrCodeAlreadyVoided is used when voiding an already voided record
	ErrCodeAlreadyVoided = "ERR_ALREADY_VOIDED"
	// ErrCodeAlreadyBilled is used when a clinical service record is billed twice
	ErrCodeAlreadyBilled = "ERR_ALREADY_BILLED"
	// ErrCodeNothingToApply is used when an advance application has no target balance
	ErrCodeNothingToApply = "ERR_NOTHING_TO_APPLY"
	// ErrCodeInsufficientAdvance is used when deposits cannot cover the requested amount
	ErrCodeInsufficientAdvance = "ERR_INSUFFICIENT_ADVANCE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRateLimited is used when a client exceeds the request rate limit
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInvoiceLocked:       http.StatusUnprocessableEntity,
	ErrCodeEmptyInvoice:        http.StatusUnprocessableEntity,
	ErrCodeAlreadyVoided:       http.StatusUnprocessableEntity,
	ErrCodeAlreadyBilled:       http.StatusConflict,
	ErrCodeNothingToApply:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientAdvance: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to transport error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                    ErrCodeNotFound,
	"ITEM_NOT_FOUND":               ErrCodeNotFound,
	"PAYMENT_NOT_FOUND":            ErrCodeNotFound,
	"ADJUSTMENT_NOT_FOUND":         ErrCodeNotFound,
	"SERVICE_PRICE_NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS":               ErrCodeAlreadyExists,
	"CONCURRENT_MODIFICATION":      ErrCodeConcurrencyConflict,
	"INVALID_INPUT":                ErrCodeInvalidInput,
	"INVALID_ITEM_INPUT":           ErrCodeInvalidInput,
	"INVALID_AMOUNT":               ErrCodeInvalidInput,
	"INVALID_INVOICE_NUMBER":       ErrCodeInvalidInput,
	"INVALID_PATIENT":              ErrCodeInvalidInput,
	"INVALID_BILLING_TYPE":         ErrCodeInvalidInput,
	"INVALID_STATE":                ErrCodeInvalidState,
	"INVOICE_LOCKED":               ErrCodeInvoiceLocked,
	"EMPTY_INVOICE":                ErrCodeEmptyInvoice,
	"ALREADY_VOIDED":               ErrCodeAlreadyVoided,
	"SERVICE_ALREADY_BILLED":       ErrCodeAlreadyBilled,
	"NOTHING_TO_APPLY":             ErrCodeNothingToApply,
	"INSUFFICIENT_ADVANCE_BALANCE": ErrCodeInsufficientAdvance,
	"VALIDATION_ERROR":             ErrCodeValidation,
	"BAD_REQUEST":                  ErrCodeBadRequest,
	"INTERNAL_ERROR":               ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the transport format
// If the code is already in the transport format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

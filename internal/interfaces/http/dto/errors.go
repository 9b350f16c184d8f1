package dto

import (
	"net/http"
	"strings"
)

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
	// ErrCodeInvalidAddress is used when a shipping address is incomplete
	ErrCodeInvalidAddress = "ERR_INVALID_ADDRESS"
	// ErrCodeInvalidRate is used when a shipping rate estimate is malformed
	ErrCodeInvalidRate = "ERR_INVALID_RATE"
	// ErrCodeInvalidSyncMode is used when a roster sync mode is unknown
	ErrCodeInvalidSyncMode = "ERR_INVALID_SYNC_MODE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks a required capability
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeAttributionLocked is used when a prospect's sales rep attribution
	// can no longer be reassigned
	ErrCodeAttributionLocked = "ERR_ATTRIBUTION_LOCKED"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInsufficientBalance is used when a doctor's credit balance cannot
	// cover a debit
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	// ErrCodeTotalsMismatch is used when a submitted grand total disagrees with
	// the recomputed one
	ErrCodeTotalsMismatch = "ERR_TOTALS_MISMATCH"
	// ErrCodeRateAddressMismatch is used when a rate was quoted for a different
	// address than the one submitted
	ErrCodeRateAddressMismatch = "ERR_RATE_ADDRESS_MISMATCH"
	// ErrCodeRateTotalMismatch is used when the submitted shipping total drifts
	// from the quoted rate
	ErrCodeRateTotalMismatch = "ERR_RATE_TOTAL_MISMATCH"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Upstream / availability error codes
const (
	// ErrCodeTaxCalculationFailed is used when the commerce platform's tax
	// endpoint errored
	ErrCodeTaxCalculationFailed = "ERR_TAX_CALCULATION_FAILED"
	// ErrCodePlatformUnavailable is used when forwarding or cancelling against
	// the commerce platform failed after retries
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
	// ErrCodeCodeGenerationExhausted is used when no unique referral code could
	// be allocated
	ErrCodeCodeGenerationExhausted = "ERR_CODE_GENERATION_EXHAUSTED"
	// ErrCodeOrderStoreDisabled is used when an operation requires the order
	// store and it is switched off
	ErrCodeOrderStoreDisabled = "ERR_ORDER_STORE_DISABLED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidAddress:  http.StatusBadRequest,
	ErrCodeInvalidRate:     http.StatusBadRequest,
	ErrCodeInvalidSyncMode: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeAlreadyExists:     http.StatusConflict,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeAttributionLocked: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeTotalsMismatch:      http.StatusUnprocessableEntity,
	ErrCodeRateAddressMismatch: http.StatusUnprocessableEntity,
	ErrCodeRateTotalMismatch:   http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Upstream / availability errors
	ErrCodeTaxCalculationFailed:    http.StatusBadGateway,
	ErrCodePlatformUnavailable:     http.StatusBadGateway,
	ErrCodeCodeGenerationExhausted: http.StatusServiceUnavailable,
	ErrCodeOrderStoreDisabled:      http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                 ErrCodeNotFound,
	"ALREADY_EXISTS":            ErrCodeAlreadyExists,
	"REFERRAL_CODE_TAKEN":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":      ErrCodeConflict,
	"ATTRIBUTION_LOCKED":        ErrCodeAttributionLocked,
	"UNAUTHORIZED":              ErrCodeUnauthorized,
	"FORBIDDEN":                 ErrCodeForbidden,
	"INVALID_STATE":             ErrCodeInvalidState,
	"INVALID_TRANSITION":        ErrCodeInvalidState,
	"INSUFFICIENT_BALANCE":      ErrCodeInsufficientBalance,
	"TOTALS_MISMATCH":           ErrCodeTotalsMismatch,
	"RATE_ADDRESS_MISMATCH":     ErrCodeRateAddressMismatch,
	"RATE_TOTAL_MISMATCH":       ErrCodeRateTotalMismatch,
	"INVALID_ADDRESS":           ErrCodeInvalidAddress,
	"INVALID_RATE":              ErrCodeInvalidRate,
	"INVALID_SYNC_MODE":         ErrCodeInvalidSyncMode,
	"TAX_CALCULATION_FAILED":    ErrCodeTaxCalculationFailed,
	"PLATFORM_UNAVAILABLE":      ErrCodePlatformUnavailable,
	"CODE_GENERATION_EXHAUSTED": ErrCodeCodeGenerationExhausted,
	"ORDER_STORE_DISABLED":      ErrCodeOrderStoreDisabled,
	"INTERNAL_ERROR":            ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unmapped INVALID_* codes collapse to the generic validation code; anything
// already in the ERR_ format or otherwise unknown is returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation
	}
	return code
}

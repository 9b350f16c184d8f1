package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Checkout validation errors
var (
	ErrInvalidAddress      = NewDomainError("INVALID_ADDRESS", "Shipping address is missing required fields")
	ErrInvalidRate         = NewDomainError("INVALID_RATE", "Shipping rate estimate is incomplete or not positive")
	ErrRateAddressMismatch = NewDomainError("RATE_ADDRESS_MISMATCH", "Shipping rate was quoted for a different address")
	ErrRateTotalMismatch   = NewDomainError("RATE_TOTAL_MISMATCH", "Submitted shipping total does not match the quoted rate")
	ErrTotalsMismatch      = NewDomainError("TOTALS_MISMATCH", "Order grand total does not match the sum of its parts")
)

// Referral errors
var (
	ErrCodeGenerationExhausted = NewDomainError("CODE_GENERATION_EXHAUSTED", "Could not generate a unique referral code")
	ErrReferralCodeTaken       = NewDomainError("REFERRAL_CODE_TAKEN", "Referral code is already in use")
	ErrAttributionLocked       = NewDomainError("ATTRIBUTION_LOCKED", "Sales rep attribution is locked for this referral")
)

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
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// Costing and valuation errors
var (
	ErrInvalidLotSize         = NewDomainError("INVALID_LOT_SIZE", "Costing lot size must be positive")
	ErrMissingBOM             = NewDomainError("MISSING_BOM", "Referenced bill of material does not exist")
	ErrMissingRouting         = NewDomainError("MISSING_ROUTING", "Referenced routing does not exist")
	ErrMissingStandardCost    = NewDomainError("MISSING_STANDARD_COST", "No released standard cost estimate exists")
	ErrIncompleteOverheadBase = NewDomainError("INCOMPLETE_OVERHEAD_BASE", "Overhead base resolves to zero with a non-zero rate")
	ErrNegativeBalance        = NewDomainError("NEGATIVE_BALANCE", "Posting would drive on-hand quantity negative")
	ErrPeriodLocked           = NewDomainError("PERIOD_LOCKED", "Fiscal period is locked for posting")
	ErrPeriodNotClosed        = NewDomainError("PERIOD_NOT_CLOSED", "Prior fiscal period has not been closed")
	ErrAlreadySettled         = NewDomainError("ALREADY_SETTLED", "Record has already been settled")
	ErrEmptyDocument          = NewDomainError("EMPTY_DOCUMENT", "Document contains no material lines")
	ErrZeroBasis              = NewDomainError("ZERO_BASIS", "Allocation basis sums to zero across all lines")
)

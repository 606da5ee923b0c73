package dto

import "net/http"

// Error codes surfaced by the API, format ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState    = "ERR_INVALID_STATE"
	ErrCodeBusinessRule    = "ERR_BUSINESS_RULE"
	ErrCodePeriodLocked    = "ERR_PERIOD_LOCKED"
	ErrCodePeriodNotClosed = "ERR_PERIOD_NOT_CLOSED"
	ErrCodeNegativeBalance = "ERR_NEGATIVE_BALANCE"
	ErrCodeAlreadySettled  = "ERR_ALREADY_SETTLED"
	ErrCodeCloseInProgress = "ERR_CLOSE_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeCloseInProgress:     http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodePeriodLocked:    http.StatusUnprocessableEntity,
	ErrCodePeriodNotClosed: http.StatusUnprocessableEntity,
	ErrCodeNegativeBalance: http.StatusUnprocessableEntity,
	ErrCodeAlreadySettled:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes.
// Domain codes not listed here are business rule violations.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeValidation,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"PERIOD_LOCKED":        ErrCodePeriodLocked,
	"PERIOD_NOT_CLOSED":    ErrCodePeriodNotClosed,
	"NEGATIVE_BALANCE":     ErrCodeNegativeBalance,
	"ALREADY_SETTLED":      ErrCodeAlreadySettled,
	"CLOSE_IN_PROGRESS":    ErrCodeCloseInProgress,
	"INVALID_PERIOD":       ErrCodeValidation,
	"INVALID_MATERIAL":     ErrCodeValidation,
	"INVALID_PLANT":        ErrCodeValidation,
	"INVALID_QUANTITY":     ErrCodeValidation,
	"INVALID_PRICE":        ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unmapped domain codes surface as business rule violations.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return ErrCodeBusinessRule
}

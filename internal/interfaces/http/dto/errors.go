package dto

import (
	"errors"
	"net/http"

	"github.com/freightdesk/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own reason codes.
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeNotFound    = "ERR_NOT_FOUND"
)

// KindHTTPStatus maps a domain error kind to an HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindNotFound:              http.StatusNotFound,
	shared.KindPreconditionViolation: http.StatusUnprocessableEntity,
	shared.KindConflict:              http.StatusConflict,
	shared.KindResourceExhausted:     http.StatusTooManyRequests,
	shared.KindTransientStorage:      http.StatusServiceUnavailable,
}

// ErrorCodeHTTPStatus overrides the kind mapping for specific reason codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	"INVALID_INPUT":    http.StatusBadRequest,
	"EMPTY_SELECTION":  http.StatusBadRequest,
}

// GetHTTPStatus returns the status for a reason code and kind. Unknown
// combinations map to 500.
func GetHTTPStatus(code string, kind shared.ErrorKind) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFor converts err into a status and envelope. Errors without a
// DomainError in their chain are reported as internal without their text.
func ErrorFor(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return GetHTTPStatus(de.Code, de.Kind), NewErrorResponse(de.Code, de.Message, requestID)
	}
	return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, "An unexpected error occurred", requestID)
}

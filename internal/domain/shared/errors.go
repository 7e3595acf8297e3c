package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers that only care about the
// broad outcome (HTTP status mapping, retry decisions).
type ErrorKind string

const (
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindPreconditionViolation ErrorKind = "PRECONDITION_VIOLATION"
	KindConflict              ErrorKind = "CONFLICT"
	KindResourceExhausted     ErrorKind = "RESOURCE_EXHAUSTED"
	KindTransientStorage      ErrorKind = "TRANSIENT_STORAGE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the reason code so wrapped copies still compare equal to
// the sentinel they were derived from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// Wrap returns a copy of the error with cause attached
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError(KindPreconditionViolation, "INVALID_INPUT", "Invalid input provided")
	ErrDuplicateKey       = NewDomainError(KindConflict, "DUPLICATE_KEY", "Unique constraint violated")
	ErrDuplicateCode      = NewDomainError(KindConflict, "DUPLICATE_CODE", "Business code already in use")
	ErrContention         = NewDomainError(KindConflict, "TOO_MUCH_CONTENTION", "too much concurrent contention")
	ErrSequenceExhausted  = NewDomainError(KindResourceExhausted, "DAILY_SEQUENCE_EXHAUSTED", "daily sequence limit reached")
	ErrStorageUnavailable = NewDomainError(KindTransientStorage, "STORAGE_UNAVAILABLE", "Storage temporarily unavailable")
)

// KindOf returns the kind of the first DomainError in err's chain, or the
// empty kind when there is none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// CodeOf returns the reason code of the first DomainError in err's chain
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// NewStorageError wraps a driver failure as a transient storage error
func NewStorageError(op string, cause error) *DomainError {
	return ErrStorageUnavailable.WithMessage("storage unavailable during %s", op).Wrap(cause)
}

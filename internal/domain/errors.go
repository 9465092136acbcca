package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeReadOnly           ErrorType = "read_only"
	ErrorTypeMalformedCandidate ErrorType = "malformed_candidate"
	ErrorTypeProvider           ErrorType = "provider"
	ErrorTypeStorage            ErrorType = "storage"
	ErrorTypeConfig             ErrorType = "config"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func NotFoundError(message string, err error) *DomainError {
	return NewError(ErrorTypeNotFound, message, err)
}

func ReadOnlyError(message string, err error) *DomainError {
	return NewError(ErrorTypeReadOnly, message, err)
}

func ProviderError(message string, err error) *DomainError {
	return NewError(ErrorTypeProvider, message, err)
}

func StorageError(message string, err error) *DomainError {
	return NewError(ErrorTypeStorage, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

// MalformedCandidateError is raised when a collection provider hands the ranker
// a candidate that is missing a field its variant requires.
type MalformedCandidateError struct {
	Variant Variant
	ID      string
	Field   string
}

func (e *MalformedCandidateError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("[%s] %s candidate without id: missing %s", ErrorTypeMalformedCandidate, e.Variant, e.Field)
	}
	return fmt.Sprintf("[%s] %s candidate %q: missing %s", ErrorTypeMalformedCandidate, e.Variant, e.ID, e.Field)
}

// TypeOf reports the ErrorType carried by err, or "" for foreign errors.
// The outermost *DomainError wins; a bare *MalformedCandidateError reports
// ErrorTypeMalformedCandidate.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	var mc *MalformedCandidateError
	if errors.As(err, &mc) {
		return ErrorTypeMalformedCandidate
	}
	return ""
}

// IsType reports whether err carries the given ErrorType anywhere in its chain.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

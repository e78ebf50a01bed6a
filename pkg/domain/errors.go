package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeLimitExceeded    = "LIMIT_EXCEEDED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeMalformedAI      = "MALFORMED_AI_RESPONSE"
	ErrCodeAnalysisFailed   = "ANALYSIS_FAILED"
	ErrCodeExternalCall     = "EXTERNAL_CALL_FAILURE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewLimitExceededError is returned when a user has no remaining quota and the
// plan has no fallback model configured.
func NewLimitExceededError(usageType string, limit int) error {
	return &DomainError{
		Code:    ErrCodeLimitExceeded,
		Message: fmt.Sprintf("%s limit of %d reached. Upgrade your plan for more.", usageType, limit),
	}
}

// NewStoreUnavailableError wraps a backing-store failure. Limit checks treat
// this as a denial (fail closed), never as an allowance.
func NewStoreUnavailableError(err error) error {
	return &DomainError{
		Code:    ErrCodeStoreUnavailable,
		Message: "usage store temporarily unavailable",
		Err:     err,
	}
}

// NewMalformedAIError is returned when an AI response fails schema validation.
func NewMalformedAIError(reason string) error {
	return &DomainError{
		Code:    ErrCodeMalformedAI,
		Message: reason,
	}
}

// NewAnalysisFailedError is the fatal error surfaced after the retry budget
// for an analysis is exhausted. No partial result accompanies it.
func NewAnalysisFailedError(err error) error {
	return &DomainError{
		Code:    ErrCodeAnalysisFailed,
		Message: "analysis failed, please try again",
		Err:     err,
	}
}

// NewExternalCallError wraps a network or timeout failure talking to the AI
// provider.
func NewExternalCallError(err error) error {
	return &DomainError{
		Code:    ErrCodeExternalCall,
		Message: "AI provider unreachable",
		Err:     err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// Code extracts the domain error code, or ErrCodeInternal for foreign errors.
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	return Code(err) == code
}

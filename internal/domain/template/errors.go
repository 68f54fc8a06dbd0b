package template

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories raised while
// validating templates and field definitions.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeMissing    ErrorCode = "MISSING_REQUIRED"
	ErrCodeDuplicate  ErrorCode = "DUPLICATE_NAME"
	ErrCodeType       ErrorCode = "INVALID_TYPE"
	ErrCodeReference  ErrorCode = "UNDEFINED_REFERENCE"
	ErrCodeEquation   ErrorCode = "EQUATION_ERROR"
)

// DomainError is a typed error enriched with contextual data, free from
// infrastructure dependencies.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainError values by code.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code
}

func newDomainError(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

func newValidationError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeValidation, message, nil, context)
}

func newMissingFieldError(field string) *DomainError {
	return newDomainError(ErrCodeMissing, "missing required attribute", nil, map[string]interface{}{
		"attribute": field,
	})
}

func newDuplicateNameError(group, name string) *DomainError {
	return newDomainError(ErrCodeDuplicate, "duplicate field name within group", nil, map[string]interface{}{
		"group": group,
		"name":  name,
	})
}

func newTypeError(expected, actual string) *DomainError {
	return newDomainError(ErrCodeType, "invalid type", nil, map[string]interface{}{
		"expected": expected,
		"actual":   actual,
	})
}

func newReferenceError(field, ref string) *DomainError {
	return newDomainError(ErrCodeReference, "reference to undefined field", nil, map[string]interface{}{
		"field":     field,
		"reference": ref,
	})
}

func newEquationError(field string, cause error) *DomainError {
	return newDomainError(ErrCodeEquation, "equation rejected", cause, map[string]interface{}{
		"field": field,
	})
}

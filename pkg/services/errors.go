// Package services implements the validation domain operations exposed by
// the HTTP API: running cycles, managing rules and exceptions, and reading
// issues, scorecards and the traceability matrix.
package services

import (
	"errors"
	"fmt"

	"github.com/reqarchitect/validation/pkg/persistence"
)

// Business logic errors indicating client mistakes (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrEmptyTenantID    = errors.New("tenant ID cannot be empty")
	ErrRuleLogicInvalid = errors.New("rule logic does not match rule type schema")
	ErrInvalidLayer     = errors.New("invalid layer name")

	// Conflicts (409 Conflict).
	ErrIssueAlreadyResolved = errors.New("issue is already resolved")
)

// Not-found errors re-exported from the persistence layer (404).
var (
	ErrRuleNotFound      = persistence.ErrRuleNotFound
	ErrCycleNotFound     = persistence.ErrCycleNotFound
	ErrIssueNotFound     = persistence.ErrIssueNotFound
	ErrExceptionNotFound = persistence.ErrExceptionNotFound
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyTenantID) ||
		errors.Is(err, ErrRuleLogicInvalid) ||
		errors.Is(err, ErrInvalidLayer)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrIssueAlreadyResolved)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

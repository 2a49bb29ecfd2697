package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	ErrRuleNotFound      = errors.New("validation rule not found")
	ErrCycleNotFound     = errors.New("validation cycle not found")
	ErrIssueNotFound     = errors.New("validation issue not found")
	ErrExceptionNotFound = errors.New("validation exception not found")
	ErrScorecardNotFound = errors.New("validation scorecard not found")
)

// StoreError wraps persistence errors with operation context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "ByID", "Save", "Delete")
	TenantID string
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for tenant %s entity %s: %v", e.Op, e.TenantID, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed for tenant %s: %v", e.Op, e.TenantID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new persistence error with context.
func NewStoreError(op, tenantID, entityID string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		TenantID: tenantID,
		EntityID: entityID,
		Err:      err,
	}
}

// IsNotFound checks whether an error indicates any missing validation entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrCycleNotFound) ||
		errors.Is(err, ErrIssueNotFound) ||
		errors.Is(err, ErrExceptionNotFound) ||
		errors.Is(err, ErrScorecardNotFound)
}

// IsRuleNotFound checks if an error indicates a missing rule.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsCycleNotFound checks if an error indicates a missing cycle.
func IsCycleNotFound(err error) bool {
	return errors.Is(err, ErrCycleNotFound)
}

// IsIssueNotFound checks if an error indicates a missing issue.
func IsIssueNotFound(err error) bool {
	return errors.Is(err, ErrIssueNotFound)
}

// IsExceptionNotFound checks if an error indicates a missing exception.
func IsExceptionNotFound(err error) bool {
	return errors.Is(err, ErrExceptionNotFound)
}

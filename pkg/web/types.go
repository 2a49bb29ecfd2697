// Package web provides the HTTP surface of the validation service: route
// handlers, JWT auth middleware and RFC 7807 error responses.
package web

import (
	"encoding/json"
	"time"

	"github.com/reqarchitect/validation/pkg/models"
)

// RunValidationRequest represents the request body for triggering a cycle.
// ForceFullScan is accepted for contract compatibility with callers; every
// cycle is a full scan, so the flag changes nothing.
type RunValidationRequest struct {
	RuleSetID     string `json:"rule_set_id,omitempty"`
	ForceFullScan bool   `json:"force_full_scan,omitempty"`
}

// CreateRuleRequest represents the request body for creating a rule.
type CreateRuleRequest struct {
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	RuleType    models.RuleType `json:"rule_type"   validate:"required,oneof=traceability completeness alignment"`
	Scope       models.Layer    `json:"scope"`
	RuleLogic   json.RawMessage `json:"rule_logic"  validate:"required"`
	Severity    models.Severity `json:"severity"    validate:"required,oneof=low medium high critical"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// UpdateRuleRequest represents the request body for toggling a rule.
type UpdateRuleRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// CreateExceptionRequest represents the request body for creating an
// exception.
type CreateExceptionRequest struct {
	EntityType string     `json:"entity_type" validate:"required"`
	EntityID   string     `json:"entity_id"   validate:"required"`
	Reason     string     `json:"reason"      validate:"required"`
	RuleID     string     `json:"rule_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

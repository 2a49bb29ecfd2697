package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// Rule manages validation rules. Rules are never hard-deleted: deactivation
// keeps past cycles reproducible.
type Rule struct {
	persistence persistence.Persistence
}

// NewRule creates a new rule service.
func NewRule(persistence persistence.Persistence) *Rule {
	return &Rule{
		persistence: persistence,
	}
}

// List returns all rules for the tenant, active and inactive.
func (r *Rule) List(ctx context.Context, tenantID string) ([]*models.ValidationRule, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	rules, err := r.persistence.Rules().List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, nil
}

// Get returns one rule by id.
func (r *Rule) Get(ctx context.Context, tenantID, id string) (*models.ValidationRule, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	return r.persistence.Rules().ByID(ctx, tenantID, id)
}

// CreateRuleRequest carries a new rule definition.
type CreateRuleRequest struct {
	TenantID    string          `json:"-"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	RuleType    models.RuleType `json:"rule_type"   validate:"required,oneof=traceability completeness alignment"`
	Scope       models.Layer    `json:"scope"`
	RuleLogic   json.RawMessage `json:"rule_logic"  validate:"required"`
	Severity    models.Severity `json:"severity"    validate:"required,oneof=low medium high critical"`
	IsActive    *bool           `json:"is_active"`
}

// Create persists a new rule after checking its logic against the rule
// type's schema. A rule that would be skipped at evaluation time is
// rejected here instead.
func (r *Rule) Create(ctx context.Context, req CreateRuleRequest) (*models.ValidationRule, error) {
	if req.TenantID == "" {
		return nil, ErrEmptyTenantID
	}

	if err := models.ValidateRuleLogic(req.RuleType, req.RuleLogic); err != nil {
		if errors.Is(err, models.ErrMalformedRule) {
			return nil, fmt.Errorf("%w: %w", ErrRuleLogicInvalid, err)
		}

		return nil, err
	}

	if req.Scope != "" && !models.IsValidLayer(req.Scope) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLayer, req.Scope)
	}

	now := time.Now().UTC()

	rule := &models.ValidationRule{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		Name:        req.Name,
		Description: req.Description,
		RuleType:    req.RuleType,
		Scope:       req.Scope,
		RuleLogic:   req.RuleLogic,
		Severity:    req.Severity,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.persistence.Rules().Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	return rule, nil
}

// SetActive toggles a rule on or off.
func (r *Rule) SetActive(ctx context.Context, tenantID, id string, active bool) (*models.ValidationRule, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	return r.persistence.Rules().SetActive(ctx, tenantID, id, active)
}

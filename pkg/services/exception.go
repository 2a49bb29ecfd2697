package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// Exception manages validation exceptions. Expired exceptions stop
// suppressing on their own and stay on record for audit.
type Exception struct {
	persistence persistence.Persistence
}

// NewException creates a new exception service.
func NewException(persistence persistence.Persistence) *Exception {
	return &Exception{
		persistence: persistence,
	}
}

// List returns all exceptions for the tenant, expired ones included.
func (e *Exception) List(ctx context.Context, tenantID string) ([]*models.ValidationException, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	exceptions, err := e.persistence.Exceptions().List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}

	return exceptions, nil
}

// CreateExceptionRequest carries a new exception.
type CreateExceptionRequest struct {
	TenantID   string     `json:"-"`
	CreatedBy  string     `json:"-"`
	EntityType string     `json:"entity_type" validate:"required"`
	EntityID   string     `json:"entity_id"   validate:"required"`
	Reason     string     `json:"reason"      validate:"required"`
	RuleID     string     `json:"rule_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Create persists a new exception, effective immediately.
func (e *Exception) Create(ctx context.Context, req CreateExceptionRequest) (*models.ValidationException, error) {
	if req.TenantID == "" {
		return nil, ErrEmptyTenantID
	}

	if req.RuleID != "" {
		if _, err := e.persistence.Rules().ByID(ctx, req.TenantID, req.RuleID); err != nil {
			return nil, err
		}
	}

	exception := &models.ValidationException{
		ID:         uuid.NewString(),
		TenantID:   req.TenantID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Reason:     req.Reason,
		RuleID:     req.RuleID,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  req.CreatedBy,
	}

	if err := e.persistence.Exceptions().Save(ctx, exception); err != nil {
		return nil, fmt.Errorf("failed to save exception: %w", err)
	}

	return exception, nil
}

// Delete removes an exception outright. Expiry is the audit-preserving
// path; deletion exists for entries created in error.
func (e *Exception) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" {
		return ErrEmptyTenantID
	}

	return e.persistence.Exceptions().Delete(ctx, tenantID, id)
}

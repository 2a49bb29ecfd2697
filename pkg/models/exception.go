package models

import "time"

// ValidationException is a whitelist entry suppressing specific, intentional
// modeling gaps from being reported as issues. Expired exceptions stop
// suppressing but are retained for audit.
type ValidationException struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	EntityType string     `json:"entity_type" validate:"required"`
	EntityID   string     `json:"entity_id"   validate:"required"`
	Reason     string     `json:"reason"      validate:"required"`
	RuleID     string     `json:"rule_id,omitempty"` // empty: applies to every rule
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
}

// ExpiredAt reports whether the exception has lapsed at the given instant.
func (e *ValidationException) ExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// Suppresses reports whether this exception suppresses an issue candidate for
// the given rule and entity at the given instant.
func (e *ValidationException) Suppresses(ruleID, entityType, entityID string, now time.Time) bool {
	if e.ExpiredAt(now) {
		return false
	}

	if e.RuleID != "" && e.RuleID != ruleID {
		return false
	}

	return e.EntityType == entityType && e.EntityID == entityID
}

package models

import "time"

// IssueType classifies a detected problem.
type IssueType string

const (
	IssueTypeMissingLink        IssueType = "missing_link"
	IssueTypeOrphaned           IssueType = "orphaned"
	IssueTypeStale              IssueType = "stale"
	IssueTypeInvalidEnum        IssueType = "invalid_enum"
	IssueTypeBrokenTraceability IssueType = "broken_traceability"
)

// CollectionEntityID marks issues raised against a whole element collection
// (for example a count shortfall) rather than against one entity.
const CollectionEntityID = "collection"

// ValidationIssue is one detected problem, tied to a specific cycle and
// entity. Each cycle re-evaluates from scratch and produces fresh rows; an
// issue row is only ever mutated by manual resolution.
type ValidationIssue struct {
	ID                string         `json:"id"`
	TenantID          string         `json:"tenant_id"`
	ValidationCycleID string         `json:"validation_cycle_id"`
	RuleID            string         `json:"rule_id"`
	EntityType        string         `json:"entity_type"`
	EntityID          string         `json:"entity_id"`
	IssueType         IssueType      `json:"issue_type"`
	Severity          Severity       `json:"severity"`
	Description       string         `json:"description"`
	RecommendedFix    string         `json:"recommended_fix,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
	IsResolved        bool           `json:"is_resolved"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy        string         `json:"resolved_by,omitempty"`
}

// Layer resolves the layer the issue's entity belongs to.
func (i *ValidationIssue) Layer() Layer {
	return LayerOfElementType(i.EntityType)
}

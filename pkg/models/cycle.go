package models

import "time"

// CycleStatus represents the lifecycle state of a validation cycle.
type CycleStatus string

const (
	CycleStatusPending   CycleStatus = "pending"
	CycleStatusRunning   CycleStatus = "running"
	CycleStatusCompleted CycleStatus = "completed"
	CycleStatusFailed    CycleStatus = "failed"
)

// ValidationCycle is one execution of the validation pass for a tenant.
// Completed cycles are append-only: corrective reprocessing creates a new
// cycle instead of mutating an old one.
type ValidationCycle struct {
	ID               string      `json:"id"`
	TenantID         string      `json:"tenant_id"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          *time.Time  `json:"end_time,omitempty"`
	TriggeredBy      string      `json:"triggered_by"`
	RuleSetID        string      `json:"rule_set_id,omitempty"`
	TotalIssuesFound int         `json:"total_issues_found"`
	ExecutionStatus  CycleStatus `json:"execution_status"`
	// MaturityScore is nil when the tenant has no elements in any layer:
	// an empty model is unknown, not failing.
	MaturityScore *float64 `json:"maturity_score,omitempty"`
}

// Finished reports whether the cycle reached a terminal status.
func (c *ValidationCycle) Finished() bool {
	return c.ExecutionStatus == CycleStatusCompleted || c.ExecutionStatus == CycleStatusFailed
}

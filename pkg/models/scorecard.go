package models

import "time"

// ValidationScorecard is the per-layer score snapshot for one cycle. It is
// regenerated wholesale per cycle, never patched.
type ValidationScorecard struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	ValidationCycleID  string    `json:"validation_cycle_id"`
	Layer              Layer     `json:"layer"`
	CompletenessScore  float64   `json:"completeness_score"`
	TraceabilityScore  float64   `json:"traceability_score"`
	AlignmentScore     float64   `json:"alignment_score"`
	OverallScore       float64   `json:"overall_score"`
	IssuesCount        int       `json:"issues_count"`
	CriticalIssueCount int       `json:"critical_issue_count"`
	HighIssueCount     int       `json:"high_issue_count"`
	MediumIssueCount   int       `json:"medium_issue_count"`
	LowIssueCount      int       `json:"low_issue_count"`
	CreatedAt          time.Time `json:"created_at"`
}

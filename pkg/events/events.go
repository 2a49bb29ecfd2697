// Package events defines event payloads emitted over the validation event bus.
package events

import (
	"time"

	"github.com/reqarchitect/validation/pkg/models"
)

type EventType string

// Topic is the bus topic carrying all validation lifecycle events.
const Topic = "validation.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ValidationCompletedEvent     EventType = "validation.completed"
	ValidationFailedEvent        EventType = "validation.failed"
	ValidationIssueDetectedEvent EventType = "validation.issue_detected"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ValidationCompleted summarizes a finished cycle for audit consumers.
type ValidationCompleted struct {
	BaseEvent

	CycleID       string        `json:"cycle_id"`
	TriggeredBy   string        `json:"triggered_by"`
	TotalIssues   int           `json:"total_issues"`
	MaturityScore *float64      `json:"maturity_score,omitempty"`
	Duration      time.Duration `json:"duration"`
}

func (v ValidationCompleted) GetType() EventType {
	return ValidationCompletedEvent
}

// ValidationFailed reports a cycle that could not evaluate any rule.
type ValidationFailed struct {
	BaseEvent

	CycleID string `json:"cycle_id"`
	Error   string `json:"error"`
}

func (v ValidationFailed) GetType() EventType {
	return ValidationFailedEvent
}

// ValidationIssueDetected carries one freshly persisted issue.
type ValidationIssueDetected struct {
	BaseEvent

	CycleID string                 `json:"cycle_id"`
	Issue   models.ValidationIssue `json:"issue"`
}

func (v ValidationIssueDetected) GetType() EventType {
	return ValidationIssueDetectedEvent
}

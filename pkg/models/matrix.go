package models

import "time"

// TraceabilityMatrixEntry summarizes connection strength between one
// layer-type pair. The matrix is purely derived reporting state and is
// recomputed wholesale on each cycle.
type TraceabilityMatrixEntry struct {
	TenantID           string    `json:"tenant_id"`
	ValidationCycleID  string    `json:"validation_cycle_id"`
	SourceLayer        Layer     `json:"source_layer"`
	TargetLayer        Layer     `json:"target_layer"`
	SourceEntityType   string    `json:"source_entity_type"`
	TargetEntityType   string    `json:"target_entity_type"`
	RelationshipType   string    `json:"relationship_type"`
	ConnectionCount    int       `json:"connection_count"`
	MissingConnections int       `json:"missing_connections"`
	StrengthScore      float64   `json:"strength_score"`
	LastUpdated        time.Time `json:"last_updated"`
}

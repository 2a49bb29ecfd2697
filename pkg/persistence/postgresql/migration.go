package postgresql

// migrations returns the schema migrations keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: migrationV1,
	}
}

const migrationV1 = `
	CREATE TABLE IF NOT EXISTS validation_rules (
		id UUID PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		rule_type TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT '',
		rule_logic JSONB NOT NULL,
		severity TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_validation_rules_tenant
		ON validation_rules (tenant_id, is_active);

	CREATE TABLE IF NOT EXISTS validation_exceptions (
		id UUID PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		rule_id TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_validation_exceptions_tenant
		ON validation_exceptions (tenant_id);

	CREATE TABLE IF NOT EXISTS validation_cycles (
		id UUID PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE,
		triggered_by TEXT NOT NULL DEFAULT '',
		rule_set_id TEXT NOT NULL DEFAULT '',
		total_issues_found INTEGER NOT NULL DEFAULT 0,
		execution_status TEXT NOT NULL,
		maturity_score DOUBLE PRECISION
	);

	CREATE INDEX IF NOT EXISTS idx_validation_cycles_tenant
		ON validation_cycles (tenant_id, start_time DESC);

	CREATE TABLE IF NOT EXISTS validation_issues (
		id UUID PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		validation_cycle_id UUID NOT NULL REFERENCES validation_cycles (id) ON DELETE CASCADE,
		rule_id TEXT NOT NULL DEFAULT '',
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		recommended_fix TEXT NOT NULL DEFAULT '',
		metadata JSONB,
		detected_at TIMESTAMP WITH TIME ZONE NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMP WITH TIME ZONE,
		resolved_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_validation_issues_tenant
		ON validation_issues (tenant_id, detected_at DESC);

	CREATE INDEX IF NOT EXISTS idx_validation_issues_cycle
		ON validation_issues (validation_cycle_id);

	CREATE TABLE IF NOT EXISTS validation_scorecards (
		id UUID PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		validation_cycle_id UUID NOT NULL REFERENCES validation_cycles (id) ON DELETE CASCADE,
		layer TEXT NOT NULL,
		completeness_score DOUBLE PRECISION NOT NULL,
		traceability_score DOUBLE PRECISION NOT NULL,
		alignment_score DOUBLE PRECISION NOT NULL,
		overall_score DOUBLE PRECISION NOT NULL,
		issues_count INTEGER NOT NULL DEFAULT 0,
		critical_issue_count INTEGER NOT NULL DEFAULT 0,
		high_issue_count INTEGER NOT NULL DEFAULT 0,
		medium_issue_count INTEGER NOT NULL DEFAULT 0,
		low_issue_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		UNIQUE (validation_cycle_id, layer)
	);

	CREATE TABLE IF NOT EXISTS traceability_matrix (
		tenant_id TEXT NOT NULL,
		validation_cycle_id UUID NOT NULL REFERENCES validation_cycles (id) ON DELETE CASCADE,
		source_layer TEXT NOT NULL,
		target_layer TEXT NOT NULL,
		source_entity_type TEXT NOT NULL,
		target_entity_type TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		connection_count INTEGER NOT NULL DEFAULT 0,
		missing_connections INTEGER NOT NULL DEFAULT 0,
		strength_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_updated TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (tenant_id, source_entity_type, target_entity_type, relationship_type)
	);
`

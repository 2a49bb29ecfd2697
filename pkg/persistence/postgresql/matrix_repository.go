package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/reqarchitect/validation/pkg/models"
)

// MatrixRepository handles traceability_matrix database operations.
type MatrixRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMatrixRepository creates a new matrix repository.
func NewMatrixRepository(db *sql.DB, logger *slog.Logger) *MatrixRepository {
	return &MatrixRepository{db: db, logger: logger}
}

// Replace swaps the tenant's whole matrix for the given cycle's entries. The
// matrix is derived reporting state with no independent mutation path.
func (r *MatrixRepository) Replace(ctx context.Context, tenantID, cycleID string, entries []*models.TraceabilityMatrixEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, "DELETE FROM traceability_matrix WHERE tenant_id = $1", tenantID)
	if err != nil {
		return fmt.Errorf("failed to clear matrix: %w", err)
	}

	query := `
		INSERT INTO traceability_matrix (tenant_id, validation_cycle_id, source_layer,
target_layer, source_entity_type, target_entity_type, relationship_type,
connection_count, missing_connections, strength_score, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, entry := range entries {
		if entry.LastUpdated.IsZero() {
			entry.LastUpdated = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			tenantID,
			cycleID,
			entry.SourceLayer,
			entry.TargetLayer,
			entry.SourceEntityType,
			entry.TargetEntityType,
			entry.RelationshipType,
			entry.ConnectionCount,
			entry.MissingConnections,
			entry.StrengthScore,
			entry.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert matrix entry: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit matrix: %w", err)
	}

	return nil
}

// Entries returns matrix rows, optionally filtered by source/target layer
// (empty layer matches all).
func (r *MatrixRepository) Entries(ctx context.Context, tenantID string, sourceLayer, targetLayer models.Layer) ([]*models.TraceabilityMatrixEntry, error) {
	query := `
		SELECT
			tenant_id
		  , validation_cycle_id
		  , source_layer
		  , target_layer
		  , source_entity_type
		  , target_entity_type
		  , relationship_type
		  , connection_count
		  , missing_connections
		  , strength_score
		  , last_updated
		FROM traceability_matrix
		WHERE tenant_id = $1
		  AND ($2 = '' OR source_layer = $2)
		  AND ($3 = '' OR target_layer = $3)
		ORDER BY source_layer, target_layer, source_entity_type, target_entity_type
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, sourceLayer, targetLayer)
	if err != nil {
		return nil, fmt.Errorf("failed to query matrix: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.TraceabilityMatrixEntry, 0)

	for rows.Next() {
		var entry models.TraceabilityMatrixEntry

		err = rows.Scan(
			&entry.TenantID,
			&entry.ValidationCycleID,
			&entry.SourceLayer,
			&entry.TargetLayer,
			&entry.SourceEntityType,
			&entry.TargetEntityType,
			&entry.RelationshipType,
			&entry.ConnectionCount,
			&entry.MissingConnections,
			&entry.StrengthScore,
			&entry.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matrix entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating matrix entries: %w", err)
	}

	return entries, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// CycleRepository handles validation_cycles database operations.
type CycleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCycleRepository creates a new cycle repository.
func NewCycleRepository(db *sql.DB, logger *slog.Logger) *CycleRepository {
	return &CycleRepository{db: db, logger: logger}
}

const cycleColumns = `
			id
		  , tenant_id
		  , start_time
		  , end_time
		  , triggered_by
		  , rule_set_id
		  , total_issues_found
		  , execution_status
		  , maturity_score
`

// Save inserts or updates a cycle. The orchestrator calls this once at start
// (status running) and once at completion.
func (r *CycleRepository) Save(ctx context.Context, cycle *models.ValidationCycle) error {
	if cycle.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate cycle ID: %w", err)
		}

		cycle.ID = id.String()
	}

	query := `
		INSERT INTO validation_cycles (id, tenant_id, start_time, end_time,
triggered_by, rule_set_id, total_issues_found, execution_status, maturity_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			total_issues_found = EXCLUDED.total_issues_found,
			execution_status = EXCLUDED.execution_status,
			maturity_score = EXCLUDED.maturity_score
	`

	_, err := r.db.ExecContext(ctx, query,
		cycle.ID,
		cycle.TenantID,
		cycle.StartTime,
		cycle.EndTime,
		cycle.TriggeredBy,
		cycle.RuleSetID,
		cycle.TotalIssuesFound,
		cycle.ExecutionStatus,
		cycle.MaturityScore,
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}

	return nil
}

func (r *CycleRepository) ByID(ctx context.Context, tenantID, id string) (*models.ValidationCycle, error) {
	query := `
		SELECT ` + cycleColumns + `
		FROM validation_cycles
		WHERE tenant_id = $1 AND id = $2
	`

	cycle, err := scanCycle(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrCycleNotFound)
		}

		return nil, fmt.Errorf("failed to scan cycle: %w", err)
	}

	return cycle, nil
}

func (r *CycleRepository) List(ctx context.Context, tenantID string, skip, limit int) ([]*models.ValidationCycle, error) {
	query := `
		SELECT ` + cycleColumns + `
		FROM validation_cycles
		WHERE tenant_id = $1
		ORDER BY start_time DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	cycles := make([]*models.ValidationCycle, 0)

	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}

		cycles = append(cycles, cycle)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}

	return cycles, nil
}

func (r *CycleRepository) Count(ctx context.Context, tenantID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM validation_cycles WHERE tenant_id = $1", tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cycles: %w", err)
	}

	return count, nil
}

func (r *CycleRepository) LatestCompleted(ctx context.Context, tenantID string) (*models.ValidationCycle, error) {
	query := `
		SELECT ` + cycleColumns + `
		FROM validation_cycles
		WHERE tenant_id = $1 AND execution_status = $2
		ORDER BY start_time DESC
		LIMIT 1
	`

	cycle, err := scanCycle(r.db.QueryRowContext(ctx, query, tenantID, models.CycleStatusCompleted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("LatestCompleted", tenantID, "", persistence.ErrCycleNotFound)
		}

		return nil, fmt.Errorf("failed to scan cycle: %w", err)
	}

	return cycle, nil
}

func scanCycle(row rowScanner) (*models.ValidationCycle, error) {
	var (
		cycle         models.ValidationCycle
		endTime       sql.NullTime
		maturityScore sql.NullFloat64
	)

	err := row.Scan(
		&cycle.ID,
		&cycle.TenantID,
		&cycle.StartTime,
		&endTime,
		&cycle.TriggeredBy,
		&cycle.RuleSetID,
		&cycle.TotalIssuesFound,
		&cycle.ExecutionStatus,
		&maturityScore,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		cycle.EndTime = &endTime.Time
	}

	if maturityScore.Valid {
		cycle.MaturityScore = &maturityScore.Float64
	}

	return &cycle, nil
}

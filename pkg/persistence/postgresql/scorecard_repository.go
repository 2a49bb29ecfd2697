package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reqarchitect/validation/pkg/models"
)

// ScorecardRepository handles validation_scorecards database operations.
type ScorecardRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewScorecardRepository creates a new scorecard repository.
func NewScorecardRepository(db *sql.DB, logger *slog.Logger) *ScorecardRepository {
	return &ScorecardRepository{db: db, logger: logger}
}

// SaveBatch persists one cycle's scorecards. Scorecards are regenerated fully
// per cycle, never patched.
func (r *ScorecardRepository) SaveBatch(ctx context.Context, scorecards []*models.ValidationScorecard) error {
	if len(scorecards) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO validation_scorecards (id, tenant_id, validation_cycle_id, layer,
completeness_score, traceability_score, alignment_score, overall_score,
issues_count, critical_issue_count, high_issue_count, medium_issue_count,
low_issue_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, scorecard := range scorecards {
		if scorecard.ID == "" {
			var id uuid.UUID

			id, err = uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate scorecard ID: %w", err)
			}

			scorecard.ID = id.String()
		}

		if scorecard.CreatedAt.IsZero() {
			scorecard.CreatedAt = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			scorecard.ID,
			scorecard.TenantID,
			scorecard.ValidationCycleID,
			scorecard.Layer,
			scorecard.CompletenessScore,
			scorecard.TraceabilityScore,
			scorecard.AlignmentScore,
			scorecard.OverallScore,
			scorecard.IssuesCount,
			scorecard.CriticalIssueCount,
			scorecard.HighIssueCount,
			scorecard.MediumIssueCount,
			scorecard.LowIssueCount,
			scorecard.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scorecard: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit scorecards: %w", err)
	}

	return nil
}

func (r *ScorecardRepository) ByCycle(ctx context.Context, tenantID, cycleID string) ([]*models.ValidationScorecard, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , validation_cycle_id
		  , layer
		  , completeness_score
		  , traceability_score
		  , alignment_score
		  , overall_score
		  , issues_count
		  , critical_issue_count
		  , high_issue_count
		  , medium_issue_count
		  , low_issue_count
		  , created_at
		FROM validation_scorecards
		WHERE tenant_id = $1 AND validation_cycle_id = $2
		ORDER BY layer
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scorecards: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	scorecards := make([]*models.ValidationScorecard, 0)

	for rows.Next() {
		var scorecard models.ValidationScorecard

		err = rows.Scan(
			&scorecard.ID,
			&scorecard.TenantID,
			&scorecard.ValidationCycleID,
			&scorecard.Layer,
			&scorecard.CompletenessScore,
			&scorecard.TraceabilityScore,
			&scorecard.AlignmentScore,
			&scorecard.OverallScore,
			&scorecard.IssuesCount,
			&scorecard.CriticalIssueCount,
			&scorecard.HighIssueCount,
			&scorecard.MediumIssueCount,
			&scorecard.LowIssueCount,
			&scorecard.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scorecard: %w", err)
		}

		scorecards = append(scorecards, &scorecard)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating scorecards: %w", err)
	}

	return scorecards, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// IssueRepository handles validation_issues database operations.
type IssueRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewIssueRepository creates a new issue repository.
func NewIssueRepository(db *sql.DB, logger *slog.Logger) *IssueRepository {
	return &IssueRepository{db: db, logger: logger}
}

const issueColumns = `
			id
		  , tenant_id
		  , validation_cycle_id
		  , rule_id
		  , entity_type
		  , entity_id
		  , issue_type
		  , severity
		  , description
		  , recommended_fix
		  , metadata
		  , detected_at
		  , is_resolved
		  , resolved_at
		  , resolved_by
`

// SaveBatch persists freshly evaluated issues inside one transaction so a
// cycle's issue set is either fully visible or not at all.
func (r *IssueRepository) SaveBatch(ctx context.Context, issues []*models.ValidationIssue) error {
	if len(issues) == 0 {
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
		INSERT INTO validation_issues (id, tenant_id, validation_cycle_id, rule_id,
entity_type, entity_id, issue_type, severity, description, recommended_fix,
metadata, detected_at, is_resolved, resolved_at, resolved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, issue := range issues {
		if issue.ID == "" {
			var id uuid.UUID

			id, err = uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate issue ID: %w", err)
			}

			issue.ID = id.String()
		}

		if issue.Timestamp.IsZero() {
			issue.Timestamp = time.Now().UTC()
		}

		var metadataJSON []byte

		metadataJSON, err = json.Marshal(issue.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal issue metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			issue.ID,
			issue.TenantID,
			issue.ValidationCycleID,
			issue.RuleID,
			issue.EntityType,
			issue.EntityID,
			issue.IssueType,
			issue.Severity,
			issue.Description,
			issue.RecommendedFix,
			metadataJSON,
			issue.Timestamp,
			issue.IsResolved,
			issue.ResolvedAt,
			issue.ResolvedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit issues: %w", err)
	}

	return nil
}

func (r *IssueRepository) ByCycle(ctx context.Context, tenantID, cycleID string) ([]*models.ValidationIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM validation_issues
		WHERE tenant_id = $1 AND validation_cycle_id = $2
		ORDER BY detected_at
	`

	return r.queryIssues(ctx, query, tenantID, cycleID)
}

func (r *IssueRepository) List(ctx context.Context, tenantID string, skip, limit int) ([]*models.ValidationIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM validation_issues
		WHERE tenant_id = $1
		ORDER BY detected_at DESC
		OFFSET $2 LIMIT $3
	`

	return r.queryIssues(ctx, query, tenantID, skip, limit)
}

func (r *IssueRepository) Count(ctx context.Context, tenantID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM validation_issues WHERE tenant_id = $1", tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}

	return count, nil
}

func (r *IssueRepository) ByID(ctx context.Context, tenantID, id string) (*models.ValidationIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM validation_issues
		WHERE tenant_id = $1 AND id = $2
	`

	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrIssueNotFound)
		}

		return nil, fmt.Errorf("failed to scan issue: %w", err)
	}

	return issue, nil
}

// Resolve flips is_resolved on an issue. Resolution is the only mutation an
// issue row ever receives.
func (r *IssueRepository) Resolve(ctx context.Context, tenantID, id, resolvedBy string, resolvedAt time.Time) (*models.ValidationIssue, error) {
	query := `
		UPDATE validation_issues
		SET is_resolved = TRUE, resolved_at = $3, resolved_by = $4
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, id, resolvedAt, resolvedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve issue: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check resolve result: %w", err)
	}

	if affected == 0 {
		return nil, persistence.NewStoreError("Resolve", tenantID, id, persistence.ErrIssueNotFound)
	}

	return r.ByID(ctx, tenantID, id)
}

func (r *IssueRepository) queryIssues(ctx context.Context, query string, args ...any) ([]*models.ValidationIssue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	issues := make([]*models.ValidationIssue, 0)

	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}

		issues = append(issues, issue)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}

	return issues, nil
}

func scanIssue(row rowScanner) (*models.ValidationIssue, error) {
	var (
		issue        models.ValidationIssue
		metadataJSON []byte
		resolvedAt   sql.NullTime
	)

	err := row.Scan(
		&issue.ID,
		&issue.TenantID,
		&issue.ValidationCycleID,
		&issue.RuleID,
		&issue.EntityType,
		&issue.EntityID,
		&issue.IssueType,
		&issue.Severity,
		&issue.Description,
		&issue.RecommendedFix,
		&metadataJSON,
		&issue.Timestamp,
		&issue.IsResolved,
		&resolvedAt,
		&issue.ResolvedBy,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		err = json.Unmarshal(metadataJSON, &issue.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal issue metadata: %w", err)
		}
	}

	if resolvedAt.Valid {
		issue.ResolvedAt = &resolvedAt.Time
	}

	return &issue, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// ExceptionRepository handles validation_exceptions database operations.
type ExceptionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExceptionRepository creates a new exception repository.
func NewExceptionRepository(db *sql.DB, logger *slog.Logger) *ExceptionRepository {
	return &ExceptionRepository{db: db, logger: logger}
}

const exceptionColumns = `
			id
		  , tenant_id
		  , entity_type
		  , entity_id
		  , reason
		  , rule_id
		  , expires_at
		  , created_at
		  , created_by
`

func (r *ExceptionRepository) List(ctx context.Context, tenantID string) ([]*models.ValidationException, error) {
	query := `
		SELECT ` + exceptionColumns + `
		FROM validation_exceptions
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	return r.queryExceptions(ctx, query, tenantID)
}

// Active returns exceptions that have not lapsed at the given instant.
// Expired rows are retained for audit, they just stop matching here.
func (r *ExceptionRepository) Active(ctx context.Context, tenantID string, now time.Time) ([]*models.ValidationException, error) {
	query := `
		SELECT ` + exceptionColumns + `
		FROM validation_exceptions
		WHERE tenant_id = $1 AND (expires_at IS NULL OR expires_at >= $2)
		ORDER BY created_at DESC
	`

	return r.queryExceptions(ctx, query, tenantID, now)
}

func (r *ExceptionRepository) ByID(ctx context.Context, tenantID, id string) (*models.ValidationException, error) {
	query := `
		SELECT ` + exceptionColumns + `
		FROM validation_exceptions
		WHERE tenant_id = $1 AND id = $2
	`

	exception, err := scanException(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrExceptionNotFound)
		}

		return nil, fmt.Errorf("failed to scan exception: %w", err)
	}

	return exception, nil
}

func (r *ExceptionRepository) Save(ctx context.Context, exception *models.ValidationException) error {
	if exception.CreatedAt.IsZero() {
		exception.CreatedAt = time.Now().UTC()
	}

	if exception.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate exception ID: %w", err)
		}

		exception.ID = id.String()
	}

	query := `
		INSERT INTO validation_exceptions (id, tenant_id, entity_type, entity_id,
reason, rule_id, expires_at, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			reason = EXCLUDED.reason,
			rule_id = EXCLUDED.rule_id,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		exception.ID,
		exception.TenantID,
		exception.EntityType,
		exception.EntityID,
		exception.Reason,
		exception.RuleID,
		exception.ExpiresAt,
		exception.CreatedAt,
		exception.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save exception: %w", err)
	}

	return nil
}

func (r *ExceptionRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM validation_exceptions WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", tenantID, id, persistence.ErrExceptionNotFound)
	}

	return nil
}

func (r *ExceptionRepository) queryExceptions(ctx context.Context, query string, args ...any) ([]*models.ValidationException, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exceptions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	exceptions := make([]*models.ValidationException, 0)

	for rows.Next() {
		exception, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exception: %w", err)
		}

		exceptions = append(exceptions, exception)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating exceptions: %w", err)
	}

	return exceptions, nil
}

func scanException(row rowScanner) (*models.ValidationException, error) {
	var (
		exception models.ValidationException
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&exception.ID,
		&exception.TenantID,
		&exception.EntityType,
		&exception.EntityID,
		&exception.Reason,
		&exception.RuleID,
		&expiresAt,
		&exception.CreatedAt,
		&exception.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		exception.ExpiresAt = &expiresAt.Time
	}

	return &exception, nil
}

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

// RuleRepository handles validation_rules database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

const ruleColumns = `
			id
		  , tenant_id
		  , name
		  , description
		  , rule_type
		  , scope
		  , rule_logic
		  , severity
		  , is_active
		  , created_at
		  , updated_at
`

func (r *RuleRepository) List(ctx context.Context, tenantID string) ([]*models.ValidationRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM validation_rules
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	return r.queryRules(ctx, query, tenantID)
}

func (r *RuleRepository) Active(ctx context.Context, tenantID string) ([]*models.ValidationRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM validation_rules
		WHERE tenant_id = $1 AND is_active
		ORDER BY created_at DESC
	`

	return r.queryRules(ctx, query, tenantID)
}

func (r *RuleRepository) ByID(ctx context.Context, tenantID, id string) (*models.ValidationRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM validation_rules
		WHERE tenant_id = $1 AND id = $2
	`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrRuleNotFound)
		}

		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	return rule, nil
}

// Save inserts or updates a rule. Rules are never hard deleted.
func (r *RuleRepository) Save(ctx context.Context, rule *models.ValidationRule) error {
	now := time.Now().UTC()

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	if rule.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate rule ID: %w", err)
		}

		rule.ID = id.String()
	}

	query := `
		INSERT INTO validation_rules (id, tenant_id, name, description, rule_type,
scope, rule_logic, severity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			rule_type = EXCLUDED.rule_type,
			scope = EXCLUDED.scope,
			rule_logic = EXCLUDED.rule_logic,
			severity = EXCLUDED.severity,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.TenantID,
		rule.Name,
		rule.Description,
		rule.RuleType,
		rule.Scope,
		[]byte(rule.RuleLogic),
		rule.Severity,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// SetActive toggles a rule's active flag and returns the updated rule.
func (r *RuleRepository) SetActive(ctx context.Context, tenantID, id string, active bool) (*models.ValidationRule, error) {
	query := `
		UPDATE validation_rules
		SET is_active = $3, updated_at = $4
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, id, active, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to toggle rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check toggle result: %w", err)
	}

	if affected == 0 {
		return nil, persistence.NewStoreError("SetActive", tenantID, id, persistence.ErrRuleNotFound)
	}

	return r.ByID(ctx, tenantID, id)
}

func (r *RuleRepository) queryRules(ctx context.Context, query string, args ...any) ([]*models.ValidationRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	rules := make([]*models.ValidationRule, 0)

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		rules = append(rules, rule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.ValidationRule, error) {
	var (
		rule      models.ValidationRule
		ruleLogic []byte
	)

	err := row.Scan(
		&rule.ID,
		&rule.TenantID,
		&rule.Name,
		&rule.Description,
		&rule.RuleType,
		&rule.Scope,
		&ruleLogic,
		&rule.Severity,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.RuleLogic = ruleLogic

	return &rule, nil
}

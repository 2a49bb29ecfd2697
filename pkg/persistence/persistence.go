// Package persistence provides the storage abstraction for validation state.
package persistence

import (
	"context"
	"time"

	"github.com/reqarchitect/validation/pkg/models"
)

// Persistence exposes one repository per validation table. All queries are
// tenant-scoped: row isolation is enforced at the query layer.
type Persistence interface {
	Rules() RuleRepository
	Exceptions() ExceptionRepository
	Cycles() CycleRepository
	Issues() IssueRepository
	Scorecards() ScorecardRepository
	Matrix() MatrixRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type RuleRepository interface {
	List(ctx context.Context, tenantID string) ([]*models.ValidationRule, error)
	Active(ctx context.Context, tenantID string) ([]*models.ValidationRule, error)
	ByID(ctx context.Context, tenantID, id string) (*models.ValidationRule, error)
	Save(ctx context.Context, rule *models.ValidationRule) error
	SetActive(ctx context.Context, tenantID, id string, active bool) (*models.ValidationRule, error)
}

type ExceptionRepository interface {
	List(ctx context.Context, tenantID string) ([]*models.ValidationException, error)
	// Active returns exceptions that have not expired at the given instant.
	Active(ctx context.Context, tenantID string, now time.Time) ([]*models.ValidationException, error)
	ByID(ctx context.Context, tenantID, id string) (*models.ValidationException, error)
	Save(ctx context.Context, exception *models.ValidationException) error
	Delete(ctx context.Context, tenantID, id string) error
}

type CycleRepository interface {
	Save(ctx context.Context, cycle *models.ValidationCycle) error
	ByID(ctx context.Context, tenantID, id string) (*models.ValidationCycle, error)
	// List returns cycles newest first, paginated.
	List(ctx context.Context, tenantID string, skip, limit int) ([]*models.ValidationCycle, error)
	Count(ctx context.Context, tenantID string) (int, error)
	// LatestCompleted returns the most recent completed cycle, or
	// ErrCycleNotFound when the tenant has none.
	LatestCompleted(ctx context.Context, tenantID string) (*models.ValidationCycle, error)
}

type IssueRepository interface {
	SaveBatch(ctx context.Context, issues []*models.ValidationIssue) error
	ByCycle(ctx context.Context, tenantID, cycleID string) ([]*models.ValidationIssue, error)
	List(ctx context.Context, tenantID string, skip, limit int) ([]*models.ValidationIssue, error)
	Count(ctx context.Context, tenantID string) (int, error)
	ByID(ctx context.Context, tenantID, id string) (*models.ValidationIssue, error)
	Resolve(ctx context.Context, tenantID, id, resolvedBy string, resolvedAt time.Time) (*models.ValidationIssue, error)
}

type ScorecardRepository interface {
	SaveBatch(ctx context.Context, scorecards []*models.ValidationScorecard) error
	ByCycle(ctx context.Context, tenantID, cycleID string) ([]*models.ValidationScorecard, error)
}

type MatrixRepository interface {
	// Replace swaps the tenant's matrix for the given cycle's entries. The
	// matrix is derived state and is recomputed wholesale each cycle.
	Replace(ctx context.Context, tenantID, cycleID string, entries []*models.TraceabilityMatrixEntry) error
	Entries(ctx context.Context, tenantID string, sourceLayer, targetLayer models.Layer) ([]*models.TraceabilityMatrixEntry, error)
}

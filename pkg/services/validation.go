package services

import (
	"context"
	"fmt"
	"time"

	"github.com/reqarchitect/validation/pkg/engine"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// Validation runs cycles and serves their results.
type Validation struct {
	persistence persistence.Persistence
	engine      *engine.Engine
}

// NewValidation creates a new validation service.
func NewValidation(persistence persistence.Persistence, engine *engine.Engine) *Validation {
	return &Validation{
		persistence: persistence,
		engine:      engine,
	}
}

// HealthCheck checks the health of the persistence layer.
func (v *Validation) HealthCheck(ctx context.Context) (string, bool) {
	if v.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := v.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// RunValidationRequest contains options for triggering a cycle.
type RunValidationRequest struct {
	TenantID    string `validate:"required"`
	TriggeredBy string `validate:"required"`
	RuleSetID   string
}

// Run triggers a new validation cycle. Each call creates a fresh cycle;
// runs are never deduplicated or coalesced.
func (v *Validation) Run(ctx context.Context, req RunValidationRequest) (*models.ValidationCycle, error) {
	if req.TenantID == "" {
		return nil, ErrEmptyTenantID
	}

	cycle, err := v.engine.Run(ctx, engine.RunRequest{
		TenantID:    req.TenantID,
		TriggeredBy: req.TriggeredBy,
		RuleSetID:   req.RuleSetID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run validation cycle: %w", err)
	}

	return cycle, nil
}

// CycleStatus returns one cycle by id, or the latest completed cycle when
// cycleID is empty.
func (v *Validation) CycleStatus(ctx context.Context, tenantID, cycleID string) (*models.ValidationCycle, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	if cycleID == "" {
		return v.persistence.Cycles().LatestCompleted(ctx, tenantID)
	}

	return v.persistence.Cycles().ByID(ctx, tenantID, cycleID)
}

// HistoryResponse contains one page of past cycles.
type HistoryResponse struct {
	Cycles      []*models.ValidationCycle `json:"cycles"`
	TotalCount  int                       `json:"total_count"`
	HasNextPage bool                      `json:"has_next_page"`
}

// History lists past cycles newest first.
func (v *Validation) History(ctx context.Context, tenantID string, skip, limit int) (*HistoryResponse, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	skip, limit = normalizePage(skip, limit)

	cycles, err := v.persistence.Cycles().List(ctx, tenantID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}

	total, err := v.persistence.Cycles().Count(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count cycles: %w", err)
	}

	return &HistoryResponse{
		Cycles:      cycles,
		TotalCount:  total,
		HasNextPage: skip+len(cycles) < total,
	}, nil
}

// IssuesResponse contains one page of issues.
type IssuesResponse struct {
	Issues      []*models.ValidationIssue `json:"issues"`
	TotalCount  int                       `json:"total_count"`
	HasNextPage bool                      `json:"has_next_page"`
}

// Issues lists issues newest first.
func (v *Validation) Issues(ctx context.Context, tenantID string, skip, limit int) (*IssuesResponse, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	skip, limit = normalizePage(skip, limit)

	issues, err := v.persistence.Issues().List(ctx, tenantID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	total, err := v.persistence.Issues().Count(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}

	return &IssuesResponse{
		Issues:      issues,
		TotalCount:  total,
		HasNextPage: skip+len(issues) < total,
	}, nil
}

// ResolveIssue marks an issue manually resolved. Resolution is the only
// mutation an issue row ever sees.
func (v *Validation) ResolveIssue(ctx context.Context, tenantID, issueID, resolvedBy string) (*models.ValidationIssue, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	issue, err := v.persistence.Issues().ByID(ctx, tenantID, issueID)
	if err != nil {
		return nil, err
	}

	if issue.IsResolved {
		return nil, ErrIssueAlreadyResolved
	}

	return v.persistence.Issues().Resolve(ctx, tenantID, issueID, resolvedBy, time.Now().UTC())
}

// Scorecards returns the per-layer scorecards for a cycle, defaulting to
// the latest completed cycle when cycleID is empty.
func (v *Validation) Scorecards(ctx context.Context, tenantID, cycleID string) ([]*models.ValidationScorecard, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	if cycleID == "" {
		latest, err := v.persistence.Cycles().LatestCompleted(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		cycleID = latest.ID
	} else {
		_, err := v.persistence.Cycles().ByID(ctx, tenantID, cycleID)
		if err != nil {
			return nil, err
		}
	}

	return v.persistence.Scorecards().ByCycle(ctx, tenantID, cycleID)
}

// Matrix returns the traceability matrix, optionally filtered by source
// and target layer.
func (v *Validation) Matrix(ctx context.Context, tenantID string, sourceLayer, targetLayer string) ([]*models.TraceabilityMatrixEntry, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	source, err := parseLayerFilter(sourceLayer)
	if err != nil {
		return nil, err
	}

	target, err := parseLayerFilter(targetLayer)
	if err != nil {
		return nil, err
	}

	return v.persistence.Matrix().Entries(ctx, tenantID, source, target)
}

func parseLayerFilter(name string) (models.Layer, error) {
	if name == "" {
		return "", nil
	}

	layer := models.Layer(name)
	if !models.IsValidLayer(layer) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLayer, name)
	}

	return layer, nil
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}

	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	return skip, limit
}

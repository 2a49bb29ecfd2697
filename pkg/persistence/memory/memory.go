// Package memory provides an in-memory persistence implementation for tests
// and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/persistence"
)

// Persistence keeps all validation state in process memory. It implements the
// same tenant scoping rules as the SQL layer.
type Persistence struct {
	mu         sync.RWMutex
	rules      map[string]*models.ValidationRule
	exceptions map[string]*models.ValidationException
	cycles     map[string]*models.ValidationCycle
	issues     map[string]*models.ValidationIssue
	scorecards map[string]*models.ValidationScorecard
	matrix     map[string][]*models.TraceabilityMatrixEntry // tenantID -> entries
}

func NewPersistence() *Persistence {
	return &Persistence{
		rules:      make(map[string]*models.ValidationRule),
		exceptions: make(map[string]*models.ValidationException),
		cycles:     make(map[string]*models.ValidationCycle),
		issues:     make(map[string]*models.ValidationIssue),
		scorecards: make(map[string]*models.ValidationScorecard),
		matrix:     make(map[string][]*models.TraceabilityMatrixEntry),
	}
}

func (p *Persistence) Rules() persistence.RuleRepository           { return &ruleRepo{p} }
func (p *Persistence) Exceptions() persistence.ExceptionRepository { return &exceptionRepo{p} }
func (p *Persistence) Cycles() persistence.CycleRepository         { return &cycleRepo{p} }
func (p *Persistence) Issues() persistence.IssueRepository         { return &issueRepo{p} }
func (p *Persistence) Scorecards() persistence.ScorecardRepository { return &scorecardRepo{p} }
func (p *Persistence) Matrix() persistence.MatrixRepository        { return &matrixRepo{p} }

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

type ruleRepo struct{ p *Persistence }

func (r *ruleRepo) List(_ context.Context, tenantID string) ([]*models.ValidationRule, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	rules := make([]*models.ValidationRule, 0)

	for _, rule := range r.p.rules {
		if rule.TenantID == tenantID {
			copied := *rule
			rules = append(rules, &copied)
		}
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.After(rules[j].CreatedAt) })

	return rules, nil
}

func (r *ruleRepo) Active(ctx context.Context, tenantID string) ([]*models.ValidationRule, error) {
	all, err := r.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	active := make([]*models.ValidationRule, 0, len(all))

	for _, rule := range all {
		if rule.IsActive {
			active = append(active, rule)
		}
	}

	return active, nil
}

func (r *ruleRepo) ByID(_ context.Context, tenantID, id string) (*models.ValidationRule, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	rule, ok := r.p.rules[id]
	if !ok || rule.TenantID != tenantID {
		return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrRuleNotFound)
	}

	copied := *rule

	return &copied, nil
}

func (r *ruleRepo) Save(_ context.Context, rule *models.ValidationRule) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	now := time.Now().UTC()

	if rule.ID == "" {
		rule.ID = newID()
	}

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	copied := *rule
	r.p.rules[rule.ID] = &copied

	return nil
}

func (r *ruleRepo) SetActive(_ context.Context, tenantID, id string, active bool) (*models.ValidationRule, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	rule, ok := r.p.rules[id]
	if !ok || rule.TenantID != tenantID {
		return nil, persistence.NewStoreError("SetActive", tenantID, id, persistence.ErrRuleNotFound)
	}

	rule.IsActive = active
	rule.UpdatedAt = time.Now().UTC()

	copied := *rule

	return &copied, nil
}

type exceptionRepo struct{ p *Persistence }

func (r *exceptionRepo) List(_ context.Context, tenantID string) ([]*models.ValidationException, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	exceptions := make([]*models.ValidationException, 0)

	for _, exception := range r.p.exceptions {
		if exception.TenantID == tenantID {
			copied := *exception
			exceptions = append(exceptions, &copied)
		}
	}

	sort.Slice(exceptions, func(i, j int) bool {
		return exceptions[i].CreatedAt.After(exceptions[j].CreatedAt)
	})

	return exceptions, nil
}

func (r *exceptionRepo) Active(ctx context.Context, tenantID string, now time.Time) ([]*models.ValidationException, error) {
	all, err := r.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	active := make([]*models.ValidationException, 0, len(all))

	for _, exception := range all {
		if !exception.ExpiredAt(now) {
			active = append(active, exception)
		}
	}

	return active, nil
}

func (r *exceptionRepo) ByID(_ context.Context, tenantID, id string) (*models.ValidationException, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	exception, ok := r.p.exceptions[id]
	if !ok || exception.TenantID != tenantID {
		return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrExceptionNotFound)
	}

	copied := *exception

	return &copied, nil
}

func (r *exceptionRepo) Save(_ context.Context, exception *models.ValidationException) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if exception.ID == "" {
		exception.ID = newID()
	}

	if exception.CreatedAt.IsZero() {
		exception.CreatedAt = time.Now().UTC()
	}

	copied := *exception
	r.p.exceptions[exception.ID] = &copied

	return nil
}

func (r *exceptionRepo) Delete(_ context.Context, tenantID, id string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	exception, ok := r.p.exceptions[id]
	if !ok || exception.TenantID != tenantID {
		return persistence.NewStoreError("Delete", tenantID, id, persistence.ErrExceptionNotFound)
	}

	delete(r.p.exceptions, id)

	return nil
}

type cycleRepo struct{ p *Persistence }

func (r *cycleRepo) Save(_ context.Context, cycle *models.ValidationCycle) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if cycle.ID == "" {
		cycle.ID = newID()
	}

	copied := *cycle
	r.p.cycles[cycle.ID] = &copied

	return nil
}

func (r *cycleRepo) ByID(_ context.Context, tenantID, id string) (*models.ValidationCycle, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	cycle, ok := r.p.cycles[id]
	if !ok || cycle.TenantID != tenantID {
		return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrCycleNotFound)
	}

	copied := *cycle

	return &copied, nil
}

func (r *cycleRepo) List(_ context.Context, tenantID string, skip, limit int) ([]*models.ValidationCycle, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	cycles := make([]*models.ValidationCycle, 0)

	for _, cycle := range r.p.cycles {
		if cycle.TenantID == tenantID {
			copied := *cycle
			cycles = append(cycles, &copied)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].StartTime.After(cycles[j].StartTime) })

	if skip >= len(cycles) {
		return []*models.ValidationCycle{}, nil
	}

	cycles = cycles[skip:]
	if limit > 0 && limit < len(cycles) {
		cycles = cycles[:limit]
	}

	return cycles, nil
}

func (r *cycleRepo) Count(_ context.Context, tenantID string) (int, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	count := 0

	for _, cycle := range r.p.cycles {
		if cycle.TenantID == tenantID {
			count++
		}
	}

	return count, nil
}

func (r *cycleRepo) LatestCompleted(ctx context.Context, tenantID string) (*models.ValidationCycle, error) {
	cycles, err := r.List(ctx, tenantID, 0, 0)
	if err != nil {
		return nil, err
	}

	for _, cycle := range cycles {
		if cycle.ExecutionStatus == models.CycleStatusCompleted {
			return cycle, nil
		}
	}

	return nil, persistence.NewStoreError("LatestCompleted", tenantID, "", persistence.ErrCycleNotFound)
}

type issueRepo struct{ p *Persistence }

func (r *issueRepo) SaveBatch(_ context.Context, issues []*models.ValidationIssue) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	for _, issue := range issues {
		if issue.ID == "" {
			issue.ID = newID()
		}

		if issue.Timestamp.IsZero() {
			issue.Timestamp = time.Now().UTC()
		}

		copied := *issue
		r.p.issues[issue.ID] = &copied
	}

	return nil
}

func (r *issueRepo) ByCycle(_ context.Context, tenantID, cycleID string) ([]*models.ValidationIssue, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	issues := make([]*models.ValidationIssue, 0)

	for _, issue := range r.p.issues {
		if issue.TenantID == tenantID && issue.ValidationCycleID == cycleID {
			copied := *issue
			issues = append(issues, &copied)
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Timestamp.Before(issues[j].Timestamp) })

	return issues, nil
}

func (r *issueRepo) List(_ context.Context, tenantID string, skip, limit int) ([]*models.ValidationIssue, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	issues := make([]*models.ValidationIssue, 0)

	for _, issue := range r.p.issues {
		if issue.TenantID == tenantID {
			copied := *issue
			issues = append(issues, &copied)
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Timestamp.After(issues[j].Timestamp) })

	if skip >= len(issues) {
		return []*models.ValidationIssue{}, nil
	}

	issues = issues[skip:]
	if limit > 0 && limit < len(issues) {
		issues = issues[:limit]
	}

	return issues, nil
}

func (r *issueRepo) Count(_ context.Context, tenantID string) (int, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	count := 0

	for _, issue := range r.p.issues {
		if issue.TenantID == tenantID {
			count++
		}
	}

	return count, nil
}

func (r *issueRepo) ByID(_ context.Context, tenantID, id string) (*models.ValidationIssue, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	issue, ok := r.p.issues[id]
	if !ok || issue.TenantID != tenantID {
		return nil, persistence.NewStoreError("ByID", tenantID, id, persistence.ErrIssueNotFound)
	}

	copied := *issue

	return &copied, nil
}

func (r *issueRepo) Resolve(_ context.Context, tenantID, id, resolvedBy string, resolvedAt time.Time) (*models.ValidationIssue, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	issue, ok := r.p.issues[id]
	if !ok || issue.TenantID != tenantID {
		return nil, persistence.NewStoreError("Resolve", tenantID, id, persistence.ErrIssueNotFound)
	}

	issue.IsResolved = true
	issue.ResolvedAt = &resolvedAt
	issue.ResolvedBy = resolvedBy

	copied := *issue

	return &copied, nil
}

type scorecardRepo struct{ p *Persistence }

func (r *scorecardRepo) SaveBatch(_ context.Context, scorecards []*models.ValidationScorecard) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	for _, scorecard := range scorecards {
		if scorecard.ID == "" {
			scorecard.ID = newID()
		}

		if scorecard.CreatedAt.IsZero() {
			scorecard.CreatedAt = time.Now().UTC()
		}

		copied := *scorecard
		r.p.scorecards[scorecard.ID] = &copied
	}

	return nil
}

func (r *scorecardRepo) ByCycle(_ context.Context, tenantID, cycleID string) ([]*models.ValidationScorecard, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	scorecards := make([]*models.ValidationScorecard, 0)

	for _, scorecard := range r.p.scorecards {
		if scorecard.TenantID == tenantID && scorecard.ValidationCycleID == cycleID {
			copied := *scorecard
			scorecards = append(scorecards, &copied)
		}
	}

	sort.Slice(scorecards, func(i, j int) bool { return scorecards[i].Layer < scorecards[j].Layer })

	return scorecards, nil
}

type matrixRepo struct{ p *Persistence }

func (r *matrixRepo) Replace(_ context.Context, tenantID, cycleID string, entries []*models.TraceabilityMatrixEntry) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	copied := make([]*models.TraceabilityMatrixEntry, 0, len(entries))

	for _, entry := range entries {
		e := *entry
		e.TenantID = tenantID
		e.ValidationCycleID = cycleID

		if e.LastUpdated.IsZero() {
			e.LastUpdated = time.Now().UTC()
		}

		copied = append(copied, &e)
	}

	r.p.matrix[tenantID] = copied

	return nil
}

func (r *matrixRepo) Entries(_ context.Context, tenantID string, sourceLayer, targetLayer models.Layer) ([]*models.TraceabilityMatrixEntry, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	entries := make([]*models.TraceabilityMatrixEntry, 0)

	for _, entry := range r.p.matrix[tenantID] {
		if sourceLayer != "" && entry.SourceLayer != sourceLayer {
			continue
		}

		if targetLayer != "" && entry.TargetLayer != targetLayer {
			continue
		}

		copied := *entry
		entries = append(entries, &copied)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SourceEntityType != entries[j].SourceEntityType {
			return entries[i].SourceEntityType < entries[j].SourceEntityType
		}

		return entries[i].TargetEntityType < entries[j].TargetEntityType
	})

	return entries, nil
}

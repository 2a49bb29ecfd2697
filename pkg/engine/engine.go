// Package engine runs validation cycles: it snapshots rules and exceptions,
// fans evaluation out per rule, persists issues, scores the result and emits
// lifecycle events.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reqarchitect/validation/pkg/eventbus"
	"github.com/reqarchitect/validation/pkg/events"
	"github.com/reqarchitect/validation/pkg/evaluators"
	"github.com/reqarchitect/validation/pkg/matrix"
	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/otelhelper"
	"github.com/reqarchitect/validation/pkg/persistence"
	"github.com/reqarchitect/validation/pkg/provider"
	"github.com/reqarchitect/validation/pkg/scoring"
)

// DefaultCycleTimeout bounds a whole cycle so hanging element-provider
// calls cannot pin a tenant's run forever.
const DefaultCycleTimeout = 5 * time.Minute

// RunRequest describes one requested validation pass.
type RunRequest struct {
	TenantID    string
	TriggeredBy string
	// RuleSetID optionally restricts the run to a comma-separated list of
	// rule IDs.
	RuleSetID string
}

type Engine struct {
	persistence persistence.Persistence
	client      provider.Client
	registry    *evaluators.Registry
	scorer      *scoring.Builder
	matrixer    *matrix.Builder
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	timeout     time.Duration
	logger      *slog.Logger
}

func NewEngine(
	persistence persistence.Persistence,
	client provider.Client,
	registry *evaluators.Registry,
	eventBus eventbus.EventPublisher,
	timeout time.Duration,
	logger *slog.Logger,
) *Engine {
	if timeout <= 0 {
		timeout = DefaultCycleTimeout
	}

	return &Engine{
		persistence: persistence,
		client:      client,
		registry:    registry,
		scorer:      scoring.NewBuilder(),
		matrixer:    matrix.NewBuilder(logger),
		eventBus:    eventBus,
		tracer:      otel.Tracer("validation-engine"),
		timeout:     timeout,
		logger:      logger.With("module", "validation_engine"),
	}
}

type ruleSnapshot struct {
	rule  *models.ValidationRule
	logic models.RuleLogic
}

// Run executes one validation cycle for a tenant. Every invocation creates
// a fresh cycle: re-running is a new point-in-time assessment, never an
// update of a previous one. A cycle that ends up failed is still returned
// with a nil error so callers can report its id and status.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*models.ValidationCycle, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	ctx, span := e.tracer.Start(ctx, "validation.cycle.run", trace.WithAttributes(
		attribute.String(otelhelper.TenantIDKey, req.TenantID),
		attribute.String(otelhelper.TriggeredByKey, req.TriggeredBy),
	))
	defer span.End()

	now := time.Now().UTC()

	cycle := &models.ValidationCycle{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		StartTime:       now,
		TriggeredBy:     req.TriggeredBy,
		RuleSetID:       req.RuleSetID,
		ExecutionStatus: models.CycleStatusRunning,
	}

	logger := e.logger.With("tenant_id", req.TenantID, "cycle_id", cycle.ID)

	if err := e.persistence.Cycles().Save(ctx, cycle); err != nil {
		return nil, fmt.Errorf("failed to create validation cycle: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.CycleIDKey, cycle.ID))
	logger.InfoContext(ctx, "Starting validation cycle", "triggered_by", req.TriggeredBy)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	snapshots, err := e.snapshotRules(runCtx, req)
	if err != nil {
		return e.fail(ctx, cycle, logger, fmt.Errorf("failed to load rules: %w", err))
	}

	exceptions, err := e.snapshotExceptions(runCtx, req.TenantID, now)
	if err != nil {
		return e.fail(ctx, cycle, logger, fmt.Errorf("failed to load exceptions: %w", err))
	}

	fetcher := provider.NewCycleFetcher(e.client, req.TenantID, e.logger)

	issues, failedRules := e.evaluate(runCtx, cycle, snapshots, fetcher, exceptions, logger)

	if err := runCtx.Err(); err != nil {
		return e.fail(ctx, cycle, logger, fmt.Errorf("cycle deadline exceeded: %w", err))
	}

	if len(snapshots) > 0 && failedRules == len(snapshots) {
		// Every rule failed: "could not evaluate" must not read as
		// "nothing wrong", so no issues are recorded.
		return e.fail(ctx, cycle, logger, fmt.Errorf("all %d rules failed to evaluate", len(snapshots)))
	}

	if len(issues) > 0 {
		if err := e.persistence.Issues().SaveBatch(runCtx, issues); err != nil {
			return e.fail(ctx, cycle, logger, fmt.Errorf("failed to persist issues: %w", err))
		}
	}

	stats := e.layerStats(runCtx, snapshots, fetcher)

	scorecards := e.scorer.Build(cycle, issues, stats, now)
	if err := e.persistence.Scorecards().SaveBatch(runCtx, scorecards); err != nil {
		return e.fail(ctx, cycle, logger, fmt.Errorf("failed to persist scorecards: %w", err))
	}

	entries := e.matrixer.Build(runCtx, cycle, rulesOf(snapshots), fetcher, now)
	if err := e.persistence.Matrix().Replace(runCtx, req.TenantID, cycle.ID, entries); err != nil {
		return e.fail(ctx, cycle, logger, fmt.Errorf("failed to persist traceability matrix: %w", err))
	}

	endTime := time.Now().UTC()
	cycle.EndTime = &endTime
	cycle.TotalIssuesFound = len(issues)
	cycle.MaturityScore = e.scorer.Maturity(scorecards, stats)
	cycle.ExecutionStatus = models.CycleStatusCompleted

	if err := e.persistence.Cycles().Save(runCtx, cycle); err != nil {
		return nil, fmt.Errorf("failed to finalize validation cycle: %w", err)
	}

	if unavailable := fetcher.UnavailableTypes(); len(unavailable) > 0 {
		logger.WarnContext(ctx, "Cycle completed with unavailable element types", "element_types", unavailable)
	}

	logger.InfoContext(ctx, "Validation cycle completed",
		"total_issues", cycle.TotalIssuesFound,
		"failed_rules", failedRules,
		"duration", endTime.Sub(cycle.StartTime).String())

	e.emitCompleted(ctx, cycle, issues, endTime.Sub(cycle.StartTime))

	return cycle, nil
}

func (e *Engine) snapshotRules(ctx context.Context, req RunRequest) ([]ruleSnapshot, error) {
	rules, err := e.persistence.Rules().Active(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	var selected map[string]struct{}

	if req.RuleSetID != "" {
		selected = make(map[string]struct{})

		for _, id := range strings.Split(req.RuleSetID, ",") {
			selected[strings.TrimSpace(id)] = struct{}{}
		}
	}

	snapshots := make([]ruleSnapshot, 0, len(rules))

	for _, rule := range rules {
		if selected != nil {
			if _, ok := selected[rule.ID]; !ok {
				continue
			}
		}

		snapshots = append(snapshots, ruleSnapshot{rule: rule})
	}

	return snapshots, nil
}

func (e *Engine) snapshotExceptions(ctx context.Context, tenantID string, now time.Time) (*evaluators.ExceptionIndex, error) {
	active, err := e.persistence.Exceptions().Active(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	return evaluators.NewExceptionIndex(active, now), nil
}

// evaluate fans rules out concurrently and fans issue candidates back in.
// A single rule's failure (malformed logic, provider error, evaluator
// error) is absorbed and logged, never fatal to the cycle.
func (e *Engine) evaluate(
	ctx context.Context,
	cycle *models.ValidationCycle,
	snapshots []ruleSnapshot,
	fetcher provider.Fetcher,
	exceptions *evaluators.ExceptionIndex,
	logger *slog.Logger,
) ([]*models.ValidationIssue, int) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		issues = make([]*models.ValidationIssue, 0)
		failed = 0
	)

	for i := range snapshots {
		snapshot := &snapshots[i]

		wg.Add(1)

		go func() {
			defer wg.Done()

			ruleIssues, err := e.evaluateRule(ctx, snapshot, fetcher, exceptions)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failed++

				logger.ErrorContext(ctx, "Rule evaluation failed",
					"rule_id", snapshot.rule.ID,
					"rule_type", snapshot.rule.RuleType,
					"error", err)

				return
			}

			for _, issue := range ruleIssues {
				issue.ID = uuid.NewString()
				issue.TenantID = cycle.TenantID
				issue.ValidationCycleID = cycle.ID
				issue.Timestamp = time.Now().UTC()
			}

			issues = append(issues, ruleIssues...)
		}()
	}

	wg.Wait()

	return issues, failed
}

func (e *Engine) evaluateRule(
	ctx context.Context,
	snapshot *ruleSnapshot,
	fetcher provider.Fetcher,
	exceptions *evaluators.ExceptionIndex,
) ([]*models.ValidationIssue, error) {
	logic, err := snapshot.rule.DecodeLogic()
	if err != nil {
		return nil, err
	}

	snapshot.logic = logic

	evaluator, err := e.registry.For(snapshot.rule.RuleType)
	if err != nil {
		return nil, err
	}

	return evaluator.Evaluate(ctx, snapshot.rule, logic, fetcher, exceptions)
}

// layerStats derives the score denominators from the element sets the
// cycle's rules actually touched. The fetcher has everything cached, so
// this re-reads are cheap and consistent with what was evaluated.
func (e *Engine) layerStats(
	ctx context.Context,
	snapshots []ruleSnapshot,
	fetcher provider.Fetcher,
) map[models.Layer]scoring.LayerStats {
	stats := make(map[models.Layer]scoring.LayerStats)
	countedTypes := make(map[string]struct{})

	countElements := func(elementType string) int {
		records, available := fetcher.Elements(ctx, elementType)
		if !available {
			return 0
		}

		if _, seen := countedTypes[elementType]; !seen {
			countedTypes[elementType] = struct{}{}

			layer := models.LayerOfElementType(elementType)
			s := stats[layer]
			s.ElementCount += len(records)
			stats[layer] = s
		}

		return len(records)
	}

	for i := range snapshots {
		snapshot := &snapshots[i]

		switch {
		case snapshot.logic.Traceability != nil:
			cfg := snapshot.logic.Traceability
			sources := countElements(cfg.SourceType)
			countElements(cfg.TargetType)

			layer := models.LayerOfElementType(cfg.SourceType)
			s := stats[layer]
			s.RelationshipCount += sources * cfg.MinConnections
			stats[layer] = s
		case snapshot.logic.Completeness != nil:
			countElements(snapshot.logic.Completeness.ElementType)
		case snapshot.logic.Alignment != nil:
			cfg := snapshot.logic.Alignment

			pairs := 0
			for _, elementType := range models.ElementTypesForLayer(cfg.SourceLayer) {
				pairs += countElements(elementType)
			}

			for _, elementType := range models.ElementTypesForLayer(cfg.TargetLayer) {
				countElements(elementType)
			}

			s := stats[cfg.SourceLayer]
			s.AlignmentPairs += pairs
			stats[cfg.SourceLayer] = s
		}
	}

	return stats
}

// fail finalizes the cycle as failed. No issues are recorded for a failed
// cycle; the cycle row itself is still persisted so history reports it.
func (e *Engine) fail(ctx context.Context, cycle *models.ValidationCycle, logger *slog.Logger, cause error) (*models.ValidationCycle, error) {
	logger.ErrorContext(ctx, "Validation cycle failed", "error", cause)

	otelhelper.SetError(trace.SpanFromContext(ctx), cause,
		attribute.String(otelhelper.TenantIDKey, cycle.TenantID),
		attribute.String(otelhelper.CycleIDKey, cycle.ID))

	// The run context may already be past its deadline.
	finalizeCtx := context.WithoutCancel(ctx)

	endTime := time.Now().UTC()
	cycle.EndTime = &endTime
	cycle.TotalIssuesFound = 0
	cycle.ExecutionStatus = models.CycleStatusFailed

	if err := e.persistence.Cycles().Save(finalizeCtx, cycle); err != nil {
		logger.ErrorContext(ctx, "Failed to persist failed cycle status", "error", err)
	}

	e.emit(finalizeCtx, cycle.ID, events.ValidationFailed{
		BaseEvent: e.baseEvent(events.ValidationFailedEvent, cycle.TenantID),
		CycleID:   cycle.ID,
		Error:     cause.Error(),
	}, logger)

	return cycle, nil
}

func (e *Engine) emitCompleted(ctx context.Context, cycle *models.ValidationCycle, issues []*models.ValidationIssue, duration time.Duration) {
	logger := e.logger.With("tenant_id", cycle.TenantID, "cycle_id", cycle.ID)

	e.emit(ctx, cycle.ID, events.ValidationCompleted{
		BaseEvent:     e.baseEvent(events.ValidationCompletedEvent, cycle.TenantID),
		CycleID:       cycle.ID,
		TriggeredBy:   cycle.TriggeredBy,
		TotalIssues:   cycle.TotalIssuesFound,
		MaturityScore: cycle.MaturityScore,
		Duration:      duration,
	}, logger)

	for _, issue := range issues {
		e.emit(ctx, cycle.ID, events.ValidationIssueDetected{
			BaseEvent: e.baseEvent(events.ValidationIssueDetectedEvent, cycle.TenantID),
			CycleID:   cycle.ID,
			Issue:     *issue,
		}, logger)
	}
}

func (e *Engine) baseEvent(eventType events.EventType, tenantID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
	}
}

// emit is fire-and-forget: delivery failure is logged and never rolls back
// persisted cycle state.
func (e *Engine) emit(ctx context.Context, key string, event eventbus.Event, logger *slog.Logger) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func rulesOf(snapshots []ruleSnapshot) []*models.ValidationRule {
	rules := make([]*models.ValidationRule, 0, len(snapshots))

	for _, snapshot := range snapshots {
		rules = append(rules, snapshot.rule)
	}

	return rules
}

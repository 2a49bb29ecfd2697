package evaluators

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/provider"
)

// TraceabilityEvaluator checks that each source element holds enough
// relationships of the configured type pointing at target elements.
type TraceabilityEvaluator struct {
	logger *slog.Logger
}

func NewTraceabilityEvaluator(logger *slog.Logger) *TraceabilityEvaluator {
	return &TraceabilityEvaluator{logger: logger.With("module", "traceability_evaluator")}
}

func (e *TraceabilityEvaluator) Type() models.RuleType {
	return models.RuleTypeTraceability
}

func (e *TraceabilityEvaluator) Evaluate(
	ctx context.Context,
	rule *models.ValidationRule,
	logic models.RuleLogic,
	fetcher provider.Fetcher,
	exceptions *ExceptionIndex,
) ([]*models.ValidationIssue, error) {
	cfg := logic.Traceability
	if cfg == nil {
		return nil, fmt.Errorf("%w: rule %s has no traceability logic", models.ErrMalformedRule, rule.ID)
	}

	sources, available := fetcher.Elements(ctx, cfg.SourceType)
	if !available {
		// data_unavailable: an unreachable provider must not surface as
		// missing_link issues.
		e.logger.WarnContext(ctx, "Skipping traceability rule, source type data_unavailable",
			"rule_id", rule.ID, "element_type", cfg.SourceType)

		return nil, nil
	}

	issues := make([]*models.ValidationIssue, 0)

	for _, source := range sources {
		links, available := fetcher.Links(ctx, cfg.SourceType, source.ID)
		if !available {
			e.logger.WarnContext(ctx, "Skipping element, links data_unavailable",
				"rule_id", rule.ID, "element_type", cfg.SourceType, "element_id", source.ID)

			continue
		}

		actual := 0

		for _, link := range links {
			if link.LinkType == cfg.RelationshipType && link.LinkedElementType == cfg.TargetType {
				actual++
			}
		}

		if actual >= cfg.MinConnections {
			continue
		}

		if exceptions.Suppressed(rule.ID, cfg.SourceType, source.ID) {
			e.logger.DebugContext(ctx, "Issue suppressed by exception",
				"rule_id", rule.ID, "entity_type", cfg.SourceType, "entity_id", source.ID)

			continue
		}

		issues = append(issues, &models.ValidationIssue{
			RuleID:     rule.ID,
			EntityType: cfg.SourceType,
			EntityID:   source.ID,
			IssueType:  models.IssueTypeMissingLink,
			Severity:   rule.Severity,
			Description: fmt.Sprintf("%s %q has %d %s link(s) to %s, expected at least %d",
				cfg.SourceType, source.Name, actual, cfg.RelationshipType, cfg.TargetType, cfg.MinConnections),
			RecommendedFix: fmt.Sprintf("Create a %s relationship from %s %q to a %s element",
				cfg.RelationshipType, cfg.SourceType, source.Name, cfg.TargetType),
			Metadata: map[string]any{
				"source_name":          source.Name,
				"relationship_type":    cfg.RelationshipType,
				"target_type":          cfg.TargetType,
				"expected_connections": cfg.MinConnections,
				"actual_connections":   actual,
			},
		})
	}

	return issues, nil
}

package evaluators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/provider"
)

// CompletenessEvaluator checks that enough elements of a type exist and
// that each element carries the configured required fields.
type CompletenessEvaluator struct {
	logger *slog.Logger
}

func NewCompletenessEvaluator(logger *slog.Logger) *CompletenessEvaluator {
	return &CompletenessEvaluator{logger: logger.With("module", "completeness_evaluator")}
}

func (e *CompletenessEvaluator) Type() models.RuleType {
	return models.RuleTypeCompleteness
}

func (e *CompletenessEvaluator) Evaluate(
	ctx context.Context,
	rule *models.ValidationRule,
	logic models.RuleLogic,
	fetcher provider.Fetcher,
	exceptions *ExceptionIndex,
) ([]*models.ValidationIssue, error) {
	cfg := logic.Completeness
	if cfg == nil {
		return nil, fmt.Errorf("%w: rule %s has no completeness logic", models.ErrMalformedRule, rule.ID)
	}

	elements, available := fetcher.Elements(ctx, cfg.ElementType)
	if !available {
		e.logger.WarnContext(ctx, "Skipping completeness rule, element type data_unavailable",
			"rule_id", rule.ID, "element_type", cfg.ElementType)

		return nil, nil
	}

	issues := make([]*models.ValidationIssue, 0)

	if len(elements) < cfg.MinCount {
		if !exceptions.Suppressed(rule.ID, cfg.ElementType, models.CollectionEntityID) {
			issues = append(issues, &models.ValidationIssue{
				RuleID:     rule.ID,
				EntityType: cfg.ElementType,
				EntityID:   models.CollectionEntityID,
				IssueType:  models.IssueTypeOrphaned,
				Severity:   rule.Severity,
				Description: fmt.Sprintf("Only %d %s element(s) exist, expected at least %d",
					len(elements), cfg.ElementType, cfg.MinCount),
				RecommendedFix: fmt.Sprintf("Model at least %d %s element(s)", cfg.MinCount, cfg.ElementType),
				Metadata: map[string]any{
					"expected_count": cfg.MinCount,
					"actual_count":   len(elements),
				},
			})
		}
	}

	for _, element := range elements {
		missing := missingFields(element, cfg.RequiredFields)
		if len(missing) == 0 {
			continue
		}

		if exceptions.Suppressed(rule.ID, cfg.ElementType, element.ID) {
			e.logger.DebugContext(ctx, "Issue suppressed by exception",
				"rule_id", rule.ID, "entity_type", cfg.ElementType, "entity_id", element.ID)

			continue
		}

		issues = append(issues, &models.ValidationIssue{
			RuleID:     rule.ID,
			EntityType: cfg.ElementType,
			EntityID:   element.ID,
			IssueType:  models.IssueTypeInvalidEnum,
			Severity:   rule.Severity,
			Description: fmt.Sprintf("%s %q is missing required field(s): %s",
				cfg.ElementType, element.Name, strings.Join(missing, ", ")),
			RecommendedFix: fmt.Sprintf("Fill in %s on %s %q",
				strings.Join(missing, ", "), cfg.ElementType, element.Name),
			Metadata: map[string]any{
				"element_name":    element.Name,
				"required_fields": cfg.RequiredFields,
				"missing_fields":  missing,
			},
		})
	}

	return issues, nil
}

// missingFields treats empty strings and nil values as absent.
func missingFields(element models.ElementRecord, required []string) []string {
	missing := make([]string, 0)

	for _, field := range required {
		if field == "name" {
			if strings.TrimSpace(element.Name) == "" {
				missing = append(missing, field)
			}

			continue
		}

		value, ok := element.Field(field)
		if !ok || value == nil {
			missing = append(missing, field)

			continue
		}

		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}

	return missing
}

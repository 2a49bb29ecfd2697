package evaluators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/provider"
)

// AlignmentEvaluator checks that elements in a source layer have a
// sufficiently similar counterpart in a target layer.
type AlignmentEvaluator struct {
	logger *slog.Logger
}

func NewAlignmentEvaluator(logger *slog.Logger) *AlignmentEvaluator {
	return &AlignmentEvaluator{logger: logger.With("module", "alignment_evaluator")}
}

func (e *AlignmentEvaluator) Type() models.RuleType {
	return models.RuleTypeAlignment
}

func (e *AlignmentEvaluator) Evaluate(
	ctx context.Context,
	rule *models.ValidationRule,
	logic models.RuleLogic,
	fetcher provider.Fetcher,
	exceptions *ExceptionIndex,
) ([]*models.ValidationIssue, error) {
	cfg := logic.Alignment
	if cfg == nil {
		return nil, fmt.Errorf("%w: rule %s has no alignment logic", models.ErrMalformedRule, rule.ID)
	}

	sources := e.layerElements(ctx, fetcher, cfg.SourceLayer)
	targets := e.layerElements(ctx, fetcher, cfg.TargetLayer)

	// An empty layer on either side is absence of data, not misalignment.
	if len(sources) == 0 || len(targets) == 0 {
		return nil, nil
	}

	severity := rule.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}

	issues := make([]*models.ValidationIssue, 0)

	for _, source := range sources {
		best := 0.0
		bestTarget := ""

		for _, target := range targets {
			score := nameSimilarity(source.Name, target.Name, cfg.Criteria.SemanticMatching)
			if score > best {
				best = score
				bestTarget = target.Name
			}
		}

		if best >= cfg.Criteria.NameSimilarity {
			continue
		}

		if exceptions.Suppressed(rule.ID, source.Type, source.ID) {
			e.logger.DebugContext(ctx, "Issue suppressed by exception",
				"rule_id", rule.ID, "entity_type", source.Type, "entity_id", source.ID)

			continue
		}

		issues = append(issues, &models.ValidationIssue{
			RuleID:     rule.ID,
			EntityType: source.Type,
			EntityID:   source.ID,
			IssueType:  models.IssueTypeBrokenTraceability,
			Severity:   severity,
			Description: fmt.Sprintf("%s %q in the %s layer has no aligned element in the %s layer (best match %.2f, threshold %.2f)",
				source.Type, source.Name, cfg.SourceLayer, cfg.TargetLayer, best, cfg.Criteria.NameSimilarity),
			RecommendedFix: fmt.Sprintf("Model a %s-layer element realizing %s %q, or rename for consistency",
				cfg.TargetLayer, source.Type, source.Name),
			Metadata: map[string]any{
				"source_name":      source.Name,
				"source_layer":     string(cfg.SourceLayer),
				"target_layer":     string(cfg.TargetLayer),
				"best_match_name":  bestTarget,
				"best_match_score": best,
				"threshold":        cfg.Criteria.NameSimilarity,
			},
		})
	}

	return issues, nil
}

func (e *AlignmentEvaluator) layerElements(ctx context.Context, fetcher provider.Fetcher, layer models.Layer) []models.ElementRecord {
	elements := make([]models.ElementRecord, 0)

	for _, elementType := range models.ElementTypesForLayer(layer) {
		records, available := fetcher.Elements(ctx, elementType)
		if !available {
			e.logger.WarnContext(ctx, "Skipping element type, data_unavailable",
				"layer", layer, "element_type", elementType)

			continue
		}

		elements = append(elements, records...)
	}

	return elements
}

// nameSimilarity scores normalized token overlap (Jaccard) between two
// names. With semantic matching enabled, token prefixes of length four
// or more also count as matches, catching inflected forms such as
// "payments" vs "payment".
func nameSimilarity(a, b string, semantic bool) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	matched := 0

	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			matched++

			continue
		}

		if semantic && hasPrefixMatch(token, tokensB) {
			matched++
		}
	}

	union := len(tokensA) + len(tokensB) - matched
	if union == 0 {
		return 0
	}

	return float64(matched) / float64(union)
}

func tokenize(name string) map[string]struct{} {
	tokens := make(map[string]struct{})

	for _, token := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		tokens[token] = struct{}{}
	}

	return tokens
}

func hasPrefixMatch(token string, candidates map[string]struct{}) bool {
	const minPrefix = 4

	for candidate := range candidates {
		shorter := token
		if len(candidate) < len(shorter) {
			shorter = candidate
		}

		if len(shorter) >= minPrefix && (strings.HasPrefix(token, candidate) || strings.HasPrefix(candidate, token)) {
			return true
		}
	}

	return false
}

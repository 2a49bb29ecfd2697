// Package evaluators implements the rule evaluation strategies. Each
// evaluator is a pure function of (elements, rule logic, exceptions) and
// produces issue candidates; it never writes state.
package evaluators

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/provider"
)

// Evaluator applies one rule type's logic to the tenant's element graph.
type Evaluator interface {
	Type() models.RuleType
	Evaluate(
		ctx context.Context,
		rule *models.ValidationRule,
		logic models.RuleLogic,
		fetcher provider.Fetcher,
		exceptions *ExceptionIndex,
	) ([]*models.ValidationIssue, error)
}

// Registry dispatches rules to the evaluator registered for their type.
type Registry struct {
	logger     *slog.Logger
	evaluators map[models.RuleType]Evaluator
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:     logger,
		evaluators: make(map[models.RuleType]Evaluator),
	}
}

// DefaultRegistry returns a registry with all three built-in evaluators.
func DefaultRegistry(logger *slog.Logger) *Registry {
	registry := NewRegistry(logger)
	registry.Register(NewTraceabilityEvaluator(logger))
	registry.Register(NewCompletenessEvaluator(logger))
	registry.Register(NewAlignmentEvaluator(logger))

	return registry
}

func (r *Registry) Register(evaluator Evaluator) {
	r.evaluators[evaluator.Type()] = evaluator
}

// For returns the evaluator handling the given rule type.
func (r *Registry) For(ruleType models.RuleType) (Evaluator, error) {
	evaluator, ok := r.evaluators[ruleType]
	if !ok {
		return nil, fmt.Errorf("rule type %q not registered", ruleType)
	}

	return evaluator, nil
}

// Types lists the registered rule types.
func (r *Registry) Types() []models.RuleType {
	types := make([]models.RuleType, 0, len(r.evaluators))
	for ruleType := range r.evaluators {
		types = append(types, ruleType)
	}

	return types
}

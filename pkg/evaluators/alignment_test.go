package evaluators

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqarchitect/validation/pkg/models"
)

func alignmentRule(severity models.Severity, threshold float64) (*models.ValidationRule, models.RuleLogic) {
	rule := &models.ValidationRule{
		ID:       "rule-align-1",
		TenantID: "tenant-1",
		Name:     "Motivation aligns with business",
		RuleType: models.RuleTypeAlignment,
		Severity: severity,
		IsActive: true,
	}

	logic := models.RuleLogic{
		Alignment: &models.AlignmentLogic{
			SourceLayer: models.LayerMotivation,
			TargetLayer: models.LayerBusiness,
			Criteria: models.AlignmentCriteria{
				NameSimilarity: threshold,
			},
		},
	}

	return rule, logic
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		semantic bool
		want     float64
	}{
		{name: "identical", a: "Customer Onboarding", b: "customer onboarding", want: 1.0},
		{name: "partial overlap", a: "Customer Onboarding", b: "Customer Billing", want: 1.0 / 3.0},
		{name: "disjoint", a: "Payments", b: "Logistics", want: 0},
		{name: "empty", a: "", b: "Payments", want: 0},
		{name: "punctuation ignored", a: "order-management", b: "Order Management", want: 1.0},
		{name: "inflection without semantic", a: "Payments", b: "Payment", want: 0},
		{name: "inflection with semantic", a: "Payments", b: "Payment", semantic: true, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, nameSimilarity(tt.a, tt.b, tt.semantic), 0.0001)
		})
	}
}

func TestAlignmentEvaluator_FlagsUnalignedSources(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"goal": {
				{ID: "g1", Name: "Improve Customer Onboarding", Type: "goal"},
				{ID: "g2", Name: "Reduce Churn", Type: "goal"},
			},
			"capability": {
				{ID: "c1", Name: "Customer Onboarding", Type: "capability"},
			},
		},
	}

	rule, logic := alignmentRule(models.SeverityHigh, 0.5)
	evaluator := NewAlignmentEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, "g2", issue.EntityID)
	assert.Equal(t, models.IssueTypeBrokenTraceability, issue.IssueType)
	assert.Equal(t, models.SeverityHigh, issue.Severity)
	assert.Equal(t, "motivation", issue.Metadata["source_layer"])
	assert.Equal(t, "business", issue.Metadata["target_layer"])
}

func TestAlignmentEvaluator_DefaultsToMediumSeverity(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"goal":       {{ID: "g1", Name: "Expand Internationally", Type: "goal"}},
			"capability": {{ID: "c1", Name: "Domestic Shipping", Type: "capability"}},
		},
	}

	rule, logic := alignmentRule("", 0.5)
	evaluator := NewAlignmentEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.SeverityMedium, issues[0].Severity)
}

func TestAlignmentEvaluator_EmptyLayersAreNotPenalized(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"goal": {{ID: "g1", Name: "Improve Margins", Type: "goal"}},
		},
	}

	rule, logic := alignmentRule(models.SeverityHigh, 0.5)
	evaluator := NewAlignmentEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestAlignmentEvaluator_UnavailableTypesAreSkippedNotPenalized(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"goal":       {{ID: "g1", Name: "Improve Margins", Type: "goal"}},
			"capability": {{ID: "c1", Name: "Margins Management", Type: "capability"}},
		},
		unavailable: map[string]bool{"business_process": true},
	}

	rule, logic := alignmentRule(models.SeverityHigh, 0.3)
	evaluator := NewAlignmentEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestAlignmentEvaluator_MissingLogicIsMalformed(t *testing.T) {
	rule, _ := alignmentRule(models.SeverityHigh, 0.5)
	evaluator := NewAlignmentEvaluator(slog.Default())

	_, err := evaluator.Evaluate(context.Background(), rule, models.RuleLogic{}, &fakeFetcher{}, noExceptions())
	require.ErrorIs(t, err, models.ErrMalformedRule)
}

package evaluators

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqarchitect/validation/pkg/models"
)

func completenessRule() (*models.ValidationRule, models.RuleLogic) {
	rule := &models.ValidationRule{
		ID:       "rule-comp-1",
		TenantID: "tenant-1",
		Name:     "Capabilities must be described",
		RuleType: models.RuleTypeCompleteness,
		Severity: models.SeverityMedium,
		IsActive: true,
	}

	logic := models.RuleLogic{
		Completeness: &models.CompletenessLogic{
			ElementType:    "capability",
			RequiredFields: []string{"name", "description"},
			MinCount:       2,
		},
	}

	return rule, logic
}

func TestCompletenessEvaluator_CountShortfallIsOneCollectionIssue(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"capability": {
				{ID: "c1", Name: "Payments", Type: "capability", Fields: map[string]any{"description": "handles payments"}},
			},
		},
	}

	rule, logic := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, models.IssueTypeOrphaned, issue.IssueType)
	assert.Equal(t, models.CollectionEntityID, issue.EntityID)
	assert.Equal(t, 2, issue.Metadata["expected_count"])
	assert.Equal(t, 1, issue.Metadata["actual_count"])
}

func TestCompletenessEvaluator_MissingFieldsPerElement(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"capability": {
				{ID: "c1", Name: "Payments", Type: "capability", Fields: map[string]any{"description": "handles payments"}},
				{ID: "c2", Name: "", Type: "capability", Fields: map[string]any{"description": "   "}},
				{ID: "c3", Name: "Billing", Type: "capability"},
			},
		},
	}

	rule, logic := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 2)

	byEntity := map[string]*models.ValidationIssue{}
	for _, issue := range issues {
		byEntity[issue.EntityID] = issue
	}

	require.Contains(t, byEntity, "c2")
	require.Contains(t, byEntity, "c3")
	assert.Equal(t, models.IssueTypeInvalidEnum, byEntity["c2"].IssueType)
	assert.ElementsMatch(t, []string{"name", "description"}, byEntity["c2"].Metadata["missing_fields"])
	assert.ElementsMatch(t, []string{"description"}, byEntity["c3"].Metadata["missing_fields"])
}

func TestCompletenessEvaluator_NullFieldValueIsMissing(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{
			"capability": {
				{ID: "c1", Name: "Payments", Type: "capability", Fields: map[string]any{"description": nil}},
				{ID: "c2", Name: "Billing", Type: "capability", Fields: map[string]any{"description": "invoicing"}},
			},
		},
	}

	rule, logic := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "c1", issues[0].EntityID)
	assert.ElementsMatch(t, []string{"description"}, issues[0].Metadata["missing_fields"])
}

func TestCompletenessEvaluator_EmptySetBelowMinCountStillOneIssue(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"capability": {}},
	}

	rule, logic := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CollectionEntityID, issues[0].EntityID)
}

func TestCompletenessEvaluator_UnavailableTypeProducesNoIssues(t *testing.T) {
	fetcher := &fakeFetcher{
		unavailable: map[string]bool{"capability": true},
	}

	rule, logic := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCompletenessEvaluator_CollectionIssueSuppressible(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"capability": {}},
	}

	rule, logic := completenessRule()
	exceptions := NewExceptionIndex([]*models.ValidationException{
		{ID: "ex-1", EntityType: "capability", EntityID: models.CollectionEntityID, Reason: "greenfield tenant"},
	}, time.Now())

	evaluator := NewCompletenessEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, exceptions)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCompletenessEvaluator_MissingLogicIsMalformed(t *testing.T) {
	rule, _ := completenessRule()
	evaluator := NewCompletenessEvaluator(slog.Default())

	_, err := evaluator.Evaluate(context.Background(), rule, models.RuleLogic{}, &fakeFetcher{}, noExceptions())
	require.ErrorIs(t, err, models.ErrMalformedRule)
}

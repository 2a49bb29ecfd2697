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

type fakeFetcher struct {
	elements       map[string][]models.ElementRecord
	links          map[string][]models.ElementLink
	unavailable    map[string]bool
	elementFetches int
}

func (f *fakeFetcher) Elements(_ context.Context, elementType string) ([]models.ElementRecord, bool) {
	f.elementFetches++

	if f.unavailable[elementType] {
		return nil, false
	}

	return f.elements[elementType], true
}

func (f *fakeFetcher) Links(_ context.Context, elementType, elementID string) ([]models.ElementLink, bool) {
	key := elementType + "/" + elementID
	if f.unavailable[key] {
		return nil, false
	}

	return f.links[key], true
}

func goalElements(ids ...string) []models.ElementRecord {
	records := make([]models.ElementRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, models.ElementRecord{ID: id, Name: "Goal " + id, Type: "goal"})
	}

	return records
}

func supportsLink(targetID string) models.ElementLink {
	return models.ElementLink{
		LinkedElementID:   targetID,
		LinkedElementType: "capability",
		LinkType:          "supports",
	}
}

func traceabilityRule(severity models.Severity) (*models.ValidationRule, models.RuleLogic) {
	rule := &models.ValidationRule{
		ID:       "rule-trace-1",
		TenantID: "tenant-1",
		Name:     "Goals must be supported",
		RuleType: models.RuleTypeTraceability,
		Severity: severity,
		IsActive: true,
	}

	logic := models.RuleLogic{
		Traceability: &models.TraceabilityLogic{
			SourceType:       "goal",
			TargetType:       "capability",
			RelationshipType: "supports",
			MinConnections:   1,
		},
	}

	return rule, logic
}

func noExceptions() *ExceptionIndex {
	return NewExceptionIndex(nil, time.Now())
}

func TestTraceabilityEvaluator_FlagsElementsBelowMinConnections(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"goal": goalElements("g1", "g2", "g3")},
		links: map[string][]models.ElementLink{
			"goal/g1": {supportsLink("c1")},
			"goal/g2": {supportsLink("c2"), supportsLink("c3")},
		},
	}

	rule, logic := traceabilityRule(models.SeverityHigh)
	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, models.IssueTypeMissingLink, issue.IssueType)
	assert.Equal(t, models.SeverityHigh, issue.Severity)
	assert.Equal(t, "goal", issue.EntityType)
	assert.Equal(t, "g3", issue.EntityID)
	assert.Equal(t, "rule-trace-1", issue.RuleID)
	assert.Equal(t, 1, issue.Metadata["expected_connections"])
	assert.Equal(t, 0, issue.Metadata["actual_connections"])
}

func TestTraceabilityEvaluator_IgnoresOtherLinkTypes(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"goal": goalElements("g1")},
		links: map[string][]models.ElementLink{
			"goal/g1": {
				{LinkedElementID: "c1", LinkedElementType: "capability", LinkType: "influences"},
				{LinkedElementID: "p1", LinkedElementType: "business_process", LinkType: "supports"},
			},
		},
	}

	rule, logic := traceabilityRule(models.SeverityMedium)
	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 0, issues[0].Metadata["actual_connections"])
}

func TestTraceabilityEvaluator_SuppressedByEntityException(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"goal": goalElements("g1")},
	}

	rule, logic := traceabilityRule(models.SeverityHigh)
	exceptions := NewExceptionIndex([]*models.ValidationException{
		{ID: "ex-1", EntityType: "goal", EntityID: "g1", Reason: "aspirational goal"},
	}, time.Now())

	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, exceptions)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestTraceabilityEvaluator_ExpiredExceptionDoesNotSuppress(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"goal": goalElements("g1")},
	}

	expired := time.Now().Add(-time.Hour)
	rule, logic := traceabilityRule(models.SeverityHigh)
	exceptions := NewExceptionIndex([]*models.ValidationException{
		{ID: "ex-1", EntityType: "goal", EntityID: "g1", Reason: "lapsed waiver", ExpiresAt: &expired},
	}, time.Now())

	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, exceptions)
	require.NoError(t, err)
	require.Len(t, issues, 1)
}

func TestTraceabilityEvaluator_RuleScopedExceptionOnlySuppressesThatRule(t *testing.T) {
	fetcher := &fakeFetcher{
		elements: map[string][]models.ElementRecord{"goal": goalElements("g1")},
	}

	rule, logic := traceabilityRule(models.SeverityHigh)
	exceptions := NewExceptionIndex([]*models.ValidationException{
		{ID: "ex-1", EntityType: "goal", EntityID: "g1", RuleID: "some-other-rule", Reason: "narrow waiver"},
	}, time.Now())

	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, exceptions)
	require.NoError(t, err)
	require.Len(t, issues, 1)
}

func TestTraceabilityEvaluator_UnavailableSourceTypeProducesNoIssues(t *testing.T) {
	fetcher := &fakeFetcher{
		unavailable: map[string]bool{"goal": true},
	}

	rule, logic := traceabilityRule(models.SeverityCritical)
	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestTraceabilityEvaluator_UnavailableLinksSkipsElement(t *testing.T) {
	fetcher := &fakeFetcher{
		elements:    map[string][]models.ElementRecord{"goal": goalElements("g1", "g2")},
		links:       map[string][]models.ElementLink{"goal/g2": {supportsLink("c1")}},
		unavailable: map[string]bool{"goal/g1": true},
	}

	rule, logic := traceabilityRule(models.SeverityHigh)
	evaluator := NewTraceabilityEvaluator(slog.Default())

	issues, err := evaluator.Evaluate(context.Background(), rule, logic, fetcher, noExceptions())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestTraceabilityEvaluator_MissingLogicIsMalformed(t *testing.T) {
	rule, _ := traceabilityRule(models.SeverityHigh)
	evaluator := NewTraceabilityEvaluator(slog.Default())

	_, err := evaluator.Evaluate(context.Background(), rule, models.RuleLogic{}, &fakeFetcher{}, noExceptions())
	require.ErrorIs(t, err, models.ErrMalformedRule)
}

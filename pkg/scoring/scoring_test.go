package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqarchitect/validation/pkg/models"
)

func testCycle() *models.ValidationCycle {
	return &models.ValidationCycle{
		ID:       "cycle-1",
		TenantID: "tenant-1",
	}
}

func missingLinkIssue(severity models.Severity) *models.ValidationIssue {
	return &models.ValidationIssue{
		EntityType: "goal",
		EntityID:   "g1",
		IssueType:  models.IssueTypeMissingLink,
		Severity:   severity,
	}
}

func TestBuild_CleanLayerScoresPerfect(t *testing.T) {
	builder := NewBuilder()

	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 5, RelationshipCount: 5, AlignmentPairs: 5},
	}

	scorecards := builder.Build(testCycle(), nil, stats, time.Now())
	require.Len(t, scorecards, 1)

	scorecard := scorecards[0]
	assert.Equal(t, models.LayerMotivation, scorecard.Layer)
	assert.InDelta(t, 100.0, scorecard.CompletenessScore, 0.0001)
	assert.InDelta(t, 100.0, scorecard.TraceabilityScore, 0.0001)
	assert.InDelta(t, 100.0, scorecard.AlignmentScore, 0.0001)
	assert.InDelta(t, 100.0, scorecard.OverallScore, 0.0001)
	assert.Zero(t, scorecard.IssuesCount)
}

func TestBuild_WeightsReduceTraceabilityScore(t *testing.T) {
	builder := NewBuilder()

	// 10 applicable relationships, one high-severity (weight 3) gap:
	// 100 * (1 - 3/10) = 70.
	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 10, RelationshipCount: 10, AlignmentPairs: 10},
	}

	scorecards := builder.Build(testCycle(), []*models.ValidationIssue{missingLinkIssue(models.SeverityHigh)}, stats, time.Now())
	require.Len(t, scorecards, 1)

	scorecard := scorecards[0]
	assert.InDelta(t, 70.0, scorecard.TraceabilityScore, 0.0001)
	assert.InDelta(t, 100.0, scorecard.CompletenessScore, 0.0001)
	assert.InDelta(t, (70.0+100.0+100.0)/3, scorecard.OverallScore, 0.0001)
	assert.Equal(t, 1, scorecard.IssuesCount)
	assert.Equal(t, 1, scorecard.HighIssueCount)
}

func TestBuild_AddingAnIssueStrictlyDecreasesTheScore(t *testing.T) {
	builder := NewBuilder()

	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 10, RelationshipCount: 20, AlignmentPairs: 10},
	}

	one := builder.Build(testCycle(), []*models.ValidationIssue{missingLinkIssue(models.SeverityCritical)}, stats, time.Now())
	two := builder.Build(testCycle(), []*models.ValidationIssue{
		missingLinkIssue(models.SeverityCritical),
		missingLinkIssue(models.SeverityCritical),
	}, stats, time.Now())

	require.Len(t, one, 1)
	require.Len(t, two, 1)
	assert.Less(t, two[0].TraceabilityScore, one[0].TraceabilityScore)
}

func TestBuild_ScoresFloorAtZero(t *testing.T) {
	builder := NewBuilder()

	// Weighted count 8 over 2 applicable relationships would go negative.
	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 2, RelationshipCount: 2},
	}

	issues := []*models.ValidationIssue{
		missingLinkIssue(models.SeverityCritical),
		missingLinkIssue(models.SeverityCritical),
	}

	scorecards := builder.Build(testCycle(), issues, stats, time.Now())
	require.Len(t, scorecards, 1)
	assert.Zero(t, scorecards[0].TraceabilityScore)
}

func TestBuild_ResolvedIssuesDoNotCount(t *testing.T) {
	builder := NewBuilder()

	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 10, RelationshipCount: 10},
	}

	resolved := missingLinkIssue(models.SeverityCritical)
	resolved.IsResolved = true

	scorecards := builder.Build(testCycle(), []*models.ValidationIssue{resolved}, stats, time.Now())
	require.Len(t, scorecards, 1)
	assert.InDelta(t, 100.0, scorecards[0].TraceabilityScore, 0.0001)
	assert.Zero(t, scorecards[0].IssuesCount)
}

func TestBuild_IssueClassesFeedTheirOwnSubScore(t *testing.T) {
	builder := NewBuilder()

	stats := map[models.Layer]LayerStats{
		models.LayerBusiness: {ElementCount: 10, RelationshipCount: 10, AlignmentPairs: 10},
	}

	issues := []*models.ValidationIssue{
		{EntityType: "capability", EntityID: "c1", IssueType: models.IssueTypeOrphaned, Severity: models.SeverityLow},
		{EntityType: "capability", EntityID: "c2", IssueType: models.IssueTypeBrokenTraceability, Severity: models.SeverityMedium},
	}

	scorecards := builder.Build(testCycle(), issues, stats, time.Now())
	require.Len(t, scorecards, 1)

	scorecard := scorecards[0]
	assert.InDelta(t, 90.0, scorecard.CompletenessScore, 0.0001)
	assert.InDelta(t, 80.0, scorecard.AlignmentScore, 0.0001)
	assert.InDelta(t, 100.0, scorecard.TraceabilityScore, 0.0001)
	assert.Equal(t, 1, scorecard.LowIssueCount)
	assert.Equal(t, 1, scorecard.MediumIssueCount)
}

func TestMaturity_ElementCountWeightedMean(t *testing.T) {
	builder := NewBuilder()

	stats := map[models.Layer]LayerStats{
		models.LayerMotivation: {ElementCount: 1},
		models.LayerBusiness:   {ElementCount: 3},
	}

	scorecards := []*models.ValidationScorecard{
		{Layer: models.LayerMotivation, OverallScore: 40},
		{Layer: models.LayerBusiness, OverallScore: 80},
	}

	maturity := builder.Maturity(scorecards, stats)
	require.NotNil(t, maturity)
	assert.InDelta(t, 70.0, *maturity, 0.0001)
}

func TestMaturity_NilForEmptyTenant(t *testing.T) {
	builder := NewBuilder()

	maturity := builder.Maturity(nil, map[models.Layer]LayerStats{})
	assert.Nil(t, maturity)

	maturity = builder.Maturity([]*models.ValidationScorecard{
		{Layer: models.LayerMotivation, OverallScore: 50},
	}, map[models.Layer]LayerStats{models.LayerMotivation: {ElementCount: 0}})
	assert.Nil(t, maturity)
}

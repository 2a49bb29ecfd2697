package matrix

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqarchitect/validation/pkg/models"
)

type stubFetcher struct {
	elements    map[string][]models.ElementRecord
	links       map[string][]models.ElementLink
	unavailable map[string]bool
}

func (f *stubFetcher) Elements(_ context.Context, elementType string) ([]models.ElementRecord, bool) {
	if f.unavailable[elementType] {
		return nil, false
	}

	return f.elements[elementType], true
}

func (f *stubFetcher) Links(_ context.Context, elementType, elementID string) ([]models.ElementLink, bool) {
	return f.links[elementType+"/"+elementID], true
}

func traceabilityRule(id string, minConnections int) *models.ValidationRule {
	logic, _ := json.Marshal(map[string]any{
		"source_type":       "goal",
		"target_type":       "capability",
		"relationship_type": "supports",
		"min_connections":   minConnections,
	})

	return &models.ValidationRule{
		ID:        id,
		TenantID:  "tenant-1",
		Name:      "Goals must be supported",
		RuleType:  models.RuleTypeTraceability,
		RuleLogic: logic,
		Severity:  models.SeverityHigh,
		IsActive:  true,
	}
}

func TestBuild_OneEntryPerTraceabilityPair(t *testing.T) {
	fetcher := &stubFetcher{
		elements: map[string][]models.ElementRecord{
			"goal": {
				{ID: "g1", Name: "Goal 1", Type: "goal"},
				{ID: "g2", Name: "Goal 2", Type: "goal"},
			},
		},
		links: map[string][]models.ElementLink{
			"goal/g1": {{LinkedElementID: "c1", LinkedElementType: "capability", LinkType: "supports"}},
		},
	}

	cycle := &models.ValidationCycle{ID: "cycle-1", TenantID: "tenant-1"}
	builder := NewBuilder(slog.Default())

	entries := builder.Build(context.Background(), cycle, []*models.ValidationRule{traceabilityRule("r1", 1)}, fetcher, time.Now())
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, models.LayerMotivation, entry.SourceLayer)
	assert.Equal(t, models.LayerBusiness, entry.TargetLayer)
	assert.Equal(t, "goal", entry.SourceEntityType)
	assert.Equal(t, "capability", entry.TargetEntityType)
	assert.Equal(t, "supports", entry.RelationshipType)
	assert.Equal(t, 1, entry.ConnectionCount)
	assert.Equal(t, 1, entry.MissingConnections)
	assert.InDelta(t, 50.0, entry.StrengthScore, 0.0001)
}

func TestBuild_DuplicatePairsAreCollapsed(t *testing.T) {
	fetcher := &stubFetcher{
		elements: map[string][]models.ElementRecord{
			"goal": {{ID: "g1", Name: "Goal 1", Type: "goal"}},
		},
	}

	cycle := &models.ValidationCycle{ID: "cycle-1", TenantID: "tenant-1"}
	builder := NewBuilder(slog.Default())

	rules := []*models.ValidationRule{traceabilityRule("r1", 1), traceabilityRule("r2", 2)}

	entries := builder.Build(context.Background(), cycle, rules, fetcher, time.Now())
	assert.Len(t, entries, 1)
}

func TestBuild_NonTraceabilityRulesAreIgnored(t *testing.T) {
	cycle := &models.ValidationCycle{ID: "cycle-1", TenantID: "tenant-1"}
	builder := NewBuilder(slog.Default())

	logic, _ := json.Marshal(map[string]any{"element_type": "capability", "min_count": 1})
	rules := []*models.ValidationRule{{
		ID:        "r1",
		RuleType:  models.RuleTypeCompleteness,
		RuleLogic: logic,
		Severity:  models.SeverityLow,
	}}

	entries := builder.Build(context.Background(), cycle, rules, &stubFetcher{}, time.Now())
	assert.Empty(t, entries)
}

func TestBuild_UnavailableSourceTypeSkipsPair(t *testing.T) {
	fetcher := &stubFetcher{unavailable: map[string]bool{"goal": true}}

	cycle := &models.ValidationCycle{ID: "cycle-1", TenantID: "tenant-1"}
	builder := NewBuilder(slog.Default())

	entries := builder.Build(context.Background(), cycle, []*models.ValidationRule{traceabilityRule("r1", 1)}, fetcher, time.Now())
	assert.Empty(t, entries)
}

func TestBuild_NoSourcesScoresFullStrength(t *testing.T) {
	fetcher := &stubFetcher{
		elements: map[string][]models.ElementRecord{"goal": {}},
	}

	cycle := &models.ValidationCycle{ID: "cycle-1", TenantID: "tenant-1"}
	builder := NewBuilder(slog.Default())

	entries := builder.Build(context.Background(), cycle, []*models.ValidationRule{traceabilityRule("r1", 1)}, fetcher, time.Now())
	require.Len(t, entries, 1)
	assert.InDelta(t, 100.0, entries[0].StrengthScore, 0.0001)
	assert.Zero(t, entries[0].MissingConnections)
}

// Package scoring aggregates validation issues into per-layer scorecards
// and the tenant-wide maturity score.
package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/reqarchitect/validation/pkg/models"
)

// LayerStats carries the denominators for one layer's score formulas.
type LayerStats struct {
	ElementCount      int
	RelationshipCount int
	AlignmentPairs    int
}

// Builder computes scorecards for a finished cycle.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces one scorecard per layer that has elements or issues.
// Scores are 0–100, floored at 0; overall is the mean of the three
// sub-scores.
func (b *Builder) Build(
	cycle *models.ValidationCycle,
	issues []*models.ValidationIssue,
	stats map[models.Layer]LayerStats,
	now time.Time,
) []*models.ValidationScorecard {
	layers := make(map[models.Layer]*layerTally)

	for layer, s := range stats {
		if s.ElementCount > 0 {
			layers[layer] = &layerTally{stats: s}
		}
	}

	for _, issue := range issues {
		if issue.IsResolved {
			continue
		}

		layer := issue.Layer()

		tally, ok := layers[layer]
		if !ok {
			tally = &layerTally{stats: stats[layer]}
			layers[layer] = tally
		}

		tally.add(issue)
	}

	scorecards := make([]*models.ValidationScorecard, 0, len(layers))

	for layer, tally := range layers {
		completeness := score(tally.completenessWeight, tally.stats.ElementCount)
		traceability := score(tally.traceabilityWeight, tally.stats.RelationshipCount)
		alignment := score(tally.alignmentWeight, tally.stats.AlignmentPairs)

		scorecards = append(scorecards, &models.ValidationScorecard{
			ID:                 uuid.NewString(),
			TenantID:           cycle.TenantID,
			ValidationCycleID:  cycle.ID,
			Layer:              layer,
			CompletenessScore:  completeness,
			TraceabilityScore:  traceability,
			AlignmentScore:     alignment,
			OverallScore:       (completeness + traceability + alignment) / 3,
			IssuesCount:        tally.issuesCount,
			CriticalIssueCount: tally.bySeverity[models.SeverityCritical],
			HighIssueCount:     tally.bySeverity[models.SeverityHigh],
			MediumIssueCount:   tally.bySeverity[models.SeverityMedium],
			LowIssueCount:      tally.bySeverity[models.SeverityLow],
			CreatedAt:          now,
		})
	}

	return scorecards
}

// Maturity computes the element-count-weighted mean of the layers'
// overall scores. A tenant with zero elements has no maturity score, not
// a zero one.
func (b *Builder) Maturity(scorecards []*models.ValidationScorecard, stats map[models.Layer]LayerStats) *float64 {
	totalElements := 0
	weightedSum := 0.0

	for _, scorecard := range scorecards {
		elements := stats[scorecard.Layer].ElementCount
		if elements == 0 {
			continue
		}

		totalElements += elements
		weightedSum += scorecard.OverallScore * float64(elements)
	}

	if totalElements == 0 {
		return nil
	}

	maturity := weightedSum / float64(totalElements)

	return &maturity
}

type layerTally struct {
	stats              LayerStats
	issuesCount        int
	bySeverity         map[models.Severity]int
	completenessWeight int
	traceabilityWeight int
	alignmentWeight    int
}

func (t *layerTally) add(issue *models.ValidationIssue) {
	if t.bySeverity == nil {
		t.bySeverity = make(map[models.Severity]int)
	}

	t.issuesCount++
	t.bySeverity[issue.Severity]++

	weight := issue.Severity.Weight()

	switch issue.IssueType {
	case models.IssueTypeMissingLink:
		t.traceabilityWeight += weight
	case models.IssueTypeBrokenTraceability:
		t.alignmentWeight += weight
	case models.IssueTypeOrphaned, models.IssueTypeInvalidEnum, models.IssueTypeStale:
		t.completenessWeight += weight
	}
}

// score applies 100 × (1 − weighted/denominator), floored at 0. A layer
// with no applicable denominator scores perfect when clean and zero when
// any issue was still raised against it.
func score(weighted, denominator int) float64 {
	if denominator == 0 {
		if weighted == 0 {
			return 100
		}

		return 0
	}

	s := 100 * (1 - float64(weighted)/float64(denominator))
	if s < 0 {
		return 0
	}

	return s
}

// Package matrix derives the cross-layer traceability matrix from the
// traceability rules of a cycle. The matrix is a reporting aid and is
// recomputed wholesale on each cycle.
package matrix

import (
	"context"
	"log/slog"
	"time"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/reqarchitect/validation/pkg/provider"
)

type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger.With("module", "matrix_builder")}
}

// Build produces one matrix entry per traceability rule in the cycle's
// rule set. Rules whose source data was unavailable are skipped so a
// provider outage never zeroes out previously reported strength.
func (b *Builder) Build(
	ctx context.Context,
	cycle *models.ValidationCycle,
	rules []*models.ValidationRule,
	fetcher provider.Fetcher,
	now time.Time,
) []*models.TraceabilityMatrixEntry {
	entries := make([]*models.TraceabilityMatrixEntry, 0)
	seen := make(map[string]struct{})

	for _, rule := range rules {
		if rule.RuleType != models.RuleTypeTraceability {
			continue
		}

		logic, err := rule.DecodeLogic()
		if err != nil || logic.Traceability == nil {
			continue
		}

		cfg := logic.Traceability

		key := cfg.SourceType + "/" + cfg.TargetType + "/" + cfg.RelationshipType
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		sources, available := fetcher.Elements(ctx, cfg.SourceType)
		if !available {
			b.logger.WarnContext(ctx, "Skipping matrix pair, source type data_unavailable",
				"source_type", cfg.SourceType, "target_type", cfg.TargetType)

			continue
		}

		connections := 0
		expected := 0

		for _, source := range sources {
			expected += cfg.MinConnections

			links, available := fetcher.Links(ctx, cfg.SourceType, source.ID)
			if !available {
				continue
			}

			for _, link := range links {
				if link.LinkType == cfg.RelationshipType && link.LinkedElementType == cfg.TargetType {
					connections++
				}
			}
		}

		missing := expected - connections
		if missing < 0 {
			missing = 0
		}

		entries = append(entries, &models.TraceabilityMatrixEntry{
			TenantID:           cycle.TenantID,
			ValidationCycleID:  cycle.ID,
			SourceLayer:        models.LayerOfElementType(cfg.SourceType),
			TargetLayer:        models.LayerOfElementType(cfg.TargetType),
			SourceEntityType:   cfg.SourceType,
			TargetEntityType:   cfg.TargetType,
			RelationshipType:   cfg.RelationshipType,
			ConnectionCount:    connections,
			MissingConnections: missing,
			StrengthScore:      strength(connections, expected),
			LastUpdated:        now,
		})
	}

	return entries
}

func strength(connections, expected int) float64 {
	if expected == 0 {
		return 100
	}

	s := 100 * float64(connections) / float64(expected)
	if s > 100 {
		return 100
	}

	return s
}

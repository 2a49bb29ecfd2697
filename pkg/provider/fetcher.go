package provider

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/reqarchitect/validation/pkg/models"
)

// Fetcher is the read surface evaluators see. The bool result reports
// availability: an unavailable type yields an empty set so evaluators can log
// data_unavailable instead of raising false missing_link issues.
type Fetcher interface {
	Elements(ctx context.Context, elementType string) ([]models.ElementRecord, bool)
	Links(ctx context.Context, elementType, elementID string) ([]models.ElementLink, bool)
}

type elementsResult struct {
	records     []models.ElementRecord
	unavailable bool
}

type linksResult struct {
	links       []models.ElementLink
	unavailable bool
}

// CycleFetcher memoizes provider fetches for the duration of one validation
// cycle. Rules referencing the same element type share one fetch; nothing
// survives the cycle, so every cycle sees fresh state. The mutex only guards
// the result maps; in-flight fetches are deduplicated per key so rules
// fetching different types proceed in parallel.
type CycleFetcher struct {
	client   Client
	tenantID string
	logger   *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	elements map[string]elementsResult
	links    map[string]linksResult
}

// NewCycleFetcher creates a fetcher bound to one tenant for one cycle.
func NewCycleFetcher(client Client, tenantID string, logger *slog.Logger) *CycleFetcher {
	return &CycleFetcher{
		client:   client,
		tenantID: tenantID,
		logger:   logger.With("module", "cycle_fetcher", "tenant_id", tenantID),
		elements: make(map[string]elementsResult),
		links:    make(map[string]linksResult),
	}
}

func (f *CycleFetcher) Elements(ctx context.Context, elementType string) ([]models.ElementRecord, bool) {
	f.mu.Lock()
	cached, ok := f.elements[elementType]
	f.mu.Unlock()

	if ok {
		return cached.records, !cached.unavailable
	}

	fetched, _, _ := f.group.Do("elements/"+elementType, func() (any, error) {
		records, err := f.client.FetchElements(ctx, f.tenantID, elementType)

		var result elementsResult

		if err != nil {
			f.logger.WarnContext(ctx, "Element type data_unavailable for this cycle",
				"element_type", elementType, "error", err)

			result = elementsResult{records: []models.ElementRecord{}, unavailable: true}
		} else {
			result = elementsResult{records: records}
		}

		f.mu.Lock()
		f.elements[elementType] = result
		f.mu.Unlock()

		return result, nil
	})

	result := fetched.(elementsResult)

	return result.records, !result.unavailable
}

func (f *CycleFetcher) Links(ctx context.Context, elementType, elementID string) ([]models.ElementLink, bool) {
	key := elementType + "/" + elementID

	f.mu.Lock()
	cached, ok := f.links[key]
	f.mu.Unlock()

	if ok {
		return cached.links, !cached.unavailable
	}

	fetched, _, _ := f.group.Do("links/"+key, func() (any, error) {
		links, err := f.client.FetchLinks(ctx, f.tenantID, elementType, elementID)

		var result linksResult

		if err != nil {
			f.logger.WarnContext(ctx, "Element links data_unavailable for this cycle",
				"element_type", elementType, "element_id", elementID, "error", err)

			result = linksResult{links: []models.ElementLink{}, unavailable: true}
		} else {
			result = linksResult{links: links}
		}

		f.mu.Lock()
		f.links[key] = result
		f.mu.Unlock()

		return result, nil
	})

	result := fetched.(linksResult)

	return result.links, !result.unavailable
}

// UnavailableTypes lists element types that degraded to empty sets during
// this cycle, for the orchestrator's non-fatal warning trail.
func (f *CycleFetcher) UnavailableTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]string, 0)

	for elementType, result := range f.elements {
		if result.unavailable {
			types = append(types, elementType)
		}
	}

	sort.Strings(types)

	return types
}

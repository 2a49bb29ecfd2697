// Package provider fetches element collections from the sibling element
// microservices and normalizes their heterogeneous payloads.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/reqarchitect/validation/pkg/models"
	"github.com/spf13/cast"
)

// ErrProviderUnavailable marks a sibling element service that is unreachable,
// timing out, or responding 5xx. It downgrades that type's data to empty for
// the current cycle instead of aborting it.
var ErrProviderUnavailable = errors.New("element provider unavailable")

// IsUnavailable checks whether an error indicates a provider outage.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

const defaultFetchTimeout = 10 * time.Second

// Client reads element collections and per-element link sub-resources.
type Client interface {
	FetchElements(ctx context.Context, tenantID, elementType string) ([]models.ElementRecord, error)
	FetchLinks(ctx context.Context, tenantID, elementType, elementID string) ([]models.ElementLink, error)
}

// HTTPClient talks to the element services over HTTP. Endpoints maps a
// logical element type ("goal", "capability") to the service's collection URL.
type HTTPClient struct {
	endpoints  map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a provider client with a per-call timeout.
func NewHTTPClient(endpoints map[string]string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &HTTPClient{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("module", "provider_client"),
	}
}

// FetchElements retrieves the full element collection of one type for a
// tenant. Each cycle fetches fresh state; nothing is cached here.
func (c *HTTPClient) FetchElements(ctx context.Context, tenantID, elementType string) ([]models.ElementRecord, error) {
	endpoint, ok := c.endpoints[elementType]
	if !ok {
		return nil, fmt.Errorf("%w: no endpoint configured for element type %q", ErrProviderUnavailable, elementType)
	}

	body, err := c.get(ctx, tenantID, endpoint)
	if err != nil {
		return nil, err
	}

	raw, err := decodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s collection: %v", ErrProviderUnavailable, elementType, err)
	}

	records := make([]models.ElementRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, normalizeElement(elementType, tenantID, item))
	}

	return records, nil
}

// FetchLinks retrieves the relationship records of one element via its links
// sub-resource.
func (c *HTTPClient) FetchLinks(ctx context.Context, tenantID, elementType, elementID string) ([]models.ElementLink, error) {
	endpoint, ok := c.endpoints[elementType]
	if !ok {
		return nil, fmt.Errorf("%w: no endpoint configured for element type %q", ErrProviderUnavailable, elementType)
	}

	body, err := c.get(ctx, tenantID, endpoint+"/"+elementID+"/links")
	if err != nil {
		return nil, err
	}

	raw, err := decodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s links: %v", ErrProviderUnavailable, elementType, err)
	}

	links := make([]models.ElementLink, 0, len(raw))

	for _, item := range raw {
		links = append(links, models.ElementLink{
			LinkedElementID:   cast.ToString(item["linked_element_id"]),
			LinkedElementType: cast.ToString(item["linked_element_type"]),
			LinkType:          cast.ToString(item["link_type"]),
		})
	}

	return links, nil
}

func (c *HTTPClient) get(ctx context.Context, tenantID, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d from %s", ErrProviderUnavailable, resp.StatusCode, url)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrProviderUnavailable, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderUnavailable, err)
	}

	return body, nil
}

// decodeCollection accepts both a bare JSON array and the `{"data": [...]}`
// envelope some element services use.
func decodeCollection(body []byte) ([]map[string]any, error) {
	var items []map[string]any

	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	return envelope.Data, nil
}

func normalizeElement(elementType, tenantID string, item map[string]any) models.ElementRecord {
	record := models.ElementRecord{
		ID:       cast.ToString(item["id"]),
		Name:     cast.ToString(item["name"]),
		TenantID: tenantID,
		Type:     elementType,
		Fields:   make(map[string]any),
	}

	if raw, ok := item["tenant_id"]; ok {
		record.TenantID = cast.ToString(raw)
	}

	if raw, ok := item["created_at"]; ok {
		record.CreatedAt = parseTime(raw)
	}

	if raw, ok := item["updated_at"]; ok {
		record.UpdatedAt = parseTime(raw)
	}

	for key, value := range item {
		switch key {
		case "id", "name", "tenant_id", "created_at", "updated_at":
		default:
			record.Fields[key] = value
		}
	}

	return record
}

func parseTime(raw any) time.Time {
	parsed, err := time.Parse(time.RFC3339, cast.ToString(raw))
	if err != nil {
		return time.Time{}
	}

	return parsed
}

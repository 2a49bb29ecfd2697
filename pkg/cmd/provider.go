package cmd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/reqarchitect/validation/pkg/provider"
)

// NewProviderClient builds the element provider client from a spec like
// "goal=http://motivation:8080/goals,capability=http://business:8080/capabilities".
func NewProviderClient(endpointSpec string, timeout time.Duration, logger *slog.Logger) *provider.HTTPClient {
	endpoints := make(map[string]string)

	for _, pair := range strings.Split(endpointSpec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		elementType, url, found := strings.Cut(pair, "=")
		if !found {
			panic("Invalid element provider endpoint spec entry: " + pair)
		}

		endpoints[strings.TrimSpace(elementType)] = strings.TrimSpace(url)
	}

	if len(endpoints) == 0 {
		panic("No element provider endpoints configured")
	}

	return provider.NewHTTPClient(endpoints, timeout, logger)
}

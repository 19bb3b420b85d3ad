package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SongsEndpoint is the catalog path search responses are cached for.
const SongsEndpoint = "/songs"

// CacheKey represents a unique identifier for a cached catalog response.
type CacheKey struct {
	// Endpoint is the catalog path (e.g., "/songs")
	Endpoint string

	// QueryParams are the request query parameters. Repeated keys are
	// significant (artist_ids=1&artist_ids=2).
	QueryParams url.Values
}

// SearchKey returns the key of a songs search with the given query.
func SearchKey(query url.Values) CacheKey {
	return CacheKey{Endpoint: SongsEndpoint, QueryParams: query}
}

// String generates a deterministic key, relative to the manager's namespace.
// Format: endpoint:param1=val1,val2:param2=val1
//
// Example:
//
//	songs:keyword=city pop:page=1:per_page=50
func (k CacheKey) String() string {
	var parts []string

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism. Values keep their order since it is the
	// order they are sent in.
	queryKeys := make([]string, 0, len(k.QueryParams))
	for key := range k.QueryParams {
		queryKeys = append(queryKeys, key)
	}
	sort.Strings(queryKeys)

	for _, key := range queryKeys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
	}

	return strings.Join(parts, ":")
}

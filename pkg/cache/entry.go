package cache

import (
	"time"
)

// DefaultTTL is the lifetime of a cached search response when none is configured.
const DefaultTTL = 5 * time.Minute

// CacheEntry represents a cached catalog response body. Timestamps are
// kept at millisecond precision.
type CacheEntry struct {
	// Data is the raw response body
	Data []byte

	// Expires is when the entry becomes stale
	Expires time.Time

	// CachedAt is when we cached this response
	CachedAt time.Time
}

// NewEntry creates an entry for body that expires after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewEntry(body []byte, ttl time.Duration) *CacheEntry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &CacheEntry{
		Data:     body,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultNamespace prefixes every search cache key in Redis.
const DefaultNamespace = "tunecore:search"

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Hash fields of a stored entry.
const (
	fieldBody     = "body"
	fieldCachedAt = "cached_at"
	fieldExpires  = "expires"
)

// invalidateBatch is the SCAN count and DEL batch size of Invalidate.
const invalidateBatch = 500

// Manager keeps search responses in Redis. Each entry is a hash under
// <namespace>:<key> with the body and its timestamps, and Redis drops it
// at the entry's deadline.
type Manager struct {
	redis     *redis.Client
	namespace string
	logger    zerolog.Logger
}

// NewManager creates a manager in DefaultNamespace.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:     redisClient,
		namespace: DefaultNamespace,
		logger:    logging.NewLogger(logging.ComponentCache),
	}
}

// WithNamespace returns a manager sharing the client but keeping its
// entries under ns. An empty ns keeps the current namespace.
func (m *Manager) WithNamespace(ns string) *Manager {
	if ns == "" {
		return m
	}
	clone := *m
	clone.namespace = ns
	return &clone
}

// Namespace returns the key prefix of this manager.
func (m *Manager) Namespace() string {
	return m.namespace
}

func (m *Manager) redisKey(key CacheKey) string {
	return m.namespace + ":" + key.String()
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	redisKey := m.redisKey(key)

	fields, err := m.redis.HGetAll(ctx, redisKey).Result()
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		CacheMisses.Inc()
		m.logger.Debug().Str("key", redisKey).Msg("Search cache miss")
		return nil, ErrCacheMiss
	}

	entry, err := entryFromFields(fields)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, err
	}

	// PEXPIREAT runs after HSET, an entry can outlive its deadline briefly
	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	m.logger.Debug().
		Str("key", redisKey).
		Dur("ttl", entry.TTL()).
		Msg("Search cache hit")
	return entry, nil
}

// Set stores entry until its Expires deadline. Entries that are already
// expired are not stored.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}

	redisKey := m.redisKey(key)
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey,
			fieldBody, entry.Data,
			fieldCachedAt, entry.CachedAt.UnixMilli(),
			fieldExpires, entry.Expires.UnixMilli(),
		)
		pipe.PExpireAt(ctx, redisKey, entry.Expires)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.Add(float64(len(entry.Data)))
	m.logger.Debug().
		Str("key", redisKey).
		Int("bytes", len(entry.Data)).
		Time("expires", entry.Expires).
		Msg("Search response cached")

	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, m.redisKey(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Invalidate removes every entry in the namespace and returns how many were
// removed.
func (m *Manager) Invalidate(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, m.namespace+":*", invalidateBatch).Result()
		if err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := m.redis.Del(ctx, keys...).Result()
			if err != nil {
				CacheErrors.WithLabelValues("invalidate").Inc()
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	m.logger.Info().
		Str("namespace", m.namespace).
		Int("removed", removed).
		Msg("Search cache invalidated")
	return removed, nil
}

func entryFromFields(fields map[string]string) (*CacheEntry, error) {
	body, ok := fields[fieldBody]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidEntry, fieldBody)
	}
	cachedAt, err := strconv.ParseInt(fields[fieldCachedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, fieldCachedAt, err)
	}
	expires, err := strconv.ParseInt(fields[fieldExpires], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, fieldExpires, err)
	}

	return &CacheEntry{
		Data:     []byte(body),
		CachedAt: time.UnixMilli(cachedAt),
		Expires:  time.UnixMilli(expires),
	}, nil
}

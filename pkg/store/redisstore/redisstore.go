// Package redisstore stores songs in Redis.
//
// Documents live in the hash <prefix>:songs (field = id, value = JSON) and
// their ids in the sorted set <prefix>:songs:ids, scored by id, which gives
// FindPaged its ordering.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultPrefix namespaces the store keys.
const DefaultPrefix = "tunecore"

// Store is a Redis-backed store.Repository.
type Store struct {
	redis  *redis.Client
	prefix string
	owned  bool
	logger zerolog.Logger
}

var _ store.Repository = (*Store)(nil)

// New wraps an existing client. Close leaves the client open.
func New(redisClient *redis.Client, prefix string) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		logger: logging.NewLogger(logging.ComponentRedisStore),
	}
}

// Open connects to the Redis server at url and verifies the connection.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, store.Observe(store.BackendRedis, store.OpConnect, 0, fmt.Errorf("parse url: %w", err))
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, store.Observe(store.BackendRedis, store.OpConnect, 0, fmt.Errorf("ping: %w", err))
	}

	s := New(client, prefix)
	s.owned = true
	return s, nil
}

// Client returns the underlying Redis client.
func (s *Store) Client() *redis.Client {
	return s.redis
}

func (s *Store) docsKey() string {
	return s.prefix + ":songs"
}

func (s *Store) idsKey() string {
	return s.prefix + ":songs:ids"
}

// UpsertMany writes all songs in one pipeline of HSET and ZADD.
func (s *Store) UpsertMany(ctx context.Context, songs []catalog.Song) error {
	if len(songs) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(songs))
	members := make([]redis.Z, 0, len(songs))
	for _, song := range songs {
		data, err := json.Marshal(song)
		if err != nil {
			return store.Observe(store.BackendRedis, store.OpUpsertMany, len(songs),
				fmt.Errorf("marshal song %d: %w", song.ID, err))
		}
		id := strconv.FormatUint(song.ID, 10)
		fields[id] = data
		members = append(members, redis.Z{Score: float64(song.ID), Member: id})
	}

	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey(), fields)
		pipe.ZAdd(ctx, s.idsKey(), members...)
		return nil
	})
	if err != nil {
		return store.Observe(store.BackendRedis, store.OpUpsertMany, len(songs), err)
	}

	s.logger.Debug().
		Int("records", len(songs)).
		Msg("Upserted batch")

	return store.Observe(store.BackendRedis, store.OpUpsertMany, len(songs), nil)
}

// FindPaged reads a window of ids from the sorted set and fetches their
// documents.
func (s *Store) FindPaged(ctx context.Context, page, perPage int) ([]catalog.Song, error) {
	if perPage <= 0 {
		return []catalog.Song{}, nil
	}

	start := store.Skip(page, perPage)
	ids, err := s.redis.ZRange(ctx, s.idsKey(), start, start+int64(perPage)-1).Result()
	if err != nil {
		return nil, store.Observe(store.BackendRedis, store.OpFindPaged, 0, err)
	}
	if len(ids) == 0 {
		return []catalog.Song{}, store.Observe(store.BackendRedis, store.OpFindPaged, 0, nil)
	}

	values, err := s.redis.HMGet(ctx, s.docsKey(), ids...).Result()
	if err != nil {
		return nil, store.Observe(store.BackendRedis, store.OpFindPaged, 0, err)
	}

	songs := make([]catalog.Song, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id without a document: skip it rather than fail the page
			s.logger.Warn().Str("id", ids[i]).Msg("Song id without document")
			continue
		}
		var song catalog.Song
		if err := json.Unmarshal([]byte(raw), &song); err != nil {
			return nil, store.Observe(store.BackendRedis, store.OpFindPaged, 0,
				fmt.Errorf("decode song %s: %w", ids[i], err))
		}
		songs = append(songs, song)
	}

	return songs, store.Observe(store.BackendRedis, store.OpFindPaged, 0, nil)
}

// DeleteAll removes both keys in one transaction and reports how many
// documents the hash held.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	var count *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.HLen(ctx, s.docsKey())
		pipe.Del(ctx, s.docsKey(), s.idsKey())
		return nil
	})
	if err != nil {
		return 0, store.Observe(store.BackendRedis, store.OpDeleteAll, 0, err)
	}

	return count.Val(), store.Observe(store.BackendRedis, store.OpDeleteAll, 0, nil)
}

// Count returns the number of documents in the hash.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.redis.HLen(ctx, s.docsKey()).Result()
	if err != nil {
		return 0, store.Observe(store.BackendRedis, store.OpCount, 0, err)
	}
	return n, store.Observe(store.BackendRedis, store.OpCount, 0, nil)
}

// Close closes the client if the store opened it.
func (s *Store) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	return s.redis.Close()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Sternrassler/tunecore-collector/internal/config"
	"github.com/Sternrassler/tunecore-collector/pkg/cache"
	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	"github.com/Sternrassler/tunecore-collector/pkg/store/memstore"
	"github.com/Sternrassler/tunecore-collector/pkg/store/mongostore"
	"github.com/Sternrassler/tunecore-collector/pkg/store/redisstore"
	"github.com/redis/go-redis/v9"
)

// runtime is bound into every command's Run method.
type runtime struct {
	ctx         context.Context
	cfg         *config.Config
	stdin       io.Reader
	stdout      io.Writer
	interactive bool
}

// openRepository connects the configured store backend.
func (rt *runtime) openRepository() (store.Repository, error) {
	switch rt.cfg.StoreBackend {
	case config.BackendMongo:
		s, err := mongostore.Open(rt.ctx, mongostore.Config{
			URI:        rt.cfg.MongoURI,
			Database:   rt.cfg.DatabaseName,
			Collection: rt.cfg.CollectionName,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(rt.ctx); err != nil {
			s.Close(context.Background())
			return nil, err
		}
		return s, nil

	case config.BackendRedis:
		return redisstore.Open(rt.ctx, rt.cfg.RedisURL, rt.cfg.RedisPrefix)

	case config.BackendMemory:
		logger := logging.NewLogger(logging.ComponentCLI)
		logger.Warn().Msg("Using in-memory store, nothing is persisted")
		return memstore.New(), nil
	}

	return nil, &config.ConfigurationError{Key: config.KeyStoreBackend, Value: rt.cfg.StoreBackend, Err: config.ErrInvalid}
}

// catalogClient builds the catalog client. With withCache and a REDIS_URL
// configured, Search goes through the Redis response cache. An unreachable
// Redis only disables the cache.
func (rt *runtime) catalogClient(withCache bool) (*catalog.Client, func(), error) {
	cfg := catalog.DefaultConfig()
	cfg.BaseURL = rt.cfg.CatalogBaseURL
	cfg.Timeout = rt.cfg.HTTPTimeout
	cfg.RequestsPerSecond = rt.cfg.RequestsPerSecond
	cfg.CacheTTL = rt.cfg.SearchCacheTTL

	cleanup := func() {}
	if withCache && rt.cfg.RedisURL != "" {
		if redisClient, err := rt.connectRedis(); err != nil {
			logger := logging.NewLogger(logging.ComponentCLI)
			logger.Warn().Err(err).Msg("Search cache disabled")
		} else {
			cfg.Cache = cache.NewManager(redisClient).WithNamespace(rt.cfg.RedisPrefix + ":search")
			cleanup = func() { redisClient.Close() }
		}
	}

	client, err := catalog.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, catalogConfigError(cfg, err)
	}
	return client, cleanup, nil
}

// catalogConfigError attributes a catalog.New failure to the key it came from.
func catalogConfigError(cfg catalog.Config, err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalidBaseURL):
		return &config.ConfigurationError{Key: config.KeyCatalogBaseURL, Value: cfg.BaseURL, Err: err}
	case errors.Is(err, catalog.ErrInvalidPacing):
		return &config.ConfigurationError{
			Key:   config.KeyRequestsPerSecond,
			Value: strconv.FormatFloat(cfg.RequestsPerSecond, 'g', -1, 64),
			Err:   err,
		}
	}
	return err
}

func (rt *runtime) connectRedis() (*redis.Client, error) {
	opt, err := redis.ParseURL(rt.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(rt.ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

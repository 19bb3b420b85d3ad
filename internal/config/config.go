// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyCatalogBaseURL    = "CATALOG_BASE_URL"
	KeyCatalogPerPage    = "CATALOG_PER_PAGE"
	KeyHTTPTimeout       = "HTTP_TIMEOUT"
	KeyRequestsPerSecond = "REQUESTS_PER_SECOND"
	KeyStoreBackend      = "STORE_BACKEND"
	KeyMongoURI          = "MONGODB_URI"
	KeyDatabaseName      = "DATABASE_NAME"
	KeyCollectionName    = "COLLECTION_NAME"
	KeyRedisURL          = "REDIS_URL"
	KeyRedisPrefix       = "REDIS_PREFIX"
	KeyMaxConcurrency    = "MAX_CONCURRENCY"
	KeyBatchSize         = "BATCH_SIZE"
	KeySearchCacheTTL    = "SEARCH_CACHE_TTL"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogPretty         = "LOG_PRETTY"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultEnvFile is loaded when Load is called without files.
const DefaultEnvFile = ".env"

// Config holds every runtime setting.
type Config struct {
	CatalogBaseURL    string
	CatalogPerPage    int
	HTTPTimeout       time.Duration
	RequestsPerSecond float64

	StoreBackend   string
	MongoURI       string
	DatabaseName   string
	CollectionName string

	// RedisURL backs the redis store and the search cache. Empty disables
	// the search cache.
	RedisURL    string
	RedisPrefix string

	MaxConcurrency int
	BatchSize      int
	SearchCacheTTL time.Duration

	LogLevel  string
	LogPretty bool
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config %s=%q: %v", e.Key, e.Value, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var (
	// ErrMissing marks a required key without value.
	ErrMissing = errors.New("required value is missing")

	// ErrInvalid marks a value that does not parse or is out of range.
	ErrInvalid = errors.New("invalid value")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCatalogBaseURL, "https://www.tunecore.co.jp/api/v2/community")
	v.SetDefault(KeyCatalogPerPage, 100)
	v.SetDefault(KeyHTTPTimeout, "30s")
	v.SetDefault(KeyRequestsPerSecond, 0)
	v.SetDefault(KeyStoreBackend, BackendMongo)
	v.SetDefault(KeyDatabaseName, "tunecore_db")
	v.SetDefault(KeyCollectionName, "songs")
	v.SetDefault(KeyRedisPrefix, "tunecore")
	v.SetDefault(KeyMaxConcurrency, 25)
	v.SetDefault(KeyBatchSize, 1000)
	v.SetDefault(KeySearchCacheTTL, "5m")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogPretty, false)
}

// Load reads envFiles (default .env) into the process environment without
// overriding variables already set, then builds and validates a Config from
// the environment. Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{Key: "env file", Value: f, Err: err}
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.CatalogBaseURL = strings.TrimSpace(v.GetString(KeyCatalogBaseURL))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreBackend)))
	cfg.MongoURI = v.GetString(KeyMongoURI)
	cfg.DatabaseName = v.GetString(KeyDatabaseName)
	cfg.CollectionName = v.GetString(KeyCollectionName)
	cfg.RedisURL = v.GetString(KeyRedisURL)
	cfg.RedisPrefix = v.GetString(KeyRedisPrefix)
	cfg.LogLevel = v.GetString(KeyLogLevel)

	if cfg.CatalogPerPage, err = positiveInt(v, KeyCatalogPerPage); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency, err = positiveInt(v, KeyMaxConcurrency); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = positiveInt(v, KeyBatchSize); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = positiveDuration(v, KeyHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = positiveDuration(v, KeySearchCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = cast.ToFloat64E(v.Get(KeyRequestsPerSecond)); err != nil || cfg.RequestsPerSecond < 0 {
		return nil, invalid(v, KeyRequestsPerSecond, "must be a number >= 0")
	}
	if cfg.LogPretty, err = cast.ToBoolE(v.Get(KeyLogPretty)); err != nil {
		return nil, invalid(v, KeyLogPretty, "must be a boolean")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.CatalogBaseURL == "" {
		return &ConfigurationError{Key: KeyCatalogBaseURL, Err: ErrMissing}
	}
	if !strings.HasPrefix(c.CatalogBaseURL, "http://") && !strings.HasPrefix(c.CatalogBaseURL, "https://") {
		return &ConfigurationError{Key: KeyCatalogBaseURL, Value: c.CatalogBaseURL,
			Err: fmt.Errorf("%w: must be an http(s) url", ErrInvalid)}
	}

	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return &ConfigurationError{Key: KeyMongoURI, Err: ErrMissing}
		}
		if c.DatabaseName == "" {
			return &ConfigurationError{Key: KeyDatabaseName, Err: ErrMissing}
		}
		if c.CollectionName == "" {
			return &ConfigurationError{Key: KeyCollectionName, Err: ErrMissing}
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return &ConfigurationError{Key: KeyRedisURL, Err: ErrMissing}
		}
	case BackendMemory:
	default:
		return &ConfigurationError{Key: KeyStoreBackend, Value: c.StoreBackend,
			Err: fmt.Errorf("%w: want one of %s, %s, %s", ErrInvalid, BackendMongo, BackendRedis, BackendMemory)}
	}

	return nil
}

func positiveInt(v *viper.Viper, key string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil || n <= 0 {
		return 0, invalid(v, key, "must be a positive integer")
	}
	return n, nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, invalid(v, key, "must be a positive duration such as 30s or 5m")
	}
	return d, nil
}

func invalid(v *viper.Viper, key, msg string) error {
	return &ConfigurationError{
		Key:   key,
		Value: v.GetString(key),
		Err:   fmt.Errorf("%w: %s", ErrInvalid, msg),
	}
}

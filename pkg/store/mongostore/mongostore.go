// Package mongostore stores songs in a MongoDB collection, one document per
// song keyed by its catalog id.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string

	// ConnectTimeout bounds connect and the initial ping
	ConnectTimeout time.Duration
}

// DefaultConfig returns the local development defaults.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "tunecore_db",
		Collection:     "songs",
		ConnectTimeout: 10 * time.Second,
	}
}

// Store is a MongoDB-backed store.Repository.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     zerolog.Logger
}

var _ store.Repository = (*Store)(nil)

// Open connects, pings the primary and returns a store on the configured
// collection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, store.Observe(store.BackendMongo, store.OpConnect, 0, fmt.Errorf("connect: %w", err))
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, store.Observe(store.BackendMongo, store.OpConnect, 0, fmt.Errorf("ping: %w", err))
	}

	log.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("Connected to MongoDB")

	return New(client, client.Database(cfg.Database).Collection(cfg.Collection)), nil
}

// New wraps an existing collection. client may be nil, in which case Close
// does nothing.
func New(client *mongo.Client, collection *mongo.Collection) *Store {
	return &Store{
		client:     client,
		collection: collection,
		logger:     logging.NewLogger(logging.ComponentMongoStore),
	}
}

// EnsureIndexes creates the unique index on id that upserts match on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("id_unique"),
	})
	return store.Observe(store.BackendMongo, store.OpIndex, 0, err)
}

// UpsertMany sends one unordered bulk write of replace-with-upsert models.
// Unordered lets the server apply the remaining models past a failing one.
func (s *Store) UpsertMany(ctx context.Context, songs []catalog.Song) error {
	if len(songs) == 0 {
		return nil
	}

	res, err := s.collection.BulkWrite(ctx, replaceModels(songs), options.BulkWrite().SetOrdered(false))
	if err != nil {
		return store.Observe(store.BackendMongo, store.OpUpsertMany, len(songs), err)
	}

	s.logger.Debug().
		Int("records", len(songs)).
		Int64("upserted", res.UpsertedCount).
		Int64("modified", res.ModifiedCount).
		Int64("matched", res.MatchedCount).
		Msg("Bulk upsert complete")

	return store.Observe(store.BackendMongo, store.OpUpsertMany, len(songs), nil)
}

// replaceModels builds one (match id, replacement) pair per song.
func replaceModels(songs []catalog.Song) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(songs))
	for _, song := range songs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(idFilter(song.ID)).
			SetReplacement(song).
			SetUpsert(true))
	}
	return models
}

func idFilter(id uint64) bson.D {
	return bson.D{{Key: "id", Value: int64(id)}}
}

// FindPaged implements store.Repository.
func (s *Store) FindPaged(ctx context.Context, page, perPage int) ([]catalog.Song, error) {
	if perPage <= 0 {
		return []catalog.Song{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetSkip(store.Skip(page, perPage)).
		SetLimit(int64(perPage))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, store.Observe(store.BackendMongo, store.OpFindPaged, 0, err)
	}
	defer cursor.Close(ctx)

	songs := []catalog.Song{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, store.Observe(store.BackendMongo, store.OpFindPaged, 0, err)
	}

	return songs, store.Observe(store.BackendMongo, store.OpFindPaged, 0, nil)
}

// DeleteAll implements store.Repository.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, store.Observe(store.BackendMongo, store.OpDeleteAll, 0, err)
	}
	return res.DeletedCount, store.Observe(store.BackendMongo, store.OpDeleteAll, 0, nil)
}

// Count implements store.Repository.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, store.Observe(store.BackendMongo, store.OpCount, 0, err)
	}
	return n, store.Observe(store.BackendMongo, store.OpCount, 0, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

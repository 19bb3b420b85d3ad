//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/tunecore-collector/internal/testutil"
	"github.com/Sternrassler/tunecore-collector/pkg/cache"
	"github.com/Sternrassler/tunecore-collector/pkg/catalog"
	"github.com/Sternrassler/tunecore-collector/pkg/collector"
	"github.com/Sternrassler/tunecore-collector/pkg/search"
	"github.com/Sternrassler/tunecore-collector/pkg/store"
	"github.com/Sternrassler/tunecore-collector/pkg/store/mongostore"
	"github.com/Sternrassler/tunecore-collector/pkg/store/redisstore"
	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts image and returns host:port of the exposed port.
func startContainer(t *testing.T, image, port string, waitFor wait.Strategy) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{port + "/tcp"},
		WaitingFor:   waitFor,
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", image, err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return host + ":" + mapped.Port()
}

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := startContainer(t, "redis:7-alpine", "6379", wait.ForLog("Ready to accept connections"))
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

// setupMongo creates a MongoDB container and opens a store on it.
func setupMongo(t *testing.T) *mongostore.Store {
	t.Helper()

	addr := startContainer(t, "mongo:7", "27017", wait.ForListeningPort("27017/tcp").WithStartupTimeout(60*time.Second))

	cfg := mongostore.DefaultConfig()
	cfg.URI = "mongodb://" + addr
	cfg.Database = "tunecore_it"

	s, err := mongostore.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open mongo store: %v", err)
	}
	if err := s.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newClient(t *testing.T, baseURL string, cacheManager *cache.Manager) *catalog.Client {
	t.Helper()

	cfg := catalog.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Cache = cacheManager

	client, err := catalog.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// TestFullCollection runs the 250 records / 100 per page / concurrency 25
// scenario against each real backend.
func TestFullCollection(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Repository{
		"mongo": func(t *testing.T) store.Repository { return setupMongo(t) },
		"redis": func(t *testing.T) store.Repository { return redisstore.New(setupRedis(t), "it") },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			mock := testutil.NewMockCatalog(testutil.GenerateSongs(250))
			defer mock.Close()

			coll := collector.New(newClient(t, mock.URL(), nil), repo, collector.DefaultConfig())

			report, err := coll.CollectAll(ctx, 25)
			if err != nil {
				t.Fatalf("CollectAll failed: %v", err)
			}
			if report.Outcome != collector.OutcomeMultiPage || report.PagesFetched != 3 {
				t.Errorf("unexpected report: %+v", report)
			}

			// Second run must not create duplicates
			if _, err := coll.CollectAll(ctx, 25); err != nil {
				t.Fatalf("second CollectAll failed: %v", err)
			}

			count, err := repo.Count(ctx)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 250 {
				t.Errorf("expected 250 songs, got %d", count)
			}

			page, err := repo.FindPaged(ctx, 25, 10)
			if err != nil {
				t.Fatalf("FindPaged failed: %v", err)
			}
			if len(page) != 10 {
				t.Fatalf("expected 10 songs on page 25, got %d", len(page))
			}
			if page[0].ID != 241 || page[9].ID != 250 {
				t.Errorf("unexpected last page: ids %d..%d", page[0].ID, page[9].ID)
			}

			deleted, err := repo.DeleteAll(ctx)
			if err != nil {
				t.Fatalf("DeleteAll failed: %v", err)
			}
			if deleted != 250 {
				t.Errorf("expected 250 deleted, got %d", deleted)
			}
		})
	}
}

// TestCollectionFailureKeepsCommittedBatches checks that a failing page stops
// the run while the first page stays written.
func TestCollectionFailureKeepsCommittedBatches(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	mock := testutil.NewMockCatalog(testutil.GenerateSongs(600))
	defer mock.Close()
	mock.SetPageResponse(4, testutil.NewServerErrorResponse())

	coll := collector.New(newClient(t, mock.URL(), nil), repo, collector.DefaultConfig())

	_, err := coll.CollectAll(ctx, 1)

	var transportErr *catalog.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 100 {
		t.Errorf("expected only page 1 (100 songs) committed, got %d", count)
	}
}

// TestSearchCache verifies repeated searches are served from Redis.
func TestSearchCache(t *testing.T) {
	redisClient := setupRedis(t)
	ctx := context.Background()

	mock := testutil.NewMockCatalog(testutil.GenerateSongs(30))
	defer mock.Close()

	client := newClient(t, mock.URL(), cache.NewManager(redisClient))

	for i := 0; i < 3; i++ {
		pager, err := search.Run(ctx, client, "song", search.DefaultPerPage)
		if err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
		if pager.Pages() != 6 {
			t.Errorf("expected 6 result pages, got %d", pager.Pages())
		}
	}

	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("expected 1 catalog request, got %d", got)
	}
}

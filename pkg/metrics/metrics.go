// Package metrics exposes the Prometheus registry the collector's metrics are
// registered on, and serves it over HTTP.
//
// All metrics are defined in their respective packages (catalog, cache,
// pagination, collector, store) via promauto, which keeps the packages
// independent of each other.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by every package.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Server serves /metrics until its context is cancelled.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// Listen binds addr and returns a server ready to Serve. Use ":0" for a
// random port.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()

	log.Info().Str("addr", s.Addr()).Msg("Serving metrics")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics Documentation
//
// Catalog Metrics (pkg/catalog):
//   - tunecore_requests_total{status} (Counter): Catalog requests by HTTP status or network_error
//   - tunecore_request_duration_seconds (Histogram): Catalog request duration
//   - tunecore_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Cache Metrics (pkg/cache):
//   - tunecore_cache_hits_total (Counter): Search responses served from Redis
//   - tunecore_cache_misses_total (Counter): Search cache misses
//   - tunecore_cache_size_bytes (Gauge): Bytes written to the search cache
//   - tunecore_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pipeline Metrics (pkg/pagination):
//   - collector_fetches_in_flight (Gauge): Page fetches currently running
//   - collector_flushes_total (Counter): Batch flushes
//   - collector_records_flushed_total (Counter): Records handed to the repository in batches
//
// Run Metrics (pkg/collector):
//   - collector_pages_fetched_total (Counter): Pages fetched, page 1 included
//   - collector_records_upserted_total (Counter): Records written, page 1 included
//   - collector_runs_total{outcome} (Counter): Runs by outcome (empty_catalog, single_page, multi_page, failed)
//
// Store Metrics (pkg/store):
//   - store_operations_total{backend, operation, status} (Counter): Repository operations
//
// Example Prometheus Queries:
//
//   # Fetch concurrency actually used
//   max_over_time(collector_fetches_in_flight[10m])
//
//   # Failed runs
//   increase(collector_runs_total{outcome="failed"}[1d])
//
//   # Catalog error rate
//   rate(tunecore_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(tunecore_request_duration_seconds_bucket[5m]))
//
//   # Search Cache Hit Rate
//   sum(rate(tunecore_cache_hits_total[5m])) /
//   (sum(rate(tunecore_cache_hits_total[5m])) + sum(rate(tunecore_cache_misses_total[5m])))

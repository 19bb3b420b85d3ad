package store

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names reported in PersistenceError and metrics.
const (
	OpUpsertMany = "upsert_many"
	OpFindPaged  = "find_paged"
	OpDeleteAll  = "delete_all"
	OpCount      = "count"
	OpConnect    = "connect"
	OpIndex      = "ensure_indexes"
)

// OperationsTotal counts backend operations by outcome.
var OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "store_operations_total",
	Help: "Total repository operations by backend, operation and status",
}, []string{"backend", "operation", "status"})

// PersistenceError is returned when the document store rejects or fails an
// operation.
type PersistenceError struct {
	Backend string
	Op      string

	// Records is the number of records the failed operation carried
	Records int
	Err     error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.Records > 0 {
		return fmt.Sprintf("%s store %s failed (%d records): %v", e.Backend, e.Op, e.Records, e.Err)
	}
	return fmt.Sprintf("%s store %s failed: %v", e.Backend, e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Observe records the outcome of a backend operation and wraps a non-nil err
// in a PersistenceError. It returns nil when err is nil.
func Observe(backend, op string, records int, err error) error {
	if err == nil {
		OperationsTotal.WithLabelValues(backend, op, "ok").Inc()
		return nil
	}
	OperationsTotal.WithLabelValues(backend, op, "error").Inc()
	return &PersistenceError{
		Backend: backend,
		Op:      op,
		Records: records,
		Err:     err,
	}
}

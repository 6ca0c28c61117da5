package domain

import (
	"context"
	"time"
)

// SnapshotRepository defines the interface for persistence of corridor
// snapshots and prediction batch logs.
// This follows the Dependency Inversion Principle - domain defines the interface
type SnapshotRepository interface {
	// SaveMetricsSnapshot persists one aggregate metrics reading
	SaveMetricsSnapshot(ctx context.Context, m CorridorMetrics) error

	// SavePredictionBatch logs one prediction fan-out (batch id, date, counts)
	SavePredictionBatch(ctx context.Context, batchID, date string, records, failures int) error

	// GetMetricsHistory retrieves metrics history
	GetMetricsHistory(ctx context.Context, from, to time.Time) ([]CorridorMetrics, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}

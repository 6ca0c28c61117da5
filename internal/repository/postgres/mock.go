package postgres

import (
	"context"
	"time"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// MockRepository implements domain.SnapshotRepository for testing/demo mode
type MockRepository struct{}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveMetricsSnapshot is a no-op in mock mode
func (r *MockRepository) SaveMetricsSnapshot(ctx context.Context, m domain.CorridorMetrics) error {
	return nil
}

// SavePredictionBatch is a no-op in mock mode
func (r *MockRepository) SavePredictionBatch(ctx context.Context, batchID, date string, records, failures int) error {
	return nil
}

// GetMetricsHistory returns mock historical data
func (r *MockRepository) GetMetricsHistory(ctx context.Context, from, to time.Time) ([]domain.CorridorMetrics, error) {
	return []domain.CorridorMetrics{
		{
			Timestamp:        time.Now().Add(-time.Hour),
			TotalVehicles:    8400,
			AvgSpeed:         42,
			EstimatedMinutes: 17,
			Status:           "Moderado",
		},
	}, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

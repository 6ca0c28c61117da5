package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// PostgresRepository implements domain.SnapshotRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveMetricsSnapshot persists one aggregate metrics reading
func (r *PostgresRepository) SaveMetricsSnapshot(ctx context.Context, m domain.CorridorMetrics) error {
	query := `
		INSERT INTO corridor_snapshots (
			total_vehicles, avg_speed, estimated_minutes, status, timestamp
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		m.TotalVehicles, m.AvgSpeed, m.EstimatedMinutes, m.Status, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save metrics snapshot: %w", err)
	}

	return nil
}

// SavePredictionBatch logs one prediction fan-out
func (r *PostgresRepository) SavePredictionBatch(ctx context.Context, batchID, date string, records, failures int) error {
	query := `
		INSERT INTO prediction_batches (
			batch_id, prediction_date, record_count, failure_count, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	// empty date goes in as NULL rather than an empty string
	var predictionDate interface{}
	if date != "" {
		predictionDate = date
	}

	_, err := r.pool.Exec(ctx, query, batchID, predictionDate, records, failures, time.Now())
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction batch: %w", err)
	}

	return nil
}

// GetMetricsHistory retrieves metrics history from PostgreSQL
func (r *PostgresRepository) GetMetricsHistory(ctx context.Context, from, to time.Time) ([]domain.CorridorMetrics, error) {
	query := `
		SELECT total_vehicles, avg_speed, estimated_minutes, status, timestamp
		FROM corridor_snapshots
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query metrics history: %w", err)
	}
	defer rows.Close()

	var results []domain.CorridorMetrics
	for rows.Next() {
		var m domain.CorridorMetrics
		err := rows.Scan(&m.TotalVehicles, &m.AvgSpeed, &m.EstimatedMinutes, &m.Status, &m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan metrics row: %w", err)
		}
		results = append(results, m)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

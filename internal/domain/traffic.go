package domain

import "time"

// Status is the canonical congestion tier of a monitored segment
type Status string

const (
	StatusFluido        Status = "fluido"
	StatusModerado      Status = "moderado"
	StatusCongestionado Status = "congestionado"
	StatusColapsado     Status = "colapsado"
)

// TrafficPoint represents one monitored segment for live or prediction display.
// Status is always derived from Congestion; no code path sets the pair independently.
type TrafficPoint struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Congestion      float64 `json:"congestion"`
	AvgSpeed        float64 `json:"avg_speed_kmh"`
	VehiclesPerHour int     `json:"vehicles_per_hour"`
	Status          Status  `json:"status"`
}

// LiveMeasurement is one current traffic reading for a segment.
// CongestionLevel may arrive on a 1-5 ordinal scale or as a percentage.
type LiveMeasurement struct {
	SegmentID       int     `json:"segmento_id"`
	AvgSpeedKmh     float64 `json:"velocidad_promedio"`
	CongestionLevel float64 `json:"nivel_congestion"`
	VehiclesPerHour int     `json:"cantidad_vehiculos"`
}

// CorridorMetrics aggregates the currently loaded points
type CorridorMetrics struct {
	Timestamp        time.Time `json:"timestamp"`
	TotalVehicles    int       `json:"total_vehicles"`
	AvgSpeed         float64   `json:"avg_speed_kmh"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	MatrixMinutes    []float64 `json:"matrix_minutes,omitempty"`
	Status           string    `json:"status"`
}

// CorridorLengthKm is the reference length used for the corridor travel-time estimate
const CorridorLengthKm = 12.0

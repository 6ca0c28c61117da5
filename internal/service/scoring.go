package service

import (
	"math"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
	"github.com/RonaldHZzzz/project-predict-traffic/pkg/utils"
)

// NormalizeCongestion maps a raw congestion measure to the 0-100 percentage
// scale. Upstream sends either a percentage or a 1-5 ordinal level; values in
// (0, 5] are treated as ordinal and multiplied by 20.
func NormalizeCongestion(raw float64) float64 {
	if raw > 0 && raw <= 5 {
		return raw * 20
	}
	return raw
}

// Classify maps a raw congestion measure to its canonical status tier.
// Thresholds on the normalized percentage: <30 fluido, <50 moderado,
// <75 congestionado, else colapsado. Total function; callers own clamping.
func Classify(raw float64) domain.Status {
	pct := NormalizeCongestion(raw)
	switch {
	case pct < 30:
		return domain.StatusFluido
	case pct < 50:
		return domain.StatusModerado
	case pct < 75:
		return domain.StatusCongestionado
	default:
		return domain.StatusColapsado
	}
}

// StatusColor returns the legend color for a status tier
func StatusColor(status domain.Status) string {
	switch status {
	case domain.StatusFluido:
		return "#10b981"
	case domain.StatusModerado:
		return "#f59e0b"
	case domain.StatusCongestionado:
		return "#ff7242"
	case domain.StatusColapsado:
		return "#ef4444"
	default:
		return "#6b7280"
	}
}

// StatusLabel returns the display label for a status tier
func StatusLabel(status domain.Status) string {
	switch status {
	case domain.StatusFluido:
		return "Fluido"
	case domain.StatusModerado:
		return "Moderado"
	case domain.StatusCongestionado:
		return "Congestionado"
	case domain.StatusColapsado:
		return "Colapsado"
	default:
		return "Desconocido"
	}
}

// ScoreCongestion derives a 5-100 composite congestion value from one
// prediction record, blending the ordinal model output with speed, load,
// road-works and nearby-stop signals. A nil record yields the neutral 30.
func ScoreCongestion(rec *domain.PredictionRecord) int {
	if rec == nil {
		return 30
	}

	score := float64(rec.CongestionLevel) * 8

	speedRatio := utils.Clamp(rec.SpeedKmh/60, 0, 1)
	score += (1 - speedRatio) * 25

	// 2 lanes at a fixed per-km capacity; zero-length segments must not divide by zero
	capacity := rec.LengthKm * 1400
	if capacity <= 0 {
		capacity = 1
	}
	loadRatio := utils.Clamp(rec.VehicleLoad/capacity, 0, 1)
	score += loadRatio * 15

	if rec.RoadWorks > 0 {
		score += 15
	}

	stops := float64(rec.NearbyStops)
	if stops > 5 {
		stops = 5
	}
	score += stops

	return int(utils.Clamp(math.Round(score), 5, 100))
}

// NewTrafficPoint builds a point with its status derived from congestion
func NewTrafficPoint(id, name string, lat, lon, congestion, avgSpeed float64, vehiclesPerHour int) domain.TrafficPoint {
	return domain.TrafficPoint{
		ID:              id,
		Name:            name,
		Lat:             lat,
		Lon:             lon,
		Congestion:      congestion,
		AvgSpeed:        avgSpeed,
		VehiclesPerHour: vehiclesPerHour,
		Status:          Classify(congestion),
	}
}

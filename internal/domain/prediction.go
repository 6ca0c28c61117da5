package domain

// PredictionRecord is one (segment, hour) entry from the prediction service
type PredictionRecord struct {
	SegmentID       int     `json:"segmento_id"`
	Date            string  `json:"fecha"`
	Hour            string  `json:"hora"`
	CongestionLevel int     `json:"nivel_congestion"`
	SpeedKmh        float64 `json:"velocidad_kmh"`
	LengthKm        float64 `json:"longitud_km"`
	VehicleLoad     float64 `json:"carga_vehicular"`
	RoadWorks       int     `json:"construccion_vial"`
	NearbyStops     int     `json:"paradas_cercanas"`
}

// RecommendedRoute is the normalized result of a route-recommendation request.
// Both backend response shapes collapse into this at the ingestion boundary.
type RecommendedRoute struct {
	SegmentID        int     `json:"segmento_id"`
	SpeedKmh         float64 `json:"velocidad_kmh"`
	EstimatedMinutes float64 `json:"tiempo_estimado_min"`
}

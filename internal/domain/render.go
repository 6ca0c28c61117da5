package domain

// ViewState holds the cross-cutting UI modes the reconciler resolves.
// Any combination may be active at once; precedence lives in the reconciler.
type ViewState struct {
	SelectedSegmentID     *int              `json:"selected_segment_id"`
	SelectedPointID       *string           `json:"selected_point_id"`
	PredictionMode        bool              `json:"prediction_mode"`
	PredictionDate        string            `json:"prediction_date,omitempty"`
	SelectedHour          string            `json:"selected_hour,omitempty"`
	ConstructionMode      bool              `json:"construction_mode"`
	ConstructionSegmentID *int              `json:"construction_segment_id"`
	Recommended           *RecommendedRoute `json:"recommended,omitempty"`
}

// SegmentStyle is the resolved per-segment render attributes
type SegmentStyle struct {
	Color   string  `json:"color"`
	Weight  int     `json:"weight"`
	Opacity float64 `json:"opacity"`
	Glow    bool    `json:"glow"`
}

// SegmentRender is one drawable polyline with its resolved style.
// Positions are lat-first, ready for the map surface.
type SegmentRender struct {
	SegmentID int          `json:"segmento_id"`
	Name      string       `json:"nombre"`
	Positions [][2]float64 `json:"positions"`
	Style     SegmentStyle `json:"style"`
}

// PointMarker is a monitoring-point marker with its popup summary
type PointMarker struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Name       string  `json:"name"`
	Status     Status  `json:"status"`
	Label      string  `json:"label"`
	Congestion int     `json:"congestion"`
	AvgSpeed   int     `json:"avg_speed_kmh"`
	Vehicles   int     `json:"vehicles_per_hour"`
}

// StopMarker is a bus-stop marker with its popup summary
type StopMarker struct {
	ID        int     `json:"id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Name      string  `json:"name"`
	SegmentID int     `json:"segmento_id"`
}

// RoutePopup is the prediction snapshot shown at the recommended-route midpoint
type RoutePopup struct {
	SpeedKmh         float64 `json:"velocidad_kmh"`
	EstimatedMinutes float64 `json:"tiempo_estimado_min"`
}

// RouteOverlay is the recommended-route polyline, tracked apart from the
// generic segment renders so redraw passes never clear it.
type RouteOverlay struct {
	SegmentID int           `json:"segmento_id"`
	Positions [][2]float64  `json:"positions"`
	Midpoint  [2]float64    `json:"midpoint"`
	LengthKm  float64       `json:"length_km"`
	Popup     RoutePopup    `json:"popup"`
	FitBounds [2][2]float64 `json:"fit_bounds"`
}

// Scene is the full set of render instructions for one consistent frame
type Scene struct {
	Segments  []SegmentRender `json:"segments"`
	Points    []PointMarker   `json:"points"`
	Stops     []StopMarker    `json:"stops"`
	Route     *RouteOverlay   `json:"route,omitempty"`
	Metrics   CorridorMetrics `json:"metrics"`
	View      ViewState       `json:"view"`
	LastError string          `json:"last_error,omitempty"`
	Loading   bool            `json:"loading"`
}

package domain

// Segment is a static road-segment definition for the monitored corridor.
// Geometry keeps the upstream vertex order: [longitude, latitude] pairs.
type Segment struct {
	SegmentID int          `json:"segmento_id"`
	Name      string       `json:"nombre"`
	Geometry  [][2]float64 `json:"geometry"`
}

// LineRenderable reports whether the segment has enough vertices to draw a line
func (s Segment) LineRenderable() bool {
	return len(s.Geometry) >= 2
}

// FirstVertex returns the first geometry vertex as lat, lon.
// Zero values when the geometry is empty.
func (s Segment) FirstVertex() (lat, lon float64) {
	if len(s.Geometry) == 0 {
		return 0, 0
	}
	return s.Geometry[0][1], s.Geometry[0][0]
}

// LatLonPositions returns the polyline vertices in lat-first order for rendering
func (s Segment) LatLonPositions() [][2]float64 {
	positions := make([][2]float64, 0, len(s.Geometry))
	for _, v := range s.Geometry {
		positions = append(positions, [2]float64{v[1], v[0]})
	}
	return positions
}

// Midpoint returns the middle polyline vertex as lat, lon
func (s Segment) Midpoint() (lat, lon float64) {
	if len(s.Geometry) == 0 {
		return 0, 0
	}
	mid := s.Geometry[len(s.Geometry)/2]
	return mid[1], mid[0]
}

// BusStop is a stop of interest tied to exactly one segment
type BusStop struct {
	ID        int     `json:"id"`
	Name      string  `json:"nombre"`
	SegmentID int     `json:"segmento"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

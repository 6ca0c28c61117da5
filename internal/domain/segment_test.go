package domain

import "testing"

func TestSegmentGeometryHelpers(t *testing.T) {
	seg := Segment{
		SegmentID: 1,
		Geometry:  [][2]float64{{-89.30, 13.70}, {-89.29, 13.705}, {-89.28, 13.71}},
	}

	if !seg.LineRenderable() {
		t.Fatal("three-vertex segment must be line renderable")
	}

	lat, lon := seg.FirstVertex()
	if lat != 13.70 || lon != -89.30 {
		t.Errorf("first vertex = %v, %v (geometry is longitude-first)", lat, lon)
	}

	lat, lon = seg.Midpoint()
	if lat != 13.705 || lon != -89.29 {
		t.Errorf("midpoint = %v, %v", lat, lon)
	}

	positions := seg.LatLonPositions()
	if positions[0] != [2]float64{13.70, -89.30} {
		t.Errorf("positions[0] = %v, want lat-first", positions[0])
	}
}

func TestSegmentTooShortToRender(t *testing.T) {
	if (Segment{Geometry: [][2]float64{{-89.3, 13.7}}}).LineRenderable() {
		t.Error("single-vertex segment must not be line renderable")
	}
	if (Segment{}).LineRenderable() {
		t.Error("empty segment must not be line renderable")
	}

	lat, lon := (Segment{}).FirstVertex()
	if lat != 0 || lon != 0 {
		t.Errorf("empty geometry vertex = %v, %v", lat, lon)
	}
}

package service

import (
	"testing"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// tierIndex orders the status tiers for monotonicity checks
func tierIndex(s domain.Status) int {
	switch s {
	case domain.StatusFluido:
		return 0
	case domain.StatusModerado:
		return 1
	case domain.StatusCongestionado:
		return 2
	case domain.StatusColapsado:
		return 3
	}
	return -1
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		in   float64
		want domain.Status
	}{
		{0, domain.StatusFluido},
		{29.999, domain.StatusFluido},
		{30, domain.StatusModerado},
		{49.999, domain.StatusModerado},
		{50, domain.StatusCongestionado},
		{74.999, domain.StatusCongestionado},
		{75, domain.StatusColapsado},
		{100, domain.StatusColapsado},
	}

	for _, c := range cases {
		if got := Classify(c.in); got != c.want {
			t.Errorf("Classify(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestClassifyOrdinalDetection(t *testing.T) {
	// 2.5 on the 1-5 scale means 50%, the same tier as a literal 50
	if got, want := Classify(2.5), Classify(50); got != want {
		t.Errorf("Classify(2.5) = %s, want %s", got, want)
	}
	if got := Classify(5); got != domain.StatusColapsado {
		t.Errorf("Classify(5) = %s, want colapsado (ordinal 5 is 100%%)", got)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	// already-percentage inputs, ascending
	values := []float64{0, 10, 29, 30, 45, 50, 60, 74, 75, 90, 100}
	prev := -1
	for _, v := range values {
		idx := tierIndex(Classify(v))
		if idx < prev {
			t.Fatalf("Classify not monotonic at %v: tier %d after %d", v, idx, prev)
		}
		prev = idx
	}
}

func TestStatusTablesFallback(t *testing.T) {
	if got := StatusColor(domain.Status("otro")); got != "#6b7280" {
		t.Errorf("StatusColor(unknown) = %s, want #6b7280", got)
	}
	if got := StatusLabel(domain.Status("otro")); got != "Desconocido" {
		t.Errorf("StatusLabel(unknown) = %s, want Desconocido", got)
	}
}

func TestScoreCongestionNil(t *testing.T) {
	if got := ScoreCongestion(nil); got != 30 {
		t.Errorf("ScoreCongestion(nil) = %d, want 30", got)
	}
}

func TestScoreCongestionZeroLengthSegment(t *testing.T) {
	rec := &domain.PredictionRecord{
		CongestionLevel: 3,
		SpeedKmh:        30,
		LengthKm:        0,
		VehicleLoad:     5000,
		NearbyStops:     1,
	}
	got := ScoreCongestion(rec)
	if got < 5 || got > 100 {
		t.Fatalf("ScoreCongestion with zero length = %d, out of [5,100]", got)
	}
}

func TestScoreCongestionRange(t *testing.T) {
	cases := []domain.PredictionRecord{
		{},
		{CongestionLevel: 1, SpeedKmh: 120},
		{CongestionLevel: 5, SpeedKmh: 0, LengthKm: 0.5, VehicleLoad: 1e9, RoadWorks: 1, NearbyStops: 50},
		{CongestionLevel: 2, SpeedKmh: 45, LengthKm: 3, VehicleLoad: 1200},
	}
	for i := range cases {
		got := ScoreCongestion(&cases[i])
		if got < 5 || got > 100 {
			t.Errorf("case %d: ScoreCongestion = %d, out of [5,100]", i, got)
		}
	}
}

func TestScoreCongestionSaturation(t *testing.T) {
	rec := &domain.PredictionRecord{
		CongestionLevel: 5,
		SpeedKmh:        0,
		LengthKm:        1,
		VehicleLoad:     1e9,
		RoadWorks:       1,
		NearbyStops:     10,
	}
	if got := ScoreCongestion(rec); got != 100 {
		t.Errorf("ScoreCongestion(saturated) = %d, want 100", got)
	}
}

func TestScoreCongestionRushHourRecord(t *testing.T) {
	// 4*8 + 25*(1-20/60) + 15*min(2000/1400,1) + 0 + 2 = 65.67 -> 66
	rec := &domain.PredictionRecord{
		SegmentID:       10,
		Hour:            "08:00",
		CongestionLevel: 4,
		SpeedKmh:        20,
		LengthKm:        1,
		VehicleLoad:     2000,
		RoadWorks:       0,
		NearbyStops:     2,
	}
	got := ScoreCongestion(rec)
	if got != 66 {
		t.Fatalf("ScoreCongestion = %d, want 66", got)
	}
	if status := Classify(float64(got)); status != domain.StatusCongestionado {
		t.Errorf("Classify(%d) = %s, want congestionado", got, status)
	}
}

func TestNewTrafficPointDerivesStatus(t *testing.T) {
	p := NewTrafficPoint("7", "Tramo 7", 13.7, -89.2, 82, 22, 1600)
	if p.Status != domain.StatusColapsado {
		t.Errorf("status = %s, want colapsado for congestion 82", p.Status)
	}
}

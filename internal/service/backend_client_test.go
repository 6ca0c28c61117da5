package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

func segmentServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/segmentos/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestSegmentsPlainArray(t *testing.T) {
	srv := segmentServer(t, `[
		{"segmento_id": 1, "nombre": "Tramo 1", "geometry": [[-89.30, 13.70], [-89.29, 13.705]]},
		{"id": 2, "geometry": [[-89.29, 13.705], [-89.28, 13.71]]}
	]`)
	defer srv.Close()

	segments, err := NewHTTPBackend(srv.URL, "").Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[0].SegmentID != 1 || segments[0].Name != "Tramo 1" {
		t.Errorf("segment 0 = %+v", segments[0])
	}
	// id and fallback name fill the gaps
	if segments[1].SegmentID != 2 || segments[1].Name != "Segmento sin nombre" {
		t.Errorf("segment 1 = %+v", segments[1])
	}
	// geometry stays longitude-first
	if segments[0].Geometry[0] != [2]float64{-89.30, 13.70} {
		t.Errorf("geometry vertex = %v", segments[0].Geometry[0])
	}
}

func TestSegmentsPaginated(t *testing.T) {
	srv := segmentServer(t, `{"count": 1, "results": [
		{"segmento_id": 7, "nombre": "Tramo 7", "geometry": [[-89.2, 13.6], [-89.19, 13.61]]}
	]}`)
	defer srv.Close()

	segments, err := NewHTTPBackend(srv.URL, "").Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segments) != 1 || segments[0].SegmentID != 7 {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestSegmentsGeoJSON(t *testing.T) {
	srv := segmentServer(t, `{"type": "FeatureCollection", "features": [
		{"id": 3, "properties": {"segmento_id": 3, "nombre": "Tramo 3"},
		 "geometry": {"type": "LineString", "coordinates": [[-89.3, 13.7], [-89.29, 13.71]]}}
	]}`)
	defer srv.Close()

	segments, err := NewHTTPBackend(srv.URL, "").Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segments) != 1 || segments[0].SegmentID != 3 || segments[0].Name != "Tramo 3" {
		t.Fatalf("segments = %+v", segments)
	}
	if len(segments[0].Geometry) != 2 {
		t.Errorf("geometry = %v", segments[0].Geometry)
	}
}

func TestSegmentsUnknownShape(t *testing.T) {
	srv := segmentServer(t, `{"mensaje": "sin datos"}`)
	defer srv.Close()

	if _, err := NewHTTPBackend(srv.URL, "").Segments(context.Background()); err == nil {
		t.Fatal("expected error for unknown payload shape")
	}
}

func TestPredictTrafficInjectsSegmentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"fecha": "2026-09-01", "hora": "08:00", "nivel_congestion": 3, "velocidad_kmh": 35},
			{"segmento_id": 10, "fecha": "2026-09-01", "hora": "09:00", "nivel_congestion": 2, "velocidad_kmh": 50}
		]`))
	}))
	defer srv.Close()

	records, err := NewHTTPBackend(srv.URL, "").PredictTraffic(context.Background(), 10, "2026-09-01")
	if err != nil {
		t.Fatalf("PredictTraffic: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for i, rec := range records {
		if rec.SegmentID != 10 {
			t.Errorf("record %d segment id = %d, want injected 10", i, rec.SegmentID)
		}
	}
}

func TestRecommendRouteShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.RecommendedRoute
	}{
		{
			name: "mejor_segmento nested",
			body: `{"mejor_segmento": {"segmento_id": 4, "prediccion": {"velocidad_kmh": 52.5, "tiempo_estimado_min": 11}}}`,
			want: domain.RecommendedRoute{SegmentID: 4, SpeedKmh: 52.5, EstimatedMinutes: 11},
		},
		{
			name: "segmento_recomendado nested",
			body: `{"segmento_recomendado": {"segmento_id": 6, "prediccion": {"velocidad_kmh": 48, "tiempo_estimado_min": 13.5}}}`,
			want: domain.RecommendedRoute{SegmentID: 6, SpeedKmh: 48, EstimatedMinutes: 13.5},
		},
		{
			name: "mejor_segmento flat id",
			body: `{"mejor_segmento": 9}`,
			want: domain.RecommendedRoute{SegmentID: 9},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(c.body))
			}))
			defer srv.Close()

			route, err := NewHTTPBackend(srv.URL, "").RecommendRoute(context.Background(), "2026-09-01 08:00:00")
			if err != nil {
				t.Fatalf("RecommendRoute: %v", err)
			}
			if *route != c.want {
				t.Errorf("route = %+v, want %+v", *route, c.want)
			}
		})
	}
}

func TestRecommendRouteEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPBackend(srv.URL, "").RecommendRoute(context.Background(), "2026-09-01 08:00:00"); err == nil {
		t.Fatal("expected error for recommendation without a segment")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secreto" {
			t.Errorf("authorization header = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewHTTPBackend(srv.URL, "secreto").Segments(context.Background()); err != nil {
		t.Fatalf("Segments: %v", err)
	}
}

func TestTravelMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/matrix/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"durations": [[0, 600, 1230], [615, 0, 640]]}`))
	}))
	defer srv.Close()

	durations, err := NewHTTPBackend(srv.URL, "").TravelMatrix(context.Background(), [][2]float64{{13.7, -89.3}, {13.71, -89.29}})
	if err != nil {
		t.Fatalf("TravelMatrix: %v", err)
	}
	if durations[0][2] != 1230 {
		t.Errorf("durations[0][2] = %v", durations[0][2])
	}

	minutes := matrixMinutesFrom(durations)
	if len(minutes) != 2 || minutes[0] != 10 || minutes[1] != 20.5 {
		t.Errorf("minutes = %v, want [10 20.5]", minutes)
	}
}

func TestBusStopsScoped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trafico/segmentos/5/paradas/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "nombre": "Parada Norte", "segmento": 5, "lat": 13.7, "lon": -89.3}]`))
	}))
	defer srv.Close()

	stops, err := NewHTTPBackend(srv.URL, "").BusStops(context.Background(), 5)
	if err != nil {
		t.Fatalf("BusStops: %v", err)
	}
	if len(stops) != 1 || stops[0].SegmentID != 5 || stops[0].Lon != -89.3 {
		t.Fatalf("stops = %+v", stops)
	}
}

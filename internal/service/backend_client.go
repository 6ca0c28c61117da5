package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// BackendClient is the contract with the prediction/segment backend.
// The orchestrator takes it injected so tests can substitute a fake.
type BackendClient interface {
	Segments(ctx context.Context) ([]domain.Segment, error)
	CurrentTraffic(ctx context.Context) ([]domain.LiveMeasurement, error)
	BusStops(ctx context.Context, segmentID int) ([]domain.BusStop, error)
	PredictTraffic(ctx context.Context, segmentID int, date string) ([]domain.PredictionRecord, error)
	RecommendRoute(ctx context.Context, dateHour string) (*domain.RecommendedRoute, error)
	TravelMatrix(ctx context.Context, coords [][2]float64) ([][]float64, error)
}

// HTTPBackend handles communication with the traffic backend
type HTTPBackend struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPBackend creates a new backend client
func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("backend: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend: %s returned status %d", path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to read response from %s: %w", path, err)
	}
	return raw, nil
}

type segmentPayload struct {
	SegmentoID int         `json:"segmento_id"`
	ID         int         `json:"id"`
	Nombre     string      `json:"nombre"`
	Geometry   [][]float64 `json:"geometry"`
}

type featurePayload struct {
	ID         int `json:"id"`
	Properties struct {
		SegmentoID int    `json:"segmento_id"`
		Nombre     string `json:"nombre"`
	} `json:"properties"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Segments fetches the static segment list. Three payload shapes are
// normalized here: a plain array, DRF pagination ({results: [...]}) and a
// GeoJSON FeatureCollection. Downstream code only ever sees domain.Segment.
func (b *HTTPBackend) Segments(ctx context.Context) ([]domain.Segment, error) {
	raw, err := b.do(ctx, http.MethodGet, "/segmentos/", nil)
	if err != nil {
		return nil, err
	}
	return decodeSegments(raw)
}

func decodeSegments(raw []byte) ([]domain.Segment, error) {
	var plain []segmentPayload
	if err := json.Unmarshal(raw, &plain); err == nil {
		return toSegments(plain), nil
	}

	var paged struct {
		Results []segmentPayload `json:"results"`
	}
	if err := json.Unmarshal(raw, &paged); err == nil && paged.Results != nil {
		return toSegments(paged.Results), nil
	}

	var fc struct {
		Type     string           `json:"type"`
		Features []featurePayload `json:"features"`
	}
	if err := json.Unmarshal(raw, &fc); err == nil && fc.Features != nil {
		segments := make([]domain.Segment, 0, len(fc.Features))
		for _, f := range fc.Features {
			id := f.Properties.SegmentoID
			if id == 0 {
				id = f.ID
			}
			name := f.Properties.Nombre
			if name == "" {
				name = "Segmento sin nombre"
			}
			segments = append(segments, domain.Segment{
				SegmentID: id,
				Name:      name,
				Geometry:  toVertices(f.Geometry.Coordinates),
			})
		}
		return segments, nil
	}

	return nil, fmt.Errorf("backend: unexpected segment payload shape")
}

func toSegments(payloads []segmentPayload) []domain.Segment {
	segments := make([]domain.Segment, 0, len(payloads))
	for _, p := range payloads {
		id := p.SegmentoID
		if id == 0 {
			id = p.ID
		}
		name := p.Nombre
		if name == "" {
			name = "Segmento sin nombre"
		}
		segments = append(segments, domain.Segment{
			SegmentID: id,
			Name:      name,
			Geometry:  toVertices(p.Geometry),
		})
	}
	return segments
}

func toVertices(coords [][]float64) [][2]float64 {
	vertices := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		vertices = append(vertices, [2]float64{c[0], c[1]})
	}
	return vertices
}

// CurrentTraffic fetches the latest live measurement per segment
func (b *HTTPBackend) CurrentTraffic(ctx context.Context) ([]domain.LiveMeasurement, error) {
	raw, err := b.do(ctx, http.MethodGet, "/api/trafico/actual/", nil)
	if err != nil {
		return nil, err
	}

	var plain []domain.LiveMeasurement
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}

	var wrapped struct {
		Data []domain.LiveMeasurement `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	return nil, fmt.Errorf("backend: unexpected live traffic payload shape")
}

// BusStops fetches the stops scoped to one segment
func (b *HTTPBackend) BusStops(ctx context.Context, segmentID int) ([]domain.BusStop, error) {
	path := fmt.Sprintf("/trafico/segmentos/%d/paradas/", segmentID)
	raw, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var plain []domain.BusStop
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}

	var paged struct {
		Results []domain.BusStop `json:"results"`
	}
	if err := json.Unmarshal(raw, &paged); err == nil && paged.Results != nil {
		return paged.Results, nil
	}

	return nil, fmt.Errorf("backend: unexpected bus stop payload shape")
}

// PredictTraffic requests a day of hourly predictions for one segment.
// The backend sometimes omits segmento_id in the rows; it is injected here.
func (b *HTTPBackend) PredictTraffic(ctx context.Context, segmentID int, date string) ([]domain.PredictionRecord, error) {
	payload := map[string]any{
		"segmento_id": segmentID,
		"fecha":       date,
	}
	raw, err := b.do(ctx, http.MethodPost, "/api/predict-traffic/", payload)
	if err != nil {
		return nil, err
	}

	var records []domain.PredictionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		var wrapped struct {
			Predicciones []domain.PredictionRecord `json:"predicciones"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil || wrapped.Predicciones == nil {
			return nil, fmt.Errorf("backend: failed to decode prediction response: %w", err)
		}
		records = wrapped.Predicciones
	}

	for i := range records {
		if records[i].SegmentID == 0 {
			records[i].SegmentID = segmentID
		}
	}
	return records, nil
}

type recommendationPayload struct {
	SegmentoID int `json:"segmento_id"`
	Prediccion struct {
		VelocidadKmh      float64 `json:"velocidad_kmh"`
		TiempoEstimadoMin float64 `json:"tiempo_estimado_min"`
	} `json:"prediccion"`
}

// RecommendRoute requests the best segment for a date/time. The backend has
// been observed answering with either "mejor_segmento" (sometimes a flat id)
// or a nested "segmento_recomendado"; both collapse into RecommendedRoute.
func (b *HTTPBackend) RecommendRoute(ctx context.Context, dateHour string) (*domain.RecommendedRoute, error) {
	payload := map[string]any{"fecha_hora": dateHour}
	raw, err := b.do(ctx, http.MethodPost, "/api/recommend-route/", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		MejorSegmento       json.RawMessage        `json:"mejor_segmento"`
		SegmentoRecomendado *recommendationPayload `json:"segmento_recomendado"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("backend: failed to decode recommendation: %w", err)
	}

	if resp.SegmentoRecomendado != nil {
		return &domain.RecommendedRoute{
			SegmentID:        resp.SegmentoRecomendado.SegmentoID,
			SpeedKmh:         resp.SegmentoRecomendado.Prediccion.VelocidadKmh,
			EstimatedMinutes: resp.SegmentoRecomendado.Prediccion.TiempoEstimadoMin,
		}, nil
	}

	if len(resp.MejorSegmento) > 0 {
		var nested recommendationPayload
		if err := json.Unmarshal(resp.MejorSegmento, &nested); err == nil && nested.SegmentoID != 0 {
			return &domain.RecommendedRoute{
				SegmentID:        nested.SegmentoID,
				SpeedKmh:         nested.Prediccion.VelocidadKmh,
				EstimatedMinutes: nested.Prediccion.TiempoEstimadoMin,
			}, nil
		}
		var flat int
		if err := json.Unmarshal(resp.MejorSegmento, &flat); err == nil && flat != 0 {
			return &domain.RecommendedRoute{SegmentID: flat}, nil
		}
	}

	return nil, fmt.Errorf("backend: recommendation response carries no segment")
}

// TravelMatrix posts point coordinates and returns the durations matrix in seconds
func (b *HTTPBackend) TravelMatrix(ctx context.Context, coords [][2]float64) ([][]float64, error) {
	coordinates := make([]map[string]float64, 0, len(coords))
	for _, c := range coords {
		coordinates = append(coordinates, map[string]float64{"lat": c[0], "lng": c[1]})
	}

	raw, err := b.do(ctx, http.MethodPost, "/api/matrix/", map[string]any{"coordinates": coordinates})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Durations [][]float64 `json:"durations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("backend: failed to decode matrix response: %w", err)
	}
	return resp.Durations, nil
}

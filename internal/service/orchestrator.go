package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/cache"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
	"github.com/RonaldHZzzz/project-predict-traffic/pkg/utils"
)

var (
	// ErrDateRequired is returned when a prediction or recommendation is
	// requested without a date; no network call is made in that case.
	ErrDateRequired = errors.New("a prediction date is required")

	// ErrPredictionOnly is returned for operations valid only in prediction mode
	ErrPredictionOnly = errors.New("operation requires prediction mode")
)

const defaultPollInterval = 30 * time.Second

// Orchestrator owns the fetch/refresh state machine: live polling with
// pause-on-selection, the prediction fan-out, and the recommendation
// lifecycle. All shared state is guarded by mu; fetched data is committed
// only when its generation token is still current, so responses resolving
// after a mode or date switch are dropped instead of applied.
type Orchestrator struct {
	backend      BackendClient
	cache        *cache.Cache
	repo         domain.SnapshotRepository
	pollInterval time.Duration
	onScene      func(domain.Scene)

	ctx    context.Context
	cancel context.CancelFunc
	wgBg   sync.WaitGroup

	mu            sync.Mutex
	view          domain.ViewState
	segments      []domain.Segment
	points        []domain.TrafficPoint
	stops         []domain.BusStop
	congestion    map[int]float64
	metrics       domain.CorridorMetrics
	predictions   []domain.PredictionRecord
	generation    string
	predictionGen string
	lastError     string
	loaded        bool
	polling       bool
	pollCancel    context.CancelFunc
}

// NewOrchestrator creates the orchestrator with its collaborators injected.
// cache may be nil; onScene may be nil when no push surface is attached.
func NewOrchestrator(
	backend BackendClient,
	cch *cache.Cache,
	repo domain.SnapshotRepository,
	pollInterval time.Duration,
	onScene func(domain.Scene),
) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Orchestrator{
		backend:      backend,
		cache:        cch,
		repo:         repo,
		pollInterval: pollInterval,
		onScene:      onScene,
		congestion:   map[int]float64{},
		generation:   uuid.NewString(),
	}
}

// Start begins live polling: one immediate refresh, then the fixed interval
func (o *Orchestrator) Start(ctx context.Context) {
	o.ctx, o.cancel = context.WithCancel(ctx)

	o.mu.Lock()
	o.startPollingLocked(true)
	o.mu.Unlock()
}

// Stop tears the orchestrator down and waits for background saves
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopPollingLocked()
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wgBg.Wait()
}

// startPollingLocked and stopPollingLocked are the only places the poll
// timer is created or cleared; every transition goes through them so a stale
// tick can never fire across an asynchronous gap.
func (o *Orchestrator) startPollingLocked(immediate bool) {
	if o.polling || o.ctx == nil {
		return
	}
	pollCtx, cancel := context.WithCancel(o.ctx)
	o.pollCancel = cancel
	o.polling = true
	go o.pollLoop(pollCtx, immediate)
}

func (o *Orchestrator) stopPollingLocked() {
	if !o.polling {
		return
	}
	o.pollCancel()
	o.pollCancel = nil
	o.polling = false
}

// The shared generation guards live refreshes and bus-stop fetches against
// selection churn. The prediction phase carries its own token: a selection
// made while the fan-out is in flight must not discard the batch, only a
// mode or date switch may.
func (o *Orchestrator) bumpGenerationLocked() string {
	o.generation = uuid.NewString()
	return o.generation
}

func (o *Orchestrator) bumpPredictionGenLocked() string {
	o.predictionGen = uuid.NewString()
	return o.predictionGen
}

func (o *Orchestrator) pollLoop(ctx context.Context, immediate bool) {
	if immediate {
		o.refreshLive(ctx)
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.refreshLive(ctx)
		}
	}
}

// refreshLive runs one live fetch cycle: segments, measurements, optional
// travel-time matrix, aggregate metrics. Failures keep last-known-good state
// and surface as an inline error only.
func (o *Orchestrator) refreshLive(ctx context.Context) {
	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()

	segments, err := o.loadSegments(ctx)
	if err != nil {
		o.failLive(gen, err)
		return
	}

	measurements, err := o.backend.CurrentTraffic(ctx)
	if err != nil {
		o.failLive(gen, err)
		return
	}

	points, congestion := buildLivePoints(segments, measurements)

	var matrixMinutes []float64
	if len(points) >= 2 {
		coords := make([][2]float64, 0, len(points))
		for _, p := range points {
			coords = append(coords, [2]float64{p.Lat, p.Lon})
		}
		durations, err := o.backend.TravelMatrix(ctx, coords)
		if err != nil {
			log.Printf("orchestrator: travel matrix fetch failed: %v", err)
		} else {
			matrixMinutes = matrixMinutesFrom(durations)
		}
	}

	metrics := computeMetrics(points, matrixMinutes)

	o.mu.Lock()
	if o.generation != gen || o.view.PredictionMode {
		// stale cycle resolved after a mode/selection switch
		o.mu.Unlock()
		return
	}
	o.segments = segments
	o.points = points
	o.congestion = congestion
	o.metrics = metrics
	o.loaded = true
	o.lastError = ""
	o.mu.Unlock()

	o.saveSnapshotAsync(metrics)
	o.publish()
}

func (o *Orchestrator) failLive(gen string, err error) {
	log.Printf("orchestrator: live refresh failed: %v", err)

	o.mu.Lock()
	if o.generation == gen {
		o.lastError = "No se pudieron actualizar los datos de tráfico"
	}
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) loadSegments(ctx context.Context) ([]domain.Segment, error) {
	if o.cache != nil {
		if segments, ok := o.cache.Segments(ctx); ok {
			return segments, nil
		}
	}

	segments, err := o.backend.Segments(ctx)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		o.cache.PutSegments(ctx, segments)
	}
	return segments, nil
}

func (o *Orchestrator) loadBusStops(ctx context.Context, segmentID int) ([]domain.BusStop, error) {
	if o.cache != nil {
		if stops, ok := o.cache.BusStops(ctx, segmentID); ok {
			return stops, nil
		}
	}

	stops, err := o.backend.BusStops(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		o.cache.PutBusStops(ctx, segmentID, stops)
	}
	return stops, nil
}

// ToggleSelection selects the segment if unselected, clears it otherwise.
// Selecting pauses live polling and fetches the segment's bus stops;
// deselecting resumes polling with one immediate refresh.
func (o *Orchestrator) ToggleSelection(ctx context.Context, segmentID int) {
	o.mu.Lock()
	if o.view.SelectedSegmentID != nil && *o.view.SelectedSegmentID == segmentID {
		o.clearSelectionLocked()
		o.mu.Unlock()
		o.publish()
		return
	}

	id := segmentID
	pointID := strconv.Itoa(segmentID)
	o.view.SelectedSegmentID = &id
	o.view.SelectedPointID = &pointID
	o.stops = nil
	// the timer must be cleared before the fetch below can yield
	o.stopPollingLocked()
	gen := o.bumpGenerationLocked()
	o.mu.Unlock()

	stops, err := o.loadBusStops(ctx, segmentID)
	if err != nil {
		log.Printf("orchestrator: bus stop fetch for segment %d failed: %v", segmentID, err)
		stops = nil
	}

	o.mu.Lock()
	if o.generation == gen && o.view.SelectedSegmentID != nil && *o.view.SelectedSegmentID == segmentID {
		o.stops = stops
	}
	o.mu.Unlock()
	o.publish()
}

// ClearSelection drops any active selection and resumes polling
func (o *Orchestrator) ClearSelection() {
	o.mu.Lock()
	if o.view.SelectedSegmentID != nil {
		o.clearSelectionLocked()
	}
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) clearSelectionLocked() {
	o.view.SelectedSegmentID = nil
	o.view.SelectedPointID = nil
	o.stops = nil
	o.bumpGenerationLocked()
	if !o.view.PredictionMode {
		o.startPollingLocked(true)
	}
}

// EnterPrediction switches to prediction mode for the given date and fans out
// one prediction request per segment. Per-segment failures are isolated: the
// failing segment contributes nothing, the batch still completes.
func (o *Orchestrator) EnterPrediction(ctx context.Context, date string) error {
	if date == "" {
		return ErrDateRequired
	}

	o.mu.Lock()
	o.view.PredictionMode = true
	o.view.PredictionDate = date
	if o.view.SelectedHour == "" {
		o.view.SelectedHour = time.Now().Format("15") + ":00"
	}
	o.stopPollingLocked()
	o.bumpGenerationLocked()
	gen := o.bumpPredictionGenLocked()
	segments := append([]domain.Segment(nil), o.segments...)
	o.mu.Unlock()

	if len(segments) == 0 {
		loaded, err := o.loadSegments(ctx)
		if err != nil {
			return err
		}
		segments = loaded
	}

	records, failures := o.fanOutPredictions(ctx, segments, date)

	o.mu.Lock()
	if o.predictionGen != gen || !o.view.PredictionMode || o.view.PredictionDate != date {
		o.mu.Unlock()
		return nil
	}
	o.segments = segments
	o.predictions = records
	o.applyHourFilterLocked()
	o.loaded = true
	o.lastError = ""
	o.mu.Unlock()

	o.savePredictionBatchAsync(uuid.NewString(), date, len(records), failures)
	o.publish()
	return nil
}

func (o *Orchestrator) fanOutPredictions(ctx context.Context, segments []domain.Segment, date string) ([]domain.PredictionRecord, int) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		all      []domain.PredictionRecord
		failures int
	)

	for _, seg := range segments {
		wg.Add(1)
		go func(seg domain.Segment) {
			defer wg.Done()
			records, err := o.backend.PredictTraffic(ctx, seg.SegmentID, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				log.Printf("orchestrator: prediction for segment %d failed: %v", seg.SegmentID, err)
				return
			}
			all = append(all, records...)
		}(seg)
	}
	wg.Wait()

	return all, failures
}

// SetHour re-filters the already-fetched prediction batch; no network round trip
func (o *Orchestrator) SetHour(hour string) error {
	o.mu.Lock()
	if !o.view.PredictionMode {
		o.mu.Unlock()
		return ErrPredictionOnly
	}
	o.view.SelectedHour = hour
	o.applyHourFilterLocked()
	o.mu.Unlock()
	o.publish()
	return nil
}

func (o *Orchestrator) applyHourFilterLocked() {
	byID := make(map[int]domain.Segment, len(o.segments))
	for _, s := range o.segments {
		byID[s.SegmentID] = s
	}

	var points []domain.TrafficPoint
	congestion := map[int]float64{}
	for i := range o.predictions {
		rec := o.predictions[i]
		if rec.Hour != o.view.SelectedHour {
			continue
		}
		seg, ok := byID[rec.SegmentID]
		if !ok {
			continue
		}
		score := float64(ScoreCongestion(&rec))
		lat, lon := seg.FirstVertex()
		points = append(points, NewTrafficPoint(
			strconv.Itoa(seg.SegmentID), seg.Name, lat, lon,
			score, rec.SpeedKmh, int(rec.VehicleLoad),
		))
		congestion[seg.SegmentID] = score
	}

	o.points = points
	o.congestion = congestion
	o.metrics = computeMetrics(points, nil)
}

// ExitPrediction discards prediction data and the recommendation and returns to live mode
func (o *Orchestrator) ExitPrediction() {
	o.mu.Lock()
	if !o.view.PredictionMode {
		o.mu.Unlock()
		return
	}
	o.view.PredictionMode = false
	o.view.PredictionDate = ""
	o.view.Recommended = nil
	o.predictions = nil
	o.points = nil
	o.congestion = map[int]float64{}
	o.bumpGenerationLocked()
	o.bumpPredictionGenLocked()
	if o.view.SelectedSegmentID == nil {
		o.startPollingLocked(true)
	}
	o.mu.Unlock()
	o.publish()
}

// Recommend requests the best segment for the given date/hour. Available only
// in prediction mode; the result replaces any prior recommendation.
func (o *Orchestrator) Recommend(ctx context.Context, dateHour string) error {
	o.mu.Lock()
	inPrediction := o.view.PredictionMode
	gen := o.predictionGen
	o.mu.Unlock()

	if !inPrediction {
		return ErrPredictionOnly
	}
	if dateHour == "" {
		return ErrDateRequired
	}

	route, err := o.backend.RecommendRoute(ctx, dateHour)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.predictionGen == gen && o.view.PredictionMode {
		o.view.Recommended = route
	}
	o.mu.Unlock()
	o.publish()
	return nil
}

// ClearRecommendation drops the active recommendation overlay
func (o *Orchestrator) ClearRecommendation() {
	o.mu.Lock()
	o.view.Recommended = nil
	o.mu.Unlock()
	o.publish()
}

// SetConstruction marks one segment as under construction, or clears the mark
func (o *Orchestrator) SetConstruction(segmentID *int) {
	o.mu.Lock()
	if segmentID == nil {
		o.view.ConstructionMode = false
		o.view.ConstructionSegmentID = nil
	} else {
		id := *segmentID
		o.view.ConstructionMode = true
		o.view.ConstructionSegmentID = &id
	}
	o.mu.Unlock()
	o.publish()
}

// Scene reconciles the current state into one consistent frame
func (o *Orchestrator) Scene() domain.Scene {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sceneLocked()
}

func (o *Orchestrator) sceneLocked() domain.Scene {
	scene := BuildScene(o.segments, o.points, o.stops, o.congestion, o.view)
	scene.Metrics = o.metrics
	scene.LastError = o.lastError
	scene.Loading = !o.loaded
	return scene
}

// Metrics returns the current aggregate metrics
func (o *Orchestrator) Metrics() domain.CorridorMetrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.metrics
}

// Polling reports whether the live refresh timer is running
func (o *Orchestrator) Polling() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.polling
}

func (o *Orchestrator) publish() {
	if o.onScene == nil {
		return
	}
	o.onScene(o.Scene())
}

func (o *Orchestrator) saveSnapshotAsync(metrics domain.CorridorMetrics) {
	if o.repo == nil {
		return
	}
	o.wgBg.Add(1)
	go func() {
		defer o.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.repo.SaveMetricsSnapshot(bgCtx, metrics); err != nil {
			log.Printf("orchestrator: failed to save metrics snapshot: %v", err)
		}
	}()
}

func (o *Orchestrator) savePredictionBatchAsync(batchID, date string, records, failures int) {
	if o.repo == nil {
		return
	}
	o.wgBg.Add(1)
	go func() {
		defer o.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.repo.SavePredictionBatch(bgCtx, batchID, date, records, failures); err != nil {
			log.Printf("orchestrator: failed to save prediction batch log: %v", err)
		}
	}()
}

func buildLivePoints(segments []domain.Segment, measurements []domain.LiveMeasurement) ([]domain.TrafficPoint, map[int]float64) {
	byID := make(map[int]domain.LiveMeasurement, len(measurements))
	for _, m := range measurements {
		byID[m.SegmentID] = m
	}

	var points []domain.TrafficPoint
	congestion := map[int]float64{}
	for _, seg := range segments {
		m, ok := byID[seg.SegmentID]
		if !ok {
			continue
		}
		pct := NormalizeCongestion(m.CongestionLevel)
		lat, lon := seg.FirstVertex()
		points = append(points, NewTrafficPoint(
			strconv.Itoa(seg.SegmentID), seg.Name, lat, lon,
			pct, m.AvgSpeedKmh, m.VehiclesPerHour,
		))
		congestion[seg.SegmentID] = pct
	}
	return points, congestion
}

// matrixMinutesFrom converts the consumed matrix cells to minutes.
// Only durations[0][1] and durations[0][2] are read.
func matrixMinutesFrom(durations [][]float64) []float64 {
	if len(durations) == 0 {
		return nil
	}
	row := durations[0]
	var minutes []float64
	if len(row) > 1 {
		minutes = append(minutes, utils.RoundTo(row[1]/60, 1))
	}
	if len(row) > 2 {
		minutes = append(minutes, utils.RoundTo(row[2]/60, 1))
	}
	return minutes
}

func computeMetrics(points []domain.TrafficPoint, matrixMinutes []float64) domain.CorridorMetrics {
	if len(points) == 0 {
		return domain.CorridorMetrics{
			Timestamp: time.Now(),
			Status:    "Desconocido",
		}
	}

	var totalVehicles int
	var speedSum, congestionSum float64
	for _, p := range points {
		totalVehicles += p.VehiclesPerHour
		speedSum += p.AvgSpeed
		congestionSum += p.Congestion
	}
	avgSpeed := speedSum / float64(len(points))
	avgCongestion := congestionSum / float64(len(points))

	estimated := 0
	if avgSpeed > 0 {
		estimated = int(math.Round(domain.CorridorLengthKm / avgSpeed * 60))
	}

	return domain.CorridorMetrics{
		Timestamp:        time.Now(),
		TotalVehicles:    totalVehicles,
		AvgSpeed:         math.Round(avgSpeed),
		EstimatedMinutes: estimated,
		MatrixMinutes:    matrixMinutes,
		Status:           StatusLabel(Classify(avgCongestion)),
	}
}

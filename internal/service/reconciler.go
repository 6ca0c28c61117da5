package service

import (
	"log"
	"math"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
	"github.com/RonaldHZzzz/project-predict-traffic/pkg/utils"
)

// Fixed accent colors for the mode overlays; congestion tiers use StatusColor.
const (
	constructionColor = "#8b5cf6"
	recommendedColor  = "#3b82f6"
	fadedColor        = "#9ca3af"
)

// defaultCongestion is assumed for segments with no measurement this cycle
const defaultCongestion = 25.0

// SegmentStyleFor resolves the render attributes for one segment under the
// current view state. Rules apply in fixed precedence, first match wins:
// construction mark, recommended route, recommendation fade, selection,
// selection fade, default. The second return reports whether the segment is
// the active recommendation.
func SegmentStyleFor(segmentID int, congestion float64, view domain.ViewState) (domain.SegmentStyle, bool) {
	if view.ConstructionMode && view.ConstructionSegmentID != nil && *view.ConstructionSegmentID == segmentID {
		return domain.SegmentStyle{Color: constructionColor, Weight: 8, Opacity: 1, Glow: true}, false
	}

	if view.Recommended != nil {
		if view.Recommended.SegmentID == segmentID {
			return domain.SegmentStyle{Color: recommendedColor, Weight: 8, Opacity: 1, Glow: true}, true
		}
		return domain.SegmentStyle{Color: fadedColor, Weight: 3, Opacity: 0.2}, false
	}

	color := StatusColor(Classify(congestion))
	if view.SelectedSegmentID != nil {
		if *view.SelectedSegmentID == segmentID {
			return domain.SegmentStyle{Color: color, Weight: 8, Opacity: 1, Glow: true}, false
		}
		return domain.SegmentStyle{Color: color, Weight: 3, Opacity: 0.2}, false
	}

	return domain.SegmentStyle{Color: color, Weight: 5, Opacity: 0.8}, false
}

// BuildScene reconciles segments, points, stops and the view state into one
// deterministic frame of render instructions. The whole scene is rebuilt each
// pass; the route overlay rides in its own field so redraws never drop it.
func BuildScene(
	segments []domain.Segment,
	points []domain.TrafficPoint,
	stops []domain.BusStop,
	congestionBySegment map[int]float64,
	view domain.ViewState,
) domain.Scene {
	scene := domain.Scene{View: view}

	for _, seg := range segments {
		if !seg.LineRenderable() {
			continue
		}

		congestion, ok := congestionBySegment[seg.SegmentID]
		if !ok {
			congestion = defaultCongestion
		}

		style, recommended := SegmentStyleFor(seg.SegmentID, congestion, view)
		scene.Segments = append(scene.Segments, domain.SegmentRender{
			SegmentID: seg.SegmentID,
			Name:      seg.Name,
			Positions: seg.LatLonPositions(),
			Style:     style,
		})

		if recommended {
			scene.Route = buildRouteOverlay(seg, view.Recommended)
		}
	}

	if view.Recommended != nil && scene.Route == nil {
		log.Printf("reconciler: recommended segment %d not in loaded set, overlay skipped", view.Recommended.SegmentID)
	}

	for _, p := range points {
		scene.Points = append(scene.Points, domain.PointMarker{
			ID:         p.ID,
			Lat:        p.Lat,
			Lon:        p.Lon,
			Name:       p.Name,
			Status:     p.Status,
			Label:      StatusLabel(p.Status),
			Congestion: int(math.Round(p.Congestion)),
			AvgSpeed:   int(math.Round(p.AvgSpeed)),
			Vehicles:   p.VehiclesPerHour,
		})
	}

	for _, s := range stops {
		name := s.Name
		if name == "" {
			name = "Parada de bus"
		}
		scene.Stops = append(scene.Stops, domain.StopMarker{
			ID:        s.ID,
			Lat:       s.Lat,
			Lon:       s.Lon,
			Name:      name,
			SegmentID: s.SegmentID,
		})
	}

	return scene
}

func buildRouteOverlay(seg domain.Segment, route *domain.RecommendedRoute) *domain.RouteOverlay {
	positions := seg.LatLonPositions()
	midLat, midLon := seg.Midpoint()

	minLat, minLon := positions[0][0], positions[0][1]
	maxLat, maxLon := minLat, minLon
	lengthKm := 0.0
	for i, pos := range positions {
		minLat = math.Min(minLat, pos[0])
		minLon = math.Min(minLon, pos[1])
		maxLat = math.Max(maxLat, pos[0])
		maxLon = math.Max(maxLon, pos[1])
		if i > 0 {
			prev := positions[i-1]
			lengthKm += utils.Haversine(prev[0], prev[1], pos[0], pos[1])
		}
	}

	return &domain.RouteOverlay{
		SegmentID: seg.SegmentID,
		Positions: positions,
		Midpoint:  [2]float64{midLat, midLon},
		LengthKm:  utils.RoundTo(lengthKm, 2),
		Popup: domain.RoutePopup{
			SpeedKmh:         route.SpeedKmh,
			EstimatedMinutes: route.EstimatedMinutes,
		},
		FitBounds: [2][2]float64{{minLat, minLon}, {maxLat, maxLon}},
	}
}

package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

// StatusEstimated marks travel figures derived from straight-line distance.
const StatusEstimated = "ESTIMATED"

// Travel is the distance and duration from the patient to a hospital.
type Travel struct {
	DistanceText    string `json:"distance_text"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationText    string `json:"duration_text"`
	DurationSeconds int    `json:"duration_seconds"`
	Status          string `json:"status"`
}

// RankedHospital is a hospital annotated with travel data when known.
type RankedHospital struct {
	catalog.Hospital
	Travel *Travel `json:"travel,omitempty"`
}

// DistanceMeasurer returns driving distances from origin to each destination.
type DistanceMeasurer interface {
	Measure(ctx context.Context, origin catalog.Coordinates, destinations []catalog.Coordinates) ([]Element, error)
}

// Ranker orders hospitals for a patient position.
type Ranker struct {
	matrix  DistanceMeasurer
	metrics LookupObserver
	logger  *logging.Logger
}

func NewRanker(matrix DistanceMeasurer, metrics LookupObserver, logger *logging.Logger) *Ranker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Ranker{matrix: matrix, metrics: metrics, logger: logger}
}

// Rank returns hospitals ordered for origin. Without an origin the input order
// is kept. When the distance matrix fails every hospital gets a straight-line
// estimate instead.
func (r *Ranker) Rank(ctx context.Context, origin *catalog.Coordinates, hospitals []catalog.Hospital) []RankedHospital {
	out := make([]RankedHospital, len(hospitals))
	for i, h := range hospitals {
		out[i] = RankedHospital{Hospital: h}
	}
	if origin == nil || !ValidCoordinates(*origin) || len(out) == 0 {
		return out
	}

	if r.matrix != nil {
		dests := make([]catalog.Coordinates, len(hospitals))
		for i, h := range hospitals {
			dests[i] = h.Coordinates
		}
		elements, err := r.matrix.Measure(ctx, *origin, dests)
		if !errors.Is(err, ErrMatrixUnavailable) {
			r.observe(err == nil)
		}
		if err == nil {
			for i, el := range elements {
				if i < len(out) && el.Status == "OK" {
					out[i].Travel = &Travel{
						DistanceText:    el.Distance.Text,
						DistanceMeters:  el.Distance.Value,
						DurationText:    el.Duration.Text,
						DurationSeconds: el.Duration.Value,
						Status:          el.Status,
					}
				}
			}
			sortByTravel(out)
			return out
		}
		if !errors.Is(err, ErrMatrixUnavailable) {
			r.logger.Warn("distance matrix failed, using straight-line estimates", "error", err)
		}
	}

	for i := range out {
		out[i].Travel = estimate(*origin, out[i].Coordinates)
	}
	sortByEstimate(out)
	return out
}

func (r *Ranker) observe(ok bool) {
	if r.metrics != nil {
		r.metrics.ObserveGeoLookup("distance_matrix", ok)
	}
}

func estimate(origin, dest catalog.Coordinates) *Travel {
	km := Haversine(origin, dest)
	return &Travel{
		DistanceText:    strconv.FormatFloat(km, 'f', -1, 64) + " km",
		DistanceMeters:  int(math.Round(km * 1000)),
		DurationText:    fmt.Sprintf("Est. %d min", int(math.Round(km*2))),
		DurationSeconds: int(math.Round(km * 120)),
		Status:          StatusEstimated,
	}
}

// sortByTravel puts available hospitals first, then those with travel data
// by duration and distance, then the rest by id.
func sortByTravel(hs []RankedHospital) {
	sort.SliceStable(hs, func(i, j int) bool {
		a, b := hs[i], hs[j]
		if a.Available != b.Available {
			return a.Available
		}
		if a.Travel != nil && b.Travel != nil {
			if a.Travel.DurationSeconds != b.Travel.DurationSeconds {
				return a.Travel.DurationSeconds < b.Travel.DurationSeconds
			}
			return a.Travel.DistanceMeters < b.Travel.DistanceMeters
		}
		if (a.Travel != nil) != (b.Travel != nil) {
			return a.Travel != nil
		}
		return a.ID < b.ID
	})
}

func sortByEstimate(hs []RankedHospital) {
	sort.SliceStable(hs, func(i, j int) bool {
		a, b := hs[i], hs[j]
		if a.Available != b.Available {
			return a.Available
		}
		return a.Travel.DistanceMeters < b.Travel.DistanceMeters
	})
}

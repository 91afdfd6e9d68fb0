package routing

import (
	"math"
	"sort"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// ScoringEngine ranks candidate backends for a strategy. Scores are in
// [0,1]; higher is better. Ranking is deterministic and independent of
// candidate input order: factors are min-max normalized across the
// candidate set and ties break by lexicographically smallest name.
type ScoringEngine struct {
	metrics *MetricsStore
}

// NewScoringEngine creates a scoring engine reading from the metrics store.
func NewScoringEngine(metrics *MetricsStore) *ScoringEngine {
	return &ScoringEngine{metrics: metrics}
}

// weightVector holds the per-factor weights for one strategy.
type weightVector struct {
	cost        float64
	latency     float64
	reliability float64
	geo         float64
}

func strategyWeights(strategy domain.Strategy) weightVector {
	switch strategy {
	case domain.StrategyCostOptimized:
		return weightVector{cost: 0.7, latency: 0.1, reliability: 0.1, geo: 0.1}
	case domain.StrategyLatencyOptimized:
		return weightVector{cost: 0.1, latency: 0.7, reliability: 0.1, geo: 0.1}
	case domain.StrategyGeoOptimized:
		return weightVector{cost: 0.05, latency: 0.2, reliability: 0.05, geo: 0.7}
	default:
		return weightVector{cost: 0.25, latency: 0.25, reliability: 0.25, geo: 0.25}
	}
}

// applyCustomFactors overrides individual weight entries and renormalizes
// the vector to sum to 1.
func applyCustomFactors(w weightVector, custom map[string]float64) (weightVector, error) {
	for key, value := range custom {
		if value < 0 {
			return weightVector{}, errors.Validation("custom factor %q is negative", key)
		}
		switch key {
		case "cost":
			w.cost = value
		case "latency":
			w.latency = value
		case "reliability":
			w.reliability = value
		case "geo":
			w.geo = value
		default:
			return weightVector{}, errors.Validation("unknown custom factor: %q", key)
		}
	}

	sum := w.cost + w.latency + w.reliability + w.geo
	if sum <= 0 {
		return weightVector{}, errors.Validation("custom factors sum to zero")
	}
	w.cost /= sum
	w.latency /= sum
	w.reliability /= sum
	w.geo /= sum
	return w, nil
}

// Score ranks the candidate backends, best first. The metrics snapshot is
// taken once at call start; a concurrent metrics update does not affect
// an in-flight scoring pass. Candidates without metrics are skipped; an
// empty usable set fails with a no-eligible-backend error.
func (e *ScoringEngine) Score(candidates []string, strategy domain.Strategy, custom map[string]float64, loc *domain.GeoLocation) ([]domain.BackendScore, error) {
	weights, err := applyCustomFactors(strategyWeights(strategy), custom)
	if err != nil {
		return nil, err
	}

	snapshot := e.metrics.All()

	type candidate struct {
		name                         string
		cost, latency, reliable, geo float64
	}

	usable := make([]candidate, 0, len(candidates))
	for _, name := range candidates {
		m, ok := snapshot[name]
		if !ok {
			continue
		}
		c := candidate{
			name:     name,
			cost:     m.StorageCostPerGB + m.RetrievalCostPerGB,
			latency:  m.AvgLatencyMs,
			reliable: m.SuccessRate * m.UptimePct,
		}
		if loc != nil && !m.MultiRegion {
			if coords, ok := regionCoordinates[m.Region]; ok {
				c.geo = haversineKm(loc.Latitude, loc.Longitude, coords.lat, coords.lon)
			}
		}
		usable = append(usable, c)
	}

	if len(usable) == 0 {
		return nil, errors.NoEligibleBackend("no candidate backend has metrics")
	}

	costN := normalizer(usable, func(c candidate) float64 { return c.cost })
	latN := normalizer(usable, func(c candidate) float64 { return c.latency })
	relN := normalizer(usable, func(c candidate) float64 { return c.reliable })
	geoN := normalizer(usable, func(c candidate) float64 { return c.geo })

	scores := make([]domain.BackendScore, 0, len(usable))
	for _, c := range usable {
		components := domain.ScoreComponents{
			Cost:        costN(c.cost),
			Latency:     latN(c.latency),
			Reliability: relN(c.reliable),
			Geo:         geoN(c.geo),
		}
		// Lower is better for cost/latency/geo, higher for reliability
		score := weights.cost*(1-components.Cost) +
			weights.latency*(1-components.Latency) +
			weights.reliability*components.Reliability +
			weights.geo*(1-components.Geo)

		scores = append(scores, domain.BackendScore{
			BackendName: c.name,
			Score:       score,
			Components:  components,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].BackendName < scores[j].BackendName
	})

	return scores, nil
}

// normalizer returns a min-max normalization into [0,1] over the
// candidate set. When all raw values are equal the factor carries no
// ranking signal; 0.5 keeps it neutral in the weighted sum.
func normalizer[T any](items []T, raw func(T) float64) func(float64) float64 {
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, item := range items {
		v := raw(item)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	span := max - min
	if span == 0 {
		return func(float64) float64 { return 0.5 }
	}
	return func(v float64) float64 { return (v - min) / span }
}

type coords struct {
	lat, lon float64
}

// regionCoordinates maps provider region names to approximate
// coordinates for geographic distance scoring. Backends in unknown
// regions contribute no geo signal.
var regionCoordinates = map[string]coords{
	"us-east-1":      {38.13, -78.45},
	"us-east-2":      {40.42, -82.91},
	"us-west-1":      {37.35, -121.96},
	"us-west-2":      {45.87, -119.69},
	"ca-central-1":   {45.50, -73.57},
	"eu-west-1":      {53.41, -8.24},
	"eu-west-2":      {51.51, -0.13},
	"eu-central-1":   {50.11, 8.68},
	"ap-southeast-1": {1.37, 103.80},
	"ap-southeast-2": {-33.86, 151.21},
	"ap-northeast-1": {35.41, 139.42},
	"ap-south-1":     {19.08, 72.88},
	"sa-east-1":      {-23.34, -46.38},
	"us-central1":    {41.26, -95.86},
	"europe-west1":   {50.45, 3.82},
	"asia-east1":     {24.05, 120.51},
}

const earthRadiusKm = 6371.0

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

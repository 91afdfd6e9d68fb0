package routing

import (
	"testing"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

func scoringFixture(metrics map[string]domain.BackendMetrics) *ScoringEngine {
	store := NewMetricsStore()
	for name, m := range metrics {
		store.Update(name, m)
	}
	return NewScoringEngine(store)
}

// TestScoringEngine_CostScenario routes the canonical cost comparison:
// backend a is cheap but slow, backend b fast but expensive. Under
// cost_optimized the 0.7 cost weight must dominate and a wins.
func TestScoringEngine_CostScenario(t *testing.T) {
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"a": {StorageCostPerGB: 0.01, AvgLatencyMs: 50, SuccessRate: 0.99, UptimePct: 0.99},
		"b": {StorageCostPerGB: 0.05, AvgLatencyMs: 10, SuccessRate: 0.99, UptimePct: 0.99},
	})

	scores, err := engine.Score([]string{"a", "b"}, domain.StrategyCostOptimized, nil, nil)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}

	if scores[0].BackendName != "a" {
		t.Errorf("Score() winner = %s, want a (lower cost dominates)", scores[0].BackendName)
	}

	// Under latency_optimized the same metrics must flip the ranking
	scores, err = engine.Score([]string{"a", "b"}, domain.StrategyLatencyOptimized, nil, nil)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if scores[0].BackendName != "b" {
		t.Errorf("Score() winner = %s, want b under latency_optimized", scores[0].BackendName)
	}
}

// TestScoringEngine_OrderIndependence verifies the ranking does not depend
// on candidate input order.
func TestScoringEngine_OrderIndependence(t *testing.T) {
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"a": {StorageCostPerGB: 0.02, AvgLatencyMs: 30, SuccessRate: 0.95, UptimePct: 0.999},
		"b": {StorageCostPerGB: 0.01, AvgLatencyMs: 80, SuccessRate: 0.99, UptimePct: 0.99},
		"c": {StorageCostPerGB: 0.04, AvgLatencyMs: 15, SuccessRate: 0.90, UptimePct: 0.98},
	})

	orderings := [][]string{
		{"a", "b", "c"},
		{"c", "b", "a"},
		{"b", "c", "a"},
	}

	var want []domain.BackendScore
	for i, candidates := range orderings {
		scores, err := engine.Score(candidates, domain.StrategyBalanced, nil, nil)
		if err != nil {
			t.Fatalf("Score(%v) failed: %v", candidates, err)
		}
		if i == 0 {
			want = scores
			continue
		}
		for j := range want {
			if scores[j].BackendName != want[j].BackendName {
				t.Errorf("ordering %v rank %d = %s, want %s", candidates, j, scores[j].BackendName, want[j].BackendName)
			}
			if scores[j].Score != want[j].Score {
				t.Errorf("ordering %v score %d = %v, want %v", candidates, j, scores[j].Score, want[j].Score)
			}
		}
	}
}

// TestScoringEngine_TieBreak verifies identical metrics tie-break by
// lexicographically smallest backend name, and that a span of zero
// normalizes every component to the neutral 0.5.
func TestScoringEngine_TieBreak(t *testing.T) {
	same := domain.BackendMetrics{StorageCostPerGB: 0.02, AvgLatencyMs: 40, SuccessRate: 0.99, UptimePct: 0.99}
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"zeta": same, "mid": same, "acme": same,
	})

	scores, err := engine.Score([]string{"zeta", "mid", "acme"}, domain.StrategyBalanced, nil, nil)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}

	want := []string{"acme", "mid", "zeta"}
	for i, name := range want {
		if scores[i].BackendName != name {
			t.Errorf("rank %d = %s, want %s", i, scores[i].BackendName, name)
		}
	}
	for _, s := range scores {
		if s.Components.Cost != 0.5 || s.Components.Latency != 0.5 {
			t.Errorf("backend %s components = %+v, want neutral 0.5 for equal metrics", s.BackendName, s.Components)
		}
	}
}

// TestScoringEngine_CustomFactors verifies weight overrides renormalize
// and invalid factor maps are rejected before scoring.
func TestScoringEngine_CustomFactors(t *testing.T) {
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"a": {StorageCostPerGB: 0.01, AvgLatencyMs: 50, SuccessRate: 0.99, UptimePct: 0.99},
		"b": {StorageCostPerGB: 0.05, AvgLatencyMs: 10, SuccessRate: 0.99, UptimePct: 0.99},
	})

	// Overriding cost_optimized to weigh latency overwhelmingly flips the winner
	scores, err := engine.Score([]string{"a", "b"}, domain.StrategyCostOptimized,
		map[string]float64{"latency": 10, "cost": 0.1}, nil)
	if err != nil {
		t.Fatalf("Score() with custom factors failed: %v", err)
	}
	if scores[0].BackendName != "b" {
		t.Errorf("Score() winner = %s, want b after latency override", scores[0].BackendName)
	}

	invalid := []struct {
		name    string
		factors map[string]float64
	}{
		{name: "negative factor", factors: map[string]float64{"cost": -1}},
		{name: "unknown factor", factors: map[string]float64{"vibes": 1}},
		{name: "all-zero vector", factors: map[string]float64{"cost": 0, "latency": 0, "reliability": 0, "geo": 0}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Score([]string{"a", "b"}, domain.StrategyCostOptimized, tt.factors, nil)
			if !errors.IsKind(err, errors.KindValidation) {
				t.Errorf("Score() error = %v, want validation", err)
			}
		})
	}
}

// TestScoringEngine_SkipsMetricless verifies candidates without metrics
// are skipped, and that an entirely metric-less candidate set fails with
// a no-eligible-backend error.
func TestScoringEngine_SkipsMetricless(t *testing.T) {
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"known": {StorageCostPerGB: 0.02, SuccessRate: 1, UptimePct: 1},
	})

	scores, err := engine.Score([]string{"known", "unknown"}, domain.StrategyBalanced, nil, nil)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if len(scores) != 1 || scores[0].BackendName != "known" {
		t.Errorf("Score() = %v, want only the known backend", scores)
	}

	_, err = engine.Score([]string{"unknown", "also-unknown"}, domain.StrategyBalanced, nil, nil)
	if !errors.IsKind(err, errors.KindNoEligibleBackend) {
		t.Errorf("Score() error = %v, want no_eligible_backend", err)
	}
}

// TestScoringEngine_GeoScoring verifies geo-optimized routing prefers the
// region closest to the client and that multi-region backends carry no
// geographic penalty.
func TestScoringEngine_GeoScoring(t *testing.T) {
	engine := scoringFixture(map[string]domain.BackendMetrics{
		"virginia": {Region: "us-east-1", SuccessRate: 0.99, UptimePct: 0.99, StorageCostPerGB: 0.02, AvgLatencyMs: 40},
		"sydney":   {Region: "ap-southeast-2", SuccessRate: 0.99, UptimePct: 0.99, StorageCostPerGB: 0.02, AvgLatencyMs: 40},
	})

	// Client near Washington DC
	loc := &domain.GeoLocation{Latitude: 38.9, Longitude: -77.0}
	scores, err := engine.Score([]string{"sydney", "virginia"}, domain.StrategyGeoOptimized, nil, loc)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if scores[0].BackendName != "virginia" {
		t.Errorf("Score() winner = %s, want virginia for a DC client", scores[0].BackendName)
	}

	// A multi-region backend contributes zero distance and beats a
	// distant single-region one
	engine = scoringFixture(map[string]domain.BackendMetrics{
		"global": {MultiRegion: true, Region: "us-east-1", SuccessRate: 0.99, UptimePct: 0.99, StorageCostPerGB: 0.02, AvgLatencyMs: 40},
		"sydney": {Region: "ap-southeast-2", SuccessRate: 0.99, UptimePct: 0.99, StorageCostPerGB: 0.02, AvgLatencyMs: 40},
	})
	scores, err = engine.Score([]string{"sydney", "global"}, domain.StrategyGeoOptimized, nil, loc)
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if scores[0].BackendName != "global" {
		t.Errorf("Score() winner = %s, want global (multi-region)", scores[0].BackendName)
	}
}

// TestHaversineKm sanity-checks the great-circle distance on a known pair.
func TestHaversineKm(t *testing.T) {
	// London to Paris is roughly 344 km
	d := haversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330 || d > 360 {
		t.Errorf("haversineKm(London, Paris) = %v km, want ~344", d)
	}

	if d := haversineKm(10, 20, 10, 20); d != 0 {
		t.Errorf("haversineKm(same point) = %v, want 0", d)
	}
}

package domain

import "fmt"

// Strategy selects the scoring weight vector.
type Strategy string

const (
	StrategyCostOptimized    Strategy = "cost_optimized"
	StrategyLatencyOptimized Strategy = "latency_optimized"
	StrategyGeoOptimized     Strategy = "geo_optimized"
	StrategyBalanced         Strategy = "balanced"
)

// ParseStrategy validates a strategy string at the boundary. Raw strings
// never reach the scoring engine.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCostOptimized, StrategyLatencyOptimized, StrategyGeoOptimized, StrategyBalanced:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy: %q", s)
}

// Priority orders rule evaluation and migration task draining.
// Numerically higher priority wins.
type Priority int

const (
	PriorityLow      Priority = 1
	PriorityNormal   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

// ParsePriority validates a priority name at the boundary.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return 0, fmt.Errorf("unknown priority: %q", s)
}

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// RoutingRule matches content descriptors to backend preferences.
// Rules are evaluated by descending Priority with ties broken by
// lexicographically smallest ID; the first match wins.
type RoutingRule struct {
	ID                string             `json:"id" dynamodbav:"id"`
	Name              string             `json:"name" dynamodbav:"name"`
	ContentCategories []ContentCategory  `json:"content_categories,omitempty" dynamodbav:"content_categories"`
	ContentPatterns   []string           `json:"content_patterns,omitempty" dynamodbav:"content_patterns"`
	MinSizeBytes      *int64             `json:"min_size_bytes,omitempty" dynamodbav:"min_size_bytes"`
	MaxSizeBytes      *int64             `json:"max_size_bytes,omitempty" dynamodbav:"max_size_bytes"`
	PreferredBackends []string           `json:"preferred_backends,omitempty" dynamodbav:"preferred_backends"`
	ExcludedBackends  []string           `json:"excluded_backends,omitempty" dynamodbav:"excluded_backends"`
	Priority          Priority           `json:"priority" dynamodbav:"priority"`
	Strategy          Strategy           `json:"strategy" dynamodbav:"strategy"`
	CustomFactors     map[string]float64 `json:"custom_factors,omitempty" dynamodbav:"custom_factors"`
	MatchAll          bool               `json:"match_all,omitempty" dynamodbav:"match_all"`
	Active            bool               `json:"active" dynamodbav:"active"`
}

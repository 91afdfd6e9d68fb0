package domain

// ScoreComponents is the per-factor breakdown behind a backend score.
// Each factor is min-max normalized to [0,1] across the candidate set.
type ScoreComponents struct {
	Cost        float64 `json:"cost"`
	Latency     float64 `json:"latency"`
	Reliability float64 `json:"reliability"`
	Geo         float64 `json:"geo"`
}

// BackendScore is one ranked candidate. Higher Score is better.
type BackendScore struct {
	BackendName string          `json:"backend_name"`
	Score       float64         `json:"score"`
	Components  ScoreComponents `json:"components"`
}

// RoutingDecision is the outcome of one routing call. It is ephemeral
// and not persisted.
type RoutingDecision struct {
	SelectedBackend string            `json:"selected_backend"`
	MatchedRuleID   string            `json:"matched_rule_id,omitempty"`
	Strategy        Strategy          `json:"strategy"`
	Priority        Priority          `json:"priority"`
	Scores          []BackendScore    `json:"scores,omitempty"`
	Descriptor      ContentDescriptor `json:"descriptor"`
	Overridden      bool              `json:"overridden,omitempty"`
}

// RouteResult pairs a decision with the outcome of the store call.
type RouteResult struct {
	Decision   RoutingDecision `json:"decision"`
	Stored     bool            `json:"stored"`
	ContentID  string          `json:"content_id,omitempty"`
	StoreError string          `json:"store_error,omitempty"`
}

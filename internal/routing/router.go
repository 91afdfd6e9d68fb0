package routing

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
	"github.com/zzenonn/zroute/internal/metrics"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
)

// Router composes the analyzer, rule engine, scoring engine, and metrics
// store into routing decisions, and optionally performs the store call.
// Routing is stateless per call and safe for unbounded parallel use; the
// only shared state it touches is read-locked.
type Router struct {
	analyzer        *Analyzer
	rules           *RuleEngine
	scoring         *ScoringEngine
	metrics         *MetricsStore
	backends        *backendstore.Registry
	defaultStrategy domain.Strategy
}

// NewRouter creates a Router. defaultStrategy is the system fallback when
// neither a matched rule nor the caller supplies one.
func NewRouter(analyzer *Analyzer, rules *RuleEngine, scoring *ScoringEngine, metricsStore *MetricsStore, backends *backendstore.Registry, defaultStrategy domain.Strategy) *Router {
	if defaultStrategy == "" {
		defaultStrategy = domain.StrategyBalanced
	}
	return &Router{
		analyzer:        analyzer,
		rules:           rules,
		scoring:         scoring,
		metrics:         metricsStore,
		backends:        backends,
		defaultStrategy: defaultStrategy,
	}
}

// RouteOptions carries per-call routing inputs. Strategy and Priority are
// fallbacks used when no rule matches; Backend bypasses routing entirely.
type RouteOptions struct {
	Strategy domain.Strategy
	Priority domain.Priority
	Backend  string
	Location *domain.GeoLocation
}

// Analyze produces a routing decision without storing anything.
func (r *Router) Analyze(content []byte, metadata map[string]string, opts RouteOptions) (domain.RoutingDecision, error) {
	desc := r.analyzer.Analyze(content, metadata)

	strategy := opts.Strategy
	if strategy == "" {
		strategy = r.defaultStrategy
	}
	priority := opts.Priority
	if priority == 0 {
		priority = domain.PriorityNormal
	}

	candidates := r.metrics.Names()
	var custom map[string]float64
	var matchedRuleID string

	rule := r.rules.Match(desc)
	if rule != nil {
		matchedRuleID = rule.ID
		strategy = rule.Strategy
		priority = rule.Priority
		custom = rule.CustomFactors
		candidates = filterCandidates(candidates, rule.PreferredBackends, rule.ExcludedBackends)
	}

	if len(candidates) == 0 {
		metrics.RoutingFailures.Inc()
		return domain.RoutingDecision{}, errors.NoEligibleBackend("candidate set is empty after rule filtering")
	}

	scores, err := r.scoring.Score(candidates, strategy, custom, opts.Location)
	if err != nil {
		metrics.RoutingFailures.Inc()
		return domain.RoutingDecision{}, err
	}

	decision := domain.RoutingDecision{
		SelectedBackend: scores[0].BackendName,
		MatchedRuleID:   matchedRuleID,
		Strategy:        strategy,
		Priority:        priority,
		Scores:          scores,
		Descriptor:      desc,
	}

	log.Debugf("Routed %s content (%d bytes) to backend %s (rule=%q)",
		desc.Category, desc.SizeBytes, decision.SelectedBackend, matchedRuleID)
	return decision, nil
}

// Route analyzes the content and stores it on the selected backend. A
// store failure does not trigger failover to another backend; the
// decision is still returned alongside the error so callers can see what
// was attempted.
func (r *Router) Route(ctx context.Context, content []byte, metadata map[string]string, opts RouteOptions) (domain.RouteResult, error) {
	var decision domain.RoutingDecision

	if opts.Backend != "" {
		// Explicit override: skip rule matching and scoring, but keep
		// the analysis in the response for observability.
		decision = domain.RoutingDecision{
			SelectedBackend: opts.Backend,
			Strategy:        r.defaultStrategy,
			Priority:        domain.PriorityNormal,
			Descriptor:      r.analyzer.Analyze(content, metadata),
			Overridden:      true,
		}
	} else {
		var err error
		decision, err = r.Analyze(content, metadata, opts)
		if err != nil {
			return domain.RouteResult{}, err
		}
	}

	result := domain.RouteResult{Decision: decision}

	store, err := r.backends.Backend(decision.SelectedBackend)
	if err != nil {
		metrics.StoreFailures.Inc()
		result.StoreError = err.Error()
		return result, errors.BackendUnavailable(decision.SelectedBackend, err)
	}

	id, err := store.Add(ctx, content, metadata)
	if err != nil {
		metrics.StoreFailures.Inc()
		result.StoreError = err.Error()
		return result, errors.BackendUnavailable(decision.SelectedBackend, err)
	}

	result.Stored = true
	result.ContentID = id
	metrics.RoutingDecisions.WithLabelValues(string(decision.Strategy), decision.SelectedBackend).Inc()
	return result, nil
}

// filterCandidates applies a rule's backend lists:
// (preferred ∩ available) \ excluded. An empty preferred list keeps all
// available candidates.
func filterCandidates(available, preferred, excluded []string) []string {
	excludedSet := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		excludedSet[name] = true
	}

	pool := available
	if len(preferred) > 0 {
		availableSet := make(map[string]bool, len(available))
		for _, name := range available {
			availableSet[name] = true
		}
		pool = make([]string, 0, len(preferred))
		for _, name := range preferred {
			if availableSet[name] {
				pool = append(pool, name)
			}
		}
	}

	out := make([]string, 0, len(pool))
	for _, name := range pool {
		if !excludedSet[name] {
			out = append(out, name)
		}
	}
	return out
}

package routing

import (
	"sort"
	"sync"
	"time"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// MetricsStore holds the latest BackendMetrics snapshot per backend name.
// It is a current-state cache, not a time series: each update replaces
// the previous snapshot in full, and no history is retained.
type MetricsStore struct {
	mu      sync.RWMutex
	metrics map[string]domain.BackendMetrics
}

// NewMetricsStore creates an empty metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		metrics: make(map[string]domain.BackendMetrics),
	}
}

// Update overwrites the snapshot for a backend. Callers must supply a
// full snapshot; fields are never partially merged.
func (s *MetricsStore) Update(name string, m domain.BackendMetrics) {
	m.BackendName = name
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[name] = m
}

// Get returns the latest snapshot for a backend.
func (s *MetricsStore) Get(name string) (domain.BackendMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.metrics[name]
	if !ok {
		return domain.BackendMetrics{}, errors.NotFound("backend metrics", name)
	}
	return m, nil
}

// All returns a snapshot copy of every backend's metrics. Scoring reads
// operate on this copy, so a concurrent update cannot produce a
// half-consistent view inside one scoring pass.
func (s *MetricsStore) All() map[string]domain.BackendMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.BackendMetrics, len(s.metrics))
	for name, m := range s.metrics {
		out[name] = m
	}
	return out
}

// Names returns all backend names with metrics, sorted.
func (s *MetricsStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.metrics))
	for name := range s.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

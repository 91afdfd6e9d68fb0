package migration

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
	"github.com/zzenonn/zroute/internal/routing"
)

// memBackend is a map-backed backend store for testing.
type memBackend struct {
	getFunc func(ctx context.Context, id string) ([]byte, error)
	addFunc func(ctx context.Context, content []byte, metadata map[string]string) (string, error)
	storage map[string][]byte
	adds    int
	deletes int
}

func newMemBackend(items map[string][]byte) *memBackend {
	if items == nil {
		items = make(map[string][]byte)
	}
	return &memBackend{storage: items}
}

func (b *memBackend) Add(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
	b.adds++
	if b.addFunc != nil {
		return b.addFunc(ctx, content, metadata)
	}
	id := metadata["filename"]
	if id == "" {
		id = "generated"
	}
	b.storage[id] = content
	return id, nil
}

func (b *memBackend) Get(ctx context.Context, id string) ([]byte, error) {
	if b.getFunc != nil {
		return b.getFunc(ctx, id)
	}
	data, ok := b.storage[id]
	if !ok {
		return nil, stderrors.New("object not found")
	}
	return data, nil
}

func (b *memBackend) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, error) {
	items := make([]domain.ContentItem, 0, len(b.storage))
	for id, data := range b.storage {
		if filter.Matches(id) {
			items = append(items, domain.ContentItem{ID: id, SizeBytes: int64(len(data))})
		}
	}
	return items, nil
}

func (b *memBackend) Delete(ctx context.Context, id string) (bool, error) {
	b.deletes++
	if _, ok := b.storage[id]; !ok {
		return false, nil
	}
	delete(b.storage, id)
	return true, nil
}

type controllerFixture struct {
	controller *Controller
	policies   *PolicyStore
	tasks      *TaskStore
	metrics    *routing.MetricsStore
	backends   map[string]*memBackend
}

func newControllerFixture(t *testing.T, stores map[string]*memBackend) *controllerFixture {
	t.Helper()

	registry := backendstore.NewRegistry()
	for name, store := range stores {
		if err := registry.Register(name, store); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	policies := NewPolicyStore(newMockPolicyRepository())
	tasks := newTestTaskStore()
	metrics := routing.NewMetricsStore()
	return &controllerFixture{
		controller: NewController(policies, tasks, registry, metrics),
		policies:   policies,
		tasks:      tasks,
		metrics:    metrics,
		backends:   stores,
	}
}

// TestController_StartMigrationValidation verifies endpoint and input
// checks before any task is created.
func TestController_StartMigrationValidation(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(nil),
		"dst": newMemBackend(nil),
	})
	ctx := context.Background()

	tests := []struct {
		name        string
		source      string
		destination string
		contentID   string
		wantKind    errors.Kind
	}{
		{name: "same source and destination", source: "src", destination: "src", contentID: "x", wantKind: errors.KindValidation},
		{name: "unknown source", source: "ghost", destination: "dst", contentID: "x", wantKind: errors.KindNotFound},
		{name: "unknown destination", source: "src", destination: "ghost", contentID: "x", wantKind: errors.KindNotFound},
		{name: "missing content id", source: "src", destination: "dst", contentID: "", wantKind: errors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.StartMigration(ctx, tt.source, tt.destination, tt.contentID, domain.PriorityNormal, false)
			if !errors.IsKind(err, tt.wantKind) {
				t.Errorf("StartMigration() error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}

	task, err := f.controller.StartMigration(ctx, "src", "dst", "x", domain.PriorityHigh, true)
	if err != nil {
		t.Fatalf("StartMigration() failed: %v", err)
	}
	if task.Status != domain.TaskQueued || task.Priority != domain.PriorityHigh || !task.DeleteSource {
		t.Errorf("StartMigration() task = %+v, want queued/high/delete-source", task)
	}
}

// TestController_ExecutePolicyPrefixFilter verifies a prefix-filtered
// policy creates tasks for exactly the matching subset.
func TestController_ExecutePolicyPrefixFilter(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(map[string][]byte{
			"i1":        []byte("one"),
			"i2":        []byte("two"),
			"p_archive": []byte("three"),
		}),
		"dst": newMemBackend(nil),
	})
	ctx := context.Background()

	_, err := f.policies.Create(ctx, domain.MigrationPolicy{
		Name:               "archive-sweep",
		SourceBackend:      "src",
		DestinationBackend: "dst",
		ContentFilter:      domain.ContentFilter{Type: domain.FilterPrefix, Prefix: "p_"},
	})
	if err != nil {
		t.Fatalf("Create() policy failed: %v", err)
	}

	batch, err := f.controller.ExecutePolicy(ctx, "archive-sweep")
	if err != nil {
		t.Fatalf("ExecutePolicy() failed: %v", err)
	}

	if len(batch.TaskIDs) != 1 {
		t.Fatalf("ExecutePolicy() created %d tasks, want exactly 1", len(batch.TaskIDs))
	}
	task, err := f.tasks.Get(batch.TaskIDs[0])
	if err != nil {
		t.Fatalf("Get() task failed: %v", err)
	}
	if task.ContentID != "p_archive" {
		t.Errorf("ExecutePolicy() task content = %s, want p_archive", task.ContentID)
	}
	if task.BatchID != batch.BatchID {
		t.Errorf("task batch id = %q, want %q", task.BatchID, batch.BatchID)
	}
}

// TestController_ExecutePolicyDedup verifies re-running a policy silently
// reuses non-terminal tasks instead of erroring.
func TestController_ExecutePolicyDedup(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(map[string][]byte{"a": []byte("1"), "b": []byte("2")}),
		"dst": newMemBackend(nil),
	})
	ctx := context.Background()

	if _, err := f.policies.Create(ctx, domain.MigrationPolicy{
		Name:               "sweep",
		SourceBackend:      "src",
		DestinationBackend: "dst",
	}); err != nil {
		t.Fatalf("Create() policy failed: %v", err)
	}

	first, err := f.controller.ExecutePolicy(ctx, "sweep")
	if err != nil {
		t.Fatalf("ExecutePolicy() failed: %v", err)
	}
	second, err := f.controller.ExecutePolicy(ctx, "sweep")
	if err != nil {
		t.Fatalf("ExecutePolicy() rerun failed: %v", err)
	}

	if len(first.TaskIDs) != 2 || len(second.TaskIDs) != 2 {
		t.Fatalf("task ids = %d then %d, want 2 and 2", len(first.TaskIDs), len(second.TaskIDs))
	}

	// The rerun reused the existing tasks, it did not create new ones
	firstSet := map[string]bool{}
	for _, id := range first.TaskIDs {
		firstSet[id] = true
	}
	for _, id := range second.TaskIDs {
		if !firstSet[id] {
			t.Errorf("rerun created new task %s, want reuse", id)
		}
	}
	if summary := f.tasks.Summary(); summary.Total != 2 {
		t.Errorf("store holds %d tasks after rerun, want 2", summary.Total)
	}
}

// TestController_StartBatchDedup verifies batch starts include
// pre-existing non-terminal tasks in the result.
func TestController_StartBatchDedup(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(nil),
		"dst": newMemBackend(nil),
	})
	ctx := context.Background()

	existing, err := f.controller.StartMigration(ctx, "src", "dst", "shared", domain.PriorityNormal, false)
	if err != nil {
		t.Fatalf("StartMigration() failed: %v", err)
	}

	batch, err := f.controller.StartBatch(ctx, "src", "dst", []string{"shared", "fresh"}, domain.PriorityNormal, false)
	if err != nil {
		t.Fatalf("StartBatch() failed: %v", err)
	}

	if len(batch) != 2 {
		t.Fatalf("StartBatch() returned %d tasks, want 2", len(batch))
	}
	found := false
	for _, task := range batch {
		if task.ID == existing.ID {
			found = true
		}
	}
	if !found {
		t.Error("StartBatch() did not include the pre-existing task")
	}
}

// TestController_Estimate verifies cost and duration projection from
// metrics, without creating a task.
func TestController_Estimate(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(map[string][]byte{"big": make([]byte, 1_000_000)}),
		"dst": newMemBackend(nil),
	})
	ctx := context.Background()

	f.metrics.Update("src", domain.BackendMetrics{
		RetrievalCostPerGB: 10,
		BandwidthCostPerGB: 20,
		ThroughputMbps:     80,
	})
	f.metrics.Update("dst", domain.BackendMetrics{
		StorageCostPerGB: 30,
		ThroughputMbps:   400,
	})

	estimate, err := f.controller.Estimate(ctx, "src", "dst", "big")
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}

	if estimate.SizeBytes != 1_000_000 {
		t.Errorf("Estimate() size = %d, want 1000000", estimate.SizeBytes)
	}
	// 0.001 GB * (10 + 20 + 30) = 0.06
	if estimate.EstimatedCost < 0.059 || estimate.EstimatedCost > 0.061 {
		t.Errorf("Estimate() cost = %v, want ~0.06", estimate.EstimatedCost)
	}
	// Bottleneck is the 80 Mbps source: 1e6 bytes / (80e6/8 B/s) = 0.1s
	if estimate.EstimatedSeconds < 0.099 || estimate.EstimatedSeconds > 0.101 {
		t.Errorf("Estimate() seconds = %v, want ~0.1", estimate.EstimatedSeconds)
	}
	if summary := f.tasks.Summary(); summary.Total != 0 {
		t.Errorf("Estimate() created %d tasks, want none", summary.Total)
	}

	if _, err := f.controller.Estimate(ctx, "src", "dst", "missing"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Estimate() unknown content = %v, want not_found", err)
	}
}

// TestController_CleanupRejectsNegativeDays verifies input validation on
// the retention window.
func TestController_CleanupRejectsNegativeDays(t *testing.T) {
	f := newControllerFixture(t, map[string]*memBackend{
		"src": newMemBackend(nil),
		"dst": newMemBackend(nil),
	})

	if _, err := f.controller.Cleanup(context.Background(), -1); !errors.IsKind(err, errors.KindValidation) {
		t.Errorf("Cleanup(-1) = %v, want validation", err)
	}
}

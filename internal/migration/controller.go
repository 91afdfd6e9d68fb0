package migration

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
	"github.com/zzenonn/zroute/internal/routing"
)

// Controller drives migration operations: single migrations, batches,
// policy execution, task lifecycle queries, and estimates.
type Controller struct {
	policies *PolicyStore
	tasks    *TaskStore
	backends *backendstore.Registry
	metrics  *routing.MetricsStore
}

// NewController creates a migration controller.
func NewController(policies *PolicyStore, tasks *TaskStore, backends *backendstore.Registry, metrics *routing.MetricsStore) *Controller {
	return &Controller{
		policies: policies,
		tasks:    tasks,
		backends: backends,
		metrics:  metrics,
	}
}

// StartMigration queues one task moving a single content item.
func (c *Controller) StartMigration(ctx context.Context, source, destination, contentID string, priority domain.Priority, deleteSource bool) (domain.MigrationTask, error) {
	if err := c.checkEndpoints(source, destination); err != nil {
		return domain.MigrationTask{}, err
	}
	if contentID == "" {
		return domain.MigrationTask{}, errors.Validation("content id is required")
	}

	return c.tasks.Create(ctx, source, destination, contentID, priority, deleteSource, "")
}

// StartBatch queues one task per content id. Items that already have a
// non-terminal task are silently deduped; the existing tasks are
// included in the result.
func (c *Controller) StartBatch(ctx context.Context, source, destination string, contentIDs []string, priority domain.Priority, deleteSource bool) ([]domain.MigrationTask, error) {
	if err := c.checkEndpoints(source, destination); err != nil {
		return nil, err
	}

	out := make([]domain.MigrationTask, 0, len(contentIDs))
	for _, contentID := range contentIDs {
		task, err := c.tasks.Create(ctx, source, destination, contentID, priority, deleteSource, "")
		if errors.IsKind(err, errors.KindDuplicateTask) {
			if id, ok := c.tasks.ActiveTaskID(source, destination, contentID); ok {
				if existing, getErr := c.tasks.Get(id); getErr == nil {
					out = append(out, existing)
				}
			}
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, task)
	}
	return out, nil
}

// ExecutePolicy lists the policy's source backend with its content
// filter and creates one task per matching item inside a single batch.
// Items that already have a non-terminal task are silently deduped; the
// returned batch includes those pre-existing task ids.
func (c *Controller) ExecutePolicy(ctx context.Context, name string) (domain.MigrationBatch, error) {
	policy, err := c.policies.Get(name)
	if err != nil {
		return domain.MigrationBatch{}, err
	}

	source, err := c.backends.Backend(policy.SourceBackend)
	if err != nil {
		return domain.MigrationBatch{}, err
	}
	if _, err := c.backends.Backend(policy.DestinationBackend); err != nil {
		return domain.MigrationBatch{}, err
	}

	items, err := source.List(ctx, policy.ContentFilter)
	if err != nil {
		return domain.MigrationBatch{}, errors.BackendUnavailable(policy.SourceBackend, err)
	}

	batchID := uuid.New().String()
	taskIDs := make([]string, 0, len(items))
	created := 0

	for _, item := range items {
		task, err := c.tasks.Create(ctx, policy.SourceBackend, policy.DestinationBackend, item.ID, domain.PriorityNormal, policy.DeleteSource, batchID)
		if errors.IsKind(err, errors.KindDuplicateTask) {
			if id, ok := c.tasks.ActiveTaskID(policy.SourceBackend, policy.DestinationBackend, item.ID); ok {
				taskIDs = append(taskIDs, id)
			}
			continue
		}
		if err != nil {
			return domain.MigrationBatch{}, err
		}
		taskIDs = append(taskIDs, task.ID)
		created++
	}

	batch := domain.MigrationBatch{
		BatchID:    batchID,
		PolicyName: name,
		CreatedAt:  time.Now().UTC(),
		TaskIDs:    taskIDs,
	}
	if err := c.tasks.RecordBatch(ctx, batch); err != nil {
		return domain.MigrationBatch{}, err
	}

	log.Infof("Executed policy %s: %d tasks created, %d reused", name, created, len(taskIDs)-created)
	return batch, nil
}

// Cancel cancels a queued or in-progress task.
func (c *Controller) Cancel(ctx context.Context, taskID string) error {
	return c.tasks.Cancel(ctx, taskID)
}

// Task returns a task by id.
func (c *Controller) Task(taskID string) (domain.MigrationTask, error) {
	return c.tasks.Get(taskID)
}

// List returns tasks matching the filter.
func (c *Controller) List(filter TaskFilter) []domain.MigrationTask {
	return c.tasks.List(filter)
}

// Summary returns aggregate task counts per status.
func (c *Controller) Summary() TaskSummary {
	return c.tasks.Summary()
}

// Cleanup deletes terminal tasks older than the given number of days.
// Returns the number removed.
func (c *Controller) Cleanup(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, errors.Validation("days must not be negative")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return c.tasks.CleanupOlderThan(ctx, cutoff)
}

// Estimate projects the cost and duration of migrating one content item
// from live backend metrics. No task is created.
func (c *Controller) Estimate(ctx context.Context, source, destination, contentID string) (domain.MigrationEstimate, error) {
	if err := c.checkEndpoints(source, destination); err != nil {
		return domain.MigrationEstimate{}, err
	}

	store, err := c.backends.Backend(source)
	if err != nil {
		return domain.MigrationEstimate{}, err
	}

	items, err := store.List(ctx, domain.ContentFilter{Type: domain.FilterPrefix, Prefix: contentID})
	if err != nil {
		return domain.MigrationEstimate{}, errors.BackendUnavailable(source, err)
	}

	var size int64 = -1
	for _, item := range items {
		if item.ID == contentID {
			size = item.SizeBytes
			break
		}
	}
	if size < 0 {
		return domain.MigrationEstimate{}, errors.NotFound("content", contentID)
	}

	sourceMetrics, err := c.metrics.Get(source)
	if err != nil {
		return domain.MigrationEstimate{}, err
	}
	destMetrics, err := c.metrics.Get(destination)
	if err != nil {
		return domain.MigrationEstimate{}, err
	}

	gb := float64(size) / 1e9
	cost := gb * (sourceMetrics.RetrievalCostPerGB + sourceMetrics.BandwidthCostPerGB + destMetrics.StorageCostPerGB)

	throughput := sourceMetrics.ThroughputMbps
	if destMetrics.ThroughputMbps > 0 && (throughput == 0 || destMetrics.ThroughputMbps < throughput) {
		throughput = destMetrics.ThroughputMbps
	}
	var seconds float64
	if throughput > 0 {
		seconds = float64(size) / (throughput * 1e6 / 8)
	}

	return domain.MigrationEstimate{
		SourceBackend:      source,
		DestinationBackend: destination,
		ContentID:          contentID,
		SizeBytes:          size,
		EstimatedCost:      cost,
		EstimatedSeconds:   seconds,
	}, nil
}

func (c *Controller) checkEndpoints(source, destination string) error {
	if source == destination {
		return errors.Validation("source and destination backends must differ")
	}
	if _, err := c.backends.Backend(source); err != nil {
		return err
	}
	if _, err := c.backends.Backend(destination); err != nil {
		return err
	}
	return nil
}

package migration

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/metrics"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
)

const (
	defaultWorkers      = 4
	defaultMaxRetries   = 3
	defaultRetryBackoff = 2 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Executor is a bounded pool of workers draining queued migration tasks.
// Each worker processes one task at a time to completion; across workers
// no ordering is guaranteed. Cancellation is cooperative: workers poll
// the task status before committing the destination write.
type Executor struct {
	tasks        *TaskStore
	backends     *backendstore.Registry
	workers      int
	maxRetries   int
	retryBackoff time.Duration
	pollInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ExecutorOptions tunes the worker pool. Zero values fall back to
// defaults (4 workers, 3 retries, 2s backoff base, 500ms poll).
type ExecutorOptions struct {
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	PollInterval time.Duration
}

// NewExecutor creates an executor over the task store and registry.
func NewExecutor(tasks *TaskStore, backends *backendstore.Registry, opts ExecutorOptions) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	return &Executor{
		tasks:        tasks,
		backends:     backends,
		workers:      opts.Workers,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		pollInterval: opts.PollInterval,
	}
}

// Start launches the worker pool. Workers run until Stop is called or
// the parent context is cancelled.
func (e *Executor) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}
	log.Infof("Migration executor started with %d workers", e.workers)
}

// Stop signals all workers and waits for in-flight tasks to finish.
func (e *Executor) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	log.Info("Migration executor stopped")
}

func (e *Executor) worker(ctx context.Context, id int) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok, err := e.tasks.ClaimNext(ctx, time.Now())
		if err != nil {
			log.Warnf("Worker %d failed to claim task: %v", id, err)
			e.sleep(ctx)
			continue
		}
		if !ok {
			e.sleep(ctx)
			continue
		}

		e.process(ctx, task)
	}
}

func (e *Executor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(e.pollInterval):
	}
}

// process copies one content item from source to destination and drives
// the task to a terminal state.
func (e *Executor) process(ctx context.Context, task domain.MigrationTask) {
	log.Debugf("Processing task %s: %s -> %s (%s)",
		task.ID, task.SourceBackend, task.DestinationBackend, task.ContentID)

	source, err := e.backends.Backend(task.SourceBackend)
	if err != nil {
		e.retryOrFail(ctx, task, err)
		return
	}
	destination, err := e.backends.Backend(task.DestinationBackend)
	if err != nil {
		e.retryOrFail(ctx, task, err)
		return
	}

	data, err := source.Get(ctx, task.ContentID)
	if err != nil {
		e.retryOrFail(ctx, task, err)
		return
	}

	// Cancellation check before committing the destination write.
	if status, err := e.tasks.StatusOf(task.ID); err != nil || status == domain.TaskCancelled {
		log.Debugf("Task %s cancelled after fetch, aborting", task.ID)
		return
	}

	if _, err := destination.Add(ctx, data, map[string]string{"filename": task.ContentID}); err != nil {
		e.retryOrFail(ctx, task, err)
		return
	}

	committed, err := e.tasks.Complete(ctx, task.ID)
	if err != nil {
		log.Warnf("Failed to complete task %s: %v", task.ID, err)
		return
	}
	if !committed {
		// Late completion of a cancelled task is a no-op.
		return
	}

	if task.DeleteSource {
		if _, err := source.Delete(ctx, task.ContentID); err != nil {
			log.Warnf("Task %s completed but source delete failed: %v", task.ID, err)
		}
	}

	metrics.MigrationTasks.WithLabelValues(string(domain.TaskCompleted)).Inc()
	log.Infof("Task %s completed (%d bytes)", task.ID, len(data))
}

// retryOrFail requeues the task with exponential backoff until the retry
// budget is exhausted, then fails it with the last error.
func (e *Executor) retryOrFail(ctx context.Context, task domain.MigrationTask, cause error) {
	if task.RetryCount < e.maxRetries {
		backoff := e.retryBackoff * (1 << uint(task.RetryCount))
		notBefore := time.Now().UTC().Add(backoff)
		if err := e.tasks.Requeue(ctx, task.ID, cause.Error(), notBefore); err != nil {
			log.Warnf("Failed to requeue task %s: %v", task.ID, err)
			return
		}
		metrics.MigrationRetries.Inc()
		log.Debugf("Task %s requeued (retry %d, backoff %s): %v",
			task.ID, task.RetryCount+1, backoff, cause)
		return
	}

	if err := e.tasks.MarkFailed(ctx, task.ID, cause.Error()); err != nil {
		log.Warnf("Failed to mark task %s failed: %v", task.ID, err)
		return
	}
	metrics.MigrationTasks.WithLabelValues(string(domain.TaskFailed)).Inc()
	log.Warnf("Task %s failed after %d retries: %v", task.ID, task.RetryCount, cause)
}

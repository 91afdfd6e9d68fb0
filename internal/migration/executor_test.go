package migration

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
)

type executorFixture struct {
	executor *Executor
	tasks    *TaskStore
	src      *memBackend
	dst      *memBackend
}

func newExecutorFixture(t *testing.T, opts ExecutorOptions) *executorFixture {
	t.Helper()

	src := newMemBackend(map[string][]byte{"item": []byte("payload")})
	dst := newMemBackend(nil)

	registry := backendstore.NewRegistry()
	if err := registry.Register("src", src); err != nil {
		t.Fatalf("Register(src) failed: %v", err)
	}
	if err := registry.Register("dst", dst); err != nil {
		t.Fatalf("Register(dst) failed: %v", err)
	}

	tasks := newTestTaskStore()
	return &executorFixture{
		executor: NewExecutor(tasks, registry, opts),
		tasks:    tasks,
		src:      src,
		dst:      dst,
	}
}

// claimOne claims the single runnable task or fails the test.
func (f *executorFixture) claimOne(t *testing.T) domain.MigrationTask {
	t.Helper()
	task, ok, err := f.tasks.ClaimNext(context.Background(), time.Now().Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("ClaimNext() = %v %v, want a task", ok, err)
	}
	return task
}

// TestExecutor_ProcessCopiesContent verifies the happy path: fetch from
// source, write to destination, mark completed, delete the source copy
// when the task is a move.
func TestExecutor_ProcessCopiesContent(t *testing.T) {
	f := newExecutorFixture(t, ExecutorOptions{})
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, "src", "dst", "item", domain.PriorityNormal, true, "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	f.executor.process(ctx, f.claimOne(t))

	if status, _ := f.tasks.StatusOf(created.ID); status != domain.TaskCompleted {
		t.Errorf("status = %s, want completed", status)
	}
	got, err := f.dst.Get(ctx, "item")
	if err != nil {
		t.Fatalf("destination missing the copy: %v", err)
	}
	if !bytes.Equal(got, []byte("payload")) {
		t.Errorf("destination content = %q, want %q", got, "payload")
	}
	if _, ok := f.src.storage["item"]; ok {
		t.Error("source copy survived a delete-source move")
	}
}

// TestExecutor_ProcessKeepsSourceOnCopy verifies the source is untouched
// when delete-source is off.
func TestExecutor_ProcessKeepsSourceOnCopy(t *testing.T) {
	f := newExecutorFixture(t, ExecutorOptions{})
	ctx := context.Background()

	if _, err := f.tasks.Create(ctx, "src", "dst", "item", domain.PriorityNormal, false, ""); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	f.executor.process(ctx, f.claimOne(t))

	if _, ok := f.src.storage["item"]; !ok {
		t.Error("source copy deleted on a plain copy task")
	}
	if f.src.deletes != 0 {
		t.Errorf("source Delete called %d times, want 0", f.src.deletes)
	}
}

// TestExecutor_CancellationBeforeCommit verifies a task cancelled after
// the fetch never writes to the destination.
func TestExecutor_CancellationBeforeCommit(t *testing.T) {
	f := newExecutorFixture(t, ExecutorOptions{})
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, "src", "dst", "item", domain.PriorityNormal, false, "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	claimed := f.claimOne(t)

	// Cancel arrives while the fetch is in flight
	f.src.getFunc = func(ctx context.Context, id string) ([]byte, error) {
		if err := f.tasks.Cancel(ctx, created.ID); err != nil {
			t.Errorf("Cancel() failed: %v", err)
		}
		return []byte("payload"), nil
	}

	f.executor.process(ctx, claimed)

	if status, _ := f.tasks.StatusOf(created.ID); status != domain.TaskCancelled {
		t.Errorf("status = %s, want cancelled", status)
	}
	if f.dst.adds != 0 {
		t.Errorf("destination Add called %d times after cancel, want 0", f.dst.adds)
	}
}

// TestExecutor_RetryThenFail verifies exponential-backoff retries exhaust
// into a failed terminal state carrying the last error.
func TestExecutor_RetryThenFail(t *testing.T) {
	f := newExecutorFixture(t, ExecutorOptions{MaxRetries: 2, RetryBackoff: time.Millisecond})
	ctx := context.Background()

	f.dst.addFunc = func(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
		return "", stderrors.New("destination write refused")
	}

	created, err := f.tasks.Create(ctx, "src", "dst", "item", domain.PriorityNormal, false, "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Attempts 1 and 2 requeue, attempt 3 exhausts the budget
	for attempt := 0; attempt < 2; attempt++ {
		f.executor.process(ctx, f.claimOne(t))

		task, err := f.tasks.Get(created.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if task.Status != domain.TaskQueued {
			t.Fatalf("attempt %d: status = %s, want requeued", attempt+1, task.Status)
		}
		if task.RetryCount != attempt+1 {
			t.Errorf("attempt %d: retry count = %d, want %d", attempt+1, task.RetryCount, attempt+1)
		}
	}

	f.executor.process(ctx, f.claimOne(t))

	task, err := f.tasks.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if task.Status != domain.TaskFailed {
		t.Errorf("status = %s, want failed after retry exhaustion", task.Status)
	}
	if task.Error != "destination write refused" {
		t.Errorf("task error = %q, want the last failure message", task.Error)
	}
}

// TestExecutor_RetryOnMissingBackend verifies an unresolvable backend is
// treated as a transient failure, not a crash.
func TestExecutor_RetryOnMissingBackend(t *testing.T) {
	registry := backendstore.NewRegistry()
	if err := registry.Register("src", newMemBackend(nil)); err != nil {
		t.Fatalf("Register(src) failed: %v", err)
	}

	tasks := newTestTaskStore()
	executor := NewExecutor(tasks, registry, ExecutorOptions{MaxRetries: 1, RetryBackoff: time.Millisecond})
	ctx := context.Background()

	created, err := tasks.Create(ctx, "src", "unregistered", "item", domain.PriorityNormal, false, "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	claimed, ok, err := tasks.ClaimNext(ctx, time.Now())
	if err != nil || !ok {
		t.Fatalf("ClaimNext() = %v %v, want a task", ok, err)
	}
	executor.process(ctx, claimed)

	task, err := tasks.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if task.Status != domain.TaskQueued || task.RetryCount != 1 {
		t.Errorf("task = %s retry %d, want requeued once", task.Status, task.RetryCount)
	}
}

// TestExecutor_StartStopDrainsQueue runs the real worker pool against a
// small queue and verifies it drains before shutdown.
func TestExecutor_StartStopDrainsQueue(t *testing.T) {
	f := newExecutorFixture(t, ExecutorOptions{Workers: 2, PollInterval: 5 * time.Millisecond})
	ctx := context.Background()

	f.src.storage["second"] = []byte("more")
	ids := make([]string, 0, 2)
	for _, contentID := range []string{"item", "second"} {
		task, err := f.tasks.Create(ctx, "src", "dst", contentID, domain.PriorityNormal, false, "")
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", contentID, err)
		}
		ids = append(ids, task.ID)
	}

	f.executor.Start(ctx)
	defer f.executor.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		done := 0
		for _, id := range ids {
			if status, _ := f.tasks.StatusOf(id); status == domain.TaskCompleted {
				done++
			}
		}
		if done == len(ids) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("queue not drained: %d of %d completed", done, len(ids))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Package migration implements the cross-backend migration engine:
// policy and task persistence, the task state machine, the controller
// that turns policies into task sets, and the worker-pool executor that
// drains them.
package migration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// TaskRepository persists migration task records across restarts.
type TaskRepository interface {
	SaveTask(ctx context.Context, task domain.MigrationTask) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]domain.MigrationTask, error)
}

// BatchRepository persists migration batch records.
type BatchRepository interface {
	SaveBatch(ctx context.Context, batch domain.MigrationBatch) error
	ListBatches(ctx context.Context) ([]domain.MigrationBatch, error)
}

// tripleKey identifies the idempotency tuple: at most one non-terminal
// task may exist per (source, destination, content) at a time.
type tripleKey struct {
	source      string
	destination string
	contentID   string
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status             domain.TaskStatus
	SourceBackend      string
	DestinationBackend string
	BatchID            string
}

// TaskSummary aggregates task counts per status.
type TaskSummary struct {
	Counts map[domain.TaskStatus]int `json:"counts"`
	Total  int                       `json:"total"`
}

// TaskStore exclusively owns migration task records. The executor and
// controller mutate task state only through this store's methods; every
// transition happens inside one critical section, and every mutation is
// written through the repository before it is committed to the working
// set. The store itself is the executor's queue.
type TaskStore struct {
	mu      sync.Mutex
	repo    TaskRepository
	batches BatchRepository
	tasks   map[string]domain.MigrationTask
	active  map[tripleKey]string
}

// NewTaskStore creates a task store backed by the given repositories.
func NewTaskStore(repo TaskRepository, batches BatchRepository) *TaskStore {
	return &TaskStore{
		repo:    repo,
		batches: batches,
		tasks:   make(map[string]domain.MigrationTask),
		active:  make(map[tripleKey]string),
	}
}

// Load hydrates the working set and the idempotency index.
func (s *TaskStore) Load(ctx context.Context) error {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]domain.MigrationTask, len(tasks))
	s.active = make(map[tripleKey]string)
	for _, task := range tasks {
		s.tasks[task.ID] = task
		if !task.Status.Terminal() {
			s.active[keyOf(task)] = task.ID
		}
	}
	return nil
}

func keyOf(task domain.MigrationTask) tripleKey {
	return tripleKey{
		source:      task.SourceBackend,
		destination: task.DestinationBackend,
		contentID:   task.ContentID,
	}
}

// Create queues a new task. A non-terminal task for the same
// (source, destination, content) triple rejects the call; once the
// earlier task reaches a terminal state a new one is accepted.
func (s *TaskStore) Create(ctx context.Context, source, destination, contentID string, priority domain.Priority, deleteSource bool, batchID string) (domain.MigrationTask, error) {
	if !priority.Valid() {
		priority = domain.PriorityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tripleKey{source: source, destination: destination, contentID: contentID}
	if existingID, ok := s.active[key]; ok {
		return domain.MigrationTask{}, errors.DuplicateTask(source, destination, contentID, existingID)
	}

	now := time.Now().UTC()
	task := domain.MigrationTask{
		ID:                 uuid.New().String(),
		SourceBackend:      source,
		DestinationBackend: destination,
		ContentID:          contentID,
		Status:             domain.TaskQueued,
		Priority:           priority,
		DeleteSource:       deleteSource,
		BatchID:            batchID,
		CreatedAt:          now,
		NotBefore:          now,
	}

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return domain.MigrationTask{}, err
	}
	s.tasks[task.ID] = task
	s.active[key] = task.ID
	return task, nil
}

// ActiveTaskID returns the id of the non-terminal task for a triple,
// if one exists.
func (s *TaskStore) ActiveTaskID(source, destination, contentID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[tripleKey{source: source, destination: destination, contentID: contentID}]
	return id, ok
}

// Get returns a task by id.
func (s *TaskStore) Get(id string) (domain.MigrationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.MigrationTask{}, errors.NotFound("migration task", id)
	}
	return task, nil
}

// StatusOf returns the current status of a task.
func (s *TaskStore) StatusOf(id string) (domain.TaskStatus, error) {
	task, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return task.Status, nil
}

// List returns tasks matching the filter, oldest first.
func (s *TaskStore) List(filter TaskFilter) []domain.MigrationTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MigrationTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.SourceBackend != "" && task.SourceBackend != filter.SourceBackend {
			continue
		}
		if filter.DestinationBackend != "" && task.DestinationBackend != filter.DestinationBackend {
			continue
		}
		if filter.BatchID != "" && task.BatchID != filter.BatchID {
			continue
		}
		out = append(out, task)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ClaimNext atomically claims the next runnable queued task and marks it
// in progress. Draining order is highest priority first, then oldest
// creation time, then id. Tasks whose backoff window has not elapsed are
// skipped.
func (s *TaskStore) ClaimNext(ctx context.Context, now time.Time) (domain.MigrationTask, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.MigrationTask
	for id := range s.tasks {
		task := s.tasks[id]
		if task.Status != domain.TaskQueued || task.NotBefore.After(now) {
			continue
		}
		if best == nil || claimBefore(task, *best) {
			candidate := task
			best = &candidate
		}
	}

	if best == nil {
		return domain.MigrationTask{}, false, nil
	}

	started := now.UTC()
	best.Status = domain.TaskInProgress
	best.StartedAt = &started

	if err := s.repo.SaveTask(ctx, *best); err != nil {
		return domain.MigrationTask{}, false, err
	}
	s.tasks[best.ID] = *best
	return *best, true, nil
}

func claimBefore(a, b domain.MigrationTask) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Complete marks an in-progress task completed. A late completion of a
// cancelled task is a no-op: committed reports whether the transition
// actually happened.
func (s *TaskStore) Complete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false, errors.NotFound("migration task", id)
	}

	if task.Status == domain.TaskCancelled {
		return false, nil
	}
	if task.Status != domain.TaskInProgress {
		return false, errors.InvalidState("cannot complete task %s in status %s", id, task.Status)
	}

	done := time.Now().UTC()
	task.Status = domain.TaskCompleted
	task.CompletedAt = &done
	task.Error = ""

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return false, err
	}
	s.tasks[id] = task
	delete(s.active, keyOf(task))
	return true, nil
}

// Requeue puts a failed attempt back in the queue with an incremented
// retry count and a backoff eligibility time. Requeueing a cancelled
// task is a no-op.
func (s *TaskStore) Requeue(ctx context.Context, id, errMsg string, notBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return errors.NotFound("migration task", id)
	}

	if task.Status == domain.TaskCancelled {
		return nil
	}
	if task.Status != domain.TaskInProgress {
		return errors.InvalidState("cannot requeue task %s in status %s", id, task.Status)
	}

	task.Status = domain.TaskQueued
	task.RetryCount++
	task.Error = errMsg
	task.NotBefore = notBefore
	task.StartedAt = nil

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return err
	}
	s.tasks[id] = task
	return nil
}

// MarkFailed moves a task to the failed terminal state with its last
// error. Failing a cancelled task is a no-op.
func (s *TaskStore) MarkFailed(ctx context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return errors.NotFound("migration task", id)
	}

	if task.Status == domain.TaskCancelled {
		return nil
	}
	if task.Status.Terminal() {
		return errors.InvalidState("cannot fail task %s in status %s", id, task.Status)
	}

	done := time.Now().UTC()
	task.Status = domain.TaskFailed
	task.CompletedAt = &done
	task.Error = errMsg

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return err
	}
	s.tasks[id] = task
	delete(s.active, keyOf(task))
	return nil
}

// Cancel cancels a queued or in-progress task. Cancelling an in-progress
// task is best-effort: the status flips immediately, and the executor
// treats a late completion as a no-op.
func (s *TaskStore) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return errors.NotFound("migration task", id)
	}

	if task.Status.Terminal() {
		return errors.InvalidState("cannot cancel task %s in status %s", id, task.Status)
	}

	done := time.Now().UTC()
	task.Status = domain.TaskCancelled
	task.CompletedAt = &done

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return err
	}
	s.tasks[id] = task
	delete(s.active, keyOf(task))
	return nil
}

// CleanupOlderThan deletes terminal tasks whose completion (or creation,
// if never started) predates the cutoff. Non-terminal tasks are never
// deleted regardless of age. Returns the number removed.
func (s *TaskStore) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, task := range s.tasks {
		if !task.Status.Terminal() {
			continue
		}
		reference := task.CreatedAt
		if task.CompletedAt != nil {
			reference = *task.CompletedAt
		}
		if reference.After(cutoff) {
			continue
		}

		if err := s.repo.DeleteTask(ctx, id); err != nil {
			return removed, err
		}
		delete(s.tasks, id)
		removed++
	}
	return removed, nil
}

// Summary returns aggregate counts per status. The total always equals
// the sum across statuses.
func (s *TaskStore) Summary() TaskSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := TaskSummary{Counts: make(map[domain.TaskStatus]int)}
	for _, task := range s.tasks {
		summary.Counts[task.Status]++
		summary.Total++
	}
	return summary
}

// RecordBatch persists a batch record. Batches are read-only afterward.
func (s *TaskStore) RecordBatch(ctx context.Context, batch domain.MigrationBatch) error {
	return s.batches.SaveBatch(ctx, batch)
}

// Batches returns all recorded batches, oldest first.
func (s *TaskStore) Batches(ctx context.Context) ([]domain.MigrationBatch, error) {
	batches, err := s.batches.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
	return batches, nil
}

package domain

import (
	"fmt"
	"time"
)

// TaskStatus is the migration task state machine:
// queued -> in_progress -> {completed, failed}; queued|in_progress -> cancelled.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// ParseTaskStatus validates a status string at the boundary.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskQueued, TaskInProgress, TaskCompleted, TaskFailed, TaskCancelled:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status: %q", s)
}

// ScheduleMode controls when a policy runs.
type ScheduleMode string

const (
	ScheduleManual   ScheduleMode = "manual"
	SchedulePeriodic ScheduleMode = "periodic"
)

// Schedule describes when a migration policy executes. Periodic policies
// carry a cron expression and are run by the scheduler.
type Schedule struct {
	Mode ScheduleMode `json:"mode" dynamodbav:"mode"`
	Cron string       `json:"cron,omitempty" dynamodbav:"cron"`
}

// MigrationPolicy names a repeatable source->destination migration.
type MigrationPolicy struct {
	Name               string        `json:"name" dynamodbav:"name"`
	SourceBackend      string        `json:"source_backend" dynamodbav:"source_backend"`
	DestinationBackend string        `json:"destination_backend" dynamodbav:"destination_backend"`
	ContentFilter      ContentFilter `json:"content_filter" dynamodbav:"content_filter"`
	Schedule           Schedule      `json:"schedule" dynamodbav:"schedule"`
	DeleteSource       bool          `json:"delete_source,omitempty" dynamodbav:"delete_source"`
	CreatedAt          time.Time     `json:"created_at" dynamodbav:"created_at"`
}

// MigrationTask is one unit of content movement. The task store owns
// these records; the executor mutates them only through the store.
type MigrationTask struct {
	ID                 string     `json:"id" dynamodbav:"id"`
	SourceBackend      string     `json:"source_backend" dynamodbav:"source_backend"`
	DestinationBackend string     `json:"destination_backend" dynamodbav:"destination_backend"`
	ContentID          string     `json:"content_id" dynamodbav:"content_id"`
	Status             TaskStatus `json:"status" dynamodbav:"status"`
	Priority           Priority   `json:"priority" dynamodbav:"priority"`
	DeleteSource       bool       `json:"delete_source,omitempty" dynamodbav:"delete_source"`
	BatchID            string     `json:"batch_id,omitempty" dynamodbav:"batch_id"`
	CreatedAt          time.Time  `json:"created_at" dynamodbav:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty" dynamodbav:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" dynamodbav:"completed_at"`
	NotBefore          time.Time  `json:"not_before" dynamodbav:"not_before"`
	Error              string     `json:"error,omitempty" dynamodbav:"error"`
	RetryCount         int        `json:"retry_count" dynamodbav:"retry_count"`
}

// MigrationBatch groups the tasks created by one policy execution.
// Read-only after creation.
type MigrationBatch struct {
	BatchID    string    `json:"batch_id" dynamodbav:"batch_id"`
	PolicyName string    `json:"policy_name" dynamodbav:"policy_name"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	TaskIDs    []string  `json:"task_ids" dynamodbav:"task_ids"`
}

// MigrationEstimate projects cost and duration for moving one content
// item; no task is created.
type MigrationEstimate struct {
	SourceBackend      string  `json:"source_backend"`
	DestinationBackend string  `json:"destination_backend"`
	ContentID          string  `json:"content_id"`
	SizeBytes          int64   `json:"size_bytes"`
	EstimatedCost      float64 `json:"estimated_cost"`
	EstimatedSeconds   float64 `json:"estimated_seconds"`
}

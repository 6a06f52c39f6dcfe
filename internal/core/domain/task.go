package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeDeleteCorpus completes a staged corpus deletion: content purge
	// plus final metadata removal.
	TaskTypeDeleteCorpus TaskType = "delete_corpus"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// Payload contains task-specific data.
	// For delete_corpus: {"namespace_id", "corpus_id", "corpus_pathname"}
	Payload map[string]string `json:"payload"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts before the task is moved to failed state
	MaxAttempts int `json:"max_attempts"`

	// CreatedAt is when the task was enqueued
	CreatedAt time.Time `json:"created_at"`

	// LastError records the most recent failure reason
	LastError string `json:"last_error,omitempty"`
}

// NewDeleteCorpusTask builds the task that finishes a staged corpus delete.
func NewDeleteCorpusTask(namespaceID, corpusID uuid.UUID, pathname string) *Task {
	return &Task{
		ID:   GenerateID(),
		Type: TaskTypeDeleteCorpus,
		Payload: map[string]string{
			"namespace_id":    namespaceID.String(),
			"corpus_id":       corpusID.String(),
			"corpus_pathname": pathname,
		},
		Status:      TaskStatusPending,
		MaxAttempts: 3,
		CreatedAt:   time.Now().UTC(),
	}
}

// MarkProcessing records that a worker claimed the task.
func (t *Task) MarkProcessing() {
	t.Status = TaskStatusProcessing
	t.Attempts++
}

// MarkCompleted records successful completion.
func (t *Task) MarkCompleted() {
	t.Status = TaskStatusCompleted
}

// MarkFailed records terminal failure.
func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.LastError = reason
}

// CanRetry reports whether the task has attempts left.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// Retry resets the task to pending for another attempt.
func (t *Task) Retry(reason string) {
	t.Status = TaskStatusPending
	t.LastError = reason
}

// NamespaceID extracts the namespace id from a delete_corpus payload.
func (t *Task) NamespaceID() (uuid.UUID, error) {
	return uuid.Parse(t.Payload["namespace_id"])
}

// CorpusID extracts the corpus id from a delete_corpus payload.
func (t *Task) CorpusID() (uuid.UUID, error) {
	return uuid.Parse(t.Payload["corpus_id"])
}

// CorpusPathname extracts the corpus pathname from a delete_corpus payload.
func (t *Task) CorpusPathname() string {
	return t.Payload["corpus_pathname"]
}

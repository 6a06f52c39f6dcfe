package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

func setupTestQueue(t *testing.T) (*Queue, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	queue, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	return queue, func() {
		client.Close()
		mr.Close()
	}
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewDeleteCorpusTask(uuid.New(), uuid.New(), "acme:kb")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := queue.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("dequeued %v, want task %s", got, task.ID)
	}
	if got.Status != domain.TaskStatusProcessing || got.Attempts != 1 {
		t.Errorf("claimed task = (%s, %d attempts), want (processing, 1)", got.Status, got.Attempts)
	}
	if got.CorpusPathname() != "acme:kb" {
		t.Errorf("payload pathname = %q, want acme:kb", got.CorpusPathname())
	}

	if err := queue.Ack(ctx, got.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	stored, err := queue.GetTask(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("status after ack = %s, want completed", stored.Status)
	}
}

func TestQueue_NackRetriesThenFails(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewDeleteCorpusTask(uuid.New(), uuid.New(), "acme:kb")
	task.MaxAttempts = 2
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// First attempt fails and goes back on the stream.
	got, err := queue.DequeueWithTimeout(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("first dequeue = (%v, %v), want the task", got, err)
	}
	if err := queue.Nack(ctx, got.ID, "store unavailable"); err != nil {
		t.Fatalf("Nack failed: %v", err)
	}

	stored, err := queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != domain.TaskStatusPending || stored.LastError != "store unavailable" {
		t.Errorf("after first nack = (%s, %q), want (pending, store unavailable)", stored.Status, stored.LastError)
	}

	// Second attempt exhausts MaxAttempts.
	got, err = queue.DequeueWithTimeout(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("second dequeue = (%v, %v), want the task", got, err)
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempts)
	}
	if err := queue.Nack(ctx, got.ID, "still unavailable"); err != nil {
		t.Fatalf("second Nack failed: %v", err)
	}

	stored, err = queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("status after exhausted retries = %s, want failed", stored.Status)
	}
}

func TestQueue_GetTaskMissing(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()

	task, err := queue.GetTask(context.Background(), "unknown")
	if err != nil || task != nil {
		t.Errorf("GetTask unknown = (%v, %v), want (nil, nil)", task, err)
	}
}

func TestQueue_Ping(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()

	if err := queue.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

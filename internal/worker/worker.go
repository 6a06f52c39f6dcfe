package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/memas-labs/memas-core/internal/core/ports/driving"
	"github.com/memas-labs/memas-core/internal/core/services"
)

// Worker processes tasks from the task queue. Its only task type today is
// delete_corpus: the deferred half of a staged corpus deletion.
type Worker struct {
	taskQueue driven.TaskQueue
	registry  driving.RegistryService
	purger    services.ContentPurger
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	settleDelay    time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue driven.TaskQueue
	Registry  driving.RegistryService
	Purger    services.ContentPurger
	Logger    *slog.Logger

	// Concurrency is the number of concurrent task processors
	Concurrency int

	// DequeueTimeout is seconds to wait for a task before checking again
	DequeueTimeout int

	// SettleDelay is how long a claimed delete waits before purging, so
	// writes that raced the deletion have landed and get swept up too.
	SettleDelay time.Duration
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	settleDelay := cfg.SettleDelay
	if settleDelay < 0 {
		settleDelay = 0
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		registry:       cfg.Registry,
		purger:         cfg.Purger,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		settleDelay:    settleDelay,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
		"settle_delay", w.settleDelay,
	)

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for workers to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		// Dequeue a task with timeout
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			// No task available, continue
			continue
		}

		// Process the task
		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeDeleteCorpus:
		err = w.handleDeleteCorpus(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		// Nack the task so it can be retried
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	// Ack the task
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleDeleteCorpus finishes a staged corpus delete: wait for in-flight
// writes to settle, purge all stored content, then drop the metadata rows.
// Every step is idempotent so a retried task picks up where it crashed.
func (w *Worker) handleDeleteCorpus(ctx context.Context, task *domain.Task) error {
	namespaceID, err := task.NamespaceID()
	if err != nil {
		return fmt.Errorf("namespace_id not found in task payload: %w", err)
	}
	corpusID, err := task.CorpusID()
	if err != nil {
		return fmt.Errorf("corpus_id not found in task payload: %w", err)
	}

	if w.settleDelay > 0 {
		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return errors.New("worker stopping")
		}
	}

	// Recovery: if an earlier attempt crashed before the synchronous phase
	// finished, the pathname may still point at this corpus. Re-running the
	// initiation is a no-op when the name is already gone.
	if pathname := task.CorpusPathname(); pathname != "" {
		err := w.registry.InitiateDeleteCorpus(ctx, namespaceID, corpusID, pathname)
		if err != nil && !errors.Is(err, domain.ErrNamespaceNotFound) {
			return fmt.Errorf("re-initiate delete: %w", err)
		}
	}

	if err := w.purger.DeleteAllContent(ctx, corpusID); err != nil {
		return fmt.Errorf("purge corpus content: %w", err)
	}

	if err := w.registry.FinishDeleteCorpus(ctx, namespaceID, corpusID); err != nil {
		return fmt.Errorf("finish delete: %w", err)
	}

	return nil
}

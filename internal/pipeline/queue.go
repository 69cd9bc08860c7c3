package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of background work: process (or reprocess) a document.
type Job struct {
	DocID     uuid.UUID
	Reprocess bool
}

// Queue runs extraction jobs on a bounded worker pool. Enqueue never fails;
// a full queue applies backpressure instead of dropping work.
type Queue struct {
	proc    *Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(proc *Processor, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					var err error
					if job.Reprocess {
						_, err = q.proc.Reprocess(ctx, job.DocID)
					} else {
						_, err = q.proc.Process(ctx, job.DocID)
					}
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "doc_id", job.DocID, "error", err)
					} else {
						q.logger.Info("processed document", "worker_id", workerID, "doc_id", job.DocID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "doc_id", job.DocID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "doc_id", job.DocID, "reprocess", job.Reprocess)
	default:
		q.logger.Warn("queue full, applying backpressure", "doc_id", job.DocID)
		q.ch <- job
	}
	return nil
}

// Shutdown stops intake and waits for in-flight jobs to finish, or for ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

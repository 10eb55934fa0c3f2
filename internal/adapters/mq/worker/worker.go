// Package worker drains finished tournaments off the queue and archives
// them into the rating store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"namearena/internal/domain/model"
	"namearena/pkg/logger"
	"namearena/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Result abstracts what workers read off the queue.
type Result = model.TournamentResult

// Archiver folds a finished tournament into persistent ratings.
type Archiver interface {
	ArchiveResult(ctx context.Context, res model.TournamentResult) error
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Result
}

// Worker processes finished tournaments until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// ArchiveWorker implements Worker over an Archiver.
type ArchiveWorker struct {
	queue    Queue
	archiver Archiver
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewArchiveWorker creates a new worker with configuration options.
func NewArchiveWorker(queue Queue, archiver Archiver, opts ...Option) *ArchiveWorker {
	w := &ArchiveWorker{
		queue:    queue,
		archiver: archiver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *ArchiveWorker) Run(ctx context.Context) {
	defer close(w.done)

	results := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			if err := w.processResult(ctx, res); err != nil {
				w.logger.Error(ctx, "error archiving tournament", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *ArchiveWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processResult archives a single finished tournament.
func (w *ArchiveWorker) processResult(ctx context.Context, res Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.archiver.ArchiveResult(ctx, res); err != nil {
		metrics.RecordArchiveError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "archive_error")
		w.logger.Error(ctx, "archive failed for tournament",
			logger.String("sessionID", res.SessionID),
			logger.Error(err),
		)
		return fmt.Errorf("archive tournament %s: %w", res.SessionID, err)
	}

	metrics.RecordResultArchived()
	w.logger.Debug(ctx, "tournament archived",
		logger.String("sessionID", res.SessionID),
		logger.Int("standings", len(res.Standings)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*ArchiveWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 falls back to the
// number of CPUs.
func NewPool(workerCount int, queue Queue, archiver Archiver) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*ArchiveWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewArchiveWorker(
			queue,
			archiver,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits for them to drain.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for all workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}

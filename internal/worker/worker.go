// Package worker runs the long-running stage loops: claim a batch from one
// durable queue, hand each entry to a stage handler concurrently, complete
// or retry based on the outcome, sleep when the queue is empty.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/queue"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
)

// Handler processes one claimed queue entry for a specific stage. A
// returned error causes the entry to be requeued (subject to its own
// attempt budget) rather than marked done.
type Handler interface {
	Handle(ctx context.Context, entry model.QueueEntry) error
}

// Config tunes one Worker's claim/poll/concurrency behavior.
type Config struct {
	// ClaimBatch is how many entries one claim pulls at a time. Default 10.
	ClaimBatch int
	// Concurrency bounds how many entries from one claimed batch are
	// handled at once. Default 5.
	Concurrency int
	// PollInterval is how long the loop sleeps after an empty claim.
	// Default 1s.
	PollInterval time.Duration
	// WorkerID identifies this worker instance in claimed-row bookkeeping
	// and logs. Defaults to a fixed placeholder if unset — callers running
	// more than one worker process should set a unique value.
	WorkerID string
}

func (c Config) withDefaults() Config {
	if c.ClaimBatch <= 0 {
		c.ClaimBatch = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.WorkerID == "" {
		c.WorkerID = "worker-1"
	}
	return c
}

// Worker drains one queue name with one Handler.
type Worker struct {
	queue     *queue.Queue
	queueName model.QueueName
	handler   Handler
	cfg       Config
	log       *zap.Logger
}

// New builds a Worker over queueName, draining it with handler.
func New(q *queue.Queue, queueName model.QueueName, handler Handler, cfg Config, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Worker{
		queue:     q,
		queueName: queueName,
		handler:   handler,
		cfg:       cfg,
		log:       log.With(zap.String("queue", string(queueName)), zap.String("worker_id", cfg.WorkerID)),
	}
}

// Run loops claim->handle->complete/retry until ctx is canceled. On
// cancellation, any entries already claimed finish before Run returns; no
// new claim is attempted once ctx.Err() is non-nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		entries, err := w.queue.Claim(ctx, w.queueName, w.cfg.WorkerID, w.cfg.ClaimBatch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error("worker: claim failed", zap.Error(err))
			if !sleepOrDone(ctx, w.cfg.PollInterval) {
				return nil
			}
			continue
		}

		if len(entries) == 0 {
			if !sleepOrDone(ctx, w.cfg.PollInterval) {
				return nil
			}
			continue
		}

		if err := w.processBatch(ctx, entries); err != nil {
			return err
		}
	}
}

// processBatch hands every entry to the handler concurrently, bounded by
// Concurrency, and never aborts the batch on one entry's failure.
func (w *Worker) processBatch(ctx context.Context, entries []model.QueueEntry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			w.handleOne(gctx, entry)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) handleOne(ctx context.Context, entry model.QueueEntry) {
	log := w.log.With(zap.Int64("entry_id", entry.ID), zap.String("key", string(entry.Key)))

	err := w.handler.Handle(ctx, entry)
	if err == nil {
		if cErr := w.queue.Complete(ctx, entry.ID, w.cfg.WorkerID); cErr != nil {
			log.Error("worker: complete failed", zap.Error(cErr))
		}
		return
	}

	kind, _ := resilience.KindOf(err)
	log.Warn("worker: handler failed, will retry or fail", zap.Error(err), zap.String("kind", string(kind)))
	if fErr := w.queue.FailOrRetry(ctx, entry.ID, w.cfg.WorkerID, err.Error(), string(kind)); fErr != nil {
		log.Error("worker: fail_or_retry failed", zap.Error(fErr))
	}
}

// sleepOrDone waits d or returns false immediately if ctx is canceled first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

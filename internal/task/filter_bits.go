package task

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/hupe1980/segcore/internal/exec"
)

// State is the lifecycle of a filter task.
type State uint32

const (
	// Created is the state before Start.
	Created State = iota
	// Running is the producing state.
	Running
	// Done means every batch was produced and the sentinel enqueued.
	Done
	// Cancelled means a cancel request was observed at a batch
	// boundary.
	Cancelled
	// Failed means an evaluator error was stored.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "created"
	}
}

// FilterBits is the operator driving one compiled filter tree
// batch-by-batch, emitting bool vectors into the bounded queue. It is
// the task: one plan root, one segment, one queue, one producing
// goroutine.
//
// Suspension points are queue operations only; evaluators never
// suspend. Cancellation is cooperative and observed between batches.
type FilterBits struct {
	ectx  *exec.Context
	root  exec.Evaluator
	queue *Queue

	state     atomic.Uint32
	cancelled atomic.Bool

	errMu sync.Mutex
	err   error

	limiter *rate.Limiter
	logger  *slog.Logger

	wg sync.WaitGroup
}

// Option configures a FilterBits task.
type Option func(*FilterBits)

// WithLimiter throttles batch production.
func WithLimiter(l *rate.Limiter) Option {
	return func(f *FilterBits) { f.limiter = l }
}

// WithLogger sets the task logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *FilterBits) { f.logger = l }
}

// NewFilterBits creates the task from a compiled tree and a queue
// depth.
func NewFilterBits(ectx *exec.Context, root exec.Evaluator, queueDepth int, opts ...Option) *FilterBits {
	f := &FilterBits{
		ectx:   ectx,
		root:   root,
		queue:  NewQueue(queueDepth),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current task state.
func (f *FilterBits) State() State { return State(f.state.Load()) }

// Err returns the stored evaluator error, if any.
func (f *FilterBits) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}

// Cancel requests cooperative cancellation; the next batch boundary
// observes it.
func (f *FilterBits) Cancel() { f.cancelled.Store(true) }

// Cursor returns the consumer-side cursor of the task.
func (f *FilterBits) Cursor() *Cursor { return &Cursor{task: f} }

// Start registers the producer and launches the producing goroutine.
func (f *FilterBits) Start(ctx context.Context) {
	f.queue.RegisterProducer()
	f.state.Store(uint32(Running))
	f.wg.Add(1)
	go f.run(ctx)
}

// Wait blocks until the producing goroutine exits.
func (f *FilterBits) Wait() { f.wg.Wait() }

func (f *FilterBits) run(ctx context.Context) {
	defer f.wg.Done()

	var processed int64
	for {
		if f.cancelled.Load() || ctx.Err() != nil {
			f.finish(Cancelled)
			return
		}

		n := f.ectx.NextBatchSize(processed)
		if n == 0 {
			break
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				f.finish(Cancelled)
				return
			}
		}

		res, err := f.root.Eval(n)
		if err != nil {
			f.storeErr(err)
			f.finish(Failed)
			f.logger.Error("filter task failed",
				"processed", processed,
				"error", err,
			)
			return
		}

		if err := f.queue.Enqueue(res); err != nil {
			// The consumer closed the queue under our feet; treat it
			// as a cancel observed at this boundary.
			f.finish(Cancelled)
			return
		}
		processed += int64(n)
	}

	// End-of-stream sentinel decrements the outstanding producers.
	_ = f.queue.Enqueue(nil)
	f.state.Store(uint32(Done))
	f.logger.Debug("filter task done", "rows", processed)
}

func (f *FilterBits) storeErr(err error) {
	f.errMu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.errMu.Unlock()
}

// finish closes the queue for terminal states that will not produce a
// sentinel.
func (f *FilterBits) finish(s State) {
	f.state.Store(uint32(s))
	f.queue.Close()
}

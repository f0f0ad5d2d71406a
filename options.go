package segcore

import "github.com/hupe1980/segcore/internal/resource"

const (
	// DefaultBatchSize is the default maximum rows per produced vector
	// (expression.eval_batch_size).
	DefaultBatchSize = 10000

	// DefaultQueueDepth is the default soft capacity of a task's
	// result queue.
	DefaultQueueDepth = 8
)

type options struct {
	batchSize  int
	simplified bool
	queueDepth int
	logger     *Logger
	controller *resource.Controller
}

func defaultOptions() options {
	return options{
		batchSize:  DefaultBatchSize,
		queueDepth: DefaultQueueDepth,
		logger:     NoopLogger(),
	}
}

// Option configures a filter invocation.
type Option func(*options)

// WithBatchSize sets the maximum rows per produced vector
// (expression.eval_batch_size, default 10000).
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithSimplified permits evaluator simplification passes
// (expression.eval_simplified, default false).
func WithSimplified(enabled bool) Option {
	return func(o *options) { o.simplified = enabled }
}

// WithQueueDepth sets the soft capacity of the task result queue.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}

// WithLogger sets the logger for task lifecycle events.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithController routes the invocation through an admission
// controller bounding concurrent tasks and batch production.
func WithController(c *Controller) Option {
	return func(o *options) { o.controller = c.inner }
}

// Controller bounds concurrently running filter tasks and optionally
// paces their batch production.
type Controller struct {
	inner *resource.Controller
}

// NewController creates an admission controller. maxTasks bounds the
// filter tasks running at once; batchesPerSec throttles batch
// production across the controller (0 = unlimited).
func NewController(maxTasks int64, batchesPerSec float64) *Controller {
	return &Controller{
		inner: resource.NewController(resource.Config{
			MaxConcurrentTasks: maxTasks,
			BatchesPerSec:      batchesPerSec,
		}),
	}
}

package resource

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrTooManyTasks is returned when a non-blocking admission attempt
// finds no free task slot.
var ErrTooManyTasks = errors.New("too many concurrent filter tasks")

// Config holds the admission limits for filter execution.
type Config struct {
	// MaxConcurrentTasks bounds the filter tasks running at once.
	// If 0, defaults to 1.
	MaxConcurrentTasks int64

	// BatchesPerSec throttles batch production across one controller.
	// If 0, unlimited.
	BatchesPerSec float64
}

// Controller admits filter tasks onto the worker pool and optionally
// paces their batch production. A nil controller admits everything.
type Controller struct {
	taskSem *semaphore.Weighted
	limiter *rate.Limiter
}

// NewController creates a controller from the config.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = 1
	}
	c := &Controller{
		taskSem: semaphore.NewWeighted(cfg.MaxConcurrentTasks),
	}
	if cfg.BatchesPerSec > 0 {
		burst := int(cfg.BatchesPerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BatchesPerSec), burst)
	}
	return c
}

// AcquireTask reserves a task slot, blocking until one frees up.
func (c *Controller) AcquireTask(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.taskSem.Acquire(ctx, 1)
}

// TryAcquireTask reserves a task slot without blocking.
func (c *Controller) TryAcquireTask() error {
	if c == nil {
		return nil
	}
	if !c.taskSem.TryAcquire(1) {
		return ErrTooManyTasks
	}
	return nil
}

// ReleaseTask returns a task slot.
func (c *Controller) ReleaseTask() {
	if c == nil {
		return
	}
	c.taskSem.Release(1)
}

// Limiter returns the shared batch limiter, nil when unlimited.
func (c *Controller) Limiter() *rate.Limiter {
	if c == nil {
		return nil
	}
	return c.limiter
}

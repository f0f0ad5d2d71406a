package task

import "github.com/hupe1980/segcore/internal/vector"

// Cursor is the consumer side of a filter task. MoveNext pulls
// batches in emission order; once the stream ends, Err surfaces the
// task's stored error. Closing the cursor before draining requests
// cancellation of the task.
type Cursor struct {
	task    *FilterBits
	drained bool
}

// MoveNext returns the next boolean vector, ok=false at end of
// stream.
func (c *Cursor) MoveNext() (*vector.Bool, bool) {
	vec, ok := c.task.queue.Dequeue()
	if !ok {
		c.drained = true
		return nil, false
	}
	return vec, true
}

// Err returns the task error to rethrow at drain, if any.
func (c *Cursor) Err() error { return c.task.Err() }

// Close cancels the task when the stream was not fully drained.
func (c *Cursor) Close() {
	if !c.drained {
		c.task.Cancel()
		c.task.queue.Close()
	}
}

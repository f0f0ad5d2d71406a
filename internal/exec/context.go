package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// Context is the evaluation context of one filter invocation: the
// segment handle, the query timestamp, the configured batch size, and
// the active row count frozen at construction. All cursor state lives
// in the compiled evaluators, owned by exactly one task.
type Context struct {
	Seg       *segment.Segment
	Timestamp schema.Timestamp
	BatchSize int

	// Active is the row count visible as of Timestamp, frozen when the
	// invocation starts.
	Active int64
}

// NewContext creates an evaluation context.
func NewContext(seg *segment.Segment, ts schema.Timestamp, batchSize int) (*Context, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d must be positive", ErrFatal, batchSize)
	}
	return &Context{
		Seg:       seg,
		Timestamp: ts,
		BatchSize: batchSize,
		Active:    seg.ActiveCount(ts),
	}, nil
}

// NextBatchSize returns min(batchSize, rows remaining) given the rows
// already processed.
func (c *Context) NextBatchSize(processed int64) int {
	remaining := c.Active - processed
	if remaining <= 0 {
		return 0
	}
	if remaining < int64(c.BatchSize) {
		return int(remaining)
	}
	return c.BatchSize
}

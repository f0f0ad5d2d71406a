package segcore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/segcore/bitset"
	"github.com/hupe1980/segcore/internal/exec"
	"github.com/hupe1980/segcore/internal/task"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// FilterBits evaluates the filter tree over the segment as of ts and
// returns a packed bitset of length ActiveCount(ts) where a set bit
// marks a matching row. The result has the delete mask and the
// timestamp-visibility mask already applied; a caller seeing no set
// bit can skip vector search entirely.
//
// Cancellation is cooperative through ctx, observed between batches.
func FilterBits(ctx context.Context, seg *segment.Segment, root plan.Node, ts schema.Timestamp, opts ...Option) (*bitset.Bitset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.controller != nil {
		if err := o.controller.AcquireTask(ctx); err != nil {
			return nil, err
		}
		defer o.controller.ReleaseTask()
	}

	if o.simplified {
		root = plan.Simplify(root)
	}

	ectx, err := exec.NewContext(seg, ts, o.batchSize)
	if err != nil {
		return nil, err
	}
	phys, err := exec.Compile(ectx, root)
	if err != nil {
		return nil, err
	}

	taskOpts := []task.Option{task.WithLogger(o.logger.Logger)}
	if o.controller != nil && o.controller.Limiter() != nil {
		taskOpts = append(taskOpts, task.WithLimiter(o.controller.Limiter()))
	}

	t := task.NewFilterBits(ectx, phys, o.queueDepth, taskOpts...)
	t.Start(ctx)

	cur := t.Cursor()
	defer cur.Close()

	bs := bitset.New(int(ectx.Active))
	for {
		vec, ok := cur.MoveNext()
		if !ok {
			break
		}
		bs.AppendBools(vec.Values)
	}
	t.Wait()

	if err := cur.Err(); err != nil {
		return nil, err
	}
	if t.State() == task.Cancelled {
		if cause := context.Cause(ctx); cause != nil {
			return nil, cause
		}
		return nil, context.Canceled
	}
	if int64(bs.Len()) != ectx.Active {
		return nil, fmt.Errorf("%w: assembled %d bits for %d active rows", ErrFatal, bs.Len(), ectx.Active)
	}

	seg.MaskWithDelete(bs, ectx.Active, ts)
	seg.MaskWithTimestamps(bs, ts)
	return bs, nil
}

// FilterSegments runs the same filter tree over several segments in
// parallel, one task per segment, and returns the per-segment bitsets
// in input order.
func FilterSegments(ctx context.Context, segs []*segment.Segment, root plan.Node, ts schema.Timestamp, opts ...Option) ([]*bitset.Bitset, error) {
	results := make([]*bitset.Bitset, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segs {
		i, seg := i, seg
		g.Go(func() error {
			bs, err := FilterBits(gctx, seg, root, ts, opts...)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			results[i] = bs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

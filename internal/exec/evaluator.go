package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// Evaluator is a physical expression node. Eval produces the
// selection for the next n rows; MoveCursor skips them without
// computing, keeping short-circuited children aligned with their
// siblings. The driver decides n per batch; every node of one tree
// sees the same sequence of n values.
type Evaluator interface {
	Eval(n int) (*vector.Bool, error)
	MoveCursor(n int) error
}

// segExpr is the shared cursor state of leaf evaluators: the current
// chunk and the position inside it, advanced by the rows consumed
// after each batch.
type segExpr struct {
	ctx        *Context
	field      schema.FieldID
	dtype      schema.DataType
	nestedPath []string

	currentChunk   int
	currentPos     int
	processed      int64
	useIndex       bool
	sizePerChunk   int
	indexChunk     int    // chunk id of the cached index result
	indexChunkBits []bool // capability result over that index chunk
}

func newSegExpr(ctx *Context, field schema.FieldID, dtype schema.DataType, useIndex bool) segExpr {
	return segExpr{
		ctx:          ctx,
		field:        field,
		dtype:        dtype,
		useIndex:     useIndex,
		sizePerChunk: ctx.Seg.SizePerChunk(),
		indexChunk:   -1,
	}
}

// advance moves the cursor n logical rows forward. Every chunk except
// the last holds exactly sizePerChunk rows, so plain arithmetic is
// exact for any position the cursor can reach mid-stream.
func (e *segExpr) advance(n int) {
	global := int64(e.currentChunk)*int64(e.sizePerChunk) + int64(e.currentPos) + int64(n)
	e.currentChunk = int(global / int64(e.sizePerChunk))
	e.currentPos = int(global % int64(e.sizePerChunk))
	e.processed += int64(n)
}

// MoveCursor implements the skip path shared by all leaves.
func (e *segExpr) MoveCursor(n int) error {
	e.advance(n)
	return nil
}

// scanChunks drives a data-mode batch: it walks the chunk sequence
// from the cursor, hands each run of values to fn together with the
// matching output window, and advances the cursor by n.
func scanChunks[T any](e *segExpr, n int, fn func(vals []T, out []bool) error) (*vector.Bool, error) {
	res := vector.NewBool(n)
	filled := 0
	chunk, pos := e.currentChunk, e.currentPos

	for filled < n {
		span, err := segment.DataChunk[T](e.ctx.Seg, e.field, chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFatal, err)
		}
		avail := len(span.Data) - pos
		if avail <= 0 {
			return nil, fmt.Errorf("%w: cursor beyond chunk %d", ErrFatal, chunk)
		}
		take := n - filled
		if take > avail {
			take = avail
		}
		if err := fn(span.Data[pos:pos+take], res.Values[filled:filled+take]); err != nil {
			return nil, err
		}
		filled += take
		pos += take
		if pos == e.sizePerChunk {
			chunk++
			pos = 0
		}
	}

	if filled != n {
		return nil, fmt.Errorf("%w: processed %d of %d rows", ErrFatal, filled, n)
	}
	e.advance(n)
	return res, nil
}

// scanIndex drives an index-mode batch: capability is the per-chunk
// query, evaluated once per index chunk and cached, then sliced per
// batch.
func (e *segExpr) scanIndex(n int, capability func(chunk int) ([]bool, error)) (*vector.Bool, error) {
	res := vector.NewBool(n)
	filled := 0
	chunk, pos := e.currentChunk, e.currentPos

	for filled < n {
		if e.indexChunk != chunk {
			bits, err := capability(chunk)
			if err != nil {
				return nil, err
			}
			e.indexChunk = chunk
			e.indexChunkBits = bits
		}
		avail := len(e.indexChunkBits) - pos
		if avail <= 0 {
			return nil, fmt.Errorf("%w: cursor beyond index chunk %d", ErrFatal, chunk)
		}
		take := n - filled
		if take > avail {
			take = avail
		}
		copy(res.Values[filled:filled+take], e.indexChunkBits[pos:pos+take])
		filled += take
		pos += take
		if pos == e.sizePerChunk {
			chunk++
			pos = 0
		}
	}

	e.advance(n)
	return res, nil
}

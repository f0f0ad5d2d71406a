package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// compareExpr evaluates `left_col OP right_col`. Both sides read the
// data path chunk-parallel; when either side is indexed the evaluator
// falls back to a slower per-row typed accessor (the hybrid path).
type compareExpr struct {
	segExpr
	rightField schema.FieldID
	rightType  schema.DataType
	op         plan.CompareOp
	hybrid     bool
}

func newCompare(ctx *Context, node plan.Compare) (Evaluator, error) {
	if node.Op == plan.OpPrefixMatch {
		return nil, fmt.Errorf("%w: prefix match between columns", ErrOpTypeInvalid)
	}

	lt, rt := node.Left.Type, node.Right.Type
	switch {
	case lt.IsNumeric() && rt.IsNumeric():
	case lt == schema.DataTypeVarChar && rt == schema.DataTypeVarChar:
	case lt == schema.DataTypeBool && rt == schema.DataTypeBool:
		if node.Op != plan.OpEqual && node.Op != plan.OpNotEqual {
			return nil, fmt.Errorf("%w: %s between bool columns", ErrOpTypeInvalid, node.Op)
		}
	default:
		return nil, fmt.Errorf("%w: compare %s with %s", ErrTypeInvalid, lt, rt)
	}

	e := &compareExpr{
		segExpr:    newSegExpr(ctx, node.Left.Field, lt, false),
		rightField: node.Right.Field,
		rightType:  rt,
		op:         node.Op,
		hybrid:     ctx.Seg.HasIndex(node.Left.Field) || ctx.Seg.HasIndex(node.Right.Field),
	}
	return e, nil
}

func (e *compareExpr) Eval(n int) (*vector.Bool, error) {
	switch {
	case e.dtype.IsNumeric():
		return e.evalNumeric(n)
	case e.dtype == schema.DataTypeVarChar:
		return e.evalString(n)
	default:
		return e.evalBool(n)
	}
}

// floatLoader returns a reader of one chunk window of the field,
// widened into a float64 buffer.
func floatLoader(ctx *Context, field schema.FieldID, dtype schema.DataType) (func(chunk, pos, take int, dst []float64) error, error) {
	switch dtype {
	case schema.DataTypeInt8:
		return typedFloatLoader[int8](ctx, field), nil
	case schema.DataTypeInt16:
		return typedFloatLoader[int16](ctx, field), nil
	case schema.DataTypeInt32:
		return typedFloatLoader[int32](ctx, field), nil
	case schema.DataTypeInt64:
		return typedFloatLoader[int64](ctx, field), nil
	case schema.DataTypeFloat:
		return typedFloatLoader[float32](ctx, field), nil
	case schema.DataTypeDouble:
		return typedFloatLoader[float64](ctx, field), nil
	default:
		return nil, fmt.Errorf("%w: compare on %s", ErrTypeInvalid, dtype)
	}
}

func typedFloatLoader[T int8 | int16 | int32 | int64 | float32 | float64](ctx *Context, field schema.FieldID) func(chunk, pos, take int, dst []float64) error {
	return func(chunk, pos, take int, dst []float64) error {
		span, err := segment.DataChunk[T](ctx.Seg, field, chunk)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFatal, err)
		}
		if pos+take > len(span.Data) {
			return fmt.Errorf("%w: window beyond chunk %d", ErrFatal, chunk)
		}
		for i := 0; i < take; i++ {
			dst[i] = float64(span.Data[pos+i])
		}
		return nil
	}
}

func (e *compareExpr) evalNumeric(n int) (*vector.Bool, error) {
	left, err := floatLoader(e.ctx, e.field, e.dtype)
	if err != nil {
		return nil, err
	}
	right, err := floatLoader(e.ctx, e.rightField, e.rightType)
	if err != nil {
		return nil, err
	}

	// The hybrid path exists for indexed operands; without raw chunk
	// views it degrades to single-row windows through the same typed
	// accessors.
	window := e.sizePerChunk
	if e.hybrid {
		window = 1
	}

	lbuf := make([]float64, min(window, n))
	rbuf := make([]float64, min(window, n))

	return e.walkPair(n, func(chunk, pos, take int, out []bool) error {
		for done := 0; done < take; {
			step := min(take-done, len(lbuf))
			if err := left(chunk, pos+done, step, lbuf[:step]); err != nil {
				return err
			}
			if err := right(chunk, pos+done, step, rbuf[:step]); err != nil {
				return err
			}
			for i := 0; i < step; i++ {
				out[done+i] = compareFloat64(e.op, lbuf[i], rbuf[i])
			}
			done += step
		}
		return nil
	})
}

func (e *compareExpr) evalString(n int) (*vector.Bool, error) {
	return e.walkPair(n, func(chunk, pos, take int, out []bool) error {
		l, err := segment.DataChunk[string](e.ctx.Seg, e.field, chunk)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFatal, err)
		}
		r, err := segment.DataChunk[string](e.ctx.Seg, e.rightField, chunk)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFatal, err)
		}
		for i := 0; i < take; i++ {
			out[i] = compareString(e.op, l.Data[pos+i], r.Data[pos+i])
		}
		return nil
	})
}

func (e *compareExpr) evalBool(n int) (*vector.Bool, error) {
	eq := e.op == plan.OpEqual
	return e.walkPair(n, func(chunk, pos, take int, out []bool) error {
		l, err := segment.DataChunk[bool](e.ctx.Seg, e.field, chunk)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFatal, err)
		}
		r, err := segment.DataChunk[bool](e.ctx.Seg, e.rightField, chunk)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFatal, err)
		}
		for i := 0; i < take; i++ {
			out[i] = (l.Data[pos+i] == r.Data[pos+i]) == eq
		}
		return nil
	})
}

// walkPair drives one batch across both columns; fields of a segment
// share the chunk geometry, so one cursor covers both sides.
func (e *compareExpr) walkPair(n int, fn func(chunk, pos, take int, out []bool) error) (*vector.Bool, error) {
	res := vector.NewBool(n)
	filled := 0
	chunk, pos := e.currentChunk, e.currentPos

	for filled < n {
		avail := e.sizePerChunk - pos
		remaining := int(e.ctx.Active - e.processed - int64(filled))
		if avail > remaining {
			avail = remaining
		}
		if avail <= 0 {
			return nil, fmt.Errorf("%w: cursor beyond active rows", ErrFatal)
		}
		take := n - filled
		if take > avail {
			take = avail
		}
		if err := fn(chunk, pos, take, res.Values[filled:filled+take]); err != nil {
			return nil, err
		}
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

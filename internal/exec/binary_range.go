package exec

import (
	"fmt"
	"math"

	"github.com/hupe1980/segcore/internal/simd"
	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// binaryRangeExpr evaluates `lo (<|<=) col (<|<=) hi`.
type binaryRangeExpr struct {
	segExpr
	lo, hi         plan.Value
	loIncl, hiIncl bool
}

func newBinaryRange(ctx *Context, node plan.BinaryRange) (Evaluator, error) {
	dtype := node.Column.Type

	switch dtype {
	case schema.DataTypeInt8, schema.DataTypeInt16, schema.DataTypeInt32, schema.DataTypeInt64,
		schema.DataTypeFloat, schema.DataTypeDouble:
		if !node.Lo.IsNumeric() || !node.Hi.IsNumeric() {
			return nil, fmt.Errorf("%w: %s column needs numeric bounds", ErrTypeInvalid, dtype)
		}
	case schema.DataTypeVarChar:
		if node.Lo.Kind != plan.KindString || node.Hi.Kind != plan.KindString {
			return nil, fmt.Errorf("%w: varchar column needs string bounds", ErrTypeInvalid)
		}
	case schema.DataTypeJSON:
		if ctx.Seg.HasIndex(node.Column.Field) {
			return nil, fmt.Errorf("%w: JSON with scalar index", ErrNotImplemented)
		}
	default:
		return nil, fmt.Errorf("%w: binary range on %s", ErrTypeInvalid, dtype)
	}

	useIndex := ctx.Seg.HasIndex(node.Column.Field) && dtype != schema.DataTypeJSON
	e := &binaryRangeExpr{
		segExpr: newSegExpr(ctx, node.Column.Field, dtype, useIndex),
		lo:      node.Lo,
		hi:      node.Hi,
		loIncl:  node.LowerInclusive,
		hiIncl:  node.UpperInclusive,
	}
	e.nestedPath = node.Column.NestedPath
	return e, nil
}

func (e *binaryRangeExpr) Eval(n int) (*vector.Bool, error) {
	switch e.dtype {
	case schema.DataTypeInt8:
		return evalIntBinaryRange[int8](e, n)
	case schema.DataTypeInt16:
		return evalIntBinaryRange[int16](e, n)
	case schema.DataTypeInt32:
		return evalIntBinaryRange[int32](e, n)
	case schema.DataTypeInt64:
		return evalIntBinaryRange[int64](e, n)
	case schema.DataTypeFloat:
		return evalFloatBinaryRange[float32](e, n)
	case schema.DataTypeDouble:
		return evalFloatBinaryRange[float64](e, n)
	case schema.DataTypeVarChar:
		return e.evalString(n)
	case schema.DataTypeJSON:
		return e.evalJSON(n)
	default:
		return nil, fmt.Errorf("%w: binary range on %s", ErrTypeInvalid, e.dtype)
	}
}

// intBound normalises one range bound into the integer domain.
// Fractional bounds tighten onto the enclosing integer and become
// inclusive.
func intBound(v plan.Value, incl bool, lower bool) (int64, bool) {
	if v.Kind == plan.KindInt {
		return v.I64, incl
	}
	f := v.F64
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return int64(f), incl
	}
	if lower {
		return int64(math.Ceil(f)), true
	}
	return int64(math.Floor(f)), true
}

func evalIntBinaryRange[T int8 | int16 | int32 | int64](e *binaryRangeExpr, n int) (*vector.Bool, error) {
	lo, loIncl := intBound(e.lo, e.loIncl, true)
	hi, hiIncl := intBound(e.hi, e.hiIncl, false)

	minVal, maxVal, _ := e.dtype.IntegerBounds()

	// Collapse when the interval misses the column domain entirely.
	if lo > maxVal || (lo == maxVal && !loIncl) {
		return e.constBatch(n, false), nil
	}
	if hi < minVal || (hi == minVal && !hiIncl) {
		return e.constBatch(n, false), nil
	}

	// Clamp the bounds into the domain; clamped bounds are inclusive.
	if lo < minVal {
		lo, loIncl = minVal, true
	}
	if hi > maxVal {
		hi, hiIncl = maxVal, true
	}
	if lo > hi || (lo == hi && !(loIncl && hiIncl)) {
		return e.constBatch(n, false), nil
	}

	tlo, thi := T(lo), T(hi)
	loOp := simd.CmpGt
	if loIncl {
		loOp = simd.CmpGe
	}
	hiOp := simd.CmpLt
	if hiIncl {
		hiOp = simd.CmpLe
	}

	if e.useIndex {
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.Range(tlo, loIncl, thi, hiIncl), nil
		})
	}

	var tmp []bool
	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		if cap(tmp) < len(vals) {
			tmp = make([]bool, len(vals))
		}
		tmp = tmp[:len(vals)]
		simd.Compare(loOp, vals, tlo, out)
		simd.Compare(hiOp, vals, thi, tmp)
		for i := range out {
			out[i] = out[i] && tmp[i]
		}
		return nil
	})
}

func evalFloatBinaryRange[T float32 | float64](e *binaryRangeExpr, n int) (*vector.Bool, error) {
	loF, _ := e.lo.AsFloat64()
	hiF, _ := e.hi.AsFloat64()
	tlo, thi := T(loF), T(hiF)

	loOp := simd.CmpGt
	if e.loIncl {
		loOp = simd.CmpGe
	}
	hiOp := simd.CmpLt
	if e.hiIncl {
		hiOp = simd.CmpLe
	}

	if e.useIndex {
		loIncl, hiIncl := e.loIncl, e.hiIncl
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.Range(tlo, loIncl, thi, hiIncl), nil
		})
	}

	var tmp []bool
	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		if cap(tmp) < len(vals) {
			tmp = make([]bool, len(vals))
		}
		tmp = tmp[:len(vals)]
		simd.Compare(loOp, vals, tlo, out)
		simd.Compare(hiOp, vals, thi, tmp)
		for i := range out {
			out[i] = out[i] && tmp[i]
		}
		return nil
	})
}

func (e *binaryRangeExpr) evalString(n int) (*vector.Bool, error) {
	lo, hi := e.lo.S, e.hi.S

	if e.useIndex {
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[string](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.Range(lo, e.loIncl, hi, e.hiIncl), nil
		})
	}

	loOp := simd.CmpGt
	if e.loIncl {
		loOp = simd.CmpGe
	}
	hiOp := simd.CmpLt
	if e.hiIncl {
		hiOp = simd.CmpLe
	}

	var tmp []bool
	return scanChunks(&e.segExpr, n, func(vals []string, out []bool) error {
		if cap(tmp) < len(vals) {
			tmp = make([]bool, len(vals))
		}
		tmp = tmp[:len(vals)]
		simd.Compare(loOp, vals, lo, out)
		simd.Compare(hiOp, vals, hi, tmp)
		for i := range out {
			out[i] = out[i] && tmp[i]
		}
		return nil
	})
}

func (e *binaryRangeExpr) evalJSON(n int) (*vector.Bool, error) {
	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			out[i] = e.jsonRowInRange(raw)
		}
		return nil
	})
}

func (e *binaryRangeExpr) jsonRowInRange(raw []byte) bool {
	doc, ok := decodeJSONRow(raw)
	if !ok {
		return false
	}
	elem, ok := lookupJSONPath(doc, e.nestedPath)
	if !ok {
		return false
	}

	if e.lo.IsNumeric() && e.hi.IsNumeric() {
		f, ok := jsonAsFloat64(elem)
		if !ok {
			return false
		}
		loF, _ := e.lo.AsFloat64()
		hiF, _ := e.hi.AsFloat64()
		aboveLo := f > loF || (e.loIncl && f == loF)
		belowHi := f < hiF || (e.hiIncl && f == hiF)
		return aboveLo && belowHi
	}

	if e.lo.Kind == plan.KindString && e.hi.Kind == plan.KindString {
		s, ok := jsonAsString(elem)
		if !ok {
			return false
		}
		aboveLo := s > e.lo.S || (e.loIncl && s == e.lo.S)
		belowHi := s < e.hi.S || (e.hiIncl && s == e.hi.S)
		return aboveLo && belowHi
	}

	return false
}

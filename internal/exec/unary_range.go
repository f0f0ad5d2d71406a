package exec

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/segcore/internal/scalarindex"
	"github.com/hupe1980/segcore/internal/simd"
	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// unaryRangeExpr evaluates `col OP const`.
type unaryRangeExpr struct {
	segExpr
	op  plan.CompareOp
	val plan.Value
}

func newUnaryRange(ctx *Context, node plan.UnaryRange) (Evaluator, error) {
	dtype := node.Column.Type
	op := node.Op

	switch dtype {
	case schema.DataTypeBool:
		if op != plan.OpEqual && op != plan.OpNotEqual {
			return nil, fmt.Errorf("%w: %s on bool", ErrOpTypeInvalid, op)
		}
		if node.Val.Kind != plan.KindBool {
			return nil, fmt.Errorf("%w: bool column needs bool literal", ErrTypeInvalid)
		}
	case schema.DataTypeInt8, schema.DataTypeInt16, schema.DataTypeInt32, schema.DataTypeInt64,
		schema.DataTypeFloat, schema.DataTypeDouble:
		if op == plan.OpPrefixMatch {
			return nil, fmt.Errorf("%w: prefix match on %s", ErrOpTypeInvalid, dtype)
		}
		if !node.Val.IsNumeric() {
			return nil, fmt.Errorf("%w: %s column needs numeric literal", ErrTypeInvalid, dtype)
		}
	case schema.DataTypeVarChar:
		if node.Val.Kind != plan.KindString {
			return nil, fmt.Errorf("%w: varchar column needs string literal", ErrTypeInvalid)
		}
	case schema.DataTypeJSON:
		if ctx.Seg.HasIndex(node.Column.Field) {
			return nil, fmt.Errorf("%w: JSON with scalar index", ErrNotImplemented)
		}
		if op == plan.OpPrefixMatch && node.Val.Kind != plan.KindString {
			return nil, fmt.Errorf("%w: prefix match needs string literal", ErrTypeInvalid)
		}
	default:
		return nil, fmt.Errorf("%w: unary range on %s", ErrTypeInvalid, dtype)
	}

	useIndex := ctx.Seg.HasIndex(node.Column.Field) && dtype != schema.DataTypeJSON
	e := &unaryRangeExpr{
		segExpr: newSegExpr(ctx, node.Column.Field, dtype, useIndex),
		op:      op,
		val:     node.Val,
	}
	e.nestedPath = node.Column.NestedPath
	return e, nil
}

func (e *unaryRangeExpr) Eval(n int) (*vector.Bool, error) {
	switch e.dtype {
	case schema.DataTypeBool:
		return e.evalBool(n)
	case schema.DataTypeInt8:
		return evalIntUnary[int8](e, n)
	case schema.DataTypeInt16:
		return evalIntUnary[int16](e, n)
	case schema.DataTypeInt32:
		return evalIntUnary[int32](e, n)
	case schema.DataTypeInt64:
		return evalIntUnary[int64](e, n)
	case schema.DataTypeFloat:
		return evalFloatUnary[float32](e, n)
	case schema.DataTypeDouble:
		return evalFloatUnary[float64](e, n)
	case schema.DataTypeVarChar:
		return e.evalString(n)
	case schema.DataTypeJSON:
		return e.evalJSON(n)
	default:
		return nil, fmt.Errorf("%w: unary range on %s", ErrTypeInvalid, e.dtype)
	}
}

// constBatch produces an all-same batch while keeping the cursor in
// step; boundary-collapsed predicates take this path.
func (e *segExpr) constBatch(n int, v bool) *vector.Bool {
	res := vector.NewBool(n)
	if v {
		for i := range res.Values {
			res.Values[i] = true
		}
	}
	e.advance(n)
	return res
}

func simdOp(op plan.CompareOp) (simd.CmpOp, bool) {
	switch op {
	case plan.OpEqual:
		return simd.CmpEq, true
	case plan.OpNotEqual:
		return simd.CmpNe, true
	case plan.OpLessThan:
		return simd.CmpLt, true
	case plan.OpLessEqual:
		return simd.CmpLe, true
	case plan.OpGreaterThan:
		return simd.CmpGt, true
	case plan.OpGreaterEqual:
		return simd.CmpGe, true
	default:
		return 0, false
	}
}

// collapseInt reduces an out-of-domain int64 literal to a constant
// predicate. A literal above the column domain makes > and >= false
// for every row and < and <= true; symmetric below the domain.
func collapseInt(op plan.CompareOp, v int64, dtype schema.DataType) (constVal, collapsed bool) {
	minVal, maxVal, ok := dtype.IntegerBounds()
	if !ok {
		return false, false
	}
	if v > maxVal {
		switch op {
		case plan.OpGreaterThan, plan.OpGreaterEqual, plan.OpEqual:
			return false, true
		case plan.OpLessThan, plan.OpLessEqual, plan.OpNotEqual:
			return true, true
		}
	}
	if v < minVal {
		switch op {
		case plan.OpLessThan, plan.OpLessEqual, plan.OpEqual:
			return false, true
		case plan.OpGreaterThan, plan.OpGreaterEqual, plan.OpNotEqual:
			return true, true
		}
	}
	return false, false
}

// intLiteral normalises the literal of an integer predicate to an
// int64 plus a possibly rewritten operator. Fractional float literals
// rewrite ordering ops onto the enclosing integers and collapse
// equality.
func intLiteral(op plan.CompareOp, val plan.Value) (int64, plan.CompareOp, constVerdict) {
	if val.Kind == plan.KindInt {
		return val.I64, op, verdictNone
	}

	f := val.F64
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return int64(f), op, verdictNone
	}
	switch op {
	case plan.OpEqual:
		return 0, op, verdictAllFalse
	case plan.OpNotEqual:
		return 0, op, verdictAllTrue
	case plan.OpLessThan, plan.OpLessEqual:
		// col < f  <=>  col <= floor(f) for non-integral f
		return int64(math.Floor(f)), plan.OpLessEqual, verdictNone
	case plan.OpGreaterThan, plan.OpGreaterEqual:
		return int64(math.Ceil(f)), plan.OpGreaterEqual, verdictNone
	default:
		return 0, op, verdictAllFalse
	}
}

type constVerdict uint8

const (
	verdictNone constVerdict = iota
	verdictAllFalse
	verdictAllTrue
)

func evalIntUnary[T int8 | int16 | int32 | int64](e *unaryRangeExpr, n int) (*vector.Bool, error) {
	lit, op, verdict := intLiteral(e.op, e.val)
	switch verdict {
	case verdictAllFalse:
		return e.constBatch(n, false), nil
	case verdictAllTrue:
		return e.constBatch(n, true), nil
	}

	if v, collapsed := collapseInt(op, lit, e.dtype); collapsed {
		return e.constBatch(n, v), nil
	}

	sop, ok := simdOp(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrOpTypeInvalid, op, e.dtype)
	}
	narrowed := T(lit)

	if e.useIndex {
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.RangeOp(narrowed, sop), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		simd.Compare(sop, vals, narrowed, out)
		return nil
	})
}

func evalFloatUnary[T float32 | float64](e *unaryRangeExpr, n int) (*vector.Bool, error) {
	f, _ := e.val.AsFloat64()
	lit := T(f)

	sop, ok := simdOp(e.op)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrOpTypeInvalid, e.op, e.dtype)
	}

	if e.useIndex {
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.RangeOp(lit, sop), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		simd.Compare(sop, vals, lit, out)
		return nil
	})
}

func (e *unaryRangeExpr) evalBool(n int) (*vector.Bool, error) {
	want := e.val.B
	eq := e.op == plan.OpEqual
	return scanChunks(&e.segExpr, n, func(vals []bool, out []bool) error {
		for i, v := range vals {
			out[i] = (v == want) == eq
		}
		return nil
	})
}

func (e *unaryRangeExpr) evalString(n int) (*vector.Bool, error) {
	lit := e.val.S

	if e.op == plan.OpPrefixMatch {
		if e.useIndex {
			return e.scanIndex(n, func(chunk int) ([]bool, error) {
				ix, err := segment.ChunkScalarIndex[string](e.ctx.Seg, e.field, chunk)
				if err != nil {
					return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
				}
				return scalarindex.PrefixQuery(ix, lit), nil
			})
		}
		return scanChunks(&e.segExpr, n, func(vals []string, out []bool) error {
			for i, v := range vals {
				out[i] = strings.HasPrefix(v, lit)
			}
			return nil
		})
	}

	sop, ok := simdOp(e.op)
	if !ok {
		return nil, fmt.Errorf("%w: %s on varchar", ErrOpTypeInvalid, e.op)
	}

	if e.useIndex {
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[string](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.RangeOp(lit, sop), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []string, out []bool) error {
		simd.Compare(sop, vals, lit, out)
		return nil
	})
}

func (e *unaryRangeExpr) evalJSON(n int) (*vector.Bool, error) {
	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			out[i] = e.jsonRowMatches(raw, e.nestedPath)
		}
		return nil
	})
}

func (e *unaryRangeExpr) jsonRowMatches(raw []byte, path []string) bool {
	doc, ok := decodeJSONRow(raw)
	if !ok {
		return false
	}
	elem, ok := lookupJSONPath(doc, path)
	if !ok {
		return false
	}

	switch e.val.Kind {
	case plan.KindInt, plan.KindFloat:
		f, ok := jsonAsFloat64(elem)
		if !ok {
			return false
		}
		lit, _ := e.val.AsFloat64()
		return compareFloat64(e.op, f, lit)
	case plan.KindString:
		s, ok := jsonAsString(elem)
		if !ok {
			return false
		}
		if e.op == plan.OpPrefixMatch {
			return strings.HasPrefix(s, e.val.S)
		}
		return compareString(e.op, s, e.val.S)
	case plan.KindBool:
		b, ok := jsonAsBool(elem)
		if !ok {
			return false
		}
		switch e.op {
		case plan.OpEqual:
			return b == e.val.B
		case plan.OpNotEqual:
			return b != e.val.B
		default:
			return false
		}
	default:
		return false
	}
}

func compareFloat64(op plan.CompareOp, a, b float64) bool {
	switch op {
	case plan.OpEqual:
		return a == b
	case plan.OpNotEqual:
		return a != b
	case plan.OpLessThan:
		return a < b
	case plan.OpLessEqual:
		return a <= b
	case plan.OpGreaterThan:
		return a > b
	case plan.OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

func compareString(op plan.CompareOp, a, b string) bool {
	switch op {
	case plan.OpEqual:
		return a == b
	case plan.OpNotEqual:
		return a != b
	case plan.OpLessThan:
		return a < b
	case plan.OpLessEqual:
		return a <= b
	case plan.OpGreaterThan:
		return a > b
	case plan.OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

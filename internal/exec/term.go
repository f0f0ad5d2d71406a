package exec

import (
	"fmt"
	"math"

	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// termExpr evaluates `col IN set`, plus the is-in-field variant that
// tests membership of a single literal inside a JSON array column.
// The probe set is built once per compiled evaluator; data mode tests
// element-wise against a hash set, index mode routes through the
// scalar index In capability.
type termExpr struct {
	segExpr
	vals      []plan.Value
	isInField bool

	i64Set   map[int64]struct{}
	f64Set   map[float64]struct{}
	strSet   map[string]struct{}
	hasTrue  bool
	hasFalse bool
}

func newTerm(ctx *Context, node plan.Term) (Evaluator, error) {
	dtype := node.Column.Type

	if node.IsInField {
		if dtype != schema.DataTypeJSON {
			return nil, fmt.Errorf("%w: is-in-field needs a JSON column, got %s", ErrExprInvalid, dtype)
		}
		if len(node.Vals) != 1 {
			return nil, fmt.Errorf("%w: is-in-field takes exactly one literal", ErrExprInvalid)
		}
	}

	useIndex := ctx.Seg.HasIndex(node.Column.Field)
	e := &termExpr{
		segExpr:   newSegExpr(ctx, node.Column.Field, dtype, useIndex && dtype != schema.DataTypeJSON),
		vals:      node.Vals,
		isInField: node.IsInField,
	}
	e.nestedPath = node.Column.NestedPath

	switch dtype {
	case schema.DataTypeBool:
		for _, v := range node.Vals {
			b, ok := v.AsBool()
			if !ok {
				return nil, fmt.Errorf("%w: bool column needs bool terms", ErrTypeInvalid)
			}
			e.hasFalse = e.hasFalse || !b
			e.hasTrue = e.hasTrue || b
		}
	case schema.DataTypeInt8, schema.DataTypeInt16, schema.DataTypeInt32, schema.DataTypeInt64:
		e.i64Set = make(map[int64]struct{}, len(node.Vals))
		for _, v := range node.Vals {
			switch v.Kind {
			case plan.KindInt:
				e.i64Set[v.I64] = struct{}{}
			case plan.KindFloat:
				// Fractional terms can never match an integer column.
				if v.F64 == math.Trunc(v.F64) {
					e.i64Set[int64(v.F64)] = struct{}{}
				}
			default:
				return nil, fmt.Errorf("%w: %s column needs numeric terms", ErrTypeInvalid, dtype)
			}
		}
	case schema.DataTypeFloat, schema.DataTypeDouble:
		e.f64Set = make(map[float64]struct{}, len(node.Vals))
		for _, v := range node.Vals {
			f, ok := v.AsFloat64()
			if !ok {
				return nil, fmt.Errorf("%w: %s column needs numeric terms", ErrTypeInvalid, dtype)
			}
			e.f64Set[f] = struct{}{}
		}
	case schema.DataTypeVarChar:
		e.strSet = make(map[string]struct{}, len(node.Vals))
		for _, v := range node.Vals {
			s, ok := v.AsString()
			if !ok {
				return nil, fmt.Errorf("%w: varchar column needs string terms", ErrTypeInvalid)
			}
			e.strSet[s] = struct{}{}
		}
	case schema.DataTypeJSON:
		if useIndex {
			return nil, fmt.Errorf("%w: JSON with scalar index", ErrNotImplemented)
		}
	default:
		return nil, fmt.Errorf("%w: term on %s", ErrTypeInvalid, dtype)
	}

	return e, nil
}

func (e *termExpr) Eval(n int) (*vector.Bool, error) {
	switch e.dtype {
	case schema.DataTypeBool:
		return scanChunks(&e.segExpr, n, func(vals []bool, out []bool) error {
			for i, v := range vals {
				out[i] = (v && e.hasTrue) || (!v && e.hasFalse)
			}
			return nil
		})
	case schema.DataTypeInt8:
		return evalIntTerm[int8](e, n)
	case schema.DataTypeInt16:
		return evalIntTerm[int16](e, n)
	case schema.DataTypeInt32:
		return evalIntTerm[int32](e, n)
	case schema.DataTypeInt64:
		return evalIntTerm[int64](e, n)
	case schema.DataTypeFloat:
		return evalFloatTerm[float32](e, n)
	case schema.DataTypeDouble:
		return evalFloatTerm[float64](e, n)
	case schema.DataTypeVarChar:
		return e.evalString(n)
	case schema.DataTypeJSON:
		return e.evalJSON(n)
	default:
		return nil, fmt.Errorf("%w: term on %s", ErrTypeInvalid, e.dtype)
	}
}

func evalIntTerm[T int8 | int16 | int32 | int64](e *termExpr, n int) (*vector.Bool, error) {
	minVal, maxVal, _ := e.dtype.IntegerBounds()

	if e.useIndex {
		narrowed := make([]T, 0, len(e.i64Set))
		for v := range e.i64Set {
			if v >= minVal && v <= maxVal {
				narrowed = append(narrowed, T(v))
			}
		}
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.In(narrowed), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		for i, v := range vals {
			_, ok := e.i64Set[int64(v)]
			out[i] = ok
		}
		return nil
	})
}

func evalFloatTerm[T float32 | float64](e *termExpr, n int) (*vector.Bool, error) {
	if e.useIndex {
		narrowed := make([]T, 0, len(e.f64Set))
		for v := range e.f64Set {
			narrowed = append(narrowed, T(v))
		}
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[T](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.In(narrowed), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		for i, v := range vals {
			_, ok := e.f64Set[float64(v)]
			out[i] = ok
		}
		return nil
	})
}

func (e *termExpr) evalString(n int) (*vector.Bool, error) {
	if e.useIndex {
		terms := make([]string, 0, len(e.strSet))
		for s := range e.strSet {
			terms = append(terms, s)
		}
		return e.scanIndex(n, func(chunk int) ([]bool, error) {
			ix, err := segment.ChunkScalarIndex[string](e.ctx.Seg, e.field, chunk)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrExprInvalid, err)
			}
			return ix.In(terms), nil
		})
	}

	return scanChunks(&e.segExpr, n, func(vals []string, out []bool) error {
		for i, v := range vals {
			_, ok := e.strSet[v]
			out[i] = ok
		}
		return nil
	})
}

func (e *termExpr) evalJSON(n int) (*vector.Bool, error) {
	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			out[i] = e.jsonRowMatches(raw)
		}
		return nil
	})
}

func (e *termExpr) jsonRowMatches(raw []byte) bool {
	doc, ok := decodeJSONRow(raw)
	if !ok {
		return false
	}
	elem, ok := lookupJSONPath(doc, e.nestedPath)
	if !ok {
		return false
	}

	if e.isInField {
		// The single literal passes when it appears anywhere in the
		// array at the nested path.
		arr, ok := elem.([]any)
		if !ok {
			return false
		}
		for _, item := range arr {
			if jsonValueEqual(item, e.vals[0]) {
				return true
			}
		}
		return false
	}

	for _, v := range e.vals {
		if jsonValueEqual(elem, v) {
			return true
		}
	}
	return false
}

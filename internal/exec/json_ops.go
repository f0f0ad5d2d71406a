package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/internal/simd"
	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
)

// existsExpr selects rows where the JSON location at the nested path
// is present.
type existsExpr struct {
	segExpr
}

func newExists(ctx *Context, node plan.Exists) (Evaluator, error) {
	if node.Column.Type != schema.DataTypeJSON {
		return nil, fmt.Errorf("%w: exists on %s", ErrTypeInvalid, node.Column.Type)
	}
	if ctx.Seg.HasIndex(node.Column.Field) {
		return nil, fmt.Errorf("%w: JSON with scalar index", ErrNotImplemented)
	}
	e := &existsExpr{segExpr: newSegExpr(ctx, node.Column.Field, node.Column.Type, false)}
	e.nestedPath = node.Column.NestedPath
	return e, nil
}

func (e *existsExpr) Eval(n int) (*vector.Bool, error) {
	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			doc, ok := decodeJSONRow(raw)
			if !ok {
				out[i] = false
				continue
			}
			_, found := lookupJSONPath(doc, e.nestedPath)
			out[i] = found
		}
		return nil
	})
}

// jsonContainsExpr selects rows whose JSON array at the nested path
// contains at least one (ContainsAny) or every (ContainsAll) literal.
type jsonContainsExpr struct {
	segExpr
	vals []plan.Value
	all  bool

	// intTerms caches the literal set when every literal is integral,
	// enabling the find_term kernel on integer arrays.
	intTerms []int64
	intOnly  bool
}

func newJSONContains(ctx *Context, node plan.JSONContains) (Evaluator, error) {
	if node.Column.Type != schema.DataTypeJSON {
		return nil, fmt.Errorf("%w: json_contains on %s", ErrTypeInvalid, node.Column.Type)
	}
	if ctx.Seg.HasIndex(node.Column.Field) {
		return nil, fmt.Errorf("%w: JSON with scalar index", ErrNotImplemented)
	}
	if len(node.Vals) == 0 {
		return nil, fmt.Errorf("%w: json_contains with empty literal set", ErrExprInvalid)
	}

	e := &jsonContainsExpr{
		segExpr: newSegExpr(ctx, node.Column.Field, node.Column.Type, false),
		vals:    node.Vals,
		all:     node.All,
		intOnly: true,
	}
	e.nestedPath = node.Column.NestedPath
	for _, v := range node.Vals {
		i, ok := integral(v)
		if !ok {
			e.intOnly = false
			break
		}
		e.intTerms = append(e.intTerms, i)
	}
	return e, nil
}

func (e *jsonContainsExpr) Eval(n int) (*vector.Bool, error) {
	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			out[i] = e.rowContains(raw)
		}
		return nil
	})
}

func (e *jsonContainsExpr) rowContains(raw []byte) bool {
	doc, ok := decodeJSONRow(raw)
	if !ok {
		return false
	}
	elem, ok := lookupJSONPath(doc, e.nestedPath)
	if !ok {
		return false
	}
	arr, ok := elem.([]any)
	if !ok {
		return false
	}

	if e.intOnly {
		if ints, ok := asInt64Array(arr); ok {
			return e.containsInts(ints)
		}
	}

	if e.all {
		for _, lit := range e.vals {
			if !arrayHas(arr, lit) {
				return false
			}
		}
		return true
	}
	for _, lit := range e.vals {
		if arrayHas(arr, lit) {
			return true
		}
	}
	return false
}

func (e *jsonContainsExpr) containsInts(arr []int64) bool {
	if e.all {
		for _, term := range e.intTerms {
			if !simd.FindTerm(arr, term) {
				return false
			}
		}
		return true
	}
	for _, term := range e.intTerms {
		if simd.FindTerm(arr, term) {
			return true
		}
	}
	return false
}

func arrayHas(arr []any, lit plan.Value) bool {
	for _, item := range arr {
		if jsonValueEqual(item, lit) {
			return true
		}
	}
	return false
}

func asInt64Array(arr []any) ([]int64, bool) {
	out := make([]int64, len(arr))
	for i, item := range arr {
		v, ok := jsonAsInt64(item)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

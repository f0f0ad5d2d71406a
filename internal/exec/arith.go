package exec

import (
	"fmt"
	"math"

	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
)

// binaryArithExpr evaluates `(col ARITH operand) OP val` with OP
// restricted to equality operators. Division or modulo by zero makes
// the row false, it is not an error. Arithmetic always runs on the
// data path.
type binaryArithExpr struct {
	segExpr
	arith   plan.ArithOp
	operand plan.Value
	val     plan.Value
	op      plan.CompareOp
}

func newBinaryArith(ctx *Context, node plan.BinaryArith) (Evaluator, error) {
	if node.Op != plan.OpEqual && node.Op != plan.OpNotEqual {
		return nil, fmt.Errorf("%w: arith compare must be == or !=, got %s", ErrOpTypeInvalid, node.Op)
	}

	dtype := node.Column.Type
	switch dtype {
	case schema.DataTypeInt8, schema.DataTypeInt16, schema.DataTypeInt32, schema.DataTypeInt64,
		schema.DataTypeFloat, schema.DataTypeDouble, schema.DataTypeJSON:
	default:
		return nil, fmt.Errorf("%w: arith range on %s", ErrTypeInvalid, dtype)
	}
	if !node.Operand.IsNumeric() || !node.Val.IsNumeric() {
		return nil, fmt.Errorf("%w: arith range needs numeric operand and value", ErrTypeInvalid)
	}
	if node.Arith == plan.OpMod {
		if dtype.IsFloating() {
			return nil, fmt.Errorf("%w: %% on %s", ErrOpTypeInvalid, dtype)
		}
		if node.Operand.Kind == plan.KindFloat && node.Operand.F64 != math.Trunc(node.Operand.F64) {
			return nil, fmt.Errorf("%w: %% needs an integer operand", ErrOpTypeInvalid)
		}
	}

	e := &binaryArithExpr{
		segExpr: newSegExpr(ctx, node.Column.Field, dtype, false),
		arith:   node.Arith,
		operand: node.Operand,
		val:     node.Val,
		op:      node.Op,
	}
	e.nestedPath = node.Column.NestedPath
	return e, nil
}

func (e *binaryArithExpr) Eval(n int) (*vector.Bool, error) {
	switch e.dtype {
	case schema.DataTypeInt8:
		return evalIntArith[int8](e, n)
	case schema.DataTypeInt16:
		return evalIntArith[int16](e, n)
	case schema.DataTypeInt32:
		return evalIntArith[int32](e, n)
	case schema.DataTypeInt64:
		return evalIntArith[int64](e, n)
	case schema.DataTypeFloat:
		return evalFloatArith[float32](e, n)
	case schema.DataTypeDouble:
		return evalFloatArith[float64](e, n)
	case schema.DataTypeJSON:
		return e.evalJSON(n)
	default:
		return nil, fmt.Errorf("%w: arith range on %s", ErrTypeInvalid, e.dtype)
	}
}

// integral reports whether the value is an integer or an integral
// float, and returns it as int64.
func integral(v plan.Value) (int64, bool) {
	switch v.Kind {
	case plan.KindInt:
		return v.I64, true
	case plan.KindFloat:
		if v.F64 == math.Trunc(v.F64) && v.F64 >= math.MinInt64 && v.F64 <= math.MaxInt64 {
			return int64(v.F64), true
		}
	}
	return 0, false
}

// applyIntArith computes col ARITH operand in the int64 domain.
// ok=false marks rows poisoned by division by zero.
func applyIntArith(arith plan.ArithOp, col, operand int64) (int64, bool) {
	switch arith {
	case plan.OpAdd:
		return col + operand, true
	case plan.OpSub:
		return col - operand, true
	case plan.OpMul:
		return col * operand, true
	case plan.OpDiv:
		if operand == 0 {
			return 0, false
		}
		return col / operand, true
	case plan.OpMod:
		if operand == 0 {
			return 0, false
		}
		return col % operand, true
	default:
		return 0, false
	}
}

func applyFloatArith(arith plan.ArithOp, col, operand float64) (float64, bool) {
	switch arith {
	case plan.OpAdd:
		return col + operand, true
	case plan.OpSub:
		return col - operand, true
	case plan.OpMul:
		return col * operand, true
	case plan.OpDiv:
		if operand == 0 {
			return 0, false
		}
		return col / operand, true
	default:
		return 0, false
	}
}

func evalIntArith[T int8 | int16 | int32 | int64](e *binaryArithExpr, n int) (*vector.Bool, error) {
	eq := e.op == plan.OpEqual

	operandI, operandOK := integral(e.operand)
	valI, valOK := integral(e.val)

	// Integer columns stay in the int64 domain when both constants are
	// integral; otherwise the row math runs in float64.
	if operandOK && valOK {
		return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
			for i, v := range vals {
				r, ok := applyIntArith(e.arith, int64(v), operandI)
				out[i] = ok && (r == valI) == eq
			}
			return nil
		})
	}

	if e.arith == plan.OpMod {
		// A fractional compare value can never equal an integral
		// modulo result; a zero operand still makes every row false.
		operandF, _ := e.operand.AsFloat64()
		return e.constBatch(n, !eq && operandF != 0), nil
	}

	operandF, _ := e.operand.AsFloat64()
	valF, _ := e.val.AsFloat64()
	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		for i, v := range vals {
			r, ok := applyFloatArith(e.arith, float64(v), operandF)
			out[i] = ok && (r == valF) == eq
		}
		return nil
	})
}

func evalFloatArith[T float32 | float64](e *binaryArithExpr, n int) (*vector.Bool, error) {
	eq := e.op == plan.OpEqual
	operandF, _ := e.operand.AsFloat64()
	valF, _ := e.val.AsFloat64()

	return scanChunks(&e.segExpr, n, func(vals []T, out []bool) error {
		for i, v := range vals {
			r, ok := applyFloatArith(e.arith, float64(v), operandF)
			out[i] = ok && (r == valF) == eq
		}
		return nil
	})
}

func (e *binaryArithExpr) evalJSON(n int) (*vector.Bool, error) {
	eq := e.op == plan.OpEqual
	operandF, _ := e.operand.AsFloat64()
	valF, _ := e.val.AsFloat64()
	operandI, operandIntOK := integral(e.operand)
	valI, valIntOK := integral(e.val)

	return scanChunks(&e.segExpr, n, func(vals [][]byte, out []bool) error {
		for i, raw := range vals {
			out[i] = false
			doc, ok := decodeJSONRow(raw)
			if !ok {
				continue
			}
			elem, ok := lookupJSONPath(doc, e.nestedPath)
			if !ok {
				continue
			}

			if e.arith == plan.OpMod {
				// Modulo stays integral; non-integral rows are false.
				colI, ok := jsonAsInt64(elem)
				if !ok || !operandIntOK || !valIntOK {
					continue
				}
				r, ok := applyIntArith(plan.OpMod, colI, operandI)
				out[i] = ok && (r == valI) == eq
				continue
			}

			f, ok := jsonAsFloat64(elem)
			if !ok {
				continue
			}
			r, ok := applyFloatArith(e.arith, f, operandF)
			out[i] = ok && (r == valF) == eq
		}
		return nil
	})
}

package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/plan"
)

// Compile lowers a logical tree into its physical evaluator. Leaves
// pick index or data mode here, once per invocation; the choice never
// changes mid-query.
func Compile(ctx *Context, node plan.Node) (Evaluator, error) {
	switch t := node.(type) {
	case plan.AlwaysTrue:
		return &alwaysTrueExpr{}, nil
	case plan.UnaryRange:
		return newUnaryRange(ctx, t)
	case plan.BinaryRange:
		return newBinaryRange(ctx, t)
	case plan.Term:
		return newTerm(ctx, t)
	case plan.BinaryArith:
		return newBinaryArith(ctx, t)
	case plan.Compare:
		return newCompare(ctx, t)
	case plan.Exists:
		return newExists(ctx, t)
	case plan.JSONContains:
		return newJSONContains(ctx, t)
	case plan.Not:
		child, err := Compile(ctx, t.Child)
		if err != nil {
			return nil, err
		}
		return &notExpr{child: child}, nil
	case plan.LogicalBinary:
		left, err := Compile(ctx, t.Left)
		if err != nil {
			return nil, err
		}
		right, err := Compile(ctx, t.Right)
		if err != nil {
			return nil, err
		}
		return &logicalBinaryExpr{op: t.Op, left: left, right: right}, nil
	case plan.Conjunction:
		if len(t.Children) == 0 {
			return nil, fmt.Errorf("%w: empty conjunction", ErrExprInvalid)
		}
		children, err := compileAll(ctx, t.Children)
		if err != nil {
			return nil, err
		}
		return &conjunctionExpr{children: children}, nil
	case plan.Disjunction:
		if len(t.Children) == 0 {
			return nil, fmt.Errorf("%w: empty disjunction", ErrExprInvalid)
		}
		children, err := compileAll(ctx, t.Children)
		if err != nil {
			return nil, err
		}
		return &disjunctionExpr{children: children}, nil
	case nil:
		return nil, fmt.Errorf("%w: nil node", ErrExprInvalid)
	default:
		return nil, fmt.Errorf("%w: unknown node %T", ErrExprInvalid, node)
	}
}

func compileAll(ctx *Context, nodes []plan.Node) ([]Evaluator, error) {
	out := make([]Evaluator, 0, len(nodes))
	for _, n := range nodes {
		e, err := Compile(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

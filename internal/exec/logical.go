package exec

import (
	"fmt"

	"github.com/hupe1980/segcore/internal/vector"
	"github.com/hupe1980/segcore/plan"
)

// alwaysTrueExpr selects every row of the batch.
type alwaysTrueExpr struct {
	processed int64
}

func (e *alwaysTrueExpr) Eval(n int) (*vector.Bool, error) {
	res := vector.NewBool(n)
	for i := range res.Values {
		res.Values[i] = true
	}
	e.processed += int64(n)
	return res, nil
}

func (e *alwaysTrueExpr) MoveCursor(n int) error {
	e.processed += int64(n)
	return nil
}

// notExpr inverts its child.
type notExpr struct {
	child Evaluator
}

func (e *notExpr) Eval(n int) (*vector.Bool, error) {
	res, err := e.child.Eval(n)
	if err != nil {
		return nil, err
	}
	res.Not()
	return res, nil
}

func (e *notExpr) MoveCursor(n int) error { return e.child.MoveCursor(n) }

// logicalBinaryExpr evaluates both children and applies the bitwise
// operator into the left result.
type logicalBinaryExpr struct {
	op          plan.LogicalOp
	left, right Evaluator
}

func (e *logicalBinaryExpr) Eval(n int) (*vector.Bool, error) {
	left, err := e.left.Eval(n)
	if err != nil {
		return nil, err
	}
	right, err := e.right.Eval(n)
	if err != nil {
		return nil, err
	}

	switch e.op {
	case plan.OpAnd:
		left.And(right)
	case plan.OpOr:
		left.Or(right)
	case plan.OpXor:
		left.Xor(right)
	case plan.OpMinus:
		left.Minus(right)
	default:
		return nil, fmt.Errorf("%w: logical op %d", ErrOpTypeInvalid, e.op)
	}
	return left, nil
}

func (e *logicalBinaryExpr) MoveCursor(n int) error {
	if err := e.left.MoveCursor(n); err != nil {
		return err
	}
	return e.right.MoveCursor(n)
}

// conjunctionExpr is the n-ary AND. As soon as a child batch comes
// back all-false the remaining children skip the batch via MoveCursor.
type conjunctionExpr struct {
	children []Evaluator
}

func (e *conjunctionExpr) Eval(n int) (*vector.Bool, error) {
	var acc *vector.Bool
	for i, child := range e.children {
		if acc != nil && acc.AllFalse() {
			if err := child.MoveCursor(n); err != nil {
				return nil, err
			}
			continue
		}
		res, err := child.Eval(n)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = res
			continue
		}
		acc.And(res)
	}
	return acc, nil
}

func (e *conjunctionExpr) MoveCursor(n int) error {
	for _, child := range e.children {
		if err := child.MoveCursor(n); err != nil {
			return err
		}
	}
	return nil
}

// disjunctionExpr is the n-ary OR with the all-true short-circuit.
type disjunctionExpr struct {
	children []Evaluator
}

func (e *disjunctionExpr) Eval(n int) (*vector.Bool, error) {
	var acc *vector.Bool
	for i, child := range e.children {
		if acc != nil && acc.AllTrue() {
			if err := child.MoveCursor(n); err != nil {
				return nil, err
			}
			continue
		}
		res, err := child.Eval(n)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = res
			continue
		}
		acc.Or(res)
	}
	return acc, nil
}

func (e *disjunctionExpr) MoveCursor(n int) error {
	for _, child := range e.children {
		if err := child.MoveCursor(n); err != nil {
			return err
		}
	}
	return nil
}

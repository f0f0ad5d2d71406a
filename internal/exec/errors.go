package exec

import "errors"

// Evaluation errors are fatal to the task that raised them: the task
// stores the first error, closes its queue, and the consumer rethrows
// at drain. No evaluator recovers locally and there is no
// partial-batch result.
var (
	// ErrTypeInvalid marks a datatype not supported by the operator
	// family.
	ErrTypeInvalid = errors.New("invalid data type")
	// ErrOpTypeInvalid marks an operator code not supported for this
	// family or type.
	ErrOpTypeInvalid = errors.New("invalid operator for type")
	// ErrExprInvalid marks structural problems in the expression.
	ErrExprInvalid = errors.New("invalid expression")
	// ErrNotImplemented marks a recognised but unsupported combination.
	ErrNotImplemented = errors.New("not implemented")
	// ErrFatal marks violated assertions, e.g. a non-positive batch
	// size or a processed-row postcondition.
	ErrFatal = errors.New("fatal")
)

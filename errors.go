package segcore

import "github.com/hupe1980/segcore/internal/exec"

// Error taxonomy of the evaluators, re-exported for errors.Is checks
// at the call site. Messages carry the offending type and operator
// codes.
var (
	// ErrTypeInvalid marks a datatype not supported by the operator
	// family.
	ErrTypeInvalid = exec.ErrTypeInvalid
	// ErrOpTypeInvalid marks an operator code not supported for this
	// family or type.
	ErrOpTypeInvalid = exec.ErrOpTypeInvalid
	// ErrExprInvalid marks structural problems in the expression tree.
	ErrExprInvalid = exec.ErrExprInvalid
	// ErrNotImplemented marks a recognised but unsupported combination.
	ErrNotImplemented = exec.ErrNotImplemented
	// ErrFatal marks violated assertions.
	ErrFatal = exec.ErrFatal
)

package plan

import "github.com/hupe1980/segcore/schema"

// CompareOp is the comparison operator of a range or compare node.
type CompareOp uint8

const (
	// OpEqual represents the equality operator.
	OpEqual CompareOp = iota
	// OpNotEqual represents the inequality operator.
	OpNotEqual
	// OpLessThan represents the less than operator.
	OpLessThan
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual
	// OpPrefixMatch represents the string prefix match operator.
	OpPrefixMatch
)

// String returns the operator symbol.
func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpPrefixMatch:
		return "prefix_match"
	default:
		return "?"
	}
}

// ArithOp is the arithmetic operator of a BinaryArith node.
type ArithOp uint8

const (
	// OpAdd represents addition.
	OpAdd ArithOp = iota
	// OpSub represents subtraction.
	OpSub
	// OpMul represents multiplication.
	OpMul
	// OpDiv represents division.
	OpDiv
	// OpMod represents modulo.
	OpMod
)

// String returns the operator symbol.
func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	default:
		return "?"
	}
}

// LogicalOp combines two boolean children.
type LogicalOp uint8

const (
	// OpAnd is the logical conjunction operator.
	OpAnd LogicalOp = iota
	// OpOr is the logical disjunction operator.
	OpOr
	// OpXor is the logical exclusive-or operator.
	OpXor
	// OpMinus clears left rows selected by the right child.
	OpMinus
)

// String returns the operator name.
func (op LogicalOp) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpMinus:
		return "minus"
	default:
		return "?"
	}
}

// ColumnInfo names the column an expression leaf reads.
type ColumnInfo struct {
	Field schema.FieldID
	Type  schema.DataType

	// NestedPath addresses a location inside a JSON document, one path
	// element per level.
	NestedPath []string
}

// Node is a logical expression tree node. The tree is a pure
// description; compilation produces the physical evaluators. The root
// of a filter tree is always boolean-typed.
type Node interface {
	isNode()
}

// AlwaysTrue selects every row.
type AlwaysTrue struct{}

// UnaryRange is `col OP const`.
type UnaryRange struct {
	Column ColumnInfo
	Op     CompareOp
	Val    Value
}

// BinaryRange is `lo (<|<=) col (<|<=) hi`.
type BinaryRange struct {
	Column         ColumnInfo
	Lo, Hi         Value
	LowerInclusive bool
	UpperInclusive bool
}

// Term is `col IN set`. With IsInField set, the single element of Vals
// is tested for membership in the JSON array at the column's nested
// path.
type Term struct {
	Column    ColumnInfo
	Vals      []Value
	IsInField bool
}

// BinaryArith is `(col ARITH operand) OP val`; OP is restricted to
// equality operators.
type BinaryArith struct {
	Column  ColumnInfo
	Arith   ArithOp
	Operand Value
	Op      CompareOp
	Val     Value
}

// Compare is `left_col OP right_col`.
type Compare struct {
	Left  ColumnInfo
	Right ColumnInfo
	Op    CompareOp
}

// Exists selects rows where the JSON location at the column's nested
// path is present.
type Exists struct {
	Column ColumnInfo
}

// JSONContains selects rows whose JSON array at the nested path
// contains at least one (All=false) or every (All=true) literal.
type JSONContains struct {
	Column ColumnInfo
	Vals   []Value
	All    bool
}

// LogicalBinary combines two children with a bitwise boolean operator.
type LogicalBinary struct {
	Op    LogicalOp
	Left  Node
	Right Node
}

// Not inverts its child.
type Not struct {
	Child Node
}

// Conjunction is the n-ary AND of its children. Evaluation
// short-circuits as soon as a child batch comes back all-false.
type Conjunction struct {
	Children []Node
}

// Disjunction is the n-ary OR of its children. Evaluation
// short-circuits as soon as a child batch comes back all-true.
type Disjunction struct {
	Children []Node
}

func (AlwaysTrue) isNode()    {}
func (UnaryRange) isNode()    {}
func (BinaryRange) isNode()   {}
func (Term) isNode()          {}
func (BinaryArith) isNode()   {}
func (Compare) isNode()       {}
func (Exists) isNode()        {}
func (JSONContains) isNode()  {}
func (LogicalBinary) isNode() {}
func (Not) isNode()           {}
func (Conjunction) isNode()   {}
func (Disjunction) isNode()   {}

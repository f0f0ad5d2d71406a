package schema

import "math"

// DataType identifies the element type of a field.
type DataType uint8

const (
	// DataTypeNone is the zero value; no field carries it.
	DataTypeNone DataType = iota
	// DataTypeBool is a boolean field.
	DataTypeBool
	// DataTypeInt8 is an 8-bit signed integer field.
	DataTypeInt8
	// DataTypeInt16 is a 16-bit signed integer field.
	DataTypeInt16
	// DataTypeInt32 is a 32-bit signed integer field.
	DataTypeInt32
	// DataTypeInt64 is a 64-bit signed integer field.
	DataTypeInt64
	// DataTypeFloat is a 32-bit floating point field.
	DataTypeFloat
	// DataTypeDouble is a 64-bit floating point field.
	DataTypeDouble
	// DataTypeVarChar is a variable-length string field.
	DataTypeVarChar
	// DataTypeJSON is a field holding one JSON document per row.
	DataTypeJSON
	// DataTypeArray is a typed array field.
	DataTypeArray
	// DataTypeRow is a heterogeneous row field.
	DataTypeRow
	// DataTypeVectorFloat is a dense float vector field.
	DataTypeVectorFloat
	// DataTypeVectorBinary is a binary vector field.
	DataTypeVectorBinary
)

// String returns the lowercase name of the data type.
func (t DataType) String() string {
	switch t {
	case DataTypeBool:
		return "bool"
	case DataTypeInt8:
		return "int8"
	case DataTypeInt16:
		return "int16"
	case DataTypeInt32:
		return "int32"
	case DataTypeInt64:
		return "int64"
	case DataTypeFloat:
		return "float"
	case DataTypeDouble:
		return "double"
	case DataTypeVarChar:
		return "varchar"
	case DataTypeJSON:
		return "json"
	case DataTypeArray:
		return "array"
	case DataTypeRow:
		return "row"
	case DataTypeVectorFloat:
		return "vector_float"
	case DataTypeVectorBinary:
		return "vector_binary"
	default:
		return "none"
	}
}

// IsInteger reports whether the type is a signed integer type.
func (t DataType) IsInteger() bool {
	switch t {
	case DataTypeInt8, DataTypeInt16, DataTypeInt32, DataTypeInt64:
		return true
	default:
		return false
	}
}

// IsFloating reports whether the type is a floating point type.
func (t DataType) IsFloating() bool {
	return t == DataTypeFloat || t == DataTypeDouble
}

// IsNumeric reports whether the type is an integer or floating type.
func (t DataType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloating()
}

// IsVector reports whether the type is a vector type.
func (t DataType) IsVector() bool {
	return t == DataTypeVectorFloat || t == DataTypeVectorBinary
}

// IntegerBounds returns the inclusive [min, max] domain of an integer
// type, both widened to int64. ok is false for non-integer types.
func (t DataType) IntegerBounds() (minVal, maxVal int64, ok bool) {
	switch t {
	case DataTypeInt8:
		return math.MinInt8, math.MaxInt8, true
	case DataTypeInt16:
		return math.MinInt16, math.MaxInt16, true
	case DataTypeInt32:
		return math.MinInt32, math.MaxInt32, true
	case DataTypeInt64:
		return math.MinInt64, math.MaxInt64, true
	default:
		return 0, 0, false
	}
}

// FieldID identifies a field within a collection schema.
type FieldID int64

// Timestamp is a monotonic, totally ordered logical timestamp.
type Timestamp uint64

// MaxTimestamp is the largest timestamp; queries at MaxTimestamp see
// every row.
const MaxTimestamp Timestamp = math.MaxUint64

// Field describes one field of a segment schema.
type Field struct {
	ID   FieldID
	Name string
	Type DataType
}

// Schema is the ordered field set shared by all rows of a segment.
type Schema struct {
	Fields []Field

	byID map[FieldID]int
}

// New creates a schema from the given fields.
func New(fields ...Field) *Schema {
	s := &Schema{
		Fields: fields,
		byID:   make(map[FieldID]int, len(fields)),
	}
	for i, f := range fields {
		s.byID[f.ID] = i
	}
	return s
}

// Field returns the field with the given id.
func (s *Schema) Field(id FieldID) (Field, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// DataType returns the data type of the field with the given id, or
// DataTypeNone when the field does not exist.
func (s *Schema) DataType(id FieldID) DataType {
	f, ok := s.Field(id)
	if !ok {
		return DataTypeNone
	}
	return f.Type
}

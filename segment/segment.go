package segment

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segcore/bitset"
	"github.com/hupe1980/segcore/internal/column"
	"github.com/hupe1980/segcore/internal/scalarindex"
	"github.com/hupe1980/segcore/schema"
)

// Type distinguishes the two segment states.
type Type uint8

const (
	// Growing segments are mutable with many small chunks and no index.
	Growing Type = iota
	// Sealed segments are immutable with a single logical data chunk
	// per field, or a scalar index.
	Sealed
)

// String returns the segment type name.
func (t Type) String() string {
	if t == Sealed {
		return "sealed"
	}
	return "growing"
}

var (
	// ErrFieldNotFound is returned when a field id is unknown.
	ErrFieldNotFound = errors.New("field not found")
	// ErrFieldTypeMismatch is returned when chunk data is requested
	// with the wrong element type.
	ErrFieldTypeMismatch = errors.New("field type mismatch")
	// ErrNoIndex is returned when an indexed read targets an unindexed
	// field.
	ErrNoIndex = errors.New("field has no scalar index")
	// ErrSealed is returned for mutations on sealed segments.
	ErrSealed = errors.New("segment is sealed")
	// ErrNonMonotonicTimestamps is returned when an insert batch would
	// break timestamp ordering.
	ErrNonMonotonicTimestamps = errors.New("timestamps must be monotonic")
	// ErrRowCountMismatch is returned when insert columns disagree on
	// the row count.
	ErrRowCountMismatch = errors.New("insert columns disagree on row count")
)

type deleteRecord struct {
	row int64
	ts  schema.Timestamp
}

// Segment is a contiguous set of rows with shared schema and a
// monotone insert timestamp.
//
// Concurrency: many readers + single writer. Column reads are
// lock-free on the published chunk lists; only delete bookkeeping
// takes a short latch.
type Segment struct {
	typ          Type
	sch          *schema.Schema
	sizePerChunk int

	// cols maps field id to its typed *column.Chunked[T].
	cols map[schema.FieldID]any
	// indexes maps field id to per-chunk typed *scalarindex.Index[T].
	indexes map[schema.FieldID][]any

	timestamps *column.Chunked[schema.Timestamp]

	delMu      sync.RWMutex
	deletes    []deleteRecord
	deletedSet *roaring.Bitmap
}

// NewGrowing creates an empty growing segment.
func NewGrowing(sch *schema.Schema, sizePerChunk int) (*Segment, error) {
	s := &Segment{
		typ:          Growing,
		sch:          sch,
		sizePerChunk: sizePerChunk,
		cols:         make(map[schema.FieldID]any, len(sch.Fields)),
		indexes:      make(map[schema.FieldID][]any),
		timestamps:   column.NewChunked[schema.Timestamp](sizePerChunk),
		deletedSet:   roaring.New(),
	}
	for _, f := range sch.Fields {
		col, err := newColumnFor(f.Type, sizePerChunk)
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", f.ID, f.Name, err)
		}
		s.cols[f.ID] = col
	}
	return s, nil
}

func newColumnFor(t schema.DataType, sizePerChunk int) (any, error) {
	switch t {
	case schema.DataTypeBool:
		return column.NewChunked[bool](sizePerChunk), nil
	case schema.DataTypeInt8:
		return column.NewChunked[int8](sizePerChunk), nil
	case schema.DataTypeInt16:
		return column.NewChunked[int16](sizePerChunk), nil
	case schema.DataTypeInt32:
		return column.NewChunked[int32](sizePerChunk), nil
	case schema.DataTypeInt64:
		return column.NewChunked[int64](sizePerChunk), nil
	case schema.DataTypeFloat:
		return column.NewChunked[float32](sizePerChunk), nil
	case schema.DataTypeDouble:
		return column.NewChunked[float64](sizePerChunk), nil
	case schema.DataTypeVarChar:
		return column.NewChunked[string](sizePerChunk), nil
	case schema.DataTypeJSON:
		return column.NewChunked[[]byte](sizePerChunk), nil
	default:
		return nil, fmt.Errorf("unsupported scalar data type %s", t)
	}
}

// Type returns Growing or Sealed.
func (s *Segment) Type() Type { return s.typ }

// Schema returns the segment schema.
func (s *Segment) Schema() *schema.Schema { return s.sch }

// SizePerChunk returns the fixed chunk size of the segment.
func (s *Segment) SizePerChunk() int { return s.sizePerChunk }

// RowCount returns the number of fully inserted rows.
func (s *Segment) RowCount() int64 { return s.timestamps.Rows() }

// ActiveCount returns the number of rows visible as of ts. Insert
// timestamps are monotone, so the visible rows form a prefix.
func (s *Segment) ActiveCount(ts schema.Timestamp) int64 {
	rows := s.timestamps.Rows()
	if rows == 0 {
		return 0
	}
	// First row with insert timestamp beyond ts.
	return int64(sort.Search(int(rows), func(i int) bool {
		t, err := s.timestamps.Get(int64(i))
		if err != nil {
			return true
		}
		return t > ts
	}))
}

// InsertData is one batch of rows across all schema fields.
type InsertData struct {
	// Timestamps carries one monotone timestamp per row.
	Timestamps []schema.Timestamp
	// Columns maps field id to a typed slice: []bool, []int8, []int16,
	// []int32, []int64, []float32, []float64, []string or [][]byte.
	Columns map[schema.FieldID]any
}

// Insert appends a batch of rows. Rows become reader-visible only
// after every column has absorbed them.
func (s *Segment) Insert(data InsertData) error {
	if s.typ != Growing {
		return ErrSealed
	}
	n := len(data.Timestamps)
	if n == 0 {
		return nil
	}

	last := schema.Timestamp(0)
	if rows := s.timestamps.Rows(); rows > 0 {
		last, _ = s.timestamps.Get(rows - 1)
	}
	for _, ts := range data.Timestamps {
		if ts < last {
			return ErrNonMonotonicTimestamps
		}
		last = ts
	}

	for _, f := range s.sch.Fields {
		vals, ok := data.Columns[f.ID]
		if !ok {
			return fmt.Errorf("%w: field %d missing from insert", ErrRowCountMismatch, f.ID)
		}
		if err := appendTyped(s.cols[f.ID], vals, n); err != nil {
			return fmt.Errorf("field %d: %w", f.ID, err)
		}
	}

	// Publishing the timestamps last makes the rows visible.
	s.timestamps.Append(data.Timestamps)
	return nil
}

func appendTyped(col, vals any, n int) error {
	switch c := col.(type) {
	case *column.Chunked[bool]:
		return appendSlice(c, vals, n)
	case *column.Chunked[int8]:
		return appendSlice(c, vals, n)
	case *column.Chunked[int16]:
		return appendSlice(c, vals, n)
	case *column.Chunked[int32]:
		return appendSlice(c, vals, n)
	case *column.Chunked[int64]:
		return appendSlice(c, vals, n)
	case *column.Chunked[float32]:
		return appendSlice(c, vals, n)
	case *column.Chunked[float64]:
		return appendSlice(c, vals, n)
	case *column.Chunked[string]:
		return appendSlice(c, vals, n)
	case *column.Chunked[[]byte]:
		return appendSlice(c, vals, n)
	default:
		return ErrFieldTypeMismatch
	}
}

func appendSlice[T any](c *column.Chunked[T], vals any, n int) error {
	typed, ok := vals.([]T)
	if !ok {
		return ErrFieldTypeMismatch
	}
	if len(typed) != n {
		return ErrRowCountMismatch
	}
	c.Append(typed)
	return nil
}

// Delete marks a row deleted as of ts.
func (s *Segment) Delete(row int64, ts schema.Timestamp) {
	s.delMu.Lock()
	defer s.delMu.Unlock()
	s.deletes = append(s.deletes, deleteRecord{row: row, ts: ts})
	s.deletedSet.Add(uint32(row))
}

// HasIndex reports whether the field routes reads through a scalar
// index. The choice is fixed per query.
func (s *Segment) HasIndex(f schema.FieldID) bool {
	return len(s.indexes[f]) > 0
}

// NumChunkData returns the number of data chunks of the field.
func (s *Segment) NumChunkData(f schema.FieldID) int {
	col, ok := s.cols[f]
	if !ok {
		return 0
	}
	switch c := col.(type) {
	case *column.Chunked[bool]:
		return c.NumChunks()
	case *column.Chunked[int8]:
		return c.NumChunks()
	case *column.Chunked[int16]:
		return c.NumChunks()
	case *column.Chunked[int32]:
		return c.NumChunks()
	case *column.Chunked[int64]:
		return c.NumChunks()
	case *column.Chunked[float32]:
		return c.NumChunks()
	case *column.Chunked[float64]:
		return c.NumChunks()
	case *column.Chunked[string]:
		return c.NumChunks()
	case *column.Chunked[[]byte]:
		return c.NumChunks()
	default:
		return 0
	}
}

// NumChunkIndex returns the number of index chunks of the field.
func (s *Segment) NumChunkIndex(f schema.FieldID) int {
	return len(s.indexes[f])
}

// DataChunk returns chunk i of the field as a typed span.
func DataChunk[T any](s *Segment, f schema.FieldID, i int) (column.Span[T], error) {
	col, ok := s.cols[f]
	if !ok {
		return column.Span[T]{}, fmt.Errorf("%w: %d", ErrFieldNotFound, f)
	}
	typed, ok := col.(*column.Chunked[T])
	if !ok {
		return column.Span[T]{}, fmt.Errorf("%w: field %d", ErrFieldTypeMismatch, f)
	}
	return typed.Span(i)
}

// ChunkScalarIndex returns the scalar index over chunk i of the field.
func ChunkScalarIndex[T cmp.Ordered](s *Segment, f schema.FieldID, i int) (*scalarindex.Index[T], error) {
	chunks, ok := s.indexes[f]
	if !ok || len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoIndex, f)
	}
	if i < 0 || i >= len(chunks) {
		return nil, fmt.Errorf("%w: index chunk %d of %d", column.ErrChunkOutOfRange, i, len(chunks))
	}
	typed, ok := chunks[i].(*scalarindex.Index[T])
	if !ok {
		return nil, fmt.Errorf("%w: index of field %d", ErrFieldTypeMismatch, f)
	}
	return typed, nil
}

// MaskWithTimestamps clears bits of rows inserted after ts.
func (s *Segment) MaskWithTimestamps(bs *bitset.Bitset, ts schema.Timestamp) {
	active := s.ActiveCount(ts)
	if int64(bs.Len()) > active {
		bs.ClearFrom(int(active))
	}
}

// MaskWithDelete clears bits of rows deleted at or before ts.
func (s *Segment) MaskWithDelete(bs *bitset.Bitset, active int64, ts schema.Timestamp) {
	s.delMu.RLock()
	defer s.delMu.RUnlock()
	if s.deletedSet.IsEmpty() {
		return
	}
	for _, d := range s.deletes {
		if d.ts <= ts && d.row < active {
			bs.Clear(int(d.row))
		}
	}
}

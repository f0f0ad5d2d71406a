package segment

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segcore/internal/column"
	"github.com/hupe1980/segcore/internal/scalarindex"
	"github.com/hupe1980/segcore/schema"
)

// Seal converts a growing segment into a sealed one: every field is
// compacted into a single logical chunk of length RowCount, and the
// named fields get a scalar index built over that chunk. Reads on
// indexed fields route through the index from then on.
//
// The growing segment must be quiescent; Seal does not coordinate with
// a concurrent writer.
func Seal(g *Segment, indexFields ...schema.FieldID) (*Segment, error) {
	if g.typ != Growing {
		return nil, ErrSealed
	}

	rows := g.RowCount()
	chunkSize := int(rows)
	if chunkSize == 0 {
		chunkSize = 1
	}

	s := &Segment{
		typ:          Sealed,
		sch:          g.sch,
		sizePerChunk: chunkSize,
		cols:         make(map[schema.FieldID]any, len(g.cols)),
		indexes:      make(map[schema.FieldID][]any),
		timestamps:   column.NewChunked[schema.Timestamp](chunkSize),
		deletedSet:   roaring.New(),
	}

	for _, f := range g.sch.Fields {
		compacted, err := compactColumn(g.cols[f.ID], f.Type, chunkSize)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f.ID, err)
		}
		s.cols[f.ID] = compacted
	}

	tss := make([]schema.Timestamp, 0, rows)
	for i := 0; i < g.timestamps.NumChunks(); i++ {
		chunk, err := g.timestamps.Chunk(i)
		if err != nil {
			return nil, err
		}
		tss = append(tss, chunk...)
	}
	s.timestamps.Append(tss)

	g.delMu.RLock()
	s.deletes = append(s.deletes, g.deletes...)
	s.deletedSet = g.deletedSet.Clone()
	g.delMu.RUnlock()

	for _, f := range indexFields {
		if err := s.buildIndex(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func compactColumn(col any, t schema.DataType, chunkSize int) (any, error) {
	switch c := col.(type) {
	case *column.Chunked[bool]:
		return compact(c, chunkSize)
	case *column.Chunked[int8]:
		return compact(c, chunkSize)
	case *column.Chunked[int16]:
		return compact(c, chunkSize)
	case *column.Chunked[int32]:
		return compact(c, chunkSize)
	case *column.Chunked[int64]:
		return compact(c, chunkSize)
	case *column.Chunked[float32]:
		return compact(c, chunkSize)
	case *column.Chunked[float64]:
		return compact(c, chunkSize)
	case *column.Chunked[string]:
		return compact(c, chunkSize)
	case *column.Chunked[[]byte]:
		return compact(c, chunkSize)
	default:
		return nil, fmt.Errorf("%w (%s)", ErrFieldTypeMismatch, t)
	}
}

func compact[T any](c *column.Chunked[T], chunkSize int) (*column.Chunked[T], error) {
	out := column.NewChunked[T](chunkSize)
	all := make([]T, 0, c.Rows())
	for i := 0; i < c.NumChunks(); i++ {
		chunk, err := c.Chunk(i)
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	out.Append(all)
	return out, nil
}

// buildIndex builds one scalar index chunk per data chunk of the
// field. Sealed segments have a single data chunk, so one index chunk.
func (s *Segment) buildIndex(f schema.FieldID) error {
	field, ok := s.sch.Field(f)
	if !ok {
		return fmt.Errorf("%w: %d", ErrFieldNotFound, f)
	}

	switch field.Type {
	case schema.DataTypeInt8:
		return buildIndexChunks[int8](s, f)
	case schema.DataTypeInt16:
		return buildIndexChunks[int16](s, f)
	case schema.DataTypeInt32:
		return buildIndexChunks[int32](s, f)
	case schema.DataTypeInt64:
		return buildIndexChunks[int64](s, f)
	case schema.DataTypeFloat:
		return buildIndexChunks[float32](s, f)
	case schema.DataTypeDouble:
		return buildIndexChunks[float64](s, f)
	case schema.DataTypeVarChar:
		return buildIndexChunks[string](s, f)
	default:
		return fmt.Errorf("scalar index unsupported for %s field %d", field.Type, f)
	}
}

func buildIndexChunks[T interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64 | ~string
}](s *Segment, f schema.FieldID) error {
	col := s.cols[f].(*column.Chunked[T])
	chunks := make([]any, 0, col.NumChunks())
	for i := 0; i < col.NumChunks(); i++ {
		data, err := col.Chunk(i)
		if err != nil {
			return err
		}
		chunks = append(chunks, scalarindex.Build(data))
	}
	s.indexes[f] = chunks
	return nil
}

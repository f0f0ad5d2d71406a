package segment

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segcore/internal/blockcodec"
	"github.com/hupe1980/segcore/internal/column"
	"github.com/hupe1980/segcore/schema"
)

// Column blocks are the hand-off format between the core and the
// external chunk manager: one encoded, optionally compressed block per
// field. Fixed-width elements are little-endian; strings and JSON
// documents are length-prefixed.

// ExportColumn encodes the full column of the field into one block.
func (s *Segment) ExportColumn(f schema.FieldID, codec blockcodec.Compression) ([]byte, error) {
	field, ok := s.sch.Field(f)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFieldNotFound, f)
	}

	var raw []byte
	var err error
	switch field.Type {
	case schema.DataTypeBool:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[bool]), 1, func(dst []byte, v bool) {
			if v {
				dst[0] = 1
			}
		})
	case schema.DataTypeInt8:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[int8]), 1, func(dst []byte, v int8) {
			dst[0] = byte(v)
		})
	case schema.DataTypeInt16:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[int16]), 2, func(dst []byte, v int16) {
			binary.LittleEndian.PutUint16(dst, uint16(v))
		})
	case schema.DataTypeInt32:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[int32]), 4, func(dst []byte, v int32) {
			binary.LittleEndian.PutUint32(dst, uint32(v))
		})
	case schema.DataTypeInt64:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[int64]), 8, func(dst []byte, v int64) {
			binary.LittleEndian.PutUint64(dst, uint64(v))
		})
	case schema.DataTypeFloat:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[float32]), 4, func(dst []byte, v float32) {
			binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
		})
	case schema.DataTypeDouble:
		raw, err = encodeFixed(s.cols[f].(*column.Chunked[float64]), 8, func(dst []byte, v float64) {
			binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
		})
	case schema.DataTypeVarChar:
		raw, err = encodeVar(s.cols[f].(*column.Chunked[string]), func(v string) []byte { return []byte(v) })
	case schema.DataTypeJSON:
		raw, err = encodeVar(s.cols[f].(*column.Chunked[[]byte]), func(v []byte) []byte { return v })
	default:
		return nil, fmt.Errorf("%w (%s)", ErrFieldTypeMismatch, field.Type)
	}
	if err != nil {
		return nil, err
	}
	return blockcodec.Encode(raw, codec)
}

func encodeFixed[T any](c *column.Chunked[T], width int, put func([]byte, T)) ([]byte, error) {
	rows := int(c.Rows())
	out := make([]byte, 8, 8+rows*width)
	binary.LittleEndian.PutUint64(out, uint64(rows))
	buf := make([]byte, width)
	for i := 0; i < c.NumChunks(); i++ {
		chunk, err := c.Chunk(i)
		if err != nil {
			return nil, err
		}
		for _, v := range chunk {
			put(buf, v)
			out = append(out, buf...)
		}
	}
	return out, nil
}

func encodeVar[T any](c *column.Chunked[T], bytesOf func(T) []byte) ([]byte, error) {
	rows := int(c.Rows())
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(rows))
	var lenBuf [4]byte
	for i := 0; i < c.NumChunks(); i++ {
		chunk, err := c.Chunk(i)
		if err != nil {
			return nil, err
		}
		for _, v := range chunk {
			b := bytesOf(v)
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
			out = append(out, lenBuf[:]...)
			out = append(out, b...)
		}
	}
	return out, nil
}

// ExportTimestamps encodes the insert-timestamp column into one block.
func (s *Segment) ExportTimestamps(codec blockcodec.Compression) ([]byte, error) {
	raw, err := encodeFixed(s.timestamps, 8, func(dst []byte, v schema.Timestamp) {
		binary.LittleEndian.PutUint64(dst, uint64(v))
	})
	if err != nil {
		return nil, err
	}
	return blockcodec.Encode(raw, codec)
}

// NewSealedFromBlocks builds a sealed segment from per-field encoded
// column blocks plus the timestamp block, as delivered by the chunk
// manager. Index fields are built after load.
func NewSealedFromBlocks(sch *schema.Schema, blocks map[schema.FieldID][]byte, tsBlock []byte, codec blockcodec.Compression, indexFields ...schema.FieldID) (*Segment, error) {
	rawTS, err := blockcodec.Decode(tsBlock, codec)
	if err != nil {
		return nil, fmt.Errorf("timestamp block: %w", err)
	}
	tss, err := decodeFixed(rawTS, 8, func(b []byte) schema.Timestamp {
		return schema.Timestamp(binary.LittleEndian.Uint64(b))
	})
	if err != nil {
		return nil, fmt.Errorf("timestamp block: %w", err)
	}

	chunkSize := len(tss)
	if chunkSize == 0 {
		chunkSize = 1
	}
	s := &Segment{
		typ:          Sealed,
		sch:          sch,
		sizePerChunk: chunkSize,
		cols:         make(map[schema.FieldID]any, len(sch.Fields)),
		indexes:      make(map[schema.FieldID][]any),
		timestamps:   column.NewChunked[schema.Timestamp](chunkSize),
		deletedSet:   roaring.New(),
	}
	s.timestamps.Append(tss)

	for _, f := range sch.Fields {
		block, ok := blocks[f.ID]
		if !ok {
			return nil, fmt.Errorf("%w: block for field %d missing", ErrFieldNotFound, f.ID)
		}
		raw, err := blockcodec.Decode(block, codec)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f.ID, err)
		}
		col, err := decodeColumn(f.Type, raw, chunkSize)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f.ID, err)
		}
		s.cols[f.ID] = col
	}

	for _, f := range indexFields {
		if err := s.buildIndex(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func decodeColumn(t schema.DataType, raw []byte, chunkSize int) (any, error) {
	switch t {
	case schema.DataTypeBool:
		return loadFixed(raw, chunkSize, 1, func(b []byte) bool { return b[0] != 0 })
	case schema.DataTypeInt8:
		return loadFixed(raw, chunkSize, 1, func(b []byte) int8 { return int8(b[0]) })
	case schema.DataTypeInt16:
		return loadFixed(raw, chunkSize, 2, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
	case schema.DataTypeInt32:
		return loadFixed(raw, chunkSize, 4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
	case schema.DataTypeInt64:
		return loadFixed(raw, chunkSize, 8, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
	case schema.DataTypeFloat:
		return loadFixed(raw, chunkSize, 4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })
	case schema.DataTypeDouble:
		return loadFixed(raw, chunkSize, 8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })
	case schema.DataTypeVarChar:
		return loadVar(raw, chunkSize, func(b []byte) string { return string(b) })
	case schema.DataTypeJSON:
		return loadVar(raw, chunkSize, func(b []byte) []byte { return append([]byte(nil), b...) })
	default:
		return nil, fmt.Errorf("%w (%s)", ErrFieldTypeMismatch, t)
	}
}

func decodeFixed[T any](raw []byte, width int, get func([]byte) T) ([]T, error) {
	if len(raw) < 8 {
		return nil, blockcodec.ErrCorruptBlock
	}
	rows := int(binary.LittleEndian.Uint64(raw))
	raw = raw[8:]
	if len(raw) < rows*width {
		return nil, blockcodec.ErrCorruptBlock
	}
	out := make([]T, rows)
	for i := 0; i < rows; i++ {
		out[i] = get(raw[i*width:])
	}
	return out, nil
}

func loadFixed[T any](raw []byte, chunkSize, width int, get func([]byte) T) (*column.Chunked[T], error) {
	vals, err := decodeFixed(raw, width, get)
	if err != nil {
		return nil, err
	}
	c := column.NewChunked[T](chunkSize)
	c.Append(vals)
	return c, nil
}

func loadVar[T any](raw []byte, chunkSize int, from func([]byte) T) (*column.Chunked[T], error) {
	if len(raw) < 8 {
		return nil, blockcodec.ErrCorruptBlock
	}
	rows := int(binary.LittleEndian.Uint64(raw))
	raw = raw[8:]
	vals := make([]T, 0, rows)
	for i := 0; i < rows; i++ {
		if len(raw) < 4 {
			return nil, blockcodec.ErrCorruptBlock
		}
		n := int(binary.LittleEndian.Uint32(raw))
		raw = raw[4:]
		if len(raw) < n {
			return nil, blockcodec.ErrCorruptBlock
		}
		vals = append(vals, from(raw[:n]))
		raw = raw[n:]
	}
	c := column.NewChunked[T](chunkSize)
	c.Append(vals)
	return c, nil
}

package column

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrChunkOutOfRange is returned when a chunk index is out of range.
var ErrChunkOutOfRange = errors.New("chunk index out of range")

// Span is a read-only view into one chunk carrying the run length the
// SIMD kernels operate on. Data is sliced to exactly the visible rows
// of the chunk.
type Span[T any] struct {
	// Data holds the chunk elements visible to the reading snapshot.
	Data []T
	// Offset is the logical row offset of Data[0] within the column.
	Offset int64
}

// Chunked is a per-field lazy sequence of fixed-size chunks.
//
// Concurrency: many readers + single writer. The chunk list is
// published by a single atomic store after new chunk memory is fully
// allocated; the visible row count is published by a release store
// after element writes complete. A reader that observes row r is
// therefore guaranteed every element up to r is fully written.
type Chunked[T any] struct {
	sizePerChunk int

	chunks atomic.Pointer[[]*[]T]
	rows   atomic.Int64

	// mu serializes writers only; readers never take it.
	mu sync.Mutex
}

// NewChunked creates an empty chunked column.
func NewChunked[T any](sizePerChunk int) *Chunked[T] {
	if sizePerChunk <= 0 {
		panic(fmt.Sprintf("column: non-positive chunk size %d", sizePerChunk))
	}
	c := &Chunked[T]{sizePerChunk: sizePerChunk}
	empty := make([]*[]T, 0)
	c.chunks.Store(&empty)
	return c
}

// SizePerChunk returns the fixed chunk size.
func (c *Chunked[T]) SizePerChunk() int { return c.sizePerChunk }

// Rows returns the number of fully written, reader-visible rows.
func (c *Chunked[T]) Rows() int64 { return c.rows.Load() }

// NumChunks returns the number of chunks covering the visible rows.
func (c *Chunked[T]) NumChunks() int {
	rows := c.rows.Load()
	if rows == 0 {
		return 0
	}
	return int((rows + int64(c.sizePerChunk) - 1) / int64(c.sizePerChunk))
}

// Append grows the column by len(data) logical rows, splitting writes
// at chunk boundaries. Capacity is unbounded by design; failure is
// out-of-memory.
func (c *Chunked[T]) Append(data []T) {
	if len(data) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.rows.Load()
	for len(data) > 0 {
		chunkIdx := int(rows) / c.sizePerChunk
		pos := int(rows) % c.sizePerChunk

		list := *c.chunks.Load()
		if chunkIdx >= len(list) {
			// Allocate the chunk at full capacity, then publish the
			// grown list with a single store.
			buf := make([]T, c.sizePerChunk)
			grown := make([]*[]T, len(list), len(list)+1)
			copy(grown, list)
			grown = append(grown, &buf)
			c.chunks.Store(&grown)
			list = grown
		}

		n := copy((*list[chunkIdx])[pos:], data)
		data = data[n:]
		rows += int64(n)
	}

	// Element writes above happen before the row count becomes visible.
	c.rows.Store(rows)
}

// Chunk returns a read-only view into chunk i, limited to the rows
// visible at the call.
func (c *Chunked[T]) Chunk(i int) ([]T, error) {
	span, err := c.Span(i)
	if err != nil {
		return nil, err
	}
	return span.Data, nil
}

// Span returns chunk i along with its logical offset.
func (c *Chunked[T]) Span(i int) (Span[T], error) {
	rows := c.rows.Load()
	numChunks := 0
	if rows > 0 {
		numChunks = int((rows + int64(c.sizePerChunk) - 1) / int64(c.sizePerChunk))
	}
	if i < 0 || i >= numChunks {
		return Span[T]{}, fmt.Errorf("%w: %d of %d", ErrChunkOutOfRange, i, numChunks)
	}

	list := *c.chunks.Load()
	offset := int64(i) * int64(c.sizePerChunk)
	visible := rows - offset
	if visible > int64(c.sizePerChunk) {
		visible = int64(c.sizePerChunk)
	}
	return Span[T]{Data: (*list[i])[:visible], Offset: offset}, nil
}

// Get returns the element at logical row r.
func (c *Chunked[T]) Get(r int64) (T, error) {
	var zero T
	if r < 0 || r >= c.rows.Load() {
		return zero, fmt.Errorf("%w: row %d", ErrChunkOutOfRange, r)
	}
	list := *c.chunks.Load()
	return (*list[int(r)/c.sizePerChunk])[int(r)%c.sizePerChunk], nil
}

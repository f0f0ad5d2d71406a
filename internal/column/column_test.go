package column

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunked_AppendSplitsAtBoundaries(t *testing.T) {
	c := NewChunked[int64](4)

	c.Append([]int64{0, 1, 2})
	require.Equal(t, int64(3), c.Rows())
	require.Equal(t, 1, c.NumChunks())

	c.Append([]int64{3, 4, 5, 6, 7, 8, 9})
	require.Equal(t, int64(10), c.Rows())
	require.Equal(t, 3, c.NumChunks())

	chunk0, err := c.Chunk(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, chunk0)

	chunk1, err := c.Chunk(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6, 7}, chunk1)

	// Last chunk is partial.
	chunk2, err := c.Chunk(2)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9}, chunk2)
}

func TestChunked_SpanOffsets(t *testing.T) {
	c := NewChunked[int32](8)
	data := make([]int32, 20)
	for i := range data {
		data[i] = int32(i)
	}
	c.Append(data)

	for i := 0; i < c.NumChunks(); i++ {
		span, err := c.Span(i)
		require.NoError(t, err)
		assert.Equal(t, int64(i*8), span.Offset)
		for j, v := range span.Data {
			assert.Equal(t, int32(span.Offset)+int32(j), v)
		}
	}
}

func TestChunked_OutOfRange(t *testing.T) {
	c := NewChunked[string](4)
	_, err := c.Chunk(0)
	assert.ErrorIs(t, err, ErrChunkOutOfRange)

	c.Append([]string{"a"})
	_, err = c.Chunk(1)
	assert.ErrorIs(t, err, ErrChunkOutOfRange)

	_, err = c.Get(5)
	assert.ErrorIs(t, err, ErrChunkOutOfRange)
}

func TestChunked_Get(t *testing.T) {
	c := NewChunked[float64](3)
	c.Append([]float64{1.5, 2.5, 3.5, 4.5})

	v, err := c.Get(3)
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)
}

func TestChunked_ConcurrentReadersSingleWriter(t *testing.T) {
	c := NewChunked[int64](16)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers only observe fully written rows.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				rows := c.Rows()
				for i := 0; i < c.NumChunks(); i++ {
					span, err := c.Span(i)
					if err != nil {
						t.Error(err)
						return
					}
					for j, v := range span.Data {
						want := span.Offset + int64(j)
						if want < rows && v != want {
							t.Errorf("row %d: got %d", want, v)
							return
						}
					}
				}
			}
		}()
	}

	for i := 0; i < 1000; i += 10 {
		batch := make([]int64, 10)
		for j := range batch {
			batch[j] = int64(i + j)
		}
		c.Append(batch)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, int64(1000), c.Rows())
}

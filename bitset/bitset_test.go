package bitset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBools(rng *rand.Rand, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = rng.Intn(2) == 1
	}
	return out
}

func TestAppendBools_PackingBijective(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, n := range []int{0, 1, 7, 8, 63, 64, 65, 4096} {
		src := randomBools(rng, n)
		bs := FromBools(src)
		require.Equal(t, n, bs.Len())
		assert.Equal(t, src, bs.Bools(), "n=%d", n)
	}
}

func TestAppendBools_ChunkedEqualsWhole(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := randomBools(rng, 1000)

	whole := FromBools(src)

	chunked := New(1000)
	for i := 0; i < len(src); {
		step := rng.Intn(130) + 1
		if i+step > len(src) {
			step = len(src) - i
		}
		chunked.AppendBools(src[i : i+step])
		i += step
	}

	require.Equal(t, whole.Len(), chunked.Len())
	assert.Equal(t, whole.Bools(), chunked.Bools())
	assert.Equal(t, whole.Count(), chunked.Count())
}

func TestLogicalOps(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 257
	a := randomBools(rng, n)
	b := randomBools(rng, n)

	t.Run("And", func(t *testing.T) {
		bs := FromBools(a)
		bs.And(FromBools(b))
		for i := 0; i < n; i++ {
			assert.Equal(t, a[i] && b[i], bs.Test(i), "bit %d", i)
		}
	})

	t.Run("Or", func(t *testing.T) {
		bs := FromBools(a)
		bs.Or(FromBools(b))
		for i := 0; i < n; i++ {
			assert.Equal(t, a[i] || b[i], bs.Test(i), "bit %d", i)
		}
	})

	t.Run("Xor", func(t *testing.T) {
		bs := FromBools(a)
		bs.Xor(FromBools(b))
		for i := 0; i < n; i++ {
			assert.Equal(t, a[i] != b[i], bs.Test(i), "bit %d", i)
		}
	})

	t.Run("AndNot", func(t *testing.T) {
		bs := FromBools(a)
		bs.AndNot(FromBools(b))
		for i := 0; i < n; i++ {
			assert.Equal(t, a[i] && !b[i], bs.Test(i), "bit %d", i)
		}
	})
}

func TestClearFrom(t *testing.T) {
	src := make([]bool, 200)
	for i := range src {
		src[i] = true
	}
	bs := FromBools(src)

	bs.ClearFrom(130)
	assert.Equal(t, 130, bs.Count())
	assert.True(t, bs.Test(129))
	assert.False(t, bs.Test(130))
	assert.False(t, bs.Test(199))

	bs.ClearFrom(0)
	assert.True(t, bs.None())
}

func TestCountAnyNone(t *testing.T) {
	bs := New(100)
	bs.AppendBools(make([]bool, 100))
	assert.True(t, bs.None())
	assert.False(t, bs.Any())
	assert.Equal(t, 0, bs.Count())

	bs.Set(42)
	assert.True(t, bs.Any())
	assert.Equal(t, 1, bs.Count())

	bs.Clear(42)
	assert.True(t, bs.None())
}

func TestClone(t *testing.T) {
	bs := FromBools([]bool{true, false, true})
	clone := bs.Clone()
	clone.Clear(0)
	assert.True(t, bs.Test(0))
	assert.False(t, clone.Test(0))
}

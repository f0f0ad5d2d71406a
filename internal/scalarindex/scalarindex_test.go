package scalarindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segcore/internal/simd"
)

func TestIndex_In(t *testing.T) {
	ix := Build([]int64{5, 3, 5, 1, 9})

	assert.Equal(t, []bool{true, false, true, false, false}, ix.In([]int64{5}))
	assert.Equal(t, []bool{true, true, true, false, false}, ix.In([]int64{5, 3}))
	assert.Equal(t, []bool{false, false, false, false, false}, ix.In([]int64{42}))
	assert.Equal(t, []bool{false, false, false, false, false}, ix.In(nil))
}

func TestIndex_NotIn(t *testing.T) {
	ix := Build([]int64{5, 3, 5, 1, 9})
	assert.Equal(t, []bool{false, true, false, true, true}, ix.NotIn([]int64{5}))
	assert.Equal(t, []bool{true, true, true, true, true}, ix.NotIn(nil))
}

func TestIndex_Range(t *testing.T) {
	ix := Build([]int64{10, 20, 30, 40, 50})

	t.Run("BothInclusive", func(t *testing.T) {
		assert.Equal(t, []bool{false, true, true, true, false}, ix.Range(20, true, 40, true))
	})
	t.Run("BothExclusive", func(t *testing.T) {
		assert.Equal(t, []bool{false, false, true, false, false}, ix.Range(20, false, 40, false))
	})
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, []bool{false, false, false, false, false}, ix.Range(41, true, 49, true))
	})
	t.Run("Duplicates", func(t *testing.T) {
		dup := Build([]int64{7, 7, 8})
		assert.Equal(t, []bool{true, true, false}, dup.Range(7, true, 7, true))
	})
}

func TestIndex_RangeOp(t *testing.T) {
	ix := Build([]int64{10, 20, 30})

	assert.Equal(t, []bool{true, false, false}, ix.RangeOp(20, simd.CmpLt))
	assert.Equal(t, []bool{true, true, false}, ix.RangeOp(20, simd.CmpLe))
	assert.Equal(t, []bool{false, false, true}, ix.RangeOp(20, simd.CmpGt))
	assert.Equal(t, []bool{false, true, true}, ix.RangeOp(20, simd.CmpGe))
	assert.Equal(t, []bool{false, true, false}, ix.RangeOp(20, simd.CmpEq))
	assert.Equal(t, []bool{true, false, true}, ix.RangeOp(20, simd.CmpNe))
}

func TestIndex_Strings(t *testing.T) {
	ix := Build([]string{"a", "aa", "ab", "b"})

	require.True(t, ix.Capabilities().Has(CapPrefix))
	assert.Equal(t, []bool{true, true, true, false}, PrefixQuery(ix, "a"))
	assert.Equal(t, []bool{false, true, false, false}, PrefixQuery(ix, "aa"))
	assert.Equal(t, []bool{true, true, true, true}, PrefixQuery(ix, ""))
	assert.Equal(t, []bool{false, false, false, false}, PrefixQuery(ix, "zz"))

	assert.Equal(t, []bool{true, true, false, false}, ix.Range("a", true, "aa", true))
}

func TestIndex_Capabilities(t *testing.T) {
	numeric := Build([]int32{1, 2})
	require.True(t, numeric.Capabilities().Has(CapIn|CapNotIn|CapRange))
	assert.False(t, numeric.Capabilities().Has(CapPrefix))
}

func TestIndex_Floats(t *testing.T) {
	ix := Build([]float64{1.5, 2.5, 3.5})
	assert.Equal(t, []bool{false, true, false}, ix.In([]float64{2.5}))
	assert.Equal(t, []bool{true, true, false}, ix.RangeOp(3.0, simd.CmpLt))
}

package scalarindex

import (
	"cmp"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segcore/internal/simd"
)

// Capability describes the query surface a field index supports.
// Evaluators consult this before choosing index mode over data mode.
type Capability uint8

const (
	// CapIn supports membership queries.
	CapIn Capability = 1 << iota
	// CapNotIn supports negated membership queries.
	CapNotIn
	// CapRange supports one- and two-sided range queries.
	CapRange
	// CapPrefix supports string prefix queries.
	CapPrefix
)

// Has reports whether all bits of want are present.
func (c Capability) Has(want Capability) bool { return c&want == want }

type entry[T cmp.Ordered] struct {
	val T
	row uint32
}

// Index is the scalar index over one chunk of a field. It is immutable
// after Build and safe for lock-free concurrent reads.
//
// Membership queries resolve through per-value roaring postings; range
// and prefix queries binary-search a value-ordered run of the chunk.
type Index[T cmp.Ordered] struct {
	n        int
	postings map[T]*roaring.Bitmap
	sorted   []entry[T]
}

// Build constructs the index over the values of one chunk. Row i of
// the result vectors corresponds to values[i].
func Build[T cmp.Ordered](values []T) *Index[T] {
	ix := &Index[T]{
		n:        len(values),
		postings: make(map[T]*roaring.Bitmap),
		sorted:   make([]entry[T], len(values)),
	}
	for i, v := range values {
		bm := ix.postings[v]
		if bm == nil {
			bm = roaring.New()
			ix.postings[v] = bm
		}
		bm.Add(uint32(i))
		ix.sorted[i] = entry[T]{val: v, row: uint32(i)}
	}
	sort.Slice(ix.sorted, func(i, j int) bool { return ix.sorted[i].val < ix.sorted[j].val })
	return ix
}

// Rows returns the number of rows covered by the index chunk.
func (ix *Index[T]) Rows() int { return ix.n }

// Capabilities returns the capability set of this index.
func (ix *Index[T]) Capabilities() Capability {
	caps := CapIn | CapNotIn | CapRange
	var z T
	if _, ok := any(z).(string); ok {
		caps |= CapPrefix
	}
	return caps
}

// In returns the bool vector marking rows whose value appears in vals.
func (ix *Index[T]) In(vals []T) []bool {
	res := make([]bool, ix.n)
	for _, v := range vals {
		bm := ix.postings[v]
		if bm == nil {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			res[it.Next()] = true
		}
	}
	return res
}

// NotIn returns the complement of In over the index chunk.
func (ix *Index[T]) NotIn(vals []T) []bool {
	res := ix.In(vals)
	for i := range res {
		res[i] = !res[i]
	}
	return res
}

// Range returns the bool vector for lo OP value OP hi with the given
// inclusivities.
func (ix *Index[T]) Range(lo T, loIncl bool, hi T, hiIncl bool) []bool {
	start := sort.Search(len(ix.sorted), func(i int) bool {
		if loIncl {
			return ix.sorted[i].val >= lo
		}
		return ix.sorted[i].val > lo
	})
	end := sort.Search(len(ix.sorted), func(i int) bool {
		if hiIncl {
			return ix.sorted[i].val > hi
		}
		return ix.sorted[i].val >= hi
	})

	res := make([]bool, ix.n)
	for i := start; i < end; i++ {
		res[ix.sorted[i].row] = true
	}
	return res
}

// RangeOp returns the bool vector for the one-sided predicate
// value OP val.
func (ix *Index[T]) RangeOp(val T, op simd.CmpOp) []bool {
	switch op {
	case simd.CmpEq:
		return ix.In([]T{val})
	case simd.CmpNe:
		return ix.NotIn([]T{val})
	}

	res := make([]bool, ix.n)
	switch op {
	case simd.CmpLt:
		end := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i].val >= val })
		for i := 0; i < end; i++ {
			res[ix.sorted[i].row] = true
		}
	case simd.CmpLe:
		end := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i].val > val })
		for i := 0; i < end; i++ {
			res[ix.sorted[i].row] = true
		}
	case simd.CmpGt:
		start := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i].val > val })
		for i := start; i < len(ix.sorted); i++ {
			res[ix.sorted[i].row] = true
		}
	case simd.CmpGe:
		start := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i].val >= val })
		for i := start; i < len(ix.sorted); i++ {
			res[ix.sorted[i].row] = true
		}
	}
	return res
}

// PrefixQuery returns the bool vector marking rows whose string value
// starts with prefix.
func PrefixQuery(ix *Index[string], prefix string) []bool {
	start := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i].val >= prefix })

	res := make([]bool, ix.n)
	for i := start; i < len(ix.sorted); i++ {
		if !strings.HasPrefix(ix.sorted[i].val, prefix) {
			break
		}
		res[ix.sorted[i].row] = true
	}
	return res
}

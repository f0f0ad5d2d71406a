package bitset

import (
	"math/bits"

	"github.com/hupe1980/segcore/internal/simd"
)

// Bitset is a packed array of one bit per row, set means "included".
// It grows by appending boolean chunks and is not safe for concurrent
// mutation; assembly happens on the single consumer side.
type Bitset struct {
	words []uint64
	n     int
}

// New creates an empty bitset with capacity for n bits.
func New(n int) *Bitset {
	return &Bitset{words: make([]uint64, 0, (n+63)/64)}
}

// FromBools creates a bitset from a boolean slice.
func FromBools(src []bool) *Bitset {
	b := New(len(src))
	b.AppendBools(src)
	return b
}

// Len returns the number of bits appended so far.
func (b *Bitset) Len() int { return b.n }

// AppendBools packs src onto the end of the bitset. The pack routine
// first fills the partial trailing block bit-at-a-time, then whole
// blocks through the packBits64 kernel, then the tail.
func (b *Bitset) AppendBools(src []bool) {
	i := 0

	// Partial trailing block.
	if rem := b.n & 63; rem != 0 {
		w := len(b.words) - 1
		for ; i < len(src) && rem < 64; i++ {
			if src[i] {
				b.words[w] |= 1 << uint(rem)
			}
			rem++
		}
		b.n += i
	}

	// Whole blocks.
	for ; i+64 <= len(src); i += 64 {
		b.words = append(b.words, simd.PackBits64(src[i:i+64]))
		b.n += 64
	}

	// Tail.
	if i < len(src) {
		var w uint64
		for j, v := range src[i:] {
			if v {
				w |= 1 << uint(j)
			}
		}
		b.words = append(b.words, w)
		b.n += len(src) - i
	}
}

// Test returns the bit at position i.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.words[i>>6]&(1<<uint(i&63)) != 0
}

// Set sets the bit at position i. Out-of-range positions are ignored.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.words[i>>6] |= 1 << uint(i&63)
}

// Clear clears the bit at position i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.words[i>>6] &^= 1 << uint(i&63)
}

// ClearFrom clears every bit at position >= i.
func (b *Bitset) ClearFrom(i int) {
	if i < 0 {
		i = 0
	}
	if i >= b.n {
		return
	}
	w := i >> 6
	b.words[w] &= (1 << uint(i&63)) - 1
	for j := w + 1; j < len(b.words); j++ {
		b.words[j] = 0
	}
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	count := 0
	for _, w := range b.words {
		if w != 0 {
			count += bits.OnesCount64(w)
		}
	}
	return count
}

// Any reports whether at least one bit is set.
func (b *Bitset) Any() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// None reports whether no bit is set. Callers use this to skip vector
// search entirely when the filter selected nothing.
func (b *Bitset) None() bool { return !b.Any() }

// And intersects b with other in place. Lengths must match; extra bits
// in either operand beyond the common length are dropped.
func (b *Bitset) And(other *Bitset) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] &= other.words[i]
	}
	for i := n; i < len(b.words); i++ {
		b.words[i] = 0
	}
}

// Or unions other into b in place.
func (b *Bitset) Or(other *Bitset) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] |= other.words[i]
	}
}

// Xor applies a bitwise exclusive-or of other into b in place.
func (b *Bitset) Xor(other *Bitset) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] ^= other.words[i]
	}
	b.maskTail()
}

// AndNot clears every bit of b that is set in other.
func (b *Bitset) AndNot(other *Bitset) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] &^= other.words[i]
	}
}

// Bools unpacks the bitset back into a boolean slice.
func (b *Bitset) Bools() []bool {
	out := make([]bool, b.n)
	for i := range out {
		out[i] = b.words[i>>6]&(1<<uint(i&63)) != 0
	}
	return out
}

// Clone returns a deep copy.
func (b *Bitset) Clone() *Bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitset{words: words, n: b.n}
}

// maskTail zeroes the unused high bits of the last word so Count and
// Any stay exact after whole-word operations.
func (b *Bitset) maskTail() {
	if rem := b.n & 63; rem != 0 && len(b.words) > 0 {
		b.words[len(b.words)-1] &= (1 << uint(rem)) - 1
	}
}

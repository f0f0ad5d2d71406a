package simd

import "cmp"

// CmpOp identifies an element-wise comparison kernel.
type CmpOp uint8

const (
	// CmpEq is the == kernel.
	CmpEq CmpOp = iota
	// CmpNe is the != kernel.
	CmpNe
	// CmpLt is the < kernel.
	CmpLt
	// CmpLe is the <= kernel.
	CmpLe
	// CmpGt is the > kernel.
	CmpGt
	// CmpGe is the >= kernel.
	CmpGe

	numCmpOps = 6
)

// String returns the operator symbol.
func (op CmpOp) String() string {
	switch op {
	case CmpEq:
		return "=="
	case CmpNe:
		return "!="
	case CmpLt:
		return "<"
	case CmpLe:
		return "<="
	case CmpGt:
		return ">"
	case CmpGe:
		return ">="
	default:
		return "?"
	}
}

type cmpKernel[T cmp.Ordered] func(src []T, val T, dst []bool)

// kernelSet holds the installed kernel cell per comparison op for one
// element type. The cells are filled once at init for the active tier.
type kernelSet[T cmp.Ordered] struct {
	cmp      [numCmpOps]cmpKernel[T]
	findTerm func(src []T, val T) bool
}

// Per-type kernel tables. installKernels fills them at package init;
// afterwards every call is a single indirect call into a monomorphic
// kernel.
var (
	i8Kernels  kernelSet[int8]
	i16Kernels kernelSet[int16]
	i32Kernels kernelSet[int32]
	i64Kernels kernelSet[int64]
	f32Kernels kernelSet[float32]
	f64Kernels kernelSet[float64]
	strKernels kernelSet[string]

	packBits64Impl = packBits64Ref
)

// installKernels selects the kernel cell for every (op x type) pair
// matching the tier's lane width. Wider tiers use deeper unrolling so
// the compiler can keep the full register file busy.
func installKernels(isa ISA) {
	i8Kernels = makeKernelSet[int8](isa)
	i16Kernels = makeKernelSet[int16](isa)
	i32Kernels = makeKernelSet[int32](isa)
	i64Kernels = makeKernelSet[int64](isa)
	f32Kernels = makeKernelSet[float32](isa)
	f64Kernels = makeKernelSet[float64](isa)
	// String compares do not vectorize; keep the 4x unrolled loop for
	// every accelerated tier.
	if isa.LaneBits() >= 128 {
		strKernels = makeKernelSetWidth[string](1)
	} else {
		strKernels = makeKernelSetWidth[string](0)
	}

	if isa.LaneBits() >= 256 {
		packBits64Impl = packBits64Unrolled
	} else {
		packBits64Impl = packBits64Ref
	}
}

func makeKernelSet[T cmp.Ordered](isa ISA) kernelSet[T] {
	switch {
	case isa.LaneBits() >= 512:
		return makeKernelSetWidth[T](3)
	case isa.LaneBits() >= 256:
		return makeKernelSetWidth[T](2)
	case isa.LaneBits() >= 128:
		return makeKernelSetWidth[T](1)
	default:
		return makeKernelSetWidth[T](0)
	}
}

// makeKernelSetWidth builds the table for one unroll depth:
// 0 = scalar reference, 1 = 4x, 2 = 8x, 3 = 16x.
func makeKernelSetWidth[T cmp.Ordered](w int) kernelSet[T] {
	switch w {
	case 3:
		return kernelSet[T]{
			cmp: [numCmpOps]cmpKernel[T]{
				cmpEq16[T], cmpNe16[T], cmpLt16[T], cmpLe16[T], cmpGt16[T], cmpGe16[T],
			},
			findTerm: findTerm8[T],
		}
	case 2:
		return kernelSet[T]{
			cmp: [numCmpOps]cmpKernel[T]{
				cmpEq8[T], cmpNe8[T], cmpLt8[T], cmpLe8[T], cmpGt8[T], cmpGe8[T],
			},
			findTerm: findTerm8[T],
		}
	case 1:
		return kernelSet[T]{
			cmp: [numCmpOps]cmpKernel[T]{
				cmpEq4[T], cmpNe4[T], cmpLt4[T], cmpLe4[T], cmpGt4[T], cmpGe4[T],
			},
			findTerm: findTerm8[T],
		}
	default:
		return kernelSet[T]{
			cmp: [numCmpOps]cmpKernel[T]{
				cmpEqRef[T], cmpNeRef[T], cmpLtRef[T], cmpLeRef[T], cmpGtRef[T], cmpGeRef[T],
			},
			findTerm: findTermRef[T],
		}
	}
}

// kernelsFor returns the installed table for T, or nil for element
// types without a table.
func kernelsFor[T cmp.Ordered]() *kernelSet[T] {
	var z T
	switch any(z).(type) {
	case int8:
		return any(&i8Kernels).(*kernelSet[T])
	case int16:
		return any(&i16Kernels).(*kernelSet[T])
	case int32:
		return any(&i32Kernels).(*kernelSet[T])
	case int64:
		return any(&i64Kernels).(*kernelSet[T])
	case float32:
		return any(&f32Kernels).(*kernelSet[T])
	case float64:
		return any(&f64Kernels).(*kernelSet[T])
	case string:
		return any(&strKernels).(*kernelSet[T])
	default:
		return nil
	}
}

// Compare evaluates dst[i] = src[i] OP val element-wise.
//
// SAFETY: Assumes len(dst) >= len(src). Caller MUST ensure capacity.
// Floats use ordered comparison: NaN compares false for every op
// except !=. Integer widening for cross-width literals happens in the
// caller, never here.
func Compare[T cmp.Ordered](op CmpOp, src []T, val T, dst []bool) {
	if ks := kernelsFor[T](); ks != nil {
		ks.cmp[op](src, val, dst)
		return
	}
	cmpRef(op, src, val, dst)
}

// FindTerm reports whether val appears in src[0..n).
func FindTerm[T cmp.Ordered](src []T, val T) bool {
	if ks := kernelsFor[T](); ks != nil {
		return ks.findTerm(src, val)
	}
	return findTermRef(src, val)
}

// PackBits64 reads 64 booleans and returns them packed into a single
// 64-bit block, bit i = src[i].
//
// SAFETY: Assumes len(src) >= 64.
func PackBits64(src []bool) uint64 {
	return packBits64Impl(src)
}

// ============================================================================
// Reference implementations (portable, always present)
// ============================================================================

func cmpRef[T cmp.Ordered](op CmpOp, src []T, val T, dst []bool) {
	switch op {
	case CmpEq:
		cmpEqRef(src, val, dst)
	case CmpNe:
		cmpNeRef(src, val, dst)
	case CmpLt:
		cmpLtRef(src, val, dst)
	case CmpLe:
		cmpLeRef(src, val, dst)
	case CmpGt:
		cmpGtRef(src, val, dst)
	case CmpGe:
		cmpGeRef(src, val, dst)
	}
}

func cmpEqRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v == val
	}
}

func cmpNeRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v != val
	}
}

func cmpLtRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v < val
	}
}

func cmpLeRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v <= val
	}
}

func cmpGtRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v > val
	}
}

func cmpGeRef[T cmp.Ordered](src []T, val T, dst []bool) {
	for i, v := range src {
		dst[i] = v >= val
	}
}

func findTermRef[T cmp.Ordered](src []T, val T) bool {
	for _, v := range src {
		if v == val {
			return true
		}
	}
	return false
}

func packBits64Ref(src []bool) uint64 {
	var block uint64
	for i := 0; i < 64; i++ {
		if src[i] {
			block |= 1 << uint(i)
		}
	}
	return block
}

// ============================================================================
// 128-bit tier: 4x unrolled loops
// ============================================================================

func cmpEq4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] == val
		dst[i+1] = src[i+1] == val
		dst[i+2] = src[i+2] == val
		dst[i+3] = src[i+3] == val
	}
	for ; i < n; i++ {
		dst[i] = src[i] == val
	}
}

func cmpNe4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] != val
		dst[i+1] = src[i+1] != val
		dst[i+2] = src[i+2] != val
		dst[i+3] = src[i+3] != val
	}
	for ; i < n; i++ {
		dst[i] = src[i] != val
	}
}

func cmpLt4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] < val
		dst[i+1] = src[i+1] < val
		dst[i+2] = src[i+2] < val
		dst[i+3] = src[i+3] < val
	}
	for ; i < n; i++ {
		dst[i] = src[i] < val
	}
}

func cmpLe4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] <= val
		dst[i+1] = src[i+1] <= val
		dst[i+2] = src[i+2] <= val
		dst[i+3] = src[i+3] <= val
	}
	for ; i < n; i++ {
		dst[i] = src[i] <= val
	}
}

func cmpGt4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] > val
		dst[i+1] = src[i+1] > val
		dst[i+2] = src[i+2] > val
		dst[i+3] = src[i+3] > val
	}
	for ; i < n; i++ {
		dst[i] = src[i] > val
	}
}

func cmpGe4[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = src[i] >= val
		dst[i+1] = src[i+1] >= val
		dst[i+2] = src[i+2] >= val
		dst[i+3] = src[i+3] >= val
	}
	for ; i < n; i++ {
		dst[i] = src[i] >= val
	}
}

// ============================================================================
// 256-bit tier: 8x unrolled loops
// ============================================================================

func cmpEq8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] == val
		dst[i+1] = src[i+1] == val
		dst[i+2] = src[i+2] == val
		dst[i+3] = src[i+3] == val
		dst[i+4] = src[i+4] == val
		dst[i+5] = src[i+5] == val
		dst[i+6] = src[i+6] == val
		dst[i+7] = src[i+7] == val
	}
	for ; i < n; i++ {
		dst[i] = src[i] == val
	}
}

func cmpNe8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] != val
		dst[i+1] = src[i+1] != val
		dst[i+2] = src[i+2] != val
		dst[i+3] = src[i+3] != val
		dst[i+4] = src[i+4] != val
		dst[i+5] = src[i+5] != val
		dst[i+6] = src[i+6] != val
		dst[i+7] = src[i+7] != val
	}
	for ; i < n; i++ {
		dst[i] = src[i] != val
	}
}

func cmpLt8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] < val
		dst[i+1] = src[i+1] < val
		dst[i+2] = src[i+2] < val
		dst[i+3] = src[i+3] < val
		dst[i+4] = src[i+4] < val
		dst[i+5] = src[i+5] < val
		dst[i+6] = src[i+6] < val
		dst[i+7] = src[i+7] < val
	}
	for ; i < n; i++ {
		dst[i] = src[i] < val
	}
}

func cmpLe8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] <= val
		dst[i+1] = src[i+1] <= val
		dst[i+2] = src[i+2] <= val
		dst[i+3] = src[i+3] <= val
		dst[i+4] = src[i+4] <= val
		dst[i+5] = src[i+5] <= val
		dst[i+6] = src[i+6] <= val
		dst[i+7] = src[i+7] <= val
	}
	for ; i < n; i++ {
		dst[i] = src[i] <= val
	}
}

func cmpGt8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] > val
		dst[i+1] = src[i+1] > val
		dst[i+2] = src[i+2] > val
		dst[i+3] = src[i+3] > val
		dst[i+4] = src[i+4] > val
		dst[i+5] = src[i+5] > val
		dst[i+6] = src[i+6] > val
		dst[i+7] = src[i+7] > val
	}
	for ; i < n; i++ {
		dst[i] = src[i] > val
	}
}

func cmpGe8[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		dst[i] = src[i] >= val
		dst[i+1] = src[i+1] >= val
		dst[i+2] = src[i+2] >= val
		dst[i+3] = src[i+3] >= val
		dst[i+4] = src[i+4] >= val
		dst[i+5] = src[i+5] >= val
		dst[i+6] = src[i+6] >= val
		dst[i+7] = src[i+7] >= val
	}
	for ; i < n; i++ {
		dst[i] = src[i] >= val
	}
}

// ============================================================================
// 512-bit tier: 16x unrolled loops
// ============================================================================

func cmpEq16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpEq8(src[i:i+8], val, dst[i:i+8])
		cmpEq8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] == val
	}
}

func cmpNe16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpNe8(src[i:i+8], val, dst[i:i+8])
		cmpNe8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] != val
	}
}

func cmpLt16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpLt8(src[i:i+8], val, dst[i:i+8])
		cmpLt8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] < val
	}
}

func cmpLe16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpLe8(src[i:i+8], val, dst[i:i+8])
		cmpLe8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] <= val
	}
}

func cmpGt16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpGt8(src[i:i+8], val, dst[i:i+8])
		cmpGt8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] > val
	}
}

func cmpGe16[T cmp.Ordered](src []T, val T, dst []bool) {
	n := len(src)
	i := 0
	for ; i+16 <= n; i += 16 {
		cmpGe8(src[i:i+8], val, dst[i:i+8])
		cmpGe8(src[i+8:i+16], val, dst[i+8:i+16])
	}
	for ; i < n; i++ {
		dst[i] = src[i] >= val
	}
}

// ============================================================================
// findTerm / packBits64 accelerated variants
// ============================================================================

// findTerm8 scans 8 elements per step and resolves a hit inside the
// block with a single pass.
func findTerm8[T cmp.Ordered](src []T, val T) bool {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		hit := src[i] == val || src[i+1] == val || src[i+2] == val || src[i+3] == val ||
			src[i+4] == val || src[i+5] == val || src[i+6] == val || src[i+7] == val
		if hit {
			return true
		}
	}
	for ; i < n; i++ {
		if src[i] == val {
			return true
		}
	}
	return false
}

// packBits64Unrolled gathers 64 booleans one byte-lane at a time.
func packBits64Unrolled(src []bool) uint64 {
	var block uint64
	for w := 0; w < 64; w += 8 {
		var b uint64
		if src[w] {
			b |= 1 << 0
		}
		if src[w+1] {
			b |= 1 << 1
		}
		if src[w+2] {
			b |= 1 << 2
		}
		if src[w+3] {
			b |= 1 << 3
		}
		if src[w+4] {
			b |= 1 << 4
		}
		if src[w+5] {
			b |= 1 << 5
		}
		if src[w+6] {
			b |= 1 << 6
		}
		if src[w+7] {
			b |= 1 << 7
		}
		block |= b << uint(w)
	}
	return block
}

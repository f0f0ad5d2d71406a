// Package simd provides the dispatched element-wise kernels used by
// the filter evaluators: comparisons, term probing, and bitset block
// packing.
//
// At process start the widest tier supported by the CPU is detected
// and a function pointer is installed for every (kernel x type) cell.
// Subsequent callers pay only an indirect call. The portable reference
// implementation is always present; SEGCORE_SIMD overrides the
// selection for testing.
package simd

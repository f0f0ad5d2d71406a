// Package column implements the chunked columnar store feeding the
// filter evaluators: an append-only, fixed-chunk-size sequence per
// field, readable by many goroutines while one writer appends.
package column

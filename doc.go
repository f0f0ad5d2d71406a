// Package segcore is the segment-execution core of a vector database:
// a vectorized filter-expression engine that evaluates predicates over
// a segment's columnar data and produces a packed bitset selecting the
// surviving rows.
//
// A filter invocation compiles a plan tree against a segment, drives
// it batch-by-batch through a cooperative task with a bounded result
// queue, packs the produced boolean vectors into a bitset, and masks
// the result with the segment's delete and timestamp visibility as of
// the query timestamp.
//
//	bits, err := segcore.FilterBits(ctx, seg,
//		plan.UnaryRange{
//			Column: plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt64},
//			Op:     plan.OpLessThan,
//			Val:    plan.Int(10),
//		},
//		schema.MaxTimestamp)
package segcore

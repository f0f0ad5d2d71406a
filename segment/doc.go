// Package segment implements the in-memory segment consumed by the
// filter engine: chunked columns per field, monotone insert
// timestamps, delete bookkeeping, scalar indexes on sealed fields,
// and the delete/timestamp visibility masks applied to filter
// results.
package segment

// Package exec holds the physical expression evaluators: a closed set
// of variants tagged by node kind, dispatched first by kind and then
// through a per-type kernel table. Leaf evaluators carry a cursor into
// the chunked column store and produce one boolean vector per batch;
// inner evaluators combine child vectors and keep short-circuited
// children aligned by moving their cursors.
package exec

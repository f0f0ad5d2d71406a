// Package testutil provides shared fixtures for segcore tests:
// deterministic random data and ready-made segments.
package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random int64 in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillInt64 fills dst with random values in [0, n).
func (r *RNG) FillInt64(dst []int64, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Int63n(n)
	}
}

// FillBools fills dst with random booleans.
func (r *RNG) FillBools(dst []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Intn(2) == 1
	}
}

// Int64Field is the field id used by Int64Segment.
const Int64Field schema.FieldID = 100

// Int64Segment builds a growing segment with a single int64 field
// holding the given values, timestamped 1..n.
func Int64Segment(sizePerChunk int, values []int64) (*segment.Segment, error) {
	sch := schema.New(schema.Field{ID: Int64Field, Name: "id", Type: schema.DataTypeInt64})
	seg, err := segment.NewGrowing(sch, sizePerChunk)
	if err != nil {
		return nil, err
	}
	tss := make([]schema.Timestamp, len(values))
	for i := range tss {
		tss[i] = schema.Timestamp(i + 1)
	}
	if err := seg.Insert(segment.InsertData{
		Timestamps: tss,
		Columns:    map[schema.FieldID]any{Int64Field: values},
	}); err != nil {
		return nil, err
	}
	return seg, nil
}

// VarCharField is the field id used by VarCharSegment.
const VarCharField schema.FieldID = 101

// VarCharSegment builds a growing segment with a single varchar field.
func VarCharSegment(sizePerChunk int, values []string) (*segment.Segment, error) {
	sch := schema.New(schema.Field{ID: VarCharField, Name: "s", Type: schema.DataTypeVarChar})
	seg, err := segment.NewGrowing(sch, sizePerChunk)
	if err != nil {
		return nil, err
	}
	tss := make([]schema.Timestamp, len(values))
	for i := range tss {
		tss[i] = schema.Timestamp(i + 1)
	}
	if err := seg.Insert(segment.InsertData{
		Timestamps: tss,
		Columns:    map[schema.FieldID]any{VarCharField: values},
	}); err != nil {
		return nil, err
	}
	return seg, nil
}

// JSONField is the field id used by JSONSegment.
const JSONField schema.FieldID = 102

// JSONSegment builds a growing segment with a single JSON field from
// raw documents.
func JSONSegment(sizePerChunk int, docs []string) (*segment.Segment, error) {
	sch := schema.New(schema.Field{ID: JSONField, Name: "j", Type: schema.DataTypeJSON})
	seg, err := segment.NewGrowing(sch, sizePerChunk)
	if err != nil {
		return nil, err
	}
	raw := make([][]byte, len(docs))
	tss := make([]schema.Timestamp, len(docs))
	for i, d := range docs {
		raw[i] = []byte(d)
		tss[i] = schema.Timestamp(i + 1)
	}
	if err := seg.Insert(segment.InsertData{
		Timestamps: tss,
		Columns:    map[schema.FieldID]any{JSONField: raw},
	}); err != nil {
		return nil, err
	}
	return seg, nil
}

// SeqInt64 returns [0, 1, ..., n-1].
func SeqInt64(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

// SeqTimestamps returns timestamps 1..n.
func SeqTimestamps(n int) []schema.Timestamp {
	out := make([]schema.Timestamp, n)
	for i := range out {
		out[i] = schema.Timestamp(i + 1)
	}
	return out
}

// Docs renders a sequence of JSON documents with one integer key.
func Docs(key string, vals []int64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("{%q: %d}", key, v)
	}
	return out
}

package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segcore/plan"
	"github.com/hupe1980/segcore/schema"
	"github.com/hupe1980/segcore/segment"
	"github.com/hupe1980/segcore/testutil"
)

// evalAll drives a compiled tree to completion and returns the
// concatenated selection, checking the batch-size invariants on the
// way.
func evalAll(t *testing.T, seg *segment.Segment, node plan.Node, ts schema.Timestamp, batch int) []bool {
	t.Helper()

	ectx, err := NewContext(seg, ts, batch)
	require.NoError(t, err)
	root, err := Compile(ectx, node)
	require.NoError(t, err)

	var out []bool
	var processed int64
	for {
		n := ectx.NextBatchSize(processed)
		if n == 0 {
			break
		}
		vec, err := root.Eval(n)
		require.NoError(t, err)
		require.Equal(t, n, vec.Len(), "batch size invariant")
		out = append(out, vec.Values...)
		processed += int64(n)
	}
	require.Equal(t, ectx.Active, processed, "batches must cover the active rows")
	return out
}

func compileErr(t *testing.T, seg *segment.Segment, node plan.Node) error {
	t.Helper()
	ectx, err := NewContext(seg, schema.MaxTimestamp, 64)
	require.NoError(t, err)
	_, err = Compile(ectx, node)
	return err
}

func int64Col(op plan.CompareOp, val plan.Value) plan.UnaryRange {
	return plan.UnaryRange{
		Column: plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64},
		Op:     op,
		Val:    val,
	}
}

func countTrue(sel []bool) int {
	n := 0
	for _, v := range sel {
		if v {
			n++
		}
	}
	return n
}

func TestUnaryRange_Int64(t *testing.T) {
	seg, err := testutil.Int64Segment(100, testutil.SeqInt64(1000))
	require.NoError(t, err)

	t.Run("LessThan", func(t *testing.T) {
		sel := evalAll(t, seg, int64Col(plan.OpLessThan, plan.Int(10)), schema.MaxTimestamp, 128)
		require.Len(t, sel, 1000)
		assert.Equal(t, 10, countTrue(sel))
		for i := 0; i < 10; i++ {
			assert.True(t, sel[i], "row %d", i)
		}
		assert.False(t, sel[10])
	})

	t.Run("AllOps", func(t *testing.T) {
		for _, tc := range []struct {
			op   plan.CompareOp
			want func(int64) bool
		}{
			{plan.OpEqual, func(v int64) bool { return v == 500 }},
			{plan.OpNotEqual, func(v int64) bool { return v != 500 }},
			{plan.OpLessThan, func(v int64) bool { return v < 500 }},
			{plan.OpLessEqual, func(v int64) bool { return v <= 500 }},
			{plan.OpGreaterThan, func(v int64) bool { return v > 500 }},
			{plan.OpGreaterEqual, func(v int64) bool { return v >= 500 }},
		} {
			sel := evalAll(t, seg, int64Col(tc.op, plan.Int(500)), schema.MaxTimestamp, 77)
			for i, got := range sel {
				require.Equal(t, tc.want(int64(i)), got, "op %s row %d", tc.op, i)
			}
		}
	})

	t.Run("FractionalLiteral", func(t *testing.T) {
		sel := evalAll(t, seg, int64Col(plan.OpLessThan, plan.Float(9.5)), schema.MaxTimestamp, 128)
		assert.Equal(t, 10, countTrue(sel))

		sel = evalAll(t, seg, int64Col(plan.OpEqual, plan.Float(9.5)), schema.MaxTimestamp, 128)
		assert.Equal(t, 0, countTrue(sel))

		sel = evalAll(t, seg, int64Col(plan.OpNotEqual, plan.Float(9.5)), schema.MaxTimestamp, 128)
		assert.Equal(t, 1000, countTrue(sel))
	})
}

func TestUnaryRange_OverflowCollapse(t *testing.T) {
	sch := schema.New(schema.Field{ID: 1, Name: "x", Type: schema.DataTypeInt8})
	seg, err := segment.NewGrowing(sch, 16)
	require.NoError(t, err)
	vals := []int8{-128, -1, 0, 1, 127}
	require.NoError(t, seg.Insert(segment.InsertData{
		Timestamps: testutil.SeqTimestamps(len(vals)),
		Columns:    map[schema.FieldID]any{1: vals},
	}))

	col := plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt8}
	above := plan.Int(200)  // > MaxInt8
	below := plan.Int(-200) // < MinInt8

	for _, tc := range []struct {
		name string
		op   plan.CompareOp
		val  plan.Value
		want int
	}{
		{"GtAbove", plan.OpGreaterThan, above, 0},
		{"GeAbove", plan.OpGreaterEqual, above, 0},
		{"LtAbove", plan.OpLessThan, above, 5},
		{"LeAbove", plan.OpLessEqual, above, 5},
		{"EqAbove", plan.OpEqual, above, 0},
		{"NeAbove", plan.OpNotEqual, above, 5},
		{"LtBelow", plan.OpLessThan, below, 0},
		{"LeBelow", plan.OpLessEqual, below, 0},
		{"GtBelow", plan.OpGreaterThan, below, 5},
		{"GeBelow", plan.OpGreaterEqual, below, 5},
		{"EqBelow", plan.OpEqual, below, 0},
		{"NeBelow", plan.OpNotEqual, below, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: tc.op, Val: tc.val}, schema.MaxTimestamp, 3)
			assert.Equal(t, tc.want, countTrue(sel))
		})
	}

	// In-domain boundaries still compare element-wise.
	sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpGreaterEqual, Val: plan.Int(127)}, schema.MaxTimestamp, 3)
	assert.Equal(t, 1, countTrue(sel))
}

func TestUnaryRange_Strings(t *testing.T) {
	seg, err := testutil.VarCharSegment(2, []string{"a", "aa", "ab", "b"})
	require.NoError(t, err)

	col := plan.ColumnInfo{Field: testutil.VarCharField, Type: schema.DataTypeVarChar}

	t.Run("PrefixMatch", func(t *testing.T) {
		sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpPrefixMatch, Val: plan.String("a")}, schema.MaxTimestamp, 3)
		assert.Equal(t, []bool{true, true, true, false}, sel)
	})

	t.Run("Lexicographic", func(t *testing.T) {
		sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpGreaterThan, Val: plan.String("aa")}, schema.MaxTimestamp, 3)
		assert.Equal(t, []bool{false, false, true, true}, sel)
	})
}

func TestUnaryRange_Bool(t *testing.T) {
	sch := schema.New(schema.Field{ID: 1, Name: "b", Type: schema.DataTypeBool})
	seg, err := segment.NewGrowing(sch, 4)
	require.NoError(t, err)
	require.NoError(t, seg.Insert(segment.InsertData{
		Timestamps: testutil.SeqTimestamps(4),
		Columns:    map[schema.FieldID]any{1: []bool{true, false, true, false}},
	}))

	col := plan.ColumnInfo{Field: 1, Type: schema.DataTypeBool}
	sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpEqual, Val: plan.Bool(true)}, schema.MaxTimestamp, 3)
	assert.Equal(t, []bool{true, false, true, false}, sel)

	err = compileErr(t, seg, plan.UnaryRange{Column: col, Op: plan.OpLessThan, Val: plan.Bool(true)})
	assert.ErrorIs(t, err, ErrOpTypeInvalid)
}

func TestUnaryRange_JSON(t *testing.T) {
	docs := []string{
		`{"a": 1, "s": "foo"}`,
		`{"a": 3.0}`,
		`{"a": 3.5}`,
		`{"b": 9}`,
		`not json`,
	}
	seg, err := testutil.JSONSegment(2, docs)
	require.NoError(t, err)

	col := plan.ColumnInfo{Field: testutil.JSONField, Type: schema.DataTypeJSON, NestedPath: []string{"a"}}

	t.Run("IntMatchesZeroFractionDouble", func(t *testing.T) {
		sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpEqual, Val: plan.Int(3)}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, true, false, false, false}, sel)
	})

	t.Run("Ordering", func(t *testing.T) {
		sel := evalAll(t, seg, plan.UnaryRange{Column: col, Op: plan.OpGreaterEqual, Val: plan.Int(3)}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, true, true, false, false}, sel)
	})

	t.Run("StringLeaf", func(t *testing.T) {
		scol := plan.ColumnInfo{Field: testutil.JSONField, Type: schema.DataTypeJSON, NestedPath: []string{"s"}}
		sel := evalAll(t, seg, plan.UnaryRange{Column: scol, Op: plan.OpPrefixMatch, Val: plan.String("f")}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, false, false, false, false}, sel)
	})
}

func TestBinaryRange_Int(t *testing.T) {
	seg, err := testutil.Int64Segment(7, testutil.SeqInt64(100))
	require.NoError(t, err)
	col := plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64}

	for _, tc := range []struct {
		name           string
		loIncl, hiIncl bool
		want           int
	}{
		{"InclIncl", true, true, 11},
		{"InclExcl", true, false, 10},
		{"ExclIncl", false, true, 10},
		{"ExclExcl", false, false, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sel := evalAll(t, seg, plan.BinaryRange{
				Column: col,
				Lo:     plan.Int(10), Hi: plan.Int(20),
				LowerInclusive: tc.loIncl, UpperInclusive: tc.hiIncl,
			}, schema.MaxTimestamp, 13)
			assert.Equal(t, tc.want, countTrue(sel))
		})
	}

	t.Run("CollapseOutsideDomain", func(t *testing.T) {
		sch := schema.New(schema.Field{ID: 1, Name: "x", Type: schema.DataTypeInt16})
		s, err := segment.NewGrowing(sch, 8)
		require.NoError(t, err)
		require.NoError(t, s.Insert(segment.InsertData{
			Timestamps: testutil.SeqTimestamps(3),
			Columns:    map[schema.FieldID]any{1: []int16{-10, 0, 10}},
		}))

		sel := evalAll(t, s, plan.BinaryRange{
			Column: plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt16},
			Lo:     plan.Int(40000), Hi: plan.Int(50000),
			LowerInclusive: true, UpperInclusive: true,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, 0, countTrue(sel))

		// A range clamped onto the domain keeps matching.
		sel = evalAll(t, s, plan.BinaryRange{
			Column: plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt16},
			Lo:     plan.Int(-40000), Hi: plan.Int(40000),
			LowerInclusive: false, UpperInclusive: false,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, 3, countTrue(sel))
	})
}

func TestBinaryRange_Strings(t *testing.T) {
	seg, err := testutil.VarCharSegment(3, []string{"apple", "banana", "cherry", "date"})
	require.NoError(t, err)

	sel := evalAll(t, seg, plan.BinaryRange{
		Column: plan.ColumnInfo{Field: testutil.VarCharField, Type: schema.DataTypeVarChar},
		Lo:     plan.String("b"), Hi: plan.String("d"),
		LowerInclusive: true, UpperInclusive: false,
	}, schema.MaxTimestamp, 3)
	assert.Equal(t, []bool{false, true, true, false}, sel)
}

func TestTerm(t *testing.T) {
	seg, err := testutil.Int64Segment(5, testutil.SeqInt64(20))
	require.NoError(t, err)
	col := plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64}

	t.Run("In", func(t *testing.T) {
		sel := evalAll(t, seg, plan.Term{Column: col, Vals: []plan.Value{plan.Int(3), plan.Int(17), plan.Int(99)}}, schema.MaxTimestamp, 4)
		assert.Equal(t, 2, countTrue(sel))
		assert.True(t, sel[3])
		assert.True(t, sel[17])
	})

	t.Run("EmptySet", func(t *testing.T) {
		sel := evalAll(t, seg, plan.Term{Column: col, Vals: nil}, schema.MaxTimestamp, 4)
		assert.Equal(t, 0, countTrue(sel))
	})

	t.Run("Strings", func(t *testing.T) {
		sseg, err := testutil.VarCharSegment(2, []string{"x", "y", "z"})
		require.NoError(t, err)
		sel := evalAll(t, sseg, plan.Term{
			Column: plan.ColumnInfo{Field: testutil.VarCharField, Type: schema.DataTypeVarChar},
			Vals:   []plan.Value{plan.String("y")},
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, true, false}, sel)
	})

	t.Run("IsInField", func(t *testing.T) {
		jseg, err := testutil.JSONSegment(2, []string{
			`{"tags": [1, 2, 3]}`,
			`{"tags": [4]}`,
			`{"tags": "not an array"}`,
		})
		require.NoError(t, err)
		sel := evalAll(t, jseg, plan.Term{
			Column:    plan.ColumnInfo{Field: testutil.JSONField, Type: schema.DataTypeJSON, NestedPath: []string{"tags"}},
			Vals:      []plan.Value{plan.Int(2)},
			IsInField: true,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, false, false}, sel)
	})
}

func TestBinaryArith(t *testing.T) {
	sch := schema.New(schema.Field{ID: 1, Name: "x", Type: schema.DataTypeInt32})
	seg, err := segment.NewGrowing(sch, 2)
	require.NoError(t, err)
	require.NoError(t, seg.Insert(segment.InsertData{
		Timestamps: testutil.SeqTimestamps(5),
		Columns:    map[schema.FieldID]any{1: []int32{1, 2, 3, 4, 5}},
	}))
	col := plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt32}

	t.Run("MulEq", func(t *testing.T) {
		sel := evalAll(t, seg, plan.BinaryArith{
			Column: col, Arith: plan.OpMul, Operand: plan.Int(2),
			Op: plan.OpEqual, Val: plan.Int(6),
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, false, true, false, false}, sel)
	})

	t.Run("ModEq", func(t *testing.T) {
		sel := evalAll(t, seg, plan.BinaryArith{
			Column: col, Arith: plan.OpMod, Operand: plan.Int(2),
			Op: plan.OpEqual, Val: plan.Int(0),
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, true, false, true, false}, sel)
	})

	t.Run("DivByZeroIsFalse", func(t *testing.T) {
		sel := evalAll(t, seg, plan.BinaryArith{
			Column: col, Arith: plan.OpDiv, Operand: plan.Int(0),
			Op: plan.OpEqual, Val: plan.Int(1),
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, 0, countTrue(sel))

		sel = evalAll(t, seg, plan.BinaryArith{
			Column: col, Arith: plan.OpMod, Operand: plan.Int(0),
			Op: plan.OpNotEqual, Val: plan.Int(1),
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, 0, countTrue(sel))
	})

	t.Run("EqOrNeOnly", func(t *testing.T) {
		err := compileErr(t, seg, plan.BinaryArith{
			Column: col, Arith: plan.OpAdd, Operand: plan.Int(1),
			Op: plan.OpLessThan, Val: plan.Int(3),
		})
		assert.ErrorIs(t, err, ErrOpTypeInvalid)
	})

	t.Run("FloatDivByZeroIsFalse", func(t *testing.T) {
		fsch := schema.New(schema.Field{ID: 1, Name: "f", Type: schema.DataTypeDouble})
		fseg, err := segment.NewGrowing(fsch, 4)
		require.NoError(t, err)
		require.NoError(t, fseg.Insert(segment.InsertData{
			Timestamps: testutil.SeqTimestamps(2),
			Columns:    map[schema.FieldID]any{1: []float64{1.5, 3.0}},
		}))
		sel := evalAll(t, fseg, plan.BinaryArith{
			Column: plan.ColumnInfo{Field: 1, Type: schema.DataTypeDouble},
			Arith:  plan.OpDiv, Operand: plan.Float(0),
			Op: plan.OpEqual, Val: plan.Float(1),
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, 0, countTrue(sel))
	})
}

func TestCompareColumns(t *testing.T) {
	sch := schema.New(
		schema.Field{ID: 1, Name: "a", Type: schema.DataTypeInt64},
		schema.Field{ID: 2, Name: "b", Type: schema.DataTypeInt32},
		schema.Field{ID: 3, Name: "s1", Type: schema.DataTypeVarChar},
		schema.Field{ID: 4, Name: "s2", Type: schema.DataTypeVarChar},
	)
	seg, err := segment.NewGrowing(sch, 3)
	require.NoError(t, err)
	require.NoError(t, seg.Insert(segment.InsertData{
		Timestamps: testutil.SeqTimestamps(5),
		Columns: map[schema.FieldID]any{
			1: []int64{1, 5, 3, 9, 2},
			2: []int32{1, 4, 4, 9, 1},
			3: []string{"a", "b", "c", "d", "e"},
			4: []string{"a", "a", "d", "d", "a"},
		},
	}))

	t.Run("NumericCrossWidth", func(t *testing.T) {
		sel := evalAll(t, seg, plan.Compare{
			Left:  plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt64},
			Right: plan.ColumnInfo{Field: 2, Type: schema.DataTypeInt32},
			Op:    plan.OpEqual,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, false, false, true, false}, sel)

		sel = evalAll(t, seg, plan.Compare{
			Left:  plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt64},
			Right: plan.ColumnInfo{Field: 2, Type: schema.DataTypeInt32},
			Op:    plan.OpGreaterThan,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{false, true, false, false, true}, sel)
	})

	t.Run("Strings", func(t *testing.T) {
		sel := evalAll(t, seg, plan.Compare{
			Left:  plan.ColumnInfo{Field: 3, Type: schema.DataTypeVarChar},
			Right: plan.ColumnInfo{Field: 4, Type: schema.DataTypeVarChar},
			Op:    plan.OpLessEqual,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, false, true, true, false}, sel)
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := compileErr(t, seg, plan.Compare{
			Left:  plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt64},
			Right: plan.ColumnInfo{Field: 3, Type: schema.DataTypeVarChar},
			Op:    plan.OpEqual,
		})
		assert.ErrorIs(t, err, ErrTypeInvalid)
	})
}

func TestExistsAndJSONContains(t *testing.T) {
	seg, err := testutil.JSONSegment(2, []string{
		`{"a": [1, 2, 3]}`,
		`{"a": [4]}`,
		`{"b": 1}`,
	})
	require.NoError(t, err)
	col := plan.ColumnInfo{Field: testutil.JSONField, Type: schema.DataTypeJSON, NestedPath: []string{"a"}}

	t.Run("Exists", func(t *testing.T) {
		sel := evalAll(t, seg, plan.Exists{Column: col}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, true, false}, sel)
	})

	t.Run("ContainsAll", func(t *testing.T) {
		sel := evalAll(t, seg, plan.JSONContains{
			Column: col,
			Vals:   []plan.Value{plan.Int(1), plan.Int(3)},
			All:    true,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, false, false}, sel)
	})

	t.Run("ContainsAny", func(t *testing.T) {
		sel := evalAll(t, seg, plan.JSONContains{
			Column: col,
			Vals:   []plan.Value{plan.Int(3), plan.Int(4)},
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true, true, false}, sel)
	})

	t.Run("Heterogeneous", func(t *testing.T) {
		hseg, err := testutil.JSONSegment(2, []string{
			`{"a": ["x", 2, true]}`,
		})
		require.NoError(t, err)
		sel := evalAll(t, hseg, plan.JSONContains{
			Column: col,
			Vals:   []plan.Value{plan.String("x"), plan.Bool(true)},
			All:    true,
		}, schema.MaxTimestamp, 2)
		assert.Equal(t, []bool{true}, sel)
	})
}

func TestLogicalOps(t *testing.T) {
	seg, err := testutil.Int64Segment(7, testutil.SeqInt64(100))
	require.NoError(t, err)

	p := plan.Node(int64Col(plan.OpLessThan, plan.Int(50)))     // rows 0..49
	q := plan.Node(int64Col(plan.OpGreaterEqual, plan.Int(30))) // rows 30..99

	run := func(node plan.Node) []bool {
		return evalAll(t, seg, node, schema.MaxTimestamp, 9)
	}

	t.Run("And", func(t *testing.T) {
		sel := run(plan.LogicalBinary{Op: plan.OpAnd, Left: p, Right: q})
		assert.Equal(t, 20, countTrue(sel))
	})
	t.Run("Or", func(t *testing.T) {
		sel := run(plan.LogicalBinary{Op: plan.OpOr, Left: p, Right: q})
		assert.Equal(t, 100, countTrue(sel))
	})
	t.Run("Xor", func(t *testing.T) {
		sel := run(plan.LogicalBinary{Op: plan.OpXor, Left: p, Right: q})
		assert.Equal(t, 80, countTrue(sel))
	})
	t.Run("Minus", func(t *testing.T) {
		sel := run(plan.LogicalBinary{Op: plan.OpMinus, Left: p, Right: q})
		assert.Equal(t, 30, countTrue(sel))
	})
	t.Run("NotNot", func(t *testing.T) {
		sel := run(plan.Not{Child: plan.Not{Child: p}})
		assert.Equal(t, run(p), sel)
	})
	t.Run("Absorption", func(t *testing.T) {
		// (P AND Q) OR (P AND NOT Q) == P
		lhs := run(plan.LogicalBinary{
			Op:    plan.OpOr,
			Left:  plan.LogicalBinary{Op: plan.OpAnd, Left: p, Right: q},
			Right: plan.LogicalBinary{Op: plan.OpAnd, Left: p, Right: plan.Not{Child: q}},
		})
		assert.Equal(t, run(p), lhs)
	})
}

func TestConjunctionShortCircuit(t *testing.T) {
	seg, err := testutil.Int64Segment(5, testutil.SeqInt64(60))
	require.NoError(t, err)

	neverMatch := int64Col(plan.OpLessThan, plan.Int(0))
	someMatch := int64Col(plan.OpGreaterEqual, plan.Int(30))

	// The all-false first child short-circuits the second on every
	// batch; the skipped child's cursor must stay in step across all
	// batches for the result to stay correct.
	sel := evalAll(t, seg, plan.Conjunction{
		Children: []plan.Node{neverMatch, someMatch},
	}, schema.MaxTimestamp, 7)
	assert.Equal(t, 0, countTrue(sel))

	// Mixed: first child is all-false only on some batches.
	firstHalf := int64Col(plan.OpLessThan, plan.Int(30))
	sel = evalAll(t, seg, plan.Conjunction{
		Children: []plan.Node{firstHalf, someMatch},
	}, schema.MaxTimestamp, 7)
	assert.Equal(t, 0, countTrue(sel))

	sel = evalAll(t, seg, plan.Conjunction{
		Children: []plan.Node{someMatch, someMatch, someMatch},
	}, schema.MaxTimestamp, 7)
	assert.Equal(t, 30, countTrue(sel))
}

func TestDisjunctionShortCircuit(t *testing.T) {
	seg, err := testutil.Int64Segment(5, testutil.SeqInt64(60))
	require.NoError(t, err)

	alwaysMatch := int64Col(plan.OpGreaterEqual, plan.Int(0))
	someMatch := int64Col(plan.OpLessThan, plan.Int(10))

	sel := evalAll(t, seg, plan.Disjunction{
		Children: []plan.Node{alwaysMatch, someMatch},
	}, schema.MaxTimestamp, 7)
	assert.Equal(t, 60, countTrue(sel))

	sel = evalAll(t, seg, plan.Disjunction{
		Children: []plan.Node{someMatch, alwaysMatch},
	}, schema.MaxTimestamp, 7)
	assert.Equal(t, 60, countTrue(sel))
}

func TestIndexModeMatchesDataMode(t *testing.T) {
	vals := make([]int64, 500)
	rng := testutil.NewRNG(17)
	rng.FillInt64(vals, 100)

	growing, err := testutil.Int64Segment(64, vals)
	require.NoError(t, err)
	sealed, err := segment.Seal(growing, testutil.Int64Field)
	require.NoError(t, err)
	require.True(t, sealed.HasIndex(testutil.Int64Field))

	nodes := []plan.Node{
		int64Col(plan.OpEqual, plan.Int(42)),
		int64Col(plan.OpNotEqual, plan.Int(42)),
		int64Col(plan.OpLessThan, plan.Int(50)),
		int64Col(plan.OpGreaterEqual, plan.Int(77)),
		plan.Term{
			Column: plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64},
			Vals:   []plan.Value{plan.Int(5), plan.Int(10), plan.Int(15)},
		},
		plan.BinaryRange{
			Column: plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64},
			Lo:     plan.Int(20), Hi: plan.Int(60),
			LowerInclusive: true, UpperInclusive: false,
		},
	}

	for i, node := range nodes {
		dataSel := evalAll(t, growing, node, schema.MaxTimestamp, 31)
		indexSel := evalAll(t, sealed, node, schema.MaxTimestamp, 31)
		assert.Equal(t, dataSel, indexSel, "node %d", i)
	}
}

func TestIndexedStringPrefix(t *testing.T) {
	growing, err := testutil.VarCharSegment(2, []string{"a", "aa", "ab", "b"})
	require.NoError(t, err)
	sealed, err := segment.Seal(growing, testutil.VarCharField)
	require.NoError(t, err)

	sel := evalAll(t, sealed, plan.UnaryRange{
		Column: plan.ColumnInfo{Field: testutil.VarCharField, Type: schema.DataTypeVarChar},
		Op:     plan.OpPrefixMatch,
		Val:    plan.String("a"),
	}, schema.MaxTimestamp, 3)
	assert.Equal(t, []bool{true, true, true, false}, sel)
}

func TestHybridCompare(t *testing.T) {
	sch := schema.New(
		schema.Field{ID: 1, Name: "a", Type: schema.DataTypeInt64},
		schema.Field{ID: 2, Name: "b", Type: schema.DataTypeInt64},
	)
	g, err := segment.NewGrowing(sch, 4)
	require.NoError(t, err)
	require.NoError(t, g.Insert(segment.InsertData{
		Timestamps: testutil.SeqTimestamps(6),
		Columns: map[schema.FieldID]any{
			1: []int64{1, 2, 3, 4, 5, 6},
			2: []int64{1, 0, 3, 0, 5, 0},
		},
	}))

	node := plan.Compare{
		Left:  plan.ColumnInfo{Field: 1, Type: schema.DataTypeInt64},
		Right: plan.ColumnInfo{Field: 2, Type: schema.DataTypeInt64},
		Op:    plan.OpEqual,
	}

	want := evalAll(t, g, node, schema.MaxTimestamp, 4)
	assert.Equal(t, []bool{true, false, true, false, true, false}, want)

	// One side indexed forces the hybrid per-row accessor path.
	sealed, err := segment.Seal(g, 1)
	require.NoError(t, err)
	got := evalAll(t, sealed, node, schema.MaxTimestamp, 4)
	assert.Equal(t, want, got)
}

func TestEvaluatorErrors(t *testing.T) {
	seg, err := testutil.Int64Segment(8, testutil.SeqInt64(10))
	require.NoError(t, err)
	col := plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeInt64}

	t.Run("PrefixOnInt", func(t *testing.T) {
		err := compileErr(t, seg, plan.UnaryRange{Column: col, Op: plan.OpPrefixMatch, Val: plan.String("x")})
		assert.ErrorIs(t, err, ErrOpTypeInvalid)
	})
	t.Run("StringLiteralOnInt", func(t *testing.T) {
		err := compileErr(t, seg, plan.UnaryRange{Column: col, Op: plan.OpEqual, Val: plan.String("x")})
		assert.ErrorIs(t, err, ErrTypeInvalid)
	})
	t.Run("UnsupportedColumnType", func(t *testing.T) {
		err := compileErr(t, seg, plan.UnaryRange{
			Column: plan.ColumnInfo{Field: testutil.Int64Field, Type: schema.DataTypeVectorFloat},
			Op:     plan.OpEqual, Val: plan.Int(1),
		})
		assert.ErrorIs(t, err, ErrTypeInvalid)
	})
	t.Run("EmptyConjunction", func(t *testing.T) {
		err := compileErr(t, seg, plan.Conjunction{})
		assert.ErrorIs(t, err, ErrExprInvalid)
	})
	t.Run("NilNode", func(t *testing.T) {
		err := compileErr(t, seg, nil)
		assert.ErrorIs(t, err, ErrExprInvalid)
	})
	t.Run("NonPositiveBatch", func(t *testing.T) {
		_, err := NewContext(seg, schema.MaxTimestamp, 0)
		assert.ErrorIs(t, err, ErrFatal)
	})
}

func TestTimestampVisibility(t *testing.T) {
	seg, err := testutil.Int64Segment(16, testutil.SeqInt64(100))
	require.NoError(t, err)

	// Timestamps are 1..100; ts=50 exposes the first 50 rows.
	sel := evalAll(t, seg, int64Col(plan.OpGreaterEqual, plan.Int(0)), 50, 7)
	require.Len(t, sel, 50)
	assert.Equal(t, 50, countTrue(sel))
}

func TestAlwaysTrue(t *testing.T) {
	seg, err := testutil.Int64Segment(4, testutil.SeqInt64(10))
	require.NoError(t, err)
	sel := evalAll(t, seg, plan.AlwaysTrue{}, schema.MaxTimestamp, 3)
	assert.Equal(t, 10, countTrue(sel))
}

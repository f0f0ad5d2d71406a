package exec

import (
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/segcore/plan"
)

// JSON evaluation decodes one document per row and resolves the
// nested path as a single shot; no pointer structure is cached across
// rows. Missing paths and type mismatches select false, they are not
// errors.

func decodeJSONRow(raw []byte) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var doc any
	if err := gojson.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// lookupJSONPath walks the decoded document along the nested path.
// Map levels are addressed by key; array levels by a decimal index.
func lookupJSONPath(doc any, path []string) (any, bool) {
	cur := doc
	for _, p := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[p]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(p)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// jsonAsInt64 extracts an integer from a decoded JSON value. A double
// with zero fractional part matches an integer column or literal.
func jsonAsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return int64(n), true
		}
		return 0, false
	case int64:
		return n, true
	case gojson.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func jsonAsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case gojson.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func jsonAsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func jsonAsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// jsonValueEqual compares a decoded JSON element against a plan
// literal. Numbers compare numerically across int/float kinds.
func jsonValueEqual(elem any, lit plan.Value) bool {
	switch lit.Kind {
	case plan.KindInt:
		i, ok := jsonAsInt64(elem)
		return ok && i == lit.I64
	case plan.KindFloat:
		f, ok := jsonAsFloat64(elem)
		return ok && f == lit.F64
	case plan.KindString:
		s, ok := jsonAsString(elem)
		return ok && s == lit.S
	case plan.KindBool:
		b, ok := jsonAsBool(elem)
		return ok && b == lit.B
	case plan.KindNull:
		return elem == nil
	case plan.KindArray:
		arr, ok := elem.([]any)
		if !ok || len(arr) != len(lit.A) {
			return false
		}
		for i := range arr {
			if !jsonValueEqual(arr[i], lit.A[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

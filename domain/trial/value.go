package trial

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the storage type of a single cell.
type Kind int

// The zero Kind is KindMissing so that the zero Value is a missing cell.
const (
	KindMissing Kind = iota
	KindBool
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "missing"
	}
}

// MarshalText lets kinds appear by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// rank orders kinds for cross-kind comparison. Missing sorts last.
func (k Kind) rank() int {
	switch k {
	case KindBool:
		return 0
	case KindNumber:
		return 1
	case KindString:
		return 2
	default:
		return 3
	}
}

// Value is one typed cell of a Table. It remembers the raw text it was
// parsed from so label matching can stay exact.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
	raw  string
}

// Missing returns an absent cell.
func Missing() Value { return Value{} }

// Number returns a numeric cell. NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f, raw: formatNumber(f)}
}

// Int is a convenience wrapper around Number.
func Int(n int) Value { return Number(float64(n)) }

// Bool returns a boolean cell.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b, raw: strconv.FormatBool(b)}
}

// Text returns a string cell. The empty string is stored as missing.
func Text(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{kind: KindString, str: s, raw: s}
}

// WithRaw returns a copy of v that reports raw as its source text.
func (v Value) WithRaw(raw string) Value {
	v.raw = raw
	return v
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Raw returns the text the value was parsed from.
func (v Value) Raw() string { return v.raw }

// Float returns the numeric content of a number cell.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// BoolValue returns the content of a boolean cell.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Key is the canonical grouping key: two cells are the same category iff
// their keys are equal, regardless of how their raw text was spelled.
func (v Value) Key() string {
	switch v.kind {
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindNumber:
		return "n:" + formatNumber(v.num)
	case KindString:
		return "s:" + v.str
	default:
		return "m:"
	}
}

// Equal reports whether two cells belong to the same category.
func (v Value) Equal(o Value) bool { return v.Key() == o.Key() }

// Compare gives the natural ordering: false < true, numbers numerically,
// strings lexicographically, and Bool < Number < String < Missing across kinds.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		if v.kind.rank() < o.kind.rank() {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case KindNumber:
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		default:
			return 0
		}
	case KindString:
		return strings.Compare(v.str, o.str)
	default:
		return 0
	}
}

// MarshalJSON encodes numbers, booleans and strings natively and missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// CompareKeys compares two equally long value tuples lexicographically.
func CompareKeys(a, b []Value) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// TupleKey joins the canonical keys of a value tuple.
func TupleKey(values []Value) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(v.Key())
	}
	return sb.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

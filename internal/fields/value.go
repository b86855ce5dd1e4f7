// Package fields normalizes raw remote payload values into canonical
// shapes. Remote schemas vary between server generations, so lookup is
// deliberately permissive: a missing path yields an empty value, never
// an error.
package fields

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the payload variant.
type Kind int

const (
	// Absent is the zero value: no data at the requested path.
	Absent Kind = iota
	// Scalar is a plain value (string, number, bool).
	Scalar
	// Mapping is a string-keyed object.
	Mapping
	// Sequence is an ordered list of values.
	Sequence
)

// Value is a tagged variant over a decoded remote payload.
type Value struct {
	kind     Kind
	scalar   any
	mapping  map[string]Value
	sequence []Value
}

// FromJSON wraps a value decoded by encoding/json (or an equivalent
// map/slice/scalar tree) into a Value.
func FromJSON(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case map[string]any:
		m := make(map[string]Value, len(v))
		for k, elem := range v {
			m[k] = FromJSON(elem)
		}
		return Value{kind: Mapping, mapping: m}
	case []any:
		s := make([]Value, 0, len(v))
		for _, elem := range v {
			s = append(s, FromJSON(elem))
		}
		return Value{kind: Sequence, sequence: s}
	default:
		return Value{kind: Scalar, scalar: v}
	}
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether no value is present.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Lookup resolves a dotted key path against v. Resolution walks one
// path segment at a time:
//   - on a mapping, descend into the segment's entry;
//   - on a sequence, search for a mapping element carrying the segment
//     and descend into its value;
//   - on a scalar with path segments left over, fall through to the
//     scalar itself (the raw-value fallback some server generations
//     rely on).
//
// A segment that matches nothing yields the absent Value.
func (v Value) Lookup(path string) Value {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		cur = cur.step(seg)
		if cur.kind == Absent {
			return Value{}
		}
	}
	return cur
}

func (v Value) step(seg string) Value {
	switch v.kind {
	case Mapping:
		if child, ok := v.mapping[seg]; ok {
			return child
		}
		return Value{}
	case Sequence:
		for _, elem := range v.sequence {
			if elem.kind != Mapping {
				continue
			}
			if child, ok := elem.mapping[seg]; ok {
				return child
			}
		}
		return Value{}
	case Scalar:
		// Raw value with path remaining: fall through.
		return v
	default:
		return Value{}
	}
}

// Str renders the value as a string. Absent and non-scalar values
// render empty; numbers drop a trailing ".0" so numeric ids read
// cleanly.
func (v Value) Str() string {
	if v.kind != Scalar {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Int renders the value as an int, zero when not numeric.
func (v Value) Int() int {
	if v.kind != Scalar {
		return 0
	}
	switch s := v.scalar.(type) {
	case float64:
		return int(s)
	case int:
		return s
	case int64:
		return int(s)
	case string:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Seq returns the sequence elements, nil for other kinds.
func (v Value) Seq() []Value {
	if v.kind != Sequence {
		return nil
	}
	return v.sequence
}

// Strs flattens a sequence of scalars into strings, skipping empties.
func (v Value) Strs() []string {
	var out []string
	for _, elem := range v.Seq() {
		if s := elem.Str(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

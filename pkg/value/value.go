// Package value implements the dynamically typed REXX value.
//
// Every scalar is a canonical string; a numeric interpretation is parsed
// lazily on first use and cached, so round-tripping through the string form is
// always lossless. Composite forms (arrays, maps), opaque handles and function
// values exist for collaborators and the DO OVER / compound-variable machinery.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the representation held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindArray
	KindMap
	KindHandle
	KindFunction
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindHandle:
		return "handle"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Function is a callable value. The evaluator provides the implementation
// (arrow lambdas); builtins invoke it through functions.Caller.
type Function interface {
	Params() []string
	String() string
}

// numCache holds the lazily parsed numeric interpretation of a string.
type numCache struct {
	done bool
	ok   bool
	f    float64
}

// Value is a REXX value. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  *numCache
	arr  []Value
	obj  *Map
	fn   Function
}

// Empty is the empty string value.
var Empty = Value{}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s, num: &numCache{}}
}

// Number creates a numeric value formatted under the default numeric settings.
func Number(f float64) Value {
	return DefaultNumeric.FromNumber(f)
}

// Int creates a numeric value from an integer.
func Int(i int) Value {
	return Value{kind: KindString, str: strconv.Itoa(i), num: &numCache{done: true, ok: true, f: float64(i)}}
}

// Bool creates the logical value "1" or "0".
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Array creates an array value. Elements are addressed 1-based through
// compound tails; index 0 yields the length.
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindArray, arr: cp}
}

// FromMap creates a map value. The map is not copied.
func FromMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, obj: m}
}

// Handle creates an opaque handle. The core treats it as an uninterpreted
// string token.
func Handle(token string) Value {
	return Value{kind: KindHandle, str: token}
}

// Func wraps a callable value.
func Func(fn Function) Value {
	return Value{kind: KindFunction, fn: fn}
}

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsScalar reports whether the value is a plain string.
func (v Value) IsScalar() bool {
	return v.kind == KindString
}

// String returns the canonical string form. Arrays and maps render as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindHandle:
		return v.str
	case KindArray, KindMap:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	case KindFunction:
		if v.fn == nil {
			return ""
		}
		return v.fn.String()
	default:
		return ""
	}
}

// Number returns the numeric interpretation of the value.
func (v Value) Number() (float64, bool) {
	if v.kind != KindString {
		return 0, false
	}
	if v.num == nil {
		return ParseNumber(v.str)
	}
	if !v.num.done {
		v.num.f, v.num.ok = ParseNumber(v.str)
		v.num.done = true
	}
	return v.num.f, v.num.ok
}

// IsNumeric reports whether the value is a number in REXX format.
func (v Value) IsNumeric() bool {
	_, ok := v.Number()
	return ok
}

// Int returns the value as a whole number.
func (v Value) Int() (int, bool) {
	f, ok := v.Number()
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Bool interprets the value as a logical value: numbers are true when
// non-zero, and "true"/"false" are accepted in any case.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindString {
		return false, false
	}
	if f, ok := v.Number(); ok {
		return f != 0, true
	}
	switch strings.ToLower(strings.TrimSpace(v.str)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Len returns the number of elements of an array or map, or the string length.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return v.obj.Len()
	default:
		return len(v.String())
	}
}

// Elements returns the elements of an array value (nil for other kinds).
// The returned slice must not be modified.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Index returns the 1-based element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 1 || i > len(v.arr) {
		return Empty, false
	}
	return v.arr[i-1], true
}

// WithIndex returns a copy of the array with element i (1-based) replaced.
// Writing len+1 appends.
func (v Value) WithIndex(i int, elem Value) (Value, bool) {
	if v.kind != KindArray || i < 1 || i > len(v.arr)+1 {
		return v, false
	}
	cp := make([]Value, len(v.arr), len(v.arr)+1)
	copy(cp, v.arr)
	if i == len(cp)+1 {
		cp = append(cp, elem)
	} else {
		cp[i-1] = elem
	}
	return Value{kind: KindArray, arr: cp}, true
}

// Map returns the map of a map value (nil for other kinds).
func (v Value) Map() *Map {
	if v.kind != KindMap {
		return nil
	}
	return v.obj
}

// Function returns the callable of a function value.
func (v Value) Function() Function {
	return v.fn
}

// StrictEqual compares canonical string forms exactly.
func (v Value) StrictEqual(o Value) bool {
	return v.String() == o.String()
}

// MarshalJSON renders numbers as JSON numbers and everything else as strings,
// arrays and objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindMap:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.obj.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			e, _ := v.obj.Get(k)
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindString:
		if f, ok := v.Number(); ok && isJSONNumber(v.str) {
			return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return json.Marshal(v.str)
	default:
		return json.Marshal(v.String())
	}
}

// isJSONNumber reports whether s can be emitted verbatim-equivalent as a JSON
// number (no surrounding blanks, no leading '+').
func isJSONNumber(s string) bool {
	return s != "" && s == strings.TrimSpace(s) && s[0] != '+' && s[0] != '.'
}

// FromAny converts a Go value (as produced by encoding/json) into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Empty
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int64:
		return Number(float64(t))
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case json.Number:
		return String(t.String())
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return Value{kind: KindArray, arr: out}
	case []Value:
		return Array(t...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromAny(t[k]))
		}
		return FromMap(m)
	case *Map:
		return FromMap(t)
	default:
		return String(fmt.Sprint(t))
	}
}

// ToAny converts a Value into plain Go data: numbers become float64.
func (v Value) ToAny() any {
	switch v.kind {
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			e, _ := v.obj.Get(k)
			out[k] = e.ToAny()
		}
		return out
	case KindString:
		if f, ok := v.Number(); ok {
			return f
		}
		return v.str
	default:
		return v.String()
	}
}

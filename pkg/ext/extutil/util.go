// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"context"
	"strings"

	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Def builds a builtin whose positional arity is checked before fn runs.
// hi < 0 means no upper bound.
func Def(name, signature string, lo, hi int, fn functions.CustomFunc) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:      name,
		Signature: signature,
		Fn: func(ctx context.Context, args functions.Args) (value.Value, error) {
			if err := functions.CheckArity(name, args, lo, hi); err != nil {
				return value.Empty, err
			}
			return fn(ctx, args)
		},
	}
}

// AdvancedDef is Def for builtins that call function values back.
func AdvancedDef(name, signature string, lo, hi int, fn functions.AdvancedCustomFunc) functions.AdvancedCustomFunctionDef {
	return functions.AdvancedCustomFunctionDef{
		Name:      name,
		Signature: signature,
		Fn: func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
			if err := functions.CheckArity(name, args, lo, hi); err != nil {
				return value.Empty, err
			}
			if caller == nil {
				return value.Empty, functions.ArgError(name, "no function caller available")
			}
			return fn(ctx, caller, args)
		},
	}
}

// Entries converts definitions to [functions.FunctionEntry].
func Entries[T functions.FunctionEntry](defs []T) []functions.FunctionEntry {
	out := make([]functions.FunctionEntry, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out
}

// Str returns argument i (or the named argument) as a string, or def when
// it is missing.
func Str(args functions.Args, i int, name, def string) string {
	if s, ok := args.String(i, name); ok {
		return s
	}
	return def
}

// Number returns argument i as a number; a present non-numeric argument is
// an ArgumentError.
func Number(fn string, args functions.Args, i int, name string) (float64, error) {
	v, ok := args.Get(i, name)
	if !ok {
		return 0, functions.ArgError(fn, "argument %d is missing", i+1)
	}
	x, ok := v.Number()
	if !ok {
		return 0, functions.ArgError(fn, "argument %d must be a number, got %q", i+1, v.String())
	}
	return x, nil
}

// Whole returns argument i as a whole number at least lo, or def when it is
// missing or empty.
func Whole(fn string, args functions.Args, i int, name string, lo, def int) (int, error) {
	v, ok := args.Get(i, name)
	if !ok || (v.IsScalar() && v.String() == "") {
		return def, nil
	}
	n, ok := v.Int()
	if !ok || n < lo {
		return 0, functions.ArgError(fn, "argument %d must be a whole number >= %d, got %q", i+1, lo, v.String())
	}
	return n, nil
}

// Pad returns argument i as a single pad character, blank by default.
func Pad(fn string, args functions.Args, i int, name string) (string, error) {
	s := Str(args, i, name, " ")
	if len([]rune(s)) != 1 {
		return "", functions.ArgError(fn, "pad must be a single character, got %q", s)
	}
	return s, nil
}

// Option returns the upper-cased first letter of an option argument.
func Option(args functions.Args, i int, name, def string) string {
	s := strings.TrimSpace(Str(args, i, name, ""))
	if s == "" {
		return def
	}
	return strings.ToUpper(s[:1])
}

// Elements lists the items of a collection argument: array elements, map
// values in key order, or the blank-delimited words of a string.
func Elements(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindArray:
		return v.Elements()
	case value.KindMap:
		m := v.Map()
		out := make([]value.Value, 0, m.Len())
		for _, k := range m.Keys() {
			e, _ := m.Get(k)
			out = append(out, e)
		}
		return out
	default:
		words := strings.Fields(v.String())
		out := make([]value.Value, len(words))
		for i, w := range words {
			out[i] = value.String(w)
		}
		return out
	}
}

// Map returns argument i as a map.
func Map(fn string, args functions.Args, i int) (*value.Map, error) {
	v, ok := args.At(i)
	if !ok || v.Kind() != value.KindMap {
		return nil, functions.ArgError(fn, "argument %d must be a map", i+1)
	}
	return v.Map(), nil
}

// Truthy interprets a callback result as a logical value.
func Truthy(fn string, v value.Value) (bool, error) {
	b, ok := v.Bool()
	if !ok {
		return false, functions.ArgError(fn, "function must return a logical value, got %q", v.String())
	}
	return b, nil
}

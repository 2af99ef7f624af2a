// Package exttypes provides type inspection builtins.
package exttypes

import (
	"context"
	"strings"
	"unicode"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns all type builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Datatype(),
		TypeOf(),
		IsArray(),
		IsMap(),
		IsFunction(),
		IsEmpty(),
		Default(),
	}
}

// AllEntries returns all type builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// Datatype returns the definition for DATATYPE(string [, type]).
//
// With one argument the result is NUM for a valid number and CHAR otherwise.
// With a type the result is 1 when the string matches it:
//
//	A alphanumeric   B binary digits   L lower case   M mixed case
//	N number         S symbol          U upper case   W whole number
//	X hexadecimal
//
// The empty string matches only B and X.
func Datatype() functions.CustomFunctionDef {
	return extutil.Def("DATATYPE", "DATATYPE(string [, type])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		v := args.Positional[0]
		if _, ok := args.Get(1, "TYPE"); !ok {
			if v.IsNumeric() {
				return value.String("NUM"), nil
			}
			return value.String("CHAR"), nil
		}
		s := v.String()
		t := extutil.Option(args, 1, "TYPE", "")
		var ok bool
		switch t {
		case "A":
			ok = s != "" && all(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
		case "B":
			ok = all(strings.ReplaceAll(s, " ", ""), func(r rune) bool { return r == '0' || r == '1' })
		case "L":
			ok = s != "" && all(s, unicode.IsLower)
		case "M":
			ok = s != "" && all(s, unicode.IsLetter)
		case "N":
			ok = v.IsNumeric()
		case "S":
			ok = s != "" && all(s, isSymbolRune)
		case "U":
			ok = s != "" && all(s, unicode.IsUpper)
		case "W":
			_, ok = v.Int()
		case "X":
			ok = all(strings.ReplaceAll(s, " ", ""), func(r rune) bool { return strings.ContainsRune("0123456789abcdefABCDEF", r) })
		default:
			return value.Empty, functions.ArgError("DATATYPE", "unknown type %q", t)
		}
		return value.Bool(ok), nil
	})
}

func all(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isSymbolRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._!?@#$", r)
}

// TypeOf returns the definition for TYPEOF(value): string, array, map,
// handle or function.
func TypeOf() functions.CustomFunctionDef {
	return extutil.Def("TYPEOF", "TYPEOF(value)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.String(args.Positional[0].Kind().String()), nil
	})
}

// IsArray returns the definition for IS_ARRAY(value).
func IsArray() functions.CustomFunctionDef {
	return kindIs("IS_ARRAY", value.KindArray)
}

// IsMap returns the definition for IS_MAP(value).
func IsMap() functions.CustomFunctionDef {
	return kindIs("IS_MAP", value.KindMap)
}

// IsFunction returns the definition for IS_FUNCTION(value).
func IsFunction() functions.CustomFunctionDef {
	return kindIs("IS_FUNCTION", value.KindFunction)
}

func kindIs(name string, k value.Kind) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(value)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Bool(args.Positional[0].Kind() == k), nil
	})
}

// IsEmpty returns the definition for IS_EMPTY(value): the empty string, or a
// collection without entries.
func IsEmpty() functions.CustomFunctionDef {
	return extutil.Def("IS_EMPTY", "IS_EMPTY(value)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		v := args.Positional[0]
		switch v.Kind() {
		case value.KindArray, value.KindMap:
			return value.Bool(v.Len() == 0), nil
		case value.KindFunction:
			return value.Bool(false), nil
		}
		return value.Bool(v.String() == ""), nil
	})
}

// Default returns the definition for DEFAULT(value, fallback): fallback when
// value is empty.
func Default() functions.CustomFunctionDef {
	return extutil.Def("DEFAULT", "DEFAULT(value, fallback)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		v := args.Positional[0]
		if v.IsScalar() && v.String() == "" {
			return args.Positional[1], nil
		}
		return v, nil
	})
}

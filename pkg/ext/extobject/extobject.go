// Package extobject provides map builtins. Maps are treated as values:
// PUT, REMOVE_KEY and MERGE return a modified copy.
package extobject

import (
	"context"
	"sort"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns all map builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		NewMap(),
		Keys(),
		Values(),
		HasKey(),
		Get(),
		Put(),
		RemoveKey(),
		Merge(),
		Pairs(),
		FromPairs(),
		Size(),
	}
}

// AllEntries returns all map builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// NewMap returns the definition for MAP_OF([key, value, ...]). Named
// arguments are added after the pairs, sorted by name.
func NewMap() functions.CustomFunctionDef {
	return extutil.Def("MAP_OF", "MAP_OF([key, value, ...])", 0, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		if args.Len()%2 != 0 {
			return value.Empty, functions.ArgError("MAP_OF", "expected key/value pairs, got %d arguments", args.Len())
		}
		m := value.NewMap()
		for i := 0; i < args.Len(); i += 2 {
			m.Set(args.Positional[i].String(), args.Positional[i+1])
		}
		names := make([]string, 0, len(args.Named))
		for k := range args.Named {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			m.Set(k, args.Named[k])
		}
		return value.FromMap(m), nil
	})
}

// Keys returns the definition for KEYS(map), in insertion order.
func Keys() functions.CustomFunctionDef {
	return extutil.Def("KEYS", "KEYS(map)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("KEYS", args, 0)
		if err != nil {
			return value.Empty, err
		}
		keys := m.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.Array(out...), nil
	})
}

// Values returns the definition for VALUES(map), in key order.
func Values() functions.CustomFunctionDef {
	return extutil.Def("VALUES", "VALUES(map)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		if _, err := extutil.Map("VALUES", args, 0); err != nil {
			return value.Empty, err
		}
		return value.Array(extutil.Elements(args.Positional[0])...), nil
	})
}

// HasKey returns the definition for HAS_KEY(map, key).
func HasKey() functions.CustomFunctionDef {
	return extutil.Def("HAS_KEY", "HAS_KEY(map, key)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("HAS_KEY", args, 0)
		if err != nil {
			return value.Empty, err
		}
		_, ok := m.Get(args.Positional[1].String())
		return value.Bool(ok), nil
	})
}

// Get returns the definition for GET(map, key [, default]). The key is
// matched exactly first, then case-insensitively.
func Get() functions.CustomFunctionDef {
	return extutil.Def("GET", "GET(map, key [, default])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("GET", args, 0)
		if err != nil {
			return value.Empty, err
		}
		if v, ok := m.GetFold(args.Positional[1].String()); ok {
			return v, nil
		}
		def, _ := args.At(2)
		return def, nil
	})
}

// Put returns the definition for PUT(map, key, value).
func Put() functions.CustomFunctionDef {
	return extutil.Def("PUT", "PUT(map, key, value)", 3, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("PUT", args, 0)
		if err != nil {
			return value.Empty, err
		}
		cp := m.Clone()
		cp.Set(args.Positional[1].String(), args.Positional[2])
		return value.FromMap(cp), nil
	})
}

// RemoveKey returns the definition for REMOVE_KEY(map, key, ...).
func RemoveKey() functions.CustomFunctionDef {
	return extutil.Def("REMOVE_KEY", "REMOVE_KEY(map, key, ...)", 2, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("REMOVE_KEY", args, 0)
		if err != nil {
			return value.Empty, err
		}
		cp := m.Clone()
		for _, k := range args.Positional[1:] {
			cp.Delete(k.String())
		}
		return value.FromMap(cp), nil
	})
}

// Merge returns the definition for MERGE(map, ...). Later maps win.
func Merge() functions.CustomFunctionDef {
	return extutil.Def("MERGE", "MERGE(map, ...)", 1, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		out := value.NewMap()
		for i := range args.Positional {
			m, err := extutil.Map("MERGE", args, i)
			if err != nil {
				return value.Empty, err
			}
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				out.Set(k, v)
			}
		}
		return value.FromMap(out), nil
	})
}

// Pairs returns the definition for PAIRS(map): an array of [key, value]
// arrays.
func Pairs() functions.CustomFunctionDef {
	return extutil.Def("PAIRS", "PAIRS(map)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("PAIRS", args, 0)
		if err != nil {
			return value.Empty, err
		}
		out := make([]value.Value, 0, m.Len())
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			out = append(out, value.Array(value.String(k), v))
		}
		return value.Array(out...), nil
	})
}

// FromPairs returns the definition for FROM_PAIRS(array), the inverse of
// PAIRS.
func FromPairs() functions.CustomFunctionDef {
	return extutil.Def("FROM_PAIRS", "FROM_PAIRS(array)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		out := value.NewMap()
		for i, p := range extutil.Elements(args.Positional[0]) {
			if p.Kind() != value.KindArray || p.Len() != 2 {
				return value.Empty, functions.ArgError("FROM_PAIRS", "item %d is not a [key, value] pair", i+1)
			}
			kv := p.Elements()
			out.Set(kv[0].String(), kv[1])
		}
		return value.FromMap(out), nil
	})
}

// Size returns the definition for SIZE(collection): the number of entries of
// a map or array, or the word count of a string.
func Size() functions.CustomFunctionDef {
	return extutil.Def("SIZE", "SIZE(collection)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Int(len(extutil.Elements(args.Positional[0]))), nil
	})
}

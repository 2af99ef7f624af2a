// Package extarray provides array builtins. The higher-order ones (MAP,
// FILTER, REDUCE, FIND, SOME, EVERY, SORT_BY) take an arrow lambda or the name
// of a function and need a Caller.
//
// Every function accepting a collection also accepts a map (its values in key
// order) or a string (its words).
package extarray

import (
	"context"
	"sort"
	"strings"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns the array builtins that need no Caller.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Array(),
		Item(),
		Append(),
		Slice(),
		Flatten(),
		Range(),
		Sort(),
		Unique(),
		Join(),
	}
}

// AllAdvanced returns the higher-order array builtins.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		Map(),
		Filter(),
		Reduce(),
		Find(),
		Some(),
		Every(),
		SortBy(),
	}
}

// AllEntries returns all array builtins (simple + advanced) as
// [functions.FunctionEntry]:
//
//	evaluator.WithFunctions(extarray.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	return append(extutil.Entries(All()), extutil.Entries(AllAdvanced())...)
}

// Array returns the definition for ARRAY(item, ...).
func Array() functions.CustomFunctionDef {
	return extutil.Def("ARRAY", "ARRAY(item, ...)", 0, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Array(args.Positional...), nil
	})
}

// Item returns the definition for ITEM(array, index). Negative indexes count
// from the end; out of range yields the empty string.
func Item() functions.CustomFunctionDef {
	return extutil.Def("ITEM", "ITEM(array, index)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		i, ok := args.Positional[1].Int()
		if !ok {
			return value.Empty, functions.ArgError("ITEM", "index must be a whole number, got %q", args.Positional[1].String())
		}
		if i < 0 {
			i += len(items) + 1
		}
		if i < 1 || i > len(items) {
			return value.Empty, nil
		}
		return items[i-1], nil
	})
}

// Append returns the definition for APPEND(array, item, ...).
func Append() functions.CustomFunctionDef {
	return extutil.Def("APPEND", "APPEND(array, item, ...)", 1, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		out := make([]value.Value, 0, len(items)+args.Len()-1)
		out = append(out, items...)
		out = append(out, args.Positional[1:]...)
		return value.Array(out...), nil
	})
}

// Slice returns the definition for SLICE(array, start [, length]).
func Slice() functions.CustomFunctionDef {
	return extutil.Def("SLICE", "SLICE(array, start [, length])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		start, err := extutil.Whole("SLICE", args, 1, "START", 1, 1)
		if err != nil {
			return value.Empty, err
		}
		length, err := extutil.Whole("SLICE", args, 2, "LENGTH", 0, len(items))
		if err != nil {
			return value.Empty, err
		}
		if start > len(items) {
			return value.Array(), nil
		}
		end := min(start-1+length, len(items))
		return value.Array(items[start-1 : end]...), nil
	})
}

// Flatten returns the definition for FLATTEN(array): nested arrays are
// spliced in, recursively.
func Flatten() functions.CustomFunctionDef {
	return extutil.Def("FLATTEN", "FLATTEN(array)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Array(flatten(nil, extutil.Elements(args.Positional[0]))...), nil
	})
}

func flatten(dst, items []value.Value) []value.Value {
	for _, it := range items {
		if it.Kind() == value.KindArray {
			dst = flatten(dst, it.Elements())
			continue
		}
		dst = append(dst, it)
	}
	return dst
}

// Range returns the definition for RANGE(from, to [, step]), inclusive.
func Range() functions.CustomFunctionDef {
	return extutil.Def("RANGE", "RANGE(from, to [, step])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		from, err := extutil.Number("RANGE", args, 0, "FROM")
		if err != nil {
			return value.Empty, err
		}
		to, err := extutil.Number("RANGE", args, 1, "TO")
		if err != nil {
			return value.Empty, err
		}
		step := 1.0
		if from > to {
			step = -1
		}
		if _, ok := args.At(2); ok {
			if step, err = extutil.Number("RANGE", args, 2, "STEP"); err != nil {
				return value.Empty, err
			}
		}
		if step == 0 {
			return value.Empty, functions.ArgError("RANGE", "step must not be zero")
		}
		var out []value.Value
		for x := from; (step > 0 && x <= to) || (step < 0 && x >= to); x += step {
			out = append(out, value.Number(x))
		}
		return value.Array(out...), nil
	})
}

// Sort returns the definition for SORT(array [, order]). Numbers compare
// numerically, anything else as strings; order 'D' sorts descending.
func Sort() functions.CustomFunctionDef {
	return extutil.Def("SORT", "SORT(array [, order])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := append([]value.Value(nil), extutil.Elements(args.Positional[0])...)
		desc := extutil.Option(args, 1, "ORDER", "A") == "D"
		sort.SliceStable(items, func(i, j int) bool {
			if desc {
				return compare(items[j], items[i]) < 0
			}
			return compare(items[i], items[j]) < 0
		})
		return value.Array(items...), nil
	})
}

func compare(a, b value.Value) int {
	x, xok := a.Number()
	y, yok := b.Number()
	if xok && yok {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}

// Unique returns the definition for UNIQUE(array), keeping first occurrences.
func Unique() functions.CustomFunctionDef {
	return extutil.Def("UNIQUE", "UNIQUE(array)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		seen := make(map[string]bool)
		var out []value.Value
		for _, it := range extutil.Elements(args.Positional[0]) {
			k := it.String()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, it)
		}
		return value.Array(out...), nil
	})
}

// Join returns the definition for JOIN(array [, separator]). The separator
// defaults to a blank.
func Join() functions.CustomFunctionDef {
	return extutil.Def("JOIN", "JOIN(array [, separator])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return value.String(strings.Join(parts, extutil.Str(args, 1, "SEPARATOR", " "))), nil
	})
}

// Map returns the definition for MAP(array, fn).
func Map() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("MAP", "MAP(array, fn)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		out := make([]value.Value, len(items))
		for i, it := range items {
			r, err := caller.Call(ctx, args.Positional[1], it)
			if err != nil {
				return value.Empty, err
			}
			out[i] = r
		}
		return value.Array(out...), nil
	})
}

// Filter returns the definition for FILTER(array, predicate).
func Filter() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("FILTER", "FILTER(array, predicate)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		var out []value.Value
		err := each(ctx, caller, "FILTER", args, func(it value.Value, keep bool) bool {
			if keep {
				out = append(out, it)
			}
			return true
		})
		if err != nil {
			return value.Empty, err
		}
		return value.Array(out...), nil
	})
}

// Find returns the definition for FIND(array, predicate): the first match,
// or the empty string.
func Find() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("FIND", "FIND(array, predicate)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		found := value.Empty
		err := each(ctx, caller, "FIND", args, func(it value.Value, match bool) bool {
			if match {
				found = it
				return false
			}
			return true
		})
		return found, err
	})
}

// Some returns the definition for SOME(array, predicate).
func Some() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("SOME", "SOME(array, predicate)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		matched := false
		err := each(ctx, caller, "SOME", args, func(_ value.Value, match bool) bool {
			matched = match
			return !match
		})
		return value.Bool(matched), err
	})
}

// Every returns the definition for EVERY(array, predicate). An empty
// collection yields 1.
func Every() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("EVERY", "EVERY(array, predicate)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		all := true
		err := each(ctx, caller, "EVERY", args, func(_ value.Value, match bool) bool {
			all = match
			return match
		})
		return value.Bool(all), err
	})
}

// each applies the predicate in args[1] to every item until visit returns false.
func each(ctx context.Context, caller functions.Caller, name string, args functions.Args, visit func(value.Value, bool) bool) error {
	for _, it := range extutil.Elements(args.Positional[0]) {
		r, err := caller.Call(ctx, args.Positional[1], it)
		if err != nil {
			return err
		}
		ok, err := extutil.Truthy(name, r)
		if err != nil {
			return err
		}
		if !visit(it, ok) {
			return nil
		}
	}
	return nil
}

// Reduce returns the definition for REDUCE(array, fn [, initial]). fn is
// called with (accumulator, item). Without an initial value the first item
// seeds the accumulator; an empty collection then yields the empty string.
func Reduce() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("REDUCE", "REDUCE(array, fn [, initial])", 2, 3, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		items := extutil.Elements(args.Positional[0])
		acc, ok := args.At(2)
		if !ok {
			if len(items) == 0 {
				return value.Empty, nil
			}
			acc, items = items[0], items[1:]
		}
		for _, it := range items {
			r, err := caller.Call(ctx, args.Positional[1], acc, it)
			if err != nil {
				return value.Empty, err
			}
			acc = r
		}
		return acc, nil
	})
}

// SortBy returns the definition for SORT_BY(array, keyFn [, order]). Keys are
// computed once per item.
func SortBy() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("SORT_BY", "SORT_BY(array, keyFn [, order])", 2, 3, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		type keyed struct {
			key, item value.Value
		}
		items := extutil.Elements(args.Positional[0])
		ks := make([]keyed, len(items))
		for i, it := range items {
			k, err := caller.Call(ctx, args.Positional[1], it)
			if err != nil {
				return value.Empty, err
			}
			ks[i] = keyed{key: k, item: it}
		}
		desc := extutil.Option(args, 2, "ORDER", "A") == "D"
		sort.SliceStable(ks, func(i, j int) bool {
			if desc {
				return compare(ks[j].key, ks[i].key) < 0
			}
			return compare(ks[i].key, ks[j].key) < 0
		})
		out := make([]value.Value, len(ks))
		for i, k := range ks {
			out[i] = k.item
		}
		return value.Array(out...), nil
	})
}

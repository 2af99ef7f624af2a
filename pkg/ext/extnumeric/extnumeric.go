// Package extnumeric provides the numeric builtins. Results are formatted
// under the default NUMERIC settings.
package extnumeric

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns all numeric builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Abs(),
		Sign(),
		Max(),
		Min(),
		Trunc(),
		Round(),
		Sqrt(),
		Sum(),
		Average(),
		Median(),
		Random(),
	}
}

// AllEntries returns all numeric builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// Abs returns the definition for ABS(number).
func Abs() functions.CustomFunctionDef {
	return unary("ABS", math.Abs)
}

// Sign returns the definition for SIGN(number): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	return unary("SIGN", func(x float64) float64 {
		switch {
		case x < 0:
			return -1
		case x > 0:
			return 1
		default:
			return 0
		}
	})
}

// Sqrt returns the definition for SQRT(number).
func Sqrt() functions.CustomFunctionDef {
	return extutil.Def("SQRT", "SQRT(number)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number("SQRT", args, 0, "NUMBER")
		if err != nil {
			return value.Empty, err
		}
		if x < 0 {
			return value.Empty, functions.ArgError("SQRT", "argument must not be negative, got %v", x)
		}
		return value.Number(math.Sqrt(x)), nil
	})
}

func unary(name string, fn func(float64) float64) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(number)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number(name, args, 0, "NUMBER")
		if err != nil {
			return value.Empty, err
		}
		return value.Number(fn(x)), nil
	})
}

// Max returns the definition for MAX(number, ...).
func Max() functions.CustomFunctionDef {
	return extremum("MAX", func(a, b float64) bool { return a > b })
}

// Min returns the definition for MIN(number, ...).
func Min() functions.CustomFunctionDef {
	return extremum("MIN", func(a, b float64) bool { return a < b })
}

// extremum returns the original argument rather than a reformatted number,
// so MAX('007', 3) yields 007.
func extremum(name string, better func(a, b float64) bool) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(number, ...)", 1, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		best := -1
		var bestX float64
		for i := range args.Positional {
			x, err := extutil.Number(name, args, i, "")
			if err != nil {
				return value.Empty, err
			}
			if best < 0 || better(x, bestX) {
				best, bestX = i, x
			}
		}
		return args.Positional[best], nil
	})
}

// Trunc returns the definition for TRUNC(number [, decimals]).
func Trunc() functions.CustomFunctionDef {
	return decimals("TRUNC", math.Trunc)
}

// Round returns the definition for ROUND(number [, decimals]), rounding half
// away from zero.
func Round() functions.CustomFunctionDef {
	return decimals("ROUND", math.Round)
}

func decimals(name string, fn func(float64) float64) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(number [, decimals])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number(name, args, 0, "NUMBER")
		if err != nil {
			return value.Empty, err
		}
		d, err := extutil.Whole(name, args, 1, "DECIMALS", 0, 0)
		if err != nil {
			return value.Empty, err
		}
		scale := math.Pow(10, float64(d))
		return value.Number(fn(x*scale) / scale), nil
	})
}

// Sum returns the definition for SUM(collection | number, ...).
func Sum() functions.CustomFunctionDef {
	return aggregate("SUM", func(xs []float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return total
	})
}

// Average returns the definition for AVERAGE(collection | number, ...).
func Average() functions.CustomFunctionDef {
	return aggregate("AVERAGE", func(xs []float64) float64 {
		if len(xs) == 0 {
			return 0
		}
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return total / float64(len(xs))
	})
}

// Median returns the definition for MEDIAN(collection | number, ...).
func Median() functions.CustomFunctionDef {
	return aggregate("MEDIAN", func(xs []float64) float64 {
		if len(xs) == 0 {
			return 0
		}
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return (sorted[mid-1] + sorted[mid]) / 2
	})
}

// aggregate accepts either one collection argument (array, map values or
// words) or several numbers.
func aggregate(name string, fn func([]float64) float64) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(collection | number, ...)", 1, -1, func(_ context.Context, args functions.Args) (value.Value, error) {
		items := args.Positional
		if len(items) == 1 {
			items = extutil.Elements(items[0])
		}
		xs := make([]float64, len(items))
		for i, it := range items {
			x, ok := it.Number()
			if !ok {
				return value.Empty, functions.ArgError(name, "item %d is not a number: %q", i+1, it.String())
			}
			xs[i] = x
		}
		return value.Number(fn(xs)), nil
	})
}

// Random returns the definition for RANDOM([min,] [max]): a whole number in
// [min, max], 0..999 by default.
func Random() functions.CustomFunctionDef {
	return extutil.Def("RANDOM", "RANDOM([min,] [max])", 0, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		lo, hi := 0, 999
		var err error
		switch args.Len() {
		case 1:
			if hi, err = extutil.Whole("RANDOM", args, 0, "MAX", 0, 999); err != nil {
				return value.Empty, err
			}
		case 2:
			if lo, err = extutil.Whole("RANDOM", args, 0, "MIN", 0, 0); err != nil {
				return value.Empty, err
			}
			if hi, err = extutil.Whole("RANDOM", args, 1, "MAX", 0, 999); err != nil {
				return value.Empty, err
			}
		}
		if hi < lo {
			return value.Empty, functions.ArgError("RANDOM", "max %d is less than min %d", hi, lo)
		}
		return value.Int(lo + rand.IntN(hi-lo+1)), nil
	})
}

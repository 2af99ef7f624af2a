// Package extfunc provides function-composition builtins. Their function
// arguments may be arrow lambdas once [LambdaSites] are registered with the
// parser, or function names.
package extfunc

import (
	"context"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// LambdaSites lists the builtins of this package that accept arrow lambdas.
var LambdaSites = []string{"PIPE", "APPLY"}

// AllAdvanced returns all composition builtin definitions.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		Pipe(),
		Apply(),
	}
}

// AllEntries returns all composition builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(AllAdvanced())
}

// Pipe returns the definition for PIPE(value, fn, ...). value is threaded
// through the functions left to right.
//
//	SAY PIPE('  hello  ', 'STRIP', 'UPPER')   /* HELLO */
func Pipe() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("PIPE", "PIPE(value, fn, ...)", 1, -1, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		v := args.Positional[0]
		for _, fn := range args.Positional[1:] {
			r, err := caller.Call(ctx, fn, v)
			if err != nil {
				return value.Empty, err
			}
			v = r
		}
		return v, nil
	})
}

// Apply returns the definition for APPLY(fn, array): fn called with the
// elements of array as its arguments.
func Apply() functions.AdvancedCustomFunctionDef {
	return extutil.AdvancedDef("APPLY", "APPLY(fn, array)", 2, 2, func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
		return caller.Call(ctx, args.Positional[0], extutil.Elements(args.Positional[1])...)
	})
}

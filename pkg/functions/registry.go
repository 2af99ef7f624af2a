// Package functions defines the builtin function registry consumed by the
// GoRexx evaluator.
//
// Builtins are looked up case-insensitively and invoked with the arguments
// exactly as parsed: positional values plus named arguments ("name=value").
// The same entry serves function-call expressions (NAME(args)) and imperative
// commands under the default address (NAME key=value ...).
//
// # Example
//
//	reg := functions.NewRegistry(functions.CustomFunctionDef{
//	    Name:      "GREET",
//	    Signature: "GREET(name)",
//	    Fn: func(ctx context.Context, args functions.Args) (value.Value, error) {
//	        name, _ := args.String(0, "NAME")
//	        return value.String("Hello, " + name + "!"), nil
//	    },
//	})
package functions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Args holds the evaluated arguments of a builtin invocation.
// Named keys are upper-cased.
type Args struct {
	Positional []value.Value
	Named      map[string]value.Value
}

// NewArgs builds positional-only arguments.
func NewArgs(vals ...value.Value) Args {
	return Args{Positional: vals}
}

// Len returns the number of positional arguments.
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the i-th (0-based) positional argument.
func (a Args) At(i int) (value.Value, bool) {
	if i < 0 || i >= len(a.Positional) {
		return value.Empty, false
	}
	return a.Positional[i], true
}

// Get returns the named argument name if present, else the i-th positional
// argument. Pass i < 0 to look up names only.
func (a Args) Get(i int, name string) (value.Value, bool) {
	if name != "" {
		if v, ok := a.Named[strings.ToUpper(name)]; ok {
			return v, true
		}
	}
	return a.At(i)
}

// String returns the argument as a string.
func (a Args) String(i int, name string) (string, bool) {
	v, ok := a.Get(i, name)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Number returns the argument as a number. The second result is false when
// the argument is missing or not numeric.
func (a Args) Number(i int, name string) (float64, bool) {
	v, ok := a.Get(i, name)
	if !ok {
		return 0, false
	}
	return v.Number()
}

// Int returns the argument as a whole number.
func (a Args) Int(i int, name string) (int, bool) {
	v, ok := a.Get(i, name)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// CustomFunc is the signature of a builtin implementation.
type CustomFunc func(ctx context.Context, args Args) (value.Value, error)

// Caller can invoke a function value (an arrow lambda) passed as an
// argument. It is provided to AdvancedCustomFunc implementations so they can
// call back into the evaluator for higher-order functions.
type Caller interface {
	Call(ctx context.Context, fn value.Value, args ...value.Value) (value.Value, error)
}

// AdvancedCustomFunc is like CustomFunc but also receives a Caller.
type AdvancedCustomFunc func(ctx context.Context, caller Caller, args Args) (value.Value, error)

// CustomFunctionDef describes a builtin.
type CustomFunctionDef struct {
	// Name is matched case-insensitively.
	Name string
	// Signature is a human readable call shape, e.g. "SUBSTR(string, start [, length])".
	Signature string
	// Operation marks builtins meant to be used as imperative commands.
	Operation bool
	Fn        CustomFunc
}

// AdvancedCustomFunctionDef is the struct counterpart of AdvancedCustomFunc.
type AdvancedCustomFunctionDef struct {
	Name      string
	Signature string
	Operation bool
	Fn        AdvancedCustomFunc
}

// FunctionEntry is a common marker interface implemented by both
// [CustomFunctionDef] and [AdvancedCustomFunctionDef].
// It allows mixing both kinds in a single variadic call to [Registry.Register].
type FunctionEntry interface {
	isFunctionEntry()
}

func (c CustomFunctionDef) isFunctionEntry()         {}
func (a AdvancedCustomFunctionDef) isFunctionEntry() {}

// Function is a registered builtin.
type Function struct {
	Name      string
	Signature string
	Operation bool

	fn       CustomFunc
	advanced AdvancedCustomFunc
}

// Invoke calls the builtin. caller may be nil for plain builtins.
func (f *Function) Invoke(ctx context.Context, caller Caller, args Args) (value.Value, error) {
	if f.advanced != nil {
		return f.advanced(ctx, caller, args)
	}
	return f.fn(ctx, args)
}

// Registry is a case-insensitive set of builtins.
//
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]*Function
}

// NewRegistry creates a registry holding entries. Invalid entries panic; use
// Register to get an error instead.
func NewRegistry(entries ...FunctionEntry) *Registry {
	r := &Registry{fns: make(map[string]*Function)}
	if err := r.Register(entries...); err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces builtins.
func (r *Registry) Register(entries ...FunctionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		var f *Function
		switch def := e.(type) {
		case CustomFunctionDef:
			if def.Fn == nil {
				return fmt.Errorf("function %q has no implementation", def.Name)
			}
			f = &Function{Name: def.Name, Signature: def.Signature, Operation: def.Operation, fn: def.Fn}
		case AdvancedCustomFunctionDef:
			if def.Fn == nil {
				return fmt.Errorf("function %q has no implementation", def.Name)
			}
			f = &Function{Name: def.Name, Signature: def.Signature, Operation: def.Operation, advanced: def.Fn}
		default:
			return fmt.Errorf("unsupported function entry %T", e)
		}
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("function name must not be empty")
		}
		f.Name = strings.ToUpper(f.Name)
		r.fns[f.Name] = f
	}
	return nil
}

// Lookup finds a builtin by name (case-insensitive).
func (r *Registry) Lookup(name string) (*Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	f, ok := r.fns[strings.ToUpper(name)]
	r.mu.RUnlock()
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fns))
	for name := range r.fns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered builtins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fns)
}

// Clone returns an independent copy; the Function values are shared.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := &Registry{fns: make(map[string]*Function, len(r.fns))}
	for k, v := range r.fns {
		cp.fns[k] = v
	}
	return cp
}

// ArgError builds the ArgumentError a builtin returns for bad arguments.
func ArgError(function, format string, args ...any) *types.Error {
	return types.Errorf(types.ErrArgument, 0, format, args...).WithFunction(strings.ToUpper(function))
}

// CheckArity validates the positional argument count. hi < 0 means unbounded.
func CheckArity(function string, args Args, lo, hi int) error {
	n := args.Len()
	switch {
	case n < lo:
		return ArgError(function, "%s expects at least %d argument(s), got %d", strings.ToUpper(function), lo, n)
	case hi >= 0 && n > hi:
		return ArgError(function, "%s expects at most %d argument(s), got %d", strings.ToUpper(function), hi, n)
	}
	return nil
}

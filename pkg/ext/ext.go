// Package ext bundles the optional GoRexx builtin library.
//
// The builtins live in sub-packages grouped by category:
//   - extstring   – LENGTH, SUBSTR, POS, WORD, STRIP, UPPER, CHANGESTR, …
//   - extnumeric  – ABS, SIGN, MAX, MIN, TRUNC, SQRT, SUM, AVERAGE, …
//   - extarray    – ARRAY, ITEM, SLICE, SORT, JOIN and MAP, FILTER, REDUCE, …
//   - extobject   – MAP_OF, KEYS, VALUES, GET, PUT, MERGE, PAIRS, …
//   - exttypes    – DATATYPE, TYPEOF, IS_ARRAY, IS_EMPTY, DEFAULT, …
//   - extdatetime – DATE, TIME, DATE_ADD, DATE_DIFF
//   - extcrypto   – UUID, HASH, HMAC
//   - extformat   – CSV_PARSE, CSV_FORMAT, TEMPLATE, FORMAT_NUMBER, …
//   - extfunc     – PIPE, APPLY
//
// # Integration – everything at once
//
//	ev := evaluator.New(ext.WithAll())
//
// # Integration – by category
//
//	ev := evaluator.New(ext.WithString(), ext.WithArray())
//
// # Integration – single builtin
//
//	ev := evaluator.New(evaluator.WithFunctions(extstring.Substr()))
package ext

import (
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext/extarray"
	"github.com/sandrolain/gorexx/pkg/ext/extcrypto"
	"github.com/sandrolain/gorexx/pkg/ext/extdatetime"
	"github.com/sandrolain/gorexx/pkg/ext/extformat"
	"github.com/sandrolain/gorexx/pkg/ext/extfunc"
	"github.com/sandrolain/gorexx/pkg/ext/extnumeric"
	"github.com/sandrolain/gorexx/pkg/ext/extobject"
	"github.com/sandrolain/gorexx/pkg/ext/extstring"
	"github.com/sandrolain/gorexx/pkg/ext/exttypes"
	"github.com/sandrolain/gorexx/pkg/functions"
)

// AllSimple returns every builtin that needs no Caller.
func AllSimple() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extarray.All()...)
	all = append(all, extobject.All()...)
	all = append(all, exttypes.All()...)
	all = append(all, extdatetime.All()...)
	all = append(all, extcrypto.All()...)
	all = append(all, extformat.All()...)
	return all
}

// AllAdvanced returns every higher-order builtin.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	var all []functions.AdvancedCustomFunctionDef
	all = append(all, extarray.AllAdvanced()...)
	all = append(all, extfunc.AllAdvanced()...)
	return all
}

// AllEntries returns every builtin (simple + advanced) as
// [functions.FunctionEntry]:
//
//	evaluator.WithFunctions(ext.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	out := make([]functions.FunctionEntry, 0, len(AllSimple())+len(AllAdvanced()))
	for _, f := range AllSimple() {
		out = append(out, f)
	}
	for _, f := range AllAdvanced() {
		out = append(out, f)
	}
	return out
}

// Registry returns a registry holding every builtin.
func Registry() *functions.Registry {
	return functions.NewRegistry(AllEntries()...)
}

// WithAll registers every builtin, and the lambda sites of PIPE and APPLY.
func WithAll() evaluator.EvalOption {
	return func(opts *evaluator.EvalOptions) {
		evaluator.WithFunctions(AllEntries()...)(opts)
		evaluator.WithLambdaSites(extfunc.LambdaSites...)(opts)
	}
}

// WithString registers the string builtins.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.AllEntries()...)
}

// WithNumeric registers the numeric builtins.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.AllEntries()...)
}

// WithArray registers the array builtins, higher-order ones included.
func WithArray() evaluator.EvalOption {
	return evaluator.WithFunctions(extarray.AllEntries()...)
}

// WithObject registers the map builtins.
func WithObject() evaluator.EvalOption {
	return evaluator.WithFunctions(extobject.AllEntries()...)
}

// WithTypes registers the type inspection builtins.
func WithTypes() evaluator.EvalOption {
	return evaluator.WithFunctions(exttypes.AllEntries()...)
}

// WithDateTime registers the date/time builtins.
func WithDateTime() evaluator.EvalOption {
	return evaluator.WithFunctions(extdatetime.AllEntries()...)
}

// WithCrypto registers the hashing builtins.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.AllEntries()...)
}

// WithFormat registers the CSV, template and locale formatting builtins.
func WithFormat() evaluator.EvalOption {
	return evaluator.WithFunctions(extformat.AllEntries()...)
}

// WithFunctional registers PIPE and APPLY with their lambda sites.
func WithFunctional() evaluator.EvalOption {
	return func(opts *evaluator.EvalOptions) {
		evaluator.WithFunctions(extfunc.AllEntries()...)(opts)
		evaluator.WithLambdaSites(extfunc.LambdaSites...)(opts)
	}
}

// Package gorexx provides an embeddable interpreter for a REXX-family
// scripting language.
//
// Programs are plain text: SAY, assignments, IF/SELECT/DO blocks, labels
// with CALL, SIGNAL and RETURN, the PARSE template engine, ADDRESS
// commands routed to host handlers, and INTERPRET with isolated scopes.
// Values extend classic strings with arrays, maps and arrow lambdas.
//
// # Quick Start
//
//	// One-shot run
//	res, err := gorexx.Run("SAY 'hello'")
//
//	// Compile once, run many times
//	prog := gorexx.MustCompile("PARSE ARG n; RETURN n * 2")
//	ev := evaluator.New()
//	res1, _ := ev.Run(ctx, prog, value.Int(1))
//	res2, _ := ev.Run(ctx, prog, value.Int(2))
//
//	// Host commands
//	res, err := gorexx.Run("ADDRESS app 'reload'",
//	    evaluator.WithAddress("app", handler),
//	    evaluator.WithTimeout(5*time.Second),
//	)
//
// # More Information
//
//   - Parser: github.com/sandrolain/gorexx/pkg/parser
//   - Evaluator: github.com/sandrolain/gorexx/pkg/evaluator
//   - Address targets: github.com/sandrolain/gorexx/pkg/address
//   - Builtin library: github.com/sandrolain/gorexx/pkg/ext
//   - Settings files: github.com/sandrolain/gorexx/pkg/config
package gorexx

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/parser"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// DefaultTimeout bounds Run when the caller supplies no context.
const DefaultTimeout = 30 * time.Second

// Version returns the current version of GoRexx.
func Version() string {
	return "v0.1.0-dev"
}

// Compile parses a program for repeated execution. The result is
// immutable and safe for concurrent use.
func Compile(source string, opts ...parser.CompileOption) (*types.Program, error) {
	return parser.Compile(source, opts...)
}

// MustCompile is like Compile but panics if the program cannot be compiled.
func MustCompile(source string) *types.Program {
	prog, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("gorexx: Compile(%q): %v", source, err))
	}
	return prog
}

// Run compiles and runs source in a fresh evaluator, bounded by
// DefaultTimeout.
func Run(source string, opts ...evaluator.EvalOption) (*evaluator.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return RunWithContext(ctx, source, nil, opts...)
}

// RunWithContext compiles and runs source with args as the program's
// arguments.
func RunWithContext(ctx context.Context, source string, args []value.Value, opts ...evaluator.EvalOption) (*evaluator.Result, error) {
	return evaluator.New(opts...).RunSource(ctx, source, args...)
}

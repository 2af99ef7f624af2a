// Package parser implements the GoRexx lexer and parser.
//
// The parser is a hand-written recursive descent parser for statements with a
// Pratt-style precedence climber for expressions. It produces a
// [types.Program]: the statement list plus the label table built in a
// pre-pass, so labels can be referenced before they appear.
//
// # Architecture
//
// The parser consists of three main components:
//   - Lexer: Tokenizes the source into a stream of tokens (never fails)
//   - Parser: Builds the Abstract Syntax Tree (AST) from tokens
//   - Error Recovery: Optional mode collecting every syntax error in a source
//
// # Example
//
//	prog, err := parser.Parse("DO i = 1 TO 3\n  SAY i\nEND")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(prog.Labels())
package parser

import (
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
)

// DefaultLambdaSites lists the builtins whose arguments may be arrow lambdas.
var DefaultLambdaSites = []string{"MAP", "FILTER", "REDUCE", "FIND", "SOME", "EVERY", "SORT_BY"}

// Parse parses a REXX program and returns the compiled Program.
//
// Parse-time errors abort before anything runs; they are *types.Error values
// with code SyntaxError carrying the line, the expected construct and the
// token found.
func Parse(source string) (*types.Program, error) {
	p := NewParser(source)
	return p.Parse()
}

// Compile is Parse with options.
func Compile(source string, opts ...CompileOption) (*types.Program, error) {
	p := NewParser(source, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// EnableRecovery keeps parsing after a syntax error, skipping to the next
	// line, so Errors reports every problem in the source.
	EnableRecovery bool
	// MaxDepth limits block and expression nesting to prevent stack overflow.
	MaxDepth int
	// LambdaSites lists the (upper-case) function names accepting arrow lambdas.
	LambdaSites map[string]bool
}

// WithRecovery enables error recovery mode.
func WithRecovery(enable bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.EnableRecovery = enable
	}
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithLambdaSites replaces the set of functions accepting arrow lambdas.
func WithLambdaSites(names ...string) CompileOption {
	return func(opts *CompileOptions) {
		opts.LambdaSites = make(map[string]bool, len(names))
		for _, n := range names {
			opts.LambdaSites[strings.ToUpper(n)] = true
		}
	}
}

// WithExtraLambdaSites adds functions accepting arrow lambdas to the current set.
func WithExtraLambdaSites(names ...string) CompileOption {
	return func(opts *CompileOptions) {
		sites := make(map[string]bool, len(opts.LambdaSites)+len(names))
		for k := range opts.LambdaSites {
			sites[k] = true
		}
		for _, n := range names {
			sites[strings.ToUpper(n)] = true
		}
		opts.LambdaSites = sites
	}
}

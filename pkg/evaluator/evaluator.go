// Package evaluator implements the GoRexx execution engine.
//
// The evaluator walks the statement list of a parsed [types.Program]. It
// owns the variable environments, the call-frame stack, the control-flow
// state machine (IF, SELECT, DO, CALL/RETURN, SIGNAL and labels), the
// expression evaluator and the INTERPRET subsystem.
//
// Mutable interpreter state (address context, NUMERIC settings, input and
// output) lives in a [Session] threaded through every call; an Evaluator
// holds only configuration, the builtin and address registries, the
// compiled-program cache and the INTERPRET latch, so one Evaluator can run
// many programs concurrently.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithOutput(os.Stdout))
//	res, err := ev.RunSource(ctx, "SAY 'hello'")
package evaluator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sandrolain/gorexx/pkg/address"
	"github.com/sandrolain/gorexx/pkg/cache"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/parser"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Evaluator runs GoRexx programs.
type Evaluator struct {
	opts      EvalOptions
	logger    *slog.Logger
	cache     *cache.Cache
	functions *functions.Registry
	addresses *address.Registry
	latch     atomic.Bool
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Numeric is the initial NUMERIC DIGITS / FUZZ / FORM of every session.
	Numeric value.Numeric
	// Address is the initial address target. Defaults to address.Default.
	Address string
	// Strict makes reading an unset variable an UndefinedVariableError
	// instead of yielding its upper-cased name.
	Strict bool
	// DisableInterpret sets the INTERPRET latch at construction.
	DisableInterpret bool
	// AllowedModes restricts the INTERPRET modes; nil allows all of them.
	AllowedModes []types.InterpretMode
	// Caching enables the compiled-program cache used by RunSource and
	// INTERPRET. Enabled by default.
	Caching bool
	// CacheSize sets the maximum number of cached programs. Defaults to 256.
	CacheSize int
	// Cache is a custom program cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits the number of nested call frames.
	MaxDepth int
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
	// Output receives every SAY line. Defaults to os.Stdout.
	Output func(string)
	// Input feeds PULL. Defaults to an empty reader.
	Input io.Reader
	// LambdaSites adds functions accepting arrow lambdas, for INTERPRET and
	// RunSource compilation.
	LambdaSites []string
	// Functions are registered in the builtin registry.
	Functions []functions.FunctionEntry
	// Registry replaces the builtin registry.
	Registry *functions.Registry
	// Addresses maps address targets to handlers.
	Addresses map[string]address.Handler
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// defaultMaxDepth is the call depth limit when WithMaxDepth is not used.
var defaultMaxDepth = 1000

// New creates a new Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Numeric:  value.DefaultNumeric,
		Address:  address.Default,
		Caching:  true,
		MaxDepth: defaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Output == nil {
		options.Output = writerOutput(os.Stdout)
	}
	if options.Address == "" {
		options.Address = address.Default
	}
	options.Address = strings.ToUpper(options.Address)

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	reg := options.Registry
	if reg == nil {
		reg = functions.NewRegistry()
	}
	if len(options.Functions) > 0 {
		reg = reg.Clone()
		if err := reg.Register(options.Functions...); err != nil {
			options.Logger.Error("invalid builtin", "error", err)
		}
	}

	addrs := address.NewRegistry()
	for name, h := range options.Addresses {
		addrs.Register(name, h)
	}

	e := &Evaluator{
		opts:      options,
		logger:    options.Logger,
		cache:     c,
		functions: reg,
		addresses: addrs,
	}
	if options.DisableInterpret {
		e.latch.Store(true)
	}
	return e
}

// Cache returns the program cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Functions returns the builtin registry.
func (e *Evaluator) Functions() *functions.Registry {
	return e.functions
}

// Addresses returns the address target registry.
func (e *Evaluator) Addresses() *address.Registry {
	return e.addresses
}

// DisableInterpret sets the INTERPRET latch. It cannot be cleared: every
// later INTERPRET on this evaluator fails with a SecurityError.
func (e *Evaluator) DisableInterpret() {
	e.latch.Store(true)
}

// InterpretDisabled reports whether the latch is set.
func (e *Evaluator) InterpretDisabled() bool {
	return e.latch.Load()
}

// Compile parses source with the evaluator's lambda sites, through the cache
// when enabled. The second result reports a cache hit.
func (e *Evaluator) Compile(source string) (*types.Program, bool, error) {
	compile := func() (*types.Program, error) {
		return parser.Compile(source, parser.WithExtraLambdaSites(e.opts.LambdaSites...))
	}
	if e.cache == nil {
		prog, err := compile()
		return prog, false, err
	}
	if prog, ok := e.cache.Get(source); ok {
		return prog, true, nil
	}
	prog, err := compile()
	if err != nil {
		return nil, false, err
	}
	e.cache.Put(source, prog)
	return prog, false, nil
}

// Run executes prog in a fresh session.
func (e *Evaluator) Run(ctx context.Context, prog *types.Program, args ...value.Value) (*Result, error) {
	return e.NewSession().Run(ctx, prog, args...)
}

// RunSource compiles and executes source in a fresh session.
func (e *Evaluator) RunSource(ctx context.Context, source string, args ...value.Value) (*Result, error) {
	return e.NewSession().RunSource(ctx, source, args...)
}

func writerOutput(w io.Writer) func(string) {
	return func(s string) {
		_, _ = io.WriteString(w, s+"\n")
	}
}

// WithNumeric sets the initial NUMERIC settings.
func WithNumeric(n value.Numeric) EvalOption {
	return func(opts *EvalOptions) {
		opts.Numeric = n
	}
}

// WithInitialAddress sets the initial address target.
func WithInitialAddress(target string) EvalOption {
	return func(opts *EvalOptions) {
		opts.Address = target
	}
}

// WithAddress registers the handler of an address target.
func WithAddress(target string, h address.Handler) EvalOption {
	return func(opts *EvalOptions) {
		if opts.Addresses == nil {
			opts.Addresses = make(map[string]address.Handler)
		}
		opts.Addresses[target] = h
	}
}

// WithStrict enables strict variables.
func WithStrict(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Strict = enabled
	}
}

// WithInterpretDisabled sets the INTERPRET latch at construction.
func WithInterpretDisabled(disabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.DisableInterpret = disabled
	}
}

// WithAllowedInterpretModes restricts INTERPRET to the given modes.
func WithAllowedInterpretModes(modes ...types.InterpretMode) EvalOption {
	return func(opts *EvalOptions) {
		opts.AllowedModes = append([]types.InterpretMode{}, modes...)
	}
}

// WithCaching enables or disables the compiled-program cache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached programs.
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external program cache.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithMaxDepth sets the maximum number of nested call frames.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithTimeout sets the run timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithOutput sends SAY output to w, one line per statement.
func WithOutput(w io.Writer) EvalOption {
	return func(opts *EvalOptions) {
		opts.Output = writerOutput(w)
	}
}

// WithOutputFunc sets the output sink.
func WithOutputFunc(fn func(string)) EvalOption {
	return func(opts *EvalOptions) {
		opts.Output = fn
	}
}

// WithInput sets the reader PULL reads lines from.
func WithInput(r io.Reader) EvalOption {
	return func(opts *EvalOptions) {
		opts.Input = r
	}
}

// WithLambdaSites adds functions whose arguments may be arrow lambdas.
func WithLambdaSites(names ...string) EvalOption {
	return func(opts *EvalOptions) {
		opts.LambdaSites = append(opts.LambdaSites, names...)
	}
}

// WithFunctions registers builtins.
func WithFunctions(entries ...functions.FunctionEntry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Functions = append(opts.Functions, entries...)
	}
}

// WithCustomFunction registers a single builtin.
//
// Example:
//
//	evaluator.New(evaluator.WithCustomFunction("GREET", "GREET(name)", func(ctx context.Context, args functions.Args) (value.Value, error) {
//	    name, _ := args.String(0, "NAME")
//	    return value.String("Hello, " + name + "!"), nil
//	}))
func WithCustomFunction(name, signature string, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.Functions = append(opts.Functions, functions.CustomFunctionDef{
			Name:      name,
			Signature: signature,
			Fn:        fn,
		})
	}
}

// WithCustomOperation registers a builtin that may also be issued as an
// imperative command at the default address ("GREET name='Ann'").
func WithCustomOperation(name, signature string, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.Functions = append(opts.Functions, functions.CustomFunctionDef{
			Name:      name,
			Signature: signature,
			Operation: true,
			Fn:        fn,
		})
	}
}

// WithRegistry replaces the builtin registry.
func WithRegistry(reg *functions.Registry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Registry = reg
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

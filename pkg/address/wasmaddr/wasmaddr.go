// Package wasmaddr provides an ADDRESS target backed by a WebAssembly module.
//
// Each command calls the module export with the command's name. Positional
// parameters fill the function parameters in order; named parameters are
// matched against the parameter names when the module carries them. Numeric
// parameters and results are converted according to the function signature
// (i32, i64, f32, f64).
//
//	h, err := wasmaddr.New(ctx, wasmBytes)
//	...
//	ev := evaluator.New(evaluator.WithAddress("MATH", h))
//
//	ADDRESS MATH
//	add 2 3          -- RESULT = 5, RC = 0
package wasmaddr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/sandrolain/gorexx/pkg/address"
	"github.com/sandrolain/gorexx/pkg/value"
)

// RCNotFound is the return code of a command naming no exported function.
const RCNotFound = -3

// Options configures a Handler.
type Options struct {
	// Name is the module instance name.
	Name string
	// WASI instantiates wasi_snapshot_preview1 before the module.
	WASI bool
	// Stdout and Stderr receive WASI output.
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Debug  bool
}

// Option configures a Handler.
type Option func(*Options)

// WithName sets the module instance name.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithWASI enables WASI imports, with output sent to stdout and stderr.
func WithWASI(stdout, stderr io.Writer) Option {
	return func(o *Options) {
		o.WASI = true
		o.Stdout = stdout
		o.Stderr = stderr
	}
}

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDebug enables debug logging of every call.
func WithDebug(enabled bool) Option {
	return func(o *Options) {
		o.Debug = enabled
	}
}

// Handler is an address.Handler calling exports of one module instance.
// Calls are serialized: a module instance is not safe for concurrent use.
type Handler struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	module  api.Module
	exports map[string]string // upper-cased name -> export name
	opts    Options
}

var _ address.Handler = (*Handler)(nil)

// New compiles and instantiates a module. Only a reactor "_initialize"
// export is run at start; "_start" is never called.
func New(ctx context.Context, wasm []byte, opts ...Option) (*Handler, error) {
	o := Options{Name: "rexx-address"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	if o.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			return nil, fmt.Errorf("wasmaddr: instantiate WASI: %w", err)
		}
	}

	cfg := wazero.NewModuleConfig().WithName(o.Name).WithStartFunctions("_initialize")
	if o.Stdout != nil {
		cfg = cfg.WithStdout(o.Stdout)
	}
	if o.Stderr != nil {
		cfg = cfg.WithStderr(o.Stderr)
	}

	mod, err := r.InstantiateWithConfig(ctx, wasm, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasmaddr: instantiate module: %w", err)
	}

	h := &Handler{
		runtime: r,
		module:  mod,
		exports: make(map[string]string),
		opts:    o,
	}
	for name := range mod.ExportedFunctionDefinitions() {
		h.exports[strings.ToUpper(name)] = name
	}
	return h, nil
}

// Functions returns the exported function names in sorted order.
func (h *Handler) Functions() []string {
	out := make([]string, 0, len(h.exports))
	for _, name := range h.exports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close releases the runtime and the module.
func (h *Handler) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runtime.Close(ctx)
}

// Send calls the export named by the command. Unknown exports and bad
// parameters are command failures; a trap is a failure with RC 1. Only a
// cancelled context is returned as an error.
func (h *Handler) Send(ctx context.Context, cmd address.Command) (address.Result, error) {
	name := cmd.Name
	if name == "" {
		if fields := strings.Fields(cmd.Text); len(fields) > 0 {
			name = fields[0]
		}
	}

	export, ok := h.exports[strings.ToUpper(name)]
	if !ok {
		return address.Fail(RCNotFound, "no exported function %q", name), nil
	}
	fn := h.module.ExportedFunction(export)
	def := fn.Definition()

	params, err := bindParams(def, cmd)
	if err != nil {
		return address.Fail(1, "%s: %v", export, err), nil
	}

	h.mu.Lock()
	results, err := fn.Call(ctx, params...)
	h.mu.Unlock()

	if h.opts.Debug {
		h.opts.Logger.Debug("wasm call", "function", export, "params", len(params), "error", err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return address.Result{}, ctx.Err()
		}
		return address.Fail(1, "%s: %v", export, err), nil
	}

	return address.OK(decodeResults(def.ResultTypes(), results)), nil
}

// bindParams places the command parameters into the function's parameter
// slots and encodes them.
func bindParams(def api.FunctionDefinition, cmd address.Command) ([]uint64, error) {
	types := def.ParamTypes()
	names := def.ParamNames()

	slots := make([]value.Value, len(types))
	filled := make([]bool, len(types))

	for _, p := range cmd.Params {
		if p.Key == "" {
			continue
		}
		idx := -1
		for i, n := range names {
			if strings.EqualFold(n, p.Key) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown parameter %q", p.Key)
		}
		slots[idx], filled[idx] = p.Value, true
	}

	next := 0
	for _, v := range cmd.Positional() {
		for next < len(slots) && filled[next] {
			next++
		}
		if next == len(slots) {
			return nil, fmt.Errorf("too many parameters, want %d", len(types))
		}
		slots[next], filled[next] = v, true
	}

	out := make([]uint64, len(types))
	for i, t := range types {
		if !filled[i] {
			return nil, fmt.Errorf("missing parameter %d of %d", i+1, len(types))
		}
		enc, err := encode(t, slots[i])
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = enc
	}
	return out, nil
}

func encode(t api.ValueType, v value.Value) (uint64, error) {
	f, ok := v.Number()
	if !ok {
		return 0, fmt.Errorf("%q is not a number", v.String())
	}
	switch t {
	case api.ValueTypeI32:
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxUint32 {
			return 0, fmt.Errorf("%s does not fit i32", v.String())
		}
		if f > math.MaxInt32 {
			return api.EncodeU32(uint32(f)), nil
		}
		return api.EncodeI32(int32(f)), nil
	case api.ValueTypeI64:
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%s is not a whole number", v.String())
		}
		return api.EncodeI64(int64(f)), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(f), nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
	}
}

func decodeResults(types []api.ValueType, results []uint64) value.Value {
	vals := make([]value.Value, len(results))
	for i, r := range results {
		vals[i] = decode(types[i], r)
	}
	switch len(vals) {
	case 0:
		return value.Empty
	case 1:
		return vals[0]
	default:
		return value.Array(vals...)
	}
}

func decode(t api.ValueType, r uint64) value.Value {
	switch t {
	case api.ValueTypeI32:
		return value.Int(int(api.DecodeI32(r)))
	case api.ValueTypeI64:
		return value.String(strconv.FormatInt(int64(r), 10))
	case api.ValueTypeF32:
		return value.Number(float64(api.DecodeF32(r)))
	case api.ValueTypeF64:
		return value.Number(api.DecodeF64(r))
	default:
		return value.String(strconv.FormatUint(r, 10))
	}
}

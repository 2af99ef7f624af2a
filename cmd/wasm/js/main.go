//go:build js && wasm

// Command gorexx-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gorexx` object with the following API:
//
//	gorexx.version()                 → string
//	gorexx.run(source, argsJSON)     → { output: [...], result }  (throws on error)
//	gorexx.compile(source)           → { run(argsJSON) → { output, result } }  (throws on error)
//
// argsJSON is an optional JSON array of program arguments.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gorexx.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const rx = await load()
//	const { output } = rx.run("SAY 'hi' || ARG(1)", JSON.stringify(['!']))
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gorexx"
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext"
	"github.com/sandrolain/gorexx/pkg/ext/extfunc"
	"github.com/sandrolain/gorexx/pkg/parser"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func parseArgs(fn string, args []js.Value, i int) []value.Value {
	if len(args) <= i || args[i].IsUndefined() || args[i].IsNull() {
		return nil
	}
	var raw []any
	if err := json.Unmarshal([]byte(args[i].String()), &raw); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid args JSON: %v", fn, err))
	}
	vals := make([]value.Value, 0, len(raw))
	for _, a := range raw {
		vals = append(vals, value.FromAny(a))
	}
	return vals
}

// run executes prog, collecting SAY lines into the returned object.
func run(fn string, prog *types.Program, args []value.Value) any {
	var output []any
	ev := evaluator.New(
		ext.WithAll(),
		evaluator.WithOutputFunc(func(s string) { output = append(output, s) }),
	)
	res, err := ev.Run(context.Background(), prog, args...)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	obj := map[string]any{"output": output}
	if res.HasValue {
		out, err := json.Marshal(res.Value)
		if err != nil {
			jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
		}
		obj["result"] = string(out)
	}
	return js.ValueOf(obj)
}

func compile(fn, source string) *types.Program {
	prog, err := gorexx.Compile(source, parser.WithExtraLambdaSites(extfunc.LambdaSites...))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	return prog
}

// jsRun implements gorexx.run(source, argsJSON).
func jsRun(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gorexx.run requires a source argument")
	}
	prog := compile("gorexx.run", args[0].String())
	return run("gorexx.run", prog, parseArgs("gorexx.run", args, 1))
}

// jsCompile implements gorexx.compile(source) → { run(argsJSON) }.
func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gorexx.compile requires a source argument")
	}
	prog := compile("gorexx.compile", args[0].String())

	runFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		return run("compiled.run", prog, parseArgs("compiled.run", innerArgs, 0))
	})
	return js.ValueOf(map[string]any{"run": runFn})
}

func main() {
	api := map[string]any{
		"run":     js.FuncOf(jsRun),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gorexx.Version()
		}),
	}
	js.Global().Set("gorexx", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}

//go:build wasip1

// Command gorexx-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "source": "<program>", "args": [<any JSON value>, ...] }
//	stdout: { "output": ["line", ...], "result": <any JSON value> }   on success
//	        { "output": [...], "error": "<message>", "kind": "<code>" } on failure (exit code 1)
//
// INTERPRET is limited to the isolated modes and ADDRESS commands go
// nowhere, since the module has no host to talk to.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gorexx.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"source":"PARSE ARG n; SAY n * 2","args":[21]}' | wasmtime gorexx.wasm
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/sandrolain/gorexx"
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

type request struct {
	Source string `json:"source"`
	Args   []any  `json:"args"`
}

type response struct {
	Output []string `json:"output"`
	Result any      `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

func writeResponse(r response, exitCode int) {
	if r.Output == nil {
		r.Output = []string{}
	}
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	args := make([]value.Value, 0, len(req.Args))
	for _, a := range req.Args {
		args = append(args, value.FromAny(a))
	}

	var resp response
	res, err := gorexx.RunWithContext(context.Background(), req.Source, args,
		ext.WithAll(),
		evaluator.WithAllowedInterpretModes(
			types.InterpretIsolated,
			types.InterpretIsolatedImport,
			types.InterpretIsolatedExport,
			types.InterpretIsolatedImportExport,
		),
		evaluator.WithOutputFunc(func(s string) { resp.Output = append(resp.Output, s) }),
	)
	if err != nil {
		resp.Error = err.Error()
		var te *types.Error
		if errors.As(err, &te) {
			resp.Kind = string(te.Code)
		}
		writeResponse(resp, 1)
	}
	if res.HasValue {
		resp.Result = res.Value.ToAny()
	}
	writeResponse(resp, 0)
}

// Package address defines the ADDRESS send contract.
//
// Imperative commands ("NAME key=value ...") issued while the address context
// names a target other than the default are delivered to that target's
// Handler. Send is synchronous from the interpreter's point of view; a
// handler backed by an asynchronous transport must block until it has an
// outcome.
package address

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sandrolain/gorexx/pkg/value"
)

// Default is the address target that routes commands to the builtin registry.
const Default = "DEFAULT"

// Param is one named or positional command parameter. Key is empty for
// positional parameters.
type Param struct {
	Key   string
	Value value.Value
}

// Command is the payload of one imperative statement.
type Command struct {
	Target string
	Name   string
	Text   string // the command rendered back to source form
	Params []Param
	Line   int
}

// Param returns the named parameter key (case-insensitive).
func (c Command) Param(key string) (value.Value, bool) {
	for _, p := range c.Params {
		if p.Key != "" && strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return value.Empty, false
}

// Positional returns the parameters without a key, in order.
func (c Command) Positional() []value.Value {
	var out []value.Value
	for _, p := range c.Params {
		if p.Key == "" {
			out = append(out, p.Value)
		}
	}
	return out
}

// Result is the outcome of a Send.
//
// Code becomes RC in the program (0 for success when unset); Value becomes
// RESULT; Error is the failure message.
type Result struct {
	Success bool
	Value   value.Value
	Error   string
	Code    int
}

// OK builds a successful result.
func OK(v value.Value) Result {
	return Result{Success: true, Value: v}
}

// Fail builds a failed result. A zero code is replaced by 1.
func Fail(code int, format string, args ...any) Result {
	if code == 0 {
		code = 1
	}
	return Result{Code: code, Error: fmt.Sprintf(format, args...)}
}

// RC returns the return code to bind to RC.
func (r Result) RC() int {
	if r.Code == 0 && !r.Success {
		return 1
	}
	return r.Code
}

// Handler receives the commands sent to one address target.
//
// A non-nil error is a fault independent of SIGNAL ON ERROR (for example a
// StaleReferenceError from a collaborator); an unsuccessful Result is an
// ordinary command failure.
type Handler interface {
	Send(ctx context.Context, cmd Command) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd Command) (Result, error)

// Send calls f.
func (f HandlerFunc) Send(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// Registry maps target names (case-insensitive) to handlers.
//
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for target.
func (r *Registry) Register(target string, h Handler) {
	r.mu.Lock()
	r.handlers[strings.ToUpper(target)] = h
	r.mu.Unlock()
}

// Unregister removes a target.
func (r *Registry) Unregister(target string) {
	r.mu.Lock()
	delete(r.handlers, strings.ToUpper(target))
	r.mu.Unlock()
}

// Lookup returns the handler for target.
func (r *Registry) Lookup(target string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	h, ok := r.handlers[strings.ToUpper(target)]
	r.mu.RUnlock()
	return h, ok
}

// Targets returns the registered target names in sorted order.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy sharing the handlers.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := NewRegistry()
	for k, v := range r.handlers {
		cp.handlers[k] = v
	}
	return cp
}

// Recorder is a Handler that records every command and replies with a fixed
// result. It is meant for tests and dry runs.
type Recorder struct {
	mu       sync.Mutex
	Reply    Result
	commands []Command
}

// Send records cmd.
func (r *Recorder) Send(_ context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.Reply, nil
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

package evaluator

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Session is the mutable state of a run: the global variable pool, the
// address context, the NUMERIC settings and the input and output streams.
//
// A Session may run several programs one after the other (a REPL keeps its
// variables this way). It must not be used by two goroutines at once.
type Session struct {
	ev          *Evaluator
	env         *Environment
	address     string
	prevAddress string
	numeric     value.Numeric
	allowed     map[types.InterpretMode]bool
	out         func(string)
	in          *bufio.Reader
}

// Result is the outcome of a completed run.
type Result struct {
	// Value is the operand of the EXIT or top-level RETURN that ended the
	// run; HasValue is false when there was none.
	Value    value.Value
	HasValue bool
}

// NewSession creates a session with the evaluator's initial settings.
func (e *Evaluator) NewSession() *Session {
	s := &Session{
		ev:          e,
		env:         NewEnvironment(),
		address:     e.opts.Address,
		prevAddress: e.opts.Address,
		numeric:     e.opts.Numeric,
		out:         e.opts.Output,
	}
	if s.numeric.Validate() != nil {
		s.numeric = value.DefaultNumeric
	}
	if e.opts.AllowedModes != nil {
		s.allowed = make(map[types.InterpretMode]bool, len(e.opts.AllowedModes))
		for _, m := range e.opts.AllowedModes {
			s.allowed[m] = true
		}
	}
	in := e.opts.Input
	if in == nil {
		in = strings.NewReader("")
	}
	s.in = bufio.NewReader(in)
	return s
}

// Run executes prog against the session's variables. Faults not handled by
// SIGNAL ON ERROR are returned as *types.Error; output already emitted is
// not rolled back.
func (s *Session) Run(ctx context.Context, prog *types.Program, args ...value.Value) (*Result, error) {
	if prog == nil {
		return nil, errors.New("invalid program")
	}

	if s.ev.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ev.opts.Timeout)
		defer cancel()
	}

	f := &frame{
		routine: types.MainRoutine,
		unit:    &unit{prog: prog},
		env:     s.env,
		args:    args,
		root:    true,
		sess:    s,
	}

	fl, err := s.ev.runUnit(ctx, f, 0)
	if err != nil {
		var t *terminalError
		if errors.As(err, &t) {
			return nil, t.err
		}
		return nil, err
	}
	return &Result{Value: fl.value, HasValue: fl.hasValue}, nil
}

// RunSource compiles source (through the evaluator cache) and runs it.
func (s *Session) RunSource(ctx context.Context, source string, args ...value.Value) (*Result, error) {
	prog, _, err := s.ev.Compile(source)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, prog, args...)
}

// Variable returns a variable by name (case-insensitive). Compound names
// are taken literally: "ARR.1", not substituted.
func (s *Session) Variable(name string) (value.Value, bool) {
	return s.env.Get(strings.ToUpper(name))
}

// SetVariable assigns a variable.
func (s *Session) SetVariable(name string, v value.Value) {
	s.env.Set(strings.ToUpper(name), v)
}

// SetStem writes stem.1..n and stem.0 = n.
func (s *Session) SetStem(stem string, values []value.Value) {
	s.env.SetStem(stem, values)
}

// DropVariable undefines a variable or a whole stem ("ARR.").
func (s *Session) DropVariable(name string) {
	s.env.Drop(strings.ToUpper(name))
}

// Variables returns the defined variable names in sorted order.
func (s *Session) Variables() []string {
	return s.env.Names()
}

// Address returns the current address target.
func (s *Session) Address() string {
	return s.address
}

// Numeric returns the current NUMERIC settings.
func (s *Session) Numeric() value.Numeric {
	return s.numeric
}

// interpretAllowed reports whether mode may run in this session.
func (s *Session) interpretAllowed(mode types.InterpretMode) bool {
	return s.allowed == nil || s.allowed[mode]
}

// pull reads one line of input; end of input yields "".
func (s *Session) pull() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) emit(text string) {
	s.out(text)
}

package evaluator

import (
	"context"
	"errors"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Pseudo-variables bound when SIGNAL ON ERROR traps a fault.
const (
	varErrorMessage   = "ERROR_MESSAGE"
	varErrorLine      = "ERROR_LINE"
	varErrorFunction  = "ERROR_FUNCTION"
	varErrorKind      = "ERROR_KIND"
	varErrorVariables = "ERROR_VARIABLES"
	varRC             = "RC"
	varResult         = "RESULT"
	varSIGL           = "SIGL"
)

// fault is a trapped error on its way to the handler label.
type fault struct {
	err   *types.Error
	rc    int
	label string
}

// commandError is a failed command raised as a CommandError; it keeps the
// command's return code for RC.
type commandError struct {
	err *types.Error
	rc  int
}

func (c *commandError) Error() string {
	return c.err.Error()
}

func (c *commandError) Unwrap() error {
	return c.err
}

func (e *Evaluator) execSignal(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	label := n.Label
	if n.Dynamic {
		v, err := e.eval(ctx, f, n.RHS)
		if err != nil {
			return next, err
		}
		label = strings.TrimSpace(v.String())
	}
	return flow{kind: flowSignal, label: label, line: n.Line}, nil
}

// raise turns err into a signal to f's handler label, or returns the error
// when f cannot trap it.
func (e *Evaluator) raise(f *frame, err error) (flow, error) {
	flt, err := e.trap(f, err)
	if err != nil {
		return next, err
	}
	f.handler = nil
	return flow{kind: flowSignal, label: flt.label, line: flt.err.Line, fault: flt}, nil
}

// trap decides who handles a fault raised in f:
//   - f's own handler, when it was armed in f's unit;
//   - the frame that ran the INTERPRET, when the handler was inherited from
//     it (the raw error is returned to that frame);
//   - nobody: the error leaves f marked terminal.
//
// Cancellation and already terminal errors pass through untouched.
func (e *Evaluator) trap(f *frame, err error) (*fault, error) {
	var t *terminalError
	if errors.As(err, &t) {
		return nil, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	te := e.asFault(f, err)
	if f.handler == nil {
		return nil, &terminalError{err: te}
	}
	if f.handler.unit != f.unit {
		return nil, err
	}

	rc := 1
	var ce *commandError
	if errors.As(err, &ce) {
		rc = ce.rc
	}
	if e.opts.Debug {
		e.logger.Debug("trapped fault", "kind", te.Code, "line", te.Line, "label", f.handler.label)
	}
	return &fault{err: te, rc: rc, label: f.handler.label}, nil
}

// landSignal binds SIGL and, for a trapped fault, the error pseudo-variables
// in the frame taking the signal. The handler stays off until re-armed.
func (e *Evaluator) landSignal(f *frame, fl flow) {
	f.env.Set(varSIGL, value.Int(fl.line))
	if fl.fault == nil {
		return
	}
	f.handler = nil

	te := fl.fault.err
	vars := value.NewMap()
	for _, k := range te.SortedVariables() {
		vars.Set(k, value.String(te.Variables[k]))
	}

	f.env.Set(varRC, value.Int(fl.fault.rc))
	f.env.Set(varErrorMessage, value.String(te.Message))
	f.env.Set(varErrorLine, value.Int(te.Line))
	f.env.Set(varErrorFunction, value.String(te.Function))
	f.env.Set(varErrorKind, value.String(string(te.Code)))
	f.env.Set(varErrorVariables, value.FromMap(vars))
}

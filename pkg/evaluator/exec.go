package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// runUnit executes the top-level statements of f's unit from index pc.
//
// It is the trampoline of the control-flow engine: a signal flow whose
// label belongs to f's routine region (or any signal reaching the unit's
// root frame) restarts execution at the label; any other signal is
// returned so the caller's frame can take it. Falling off the end yields a
// next flow.
func (e *Evaluator) runUnit(ctx context.Context, f *frame, pc int) (flow, error) {
	body := f.unit.prog.Body()

	for pc < len(body) {
		fl, err := e.execStatement(ctx, f, body[pc])
		if err != nil {
			if fl, err = e.raise(f, err); err != nil {
				return next, err
			}
		}

		switch fl.kind {
		case flowNext:
			pc++

		case flowSignal:
			idx, ok := f.unit.prog.Label(fl.label)
			if !ok {
				missing := types.Errorf(types.ErrUndefinedLabel, fl.line, "label %s not found", strings.ToUpper(fl.label))
				if fl, err = e.raise(f, missing); err != nil {
					return next, err
				}
				// The handler is off now, so a missing handler label is terminal.
				if idx, ok = f.unit.prog.Label(fl.label); !ok {
					missing = types.Errorf(types.ErrUndefinedLabel, fl.line, "label %s not found", strings.ToUpper(fl.label))
					return next, e.terminal(f, missing)
				}
			}
			if !f.owns(fl.label) {
				return fl, nil
			}
			e.landSignal(f, fl)
			pc = idx

		default:
			return fl, nil
		}
	}
	return next, nil
}

// owns reports whether a SIGNAL to label lands in f: the label lies in f's
// routine region, or f is the root of its unit.
func (f *frame) owns(label string) bool {
	return f.root || f.unit.prog.Owner(label) == f.routine
}

// execBlock executes a statement list until a non-sequential flow.
func (e *Evaluator) execBlock(ctx context.Context, f *frame, stmts []*types.ASTNode) (flow, error) {
	for _, stmt := range stmts {
		fl, err := e.execStatement(ctx, f, stmt)
		if err != nil || fl.kind != flowNext {
			return fl, err
		}
	}
	return next, nil
}

// execStatement executes one statement. Errors carry the statement's line
// when they have none.
func (e *Evaluator) execStatement(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	if err := ctx.Err(); err != nil {
		return next, err
	}
	if e.opts.Debug {
		e.logger.Debug("executing statement", "type", n.Type, "line", n.Line, "routine", f.routine)
	}

	fl, err := e.dispatch(ctx, f, n)
	if err != nil {
		var ce *controlError
		if errors.As(err, &ce) {
			return ce.flow, nil
		}
		var te *types.Error
		if errors.As(err, &te) {
			te.WithPosition(n.Line, n.Column)
		}
		return next, err
	}
	return fl, nil
}

func (e *Evaluator) dispatch(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	switch n.Type {
	case types.NodeLabel, types.NodeNop:
		return next, nil
	case types.NodeAssign:
		return next, e.execAssign(ctx, f, n)
	case types.NodeSay:
		return next, e.execSay(ctx, f, n)
	case types.NodeIf:
		return e.execIf(ctx, f, n)
	case types.NodeSelect:
		return e.execSelect(ctx, f, n)
	case types.NodeDo:
		return e.execDo(ctx, f, n)
	case types.NodeLeave, types.NodeIterate:
		return e.execLoopControl(f, n)
	case types.NodeCall:
		return e.execCall(ctx, f, n)
	case types.NodeReturn, types.NodeExit:
		return e.execReturn(ctx, f, n)
	case types.NodeSignal:
		return e.execSignal(ctx, f, n)
	case types.NodeSignalOn:
		f.handler = &handler{label: n.Label, unit: f.unit}
		return next, nil
	case types.NodeSignalOff:
		f.handler = nil
		return next, nil
	case types.NodeAddress:
		return next, e.execAddress(ctx, f, n)
	case types.NodeCommand:
		return next, e.execCommand(ctx, f, n, f.sess.address)
	case types.NodeInterpret:
		return e.execInterpret(ctx, f, n)
	case types.NodeNoInterpret:
		e.DisableInterpret()
		return next, nil
	case types.NodeParse:
		return next, e.execParse(ctx, f, n)
	case types.NodeNumeric:
		return next, e.execNumeric(ctx, f, n)
	case types.NodeDrop:
		for _, name := range n.Names {
			f.env.Drop(e.symbolName(f, name))
		}
		return next, nil
	case types.NodeProcedure:
		return next, e.execProcedure(f, n)
	case types.NodeExprStmt:
		return next, e.execExpressionStatement(ctx, f, n)
	default:
		return next, types.Errorf(types.ErrSyntax, n.Line, "unsupported statement %s", n.Type)
	}
}

func (e *Evaluator) execAssign(ctx context.Context, f *frame, n *types.ASTNode) error {
	v, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return err
	}
	f.env.Set(e.varName(f, n.LHS), v)
	return nil
}

func (e *Evaluator) execSay(ctx context.Context, f *frame, n *types.ASTNode) error {
	if n.RHS == nil {
		f.sess.emit("")
		return nil
	}
	v, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return err
	}
	f.sess.emit(v.String())
	return nil
}

// condition evaluates a logical expression.
func (e *Evaluator) condition(ctx context.Context, f *frame, n *types.ASTNode) (bool, error) {
	v, err := e.eval(ctx, f, n)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, types.Errorf(types.ErrArithmeticType, n.Line, "logical value expected, got %q", v.String())
	}
	return b, nil
}

func (e *Evaluator) execIf(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	ok, err := e.condition(ctx, f, n.LHS)
	if err != nil {
		return next, err
	}
	if ok {
		return e.execBlock(ctx, f, n.Body)
	}
	return e.execBlock(ctx, f, n.Else)
}

// execSelect runs the first WHEN whose condition holds, else OTHERWISE. With
// no match and no OTHERWISE it does nothing.
func (e *Evaluator) execSelect(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	for _, when := range n.Body {
		ok, err := e.condition(ctx, f, when.LHS)
		if err != nil {
			return next, err
		}
		if ok {
			return e.execBlock(ctx, f, when.Body)
		}
	}
	return e.execBlock(ctx, f, n.Else)
}

// execReturn handles RETURN and EXIT.
func (e *Evaluator) execReturn(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	kind := flowReturn
	if n.Type == types.NodeExit {
		kind = flowExit
	}
	fl := flow{kind: kind, line: n.Line}
	if n.RHS != nil {
		v, err := e.eval(ctx, f, n.RHS)
		if err != nil {
			return next, err
		}
		fl.value, fl.hasValue = v, true
	}
	return fl, nil
}

func (e *Evaluator) execNumeric(ctx context.Context, f *frame, n *types.ASTNode) error {
	num := f.sess.numeric

	switch n.Value {
	case "DIGITS", "FUZZ":
		setting := value.DefaultNumeric.Digits
		if n.Value == "FUZZ" {
			setting = 0
		}
		if n.RHS != nil {
			v, err := e.eval(ctx, f, n.RHS)
			if err != nil {
				return err
			}
			i, ok := v.Int()
			if !ok {
				return types.Errorf(types.ErrArgument, n.Line, "NUMERIC %s needs a whole number, got %q", n.Value, v.String())
			}
			setting = i
		}
		if n.Value == "DIGITS" {
			num.Digits = setting
		} else {
			num.Fuzz = setting
		}

	case "FORM":
		word := n.Label
		if n.RHS != nil {
			v, err := e.eval(ctx, f, n.RHS)
			if err != nil {
				return err
			}
			word = v.String()
		}
		if word == "" {
			word = value.FormScientific.String()
		}
		form, ok := value.ParseForm(word)
		if !ok {
			return types.Errorf(types.ErrArgument, n.Line, "NUMERIC FORM must be SCIENTIFIC or ENGINEERING, got %q", word)
		}
		num.Form = form
	}

	if err := num.Validate(); err != nil {
		return types.NewError(types.ErrArgument, err.Error(), n.Line)
	}
	f.sess.numeric = num
	return nil
}

// execProcedure gives a called routine its own variable pool, forwarding
// the EXPOSE names to the caller's pool.
func (e *Evaluator) execProcedure(f *frame, n *types.ASTNode) error {
	if f.root {
		return types.NewError(types.ErrSyntax, "PROCEDURE outside a called routine", n.Line)
	}
	if f.proc {
		return types.NewError(types.ErrSyntax, "PROCEDURE already executed in this routine", n.Line)
	}
	expose := make([]string, len(n.Names))
	for i, name := range n.Names {
		expose[i] = e.symbolName(f, name)
	}
	f.env = newProcedureEnv(f.env, expose)
	f.proc = true
	return nil
}

// execExpressionStatement evaluates a bare expression. Under a non-default
// address a string result is sent to the target as a command.
func (e *Evaluator) execExpressionStatement(ctx context.Context, f *frame, n *types.ASTNode) error {
	v, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return err
	}
	if !isDefaultAddress(f.sess.address) && v.IsScalar() {
		switch n.RHS.Type {
		case types.NodeFunction, types.NodePipe:
			return nil
		}
		return e.sendText(ctx, f, f.sess.address, v.String(), n.Line)
	}
	return nil
}

// terminal marks err as a fault leaving f unhandled.
func (e *Evaluator) terminal(f *frame, err error) error {
	te := e.asFault(f, err)
	return &terminalError{err: te}
}

func (e *Evaluator) asFault(f *frame, err error) *types.Error {
	var te *types.Error
	if !errors.As(err, &te) {
		te = types.NewError(types.ErrExternal, err.Error(), 0).WithCause(err)
	}
	if te.Variables == nil {
		te.Variables = f.env.Snapshot()
	}
	if te.Function == "" && f.routine != types.MainRoutine {
		te.Function = f.routine
	}
	return te
}

func (fl flow) String() string {
	if fl.label != "" {
		return fmt.Sprintf("%s %s", fl.kind, fl.label)
	}
	return fl.kind.String()
}

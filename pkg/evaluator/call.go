package evaluator

import (
	"context"
	"errors"
	"strings"

	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// execCall runs CALL name args. RESULT receives the returned value, or is
// dropped when the routine returns none.
func (e *Evaluator) execCall(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	name := strings.ToUpper(n.Label)

	if idx, ok := f.unit.prog.Label(name); ok {
		args, err := e.routineArgs(ctx, f, name, n.Arguments)
		if err != nil {
			return next, err
		}
		fl, err := e.callRoutine(ctx, f, name, idx, args, n.Line)
		if err != nil {
			return next, err
		}
		if fl.kind != flowReturn {
			return fl, nil
		}
		if fl.hasValue {
			f.env.Set(varResult, fl.value)
		} else {
			f.env.Drop(varResult)
		}
		return next, nil
	}

	v, found, err := e.callExternal(ctx, f, name, n.Arguments, n.Line)
	if err != nil {
		return next, err
	}
	if !found {
		return next, types.Errorf(types.ErrUndefinedSubroutine, n.Line, "routine %s not found", name)
	}
	f.env.Set(varResult, v)
	return next, nil
}

// callFunction evaluates NAME(args): a user routine in the current unit,
// then an intrinsic, then a builtin.
func (e *Evaluator) callFunction(ctx context.Context, f *frame, n *types.ASTNode) (value.Value, error) {
	name := strings.ToUpper(n.Value)

	if idx, ok := f.unit.prog.Label(name); ok {
		args, err := e.routineArgs(ctx, f, name, n.Arguments)
		if err != nil {
			return value.Empty, err
		}
		fl, err := e.callRoutine(ctx, f, name, idx, args, n.Line)
		if err != nil {
			return value.Empty, err
		}
		switch {
		case fl.kind != flowReturn:
			return value.Empty, &controlError{flow: fl}
		case !fl.hasValue:
			return value.Empty, types.Errorf(types.ErrSyntax, n.Line, "function %s did not return a value", name)
		}
		return fl.value, nil
	}

	v, found, err := e.callExternal(ctx, f, name, n.Arguments, n.Line)
	if err != nil {
		return value.Empty, err
	}
	if !found {
		return value.Empty, types.Errorf(types.ErrUndefinedFunction, n.Line, "function %s not found", name)
	}
	return v, nil
}

// routineArgs evaluates the arguments of a user routine, which takes
// positional arguments only.
func (e *Evaluator) routineArgs(ctx context.Context, f *frame, name string, nodes []*types.ASTNode) ([]value.Value, error) {
	args := make([]value.Value, 0, len(nodes))
	for _, arg := range nodes {
		if arg.Type == types.NodeNamedArg {
			return nil, types.Errorf(types.ErrArgument, arg.Line, "routine %s takes no named argument %s", name, strings.ToUpper(arg.Value))
		}
		v, err := e.eval(ctx, f, arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// callRoutine runs the routine whose label is at idx in a new frame.
// Falling off the end returns no value.
func (e *Evaluator) callRoutine(ctx context.Context, f *frame, name string, idx int, args []value.Value, line int) (flow, error) {
	if f.depth+1 > e.opts.MaxDepth {
		return next, types.Errorf(types.ErrStackOverflow, line, "call depth exceeds %d", e.opts.MaxDepth)
	}
	if e.opts.Debug {
		e.logger.Debug("calling routine", "name", name, "args", len(args), "depth", f.depth+1)
	}

	restore := f.saveLoopVars()
	defer restore()

	fl, err := e.runUnit(ctx, f.child(name, args), idx+1)
	if err != nil {
		return next, err
	}
	if fl.kind == flowNext {
		return flow{kind: flowReturn, line: line}, nil
	}
	return fl, nil
}

// callExternal invokes an intrinsic or a builtin. found is false when name
// is neither.
func (e *Evaluator) callExternal(ctx context.Context, f *frame, name string, nodes []*types.ASTNode, line int) (value.Value, bool, error) {
	args, err := e.builtinArgs(ctx, f, nodes)
	if err != nil {
		return value.Empty, true, err
	}

	if fn, ok := intrinsics[name]; ok {
		v, err := fn(e, f, args)
		if err != nil {
			return value.Empty, true, builtinError(name, line, err)
		}
		return v, true, nil
	}

	fn, ok := e.functions.Lookup(name)
	if !ok {
		return value.Empty, false, nil
	}
	v, err := e.invoke(ctx, f, fn, args, line)
	return v, true, err
}

func (e *Evaluator) invoke(ctx context.Context, f *frame, fn *functions.Function, args functions.Args, line int) (value.Value, error) {
	v, err := fn.Invoke(ctx, &caller{ev: e, frame: f, line: line}, args)
	if err != nil {
		return value.Empty, builtinError(fn.Name, line, err)
	}
	return v, nil
}

// builtinError attributes a builtin failure to the builtin and its call
// line. Plain Go errors become ExternalError with the cause kept.
func builtinError(name string, line int, err error) error {
	var ce *controlError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *types.Error
	if !errors.As(err, &te) {
		te = types.NewError(types.ErrExternal, err.Error(), line).WithCause(err)
	}
	if te.Function == "" {
		te.Function = name
	}
	if line > 0 {
		te.WithPosition(line, 0)
	}
	return te
}

// builtinArgs evaluates call arguments; name=value pairs become named
// arguments with upper-cased keys.
func (e *Evaluator) builtinArgs(ctx context.Context, f *frame, nodes []*types.ASTNode) (functions.Args, error) {
	var args functions.Args
	for _, arg := range nodes {
		if arg.Type == types.NodeNamedArg {
			v, err := e.eval(ctx, f, arg.LHS)
			if err != nil {
				return args, err
			}
			if args.Named == nil {
				args.Named = make(map[string]value.Value)
			}
			args.Named[strings.ToUpper(arg.Value)] = v
			continue
		}
		v, err := e.eval(ctx, f, arg)
		if err != nil {
			return args, err
		}
		args.Positional = append(args.Positional, v)
	}
	return args, nil
}

type intrinsic func(e *Evaluator, f *frame, args functions.Args) (value.Value, error)

// intrinsics are functions that read interpreter state.
var intrinsics = map[string]intrinsic{
	"ARG":     intrinsicArg,
	"ADDRESS": func(_ *Evaluator, f *frame, _ functions.Args) (value.Value, error) { return value.String(f.sess.address), nil },
	"DIGITS":  func(_ *Evaluator, f *frame, _ functions.Args) (value.Value, error) { return value.Int(f.sess.numeric.Digits), nil },
	"FUZZ":    func(_ *Evaluator, f *frame, _ functions.Args) (value.Value, error) { return value.Int(f.sess.numeric.Fuzz), nil },
	"FORM":    func(_ *Evaluator, f *frame, _ functions.Args) (value.Value, error) { return value.String(f.sess.numeric.Form.String()), nil },
	"SYMBOL":  intrinsicSymbol,
}

// intrinsicArg implements ARG(), ARG(n) and ARG(n, 'E'|'O').
func intrinsicArg(_ *Evaluator, f *frame, args functions.Args) (value.Value, error) {
	if err := functions.CheckArity("ARG", args, 0, 2); err != nil {
		return value.Empty, err
	}
	if args.Len() == 0 {
		return value.Int(len(f.args)), nil
	}
	i, ok := args.Int(0, "")
	if !ok || i < 1 {
		return value.Empty, functions.ArgError("ARG", "argument number must be a positive whole number")
	}
	exists := i <= len(f.args)
	if args.Len() == 1 {
		if !exists {
			return value.Empty, nil
		}
		return f.args[i-1], nil
	}
	opt, _ := args.String(1, "")
	switch strings.ToUpper(strings.TrimSpace(opt)) {
	case "E":
		return value.Bool(exists), nil
	case "O":
		return value.Bool(!exists), nil
	default:
		return value.Empty, functions.ArgError("ARG", "option must be E or O, got %q", opt)
	}
}

// intrinsicSymbol returns VAR for a set variable, LIT for any other valid
// symbol and BAD otherwise.
func intrinsicSymbol(e *Evaluator, f *frame, args functions.Args) (value.Value, error) {
	if err := functions.CheckArity("SYMBOL", args, 1, 1); err != nil {
		return value.Empty, err
	}
	name, _ := args.String(0, "NAME")
	switch symbolKind(name) {
	case symBad:
		return value.String("BAD"), nil
	case symVar:
		if f.env.Has(e.symbolName(f, name)) {
			return value.String("VAR"), nil
		}
	}
	return value.String("LIT"), nil
}

// lambda is an arrow function value. Parameters are bound in the defining
// frame for the duration of a call.
type lambda struct {
	params []string
	body   *types.ASTNode
	frame  *frame
}

func (l *lambda) Params() []string {
	return l.params
}

func (l *lambda) String() string {
	return "(" + strings.Join(l.params, ", ") + ") => ..."
}

// caller lets builtins call function values back in the calling frame.
// Errors raised through it carry the line of the builtin's call site.
type caller struct {
	ev    *Evaluator
	frame *frame
	line  int
}

// Call invokes fn with args. A string naming a function calls that function.
func (c *caller) Call(ctx context.Context, fn value.Value, args ...value.Value) (value.Value, error) {
	if l, ok := fn.Function().(*lambda); ok && fn.Kind() == value.KindFunction {
		return c.ev.callLambda(ctx, l, args)
	}
	if fn.IsScalar() {
		name := strings.ToUpper(strings.TrimSpace(fn.String()))
		if symbolKind(name) == symVar {
			return c.callNamed(ctx, name, args)
		}
	}
	return value.Empty, types.Errorf(types.ErrArgument, c.line, "%q is not a function", fn.String())
}

func (c *caller) callNamed(ctx context.Context, name string, args []value.Value) (value.Value, error) {
	f := c.frame
	if idx, ok := f.unit.prog.Label(name); ok {
		fl, err := c.ev.callRoutine(ctx, f, name, idx, args, c.line)
		if err != nil {
			return value.Empty, err
		}
		if fl.kind != flowReturn {
			return value.Empty, &controlError{flow: fl}
		}
		return fl.value, nil
	}
	if fn, ok := intrinsics[name]; ok {
		v, err := fn(c.ev, f, functions.NewArgs(args...))
		if err != nil {
			return value.Empty, builtinError(name, c.line, err)
		}
		return v, nil
	}
	if fn, ok := c.ev.functions.Lookup(name); ok {
		return c.ev.invoke(ctx, f, fn, functions.NewArgs(args...), c.line)
	}
	return value.Empty, types.Errorf(types.ErrUndefinedFunction, c.line, "function %s not found", name)
}

// callLambda binds the parameters (missing ones to the empty string),
// evaluates the body and restores the previous bindings.
func (e *Evaluator) callLambda(ctx context.Context, l *lambda, args []value.Value) (value.Value, error) {
	f := l.frame
	if f.depth+1 > e.opts.MaxDepth {
		return value.Empty, types.Errorf(types.ErrStackOverflow, l.body.Line, "call depth exceeds %d", e.opts.MaxDepth)
	}
	restore := saveVars(f.env, l.params)
	defer restore()

	for i, p := range l.params {
		v := value.Empty
		if i < len(args) {
			v = args[i]
		}
		f.env.Set(p, v)
	}

	f.depth++
	defer func() { f.depth-- }()
	return e.eval(ctx, f, l.body)
}

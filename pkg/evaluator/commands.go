package evaluator

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sandrolain/gorexx/pkg/address"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

func isDefaultAddress(target string) bool {
	return strings.EqualFold(target, address.Default)
}

// execAddress handles the ADDRESS forms: toggle, switch, send once and
// ADDRESS VALUE.
func (e *Evaluator) execAddress(ctx context.Context, f *frame, n *types.ASTNode) error {
	s := f.sess

	switch {
	case n.Dynamic:
		v, err := e.eval(ctx, f, n.RHS)
		if err != nil {
			return err
		}
		target := strings.ToUpper(strings.TrimSpace(v.String()))
		if target == "" {
			return types.NewError(types.ErrArgument, "ADDRESS VALUE needs a target name", n.Line)
		}
		s.prevAddress, s.address = s.address, target

	case n.Label == "":
		s.address, s.prevAddress = s.prevAddress, s.address

	case n.RHS == nil:
		s.prevAddress, s.address = s.address, strings.ToUpper(n.Label)

	default:
		target := strings.ToUpper(n.Label)
		if n.RHS.Type == types.NodeCommand {
			return e.execCommand(ctx, f, n.RHS, target)
		}
		v, err := e.eval(ctx, f, n.RHS.RHS)
		if err != nil {
			return err
		}
		if isDefaultAddress(target) {
			return nil
		}
		return e.sendText(ctx, f, target, v.String(), n.Line)
	}

	if e.opts.Debug {
		e.logger.Debug("address switched", "target", s.address, "previous", s.prevAddress)
	}
	return nil
}

// execCommand runs an imperative command against target: the builtin
// registry for the default address, the target's handler otherwise.
func (e *Evaluator) execCommand(ctx context.Context, f *frame, n *types.ASTNode, target string) error {
	params := make([]address.Param, 0, len(n.Arguments))
	for _, arg := range n.Arguments {
		p := address.Param{}
		expr := arg
		if arg.Type == types.NodeNamedArg {
			p.Key = strings.ToUpper(arg.Value)
			expr = arg.LHS
		}
		v, err := e.eval(ctx, f, expr)
		if err != nil {
			return err
		}
		p.Value = v
		params = append(params, p)
	}

	if isDefaultAddress(target) {
		return e.runOperation(ctx, f, n, params)
	}

	return e.send(ctx, f, address.Command{
		Target: target,
		Name:   strings.ToUpper(n.Value),
		Text:   commandText(n.Value, params),
		Params: params,
		Line:   n.Line,
	})
}

// runOperation invokes a builtin flagged as an operation as a command: RC
// is 0 on success and RESULT holds the returned value. Plain builtins are
// only reachable through call syntax.
func (e *Evaluator) runOperation(ctx context.Context, f *frame, n *types.ASTNode, params []address.Param) error {
	name := strings.ToUpper(n.Value)
	fn, ok := e.functions.Lookup(name)
	if !ok {
		return types.Errorf(types.ErrUndefinedFunction, n.Line, "command %s not found", name)
	}
	if !fn.Operation {
		return types.Errorf(types.ErrUndefinedFunction, n.Line, "%s is a function, not a command; call it as %s(...)", name, name)
	}

	var args functions.Args
	for _, p := range params {
		if p.Key == "" {
			args.Positional = append(args.Positional, p.Value)
			continue
		}
		if args.Named == nil {
			args.Named = make(map[string]value.Value)
		}
		args.Named[p.Key] = p.Value
	}

	v, err := e.invoke(ctx, f, fn, args, n.Line)
	if err != nil {
		return err
	}
	f.env.Set(varRC, value.Int(0))
	f.env.Set(varResult, v)
	return nil
}

// sendText sends a command given as a string (an expression statement
// under a non-default address).
func (e *Evaluator) sendText(ctx context.Context, f *frame, target, text string, line int) error {
	name := text
	if fields := strings.Fields(text); len(fields) > 0 {
		name = fields[0]
	}
	return e.send(ctx, f, address.Command{
		Target: target,
		Name:   strings.ToUpper(name),
		Text:   text,
		Line:   line,
	})
}

// send delivers cmd and binds RC and RESULT. An unknown target fails the
// command with RC -3. A failed command raises a CommandError only while an
// error handler is armed; an error from the handler is always a fault.
func (e *Evaluator) send(ctx context.Context, f *frame, cmd address.Command) error {
	var res address.Result
	h, ok := e.addresses.Lookup(cmd.Target)
	if !ok {
		res = address.Fail(-3, "address target %s not found", cmd.Target)
	} else {
		var err error
		res, err = h.Send(ctx, cmd)
		if err != nil {
			return sendError(cmd, err)
		}
	}

	if e.opts.Debug {
		e.logger.Debug("address send", "target", cmd.Target, "command", cmd.Name, "success", res.Success, "rc", res.RC())
	}

	rc := res.RC()
	f.env.Set(varRC, value.Int(rc))
	if res.Success {
		f.env.Set(varResult, res.Value)
		return nil
	}
	if f.handler == nil {
		return nil
	}
	msg := res.Error
	if msg == "" {
		msg = "failed"
	}
	te := types.Errorf(types.ErrCommand, cmd.Line, "%s %s: %s (rc %d)", cmd.Target, cmd.Name, msg, rc)
	return &commandError{err: te, rc: rc}
}

func sendError(cmd address.Command, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *types.Error
	if errors.As(err, &te) {
		return te
	}
	return types.Errorf(types.ErrExternal, cmd.Line, "%s %s: %v", cmd.Target, cmd.Name, err).WithCause(err)
}

// commandText renders a command back to source form.
func commandText(name string, params []address.Param) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(name))
	for _, p := range params {
		b.WriteByte(' ')
		if p.Key != "" {
			b.WriteString(p.Key)
			b.WriteByte('=')
		}
		b.WriteString(quoteParam(p.Value.String()))
	}
	return b.String()
}

func quoteParam(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"=,;") {
		return s
	}
	return strconv.Quote(s)
}

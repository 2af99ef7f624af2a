package evaluator

import (
	"context"

	"github.com/sandrolain/gorexx/pkg/types"
)

// execInterpret compiles a string and runs it as a unit of its own.
//
// Classic mode shares the caller's variables and arguments. The isolated
// modes run against a fresh pool with no arguments: IMPORT names are copied
// in by value before the run, EXPORT names are copied back after it, and
// the address and NUMERIC settings are restored. Labels and frames of the unit never leak; a
// RETURN or EXIT inside it acts on the caller.
func (e *Evaluator) execInterpret(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	if e.InterpretDisabled() {
		return next, types.NewError(types.ErrSecurity, "INTERPRET is disabled", n.Line)
	}
	if !f.sess.interpretAllowed(n.Mode) {
		return next, types.Errorf(types.ErrSecurity, n.Line, "INTERPRET mode %s is not allowed", n.Mode)
	}
	if f.depth+1 > e.opts.MaxDepth {
		return next, types.Errorf(types.ErrStackOverflow, n.Line, "call depth exceeds %d", e.opts.MaxDepth)
	}

	code, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return next, err
	}
	prog, cached, err := e.Compile(code.String())
	if err != nil {
		return next, err
	}
	if e.opts.Debug {
		e.logger.Debug("interpret", "mode", n.Mode, "cached", cached, "line", n.Line)
	}

	child := &frame{
		routine: types.MainRoutine,
		unit:    &unit{prog: prog, parent: f.unit},
		env:     f.env,
		args:    f.args,
		parent:  f,
		root:    true,
		depth:   f.depth + 1,
		sess:    f.sess,
	}
	if f.handler != nil {
		h := *f.handler
		child.handler = &h
	}

	restoreLoops := f.saveLoopVars()
	defer restoreLoops()

	isolated := n.Mode != types.InterpretClassic
	if isolated {
		child.env = NewEnvironment()
		child.args = nil
		for _, name := range n.Names {
			f.env.copyTo(child.env, e.symbolName(f, name))
		}
		s := f.sess
		address, prev, numeric := s.address, s.prevAddress, s.numeric
		defer func() {
			s.address, s.prevAddress, s.numeric = address, prev, numeric
		}()
	}

	fl, err := e.runUnit(ctx, child, 0)
	if err != nil {
		return next, err
	}

	if isolated {
		for _, name := range n.Exports {
			child.env.copyTo(f.env, e.symbolName(child, name))
		}
	}

	switch fl.kind {
	case flowReturn, flowExit:
		return fl, nil
	default:
		return next, nil
	}
}

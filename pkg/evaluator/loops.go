package evaluator

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// execLoopControl handles LEAVE and ITERATE. The target loop must be active
// in the current frame.
func (e *Evaluator) execLoopControl(f *frame, n *types.ASTNode) (flow, error) {
	kind, word := flowLeave, "LEAVE"
	if n.Type == types.NodeIterate {
		kind, word = flowIterate, "ITERATE"
	}
	if !f.hasLoop(n.Label) {
		if n.Label == "" {
			return next, types.Errorf(types.ErrSyntax, n.Line, "%s outside a repetitive DO", word)
		}
		return next, types.Errorf(types.ErrSyntax, n.Line, "%s %s: no active loop with that control variable", word, n.Label)
	}
	return flow{kind: kind, label: n.Label, line: n.Line}, nil
}

// loopBody reports how a loop continues after one pass of its body.
type loopBody uint8

const (
	bodyContinue loopBody = iota
	bodyLeave
	bodyPropagate
)

// execDo runs every DO form. A plain DO ... END block is not a loop and is
// transparent to LEAVE and ITERATE.
func (e *Evaluator) execDo(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	spec := n.Loop
	if spec.Kind == types.LoopBlock {
		return e.execBlock(ctx, f, n.Body)
	}

	switch spec.Kind {
	case types.LoopCounted:
		return e.execCounted(ctx, f, n)
	case types.LoopOver:
		return e.execOver(ctx, f, n)
	}

	count := -1
	if spec.Kind == types.LoopRepeat {
		v, err := e.eval(ctx, f, spec.Start)
		if err != nil {
			return next, err
		}
		c, ok := v.Int()
		if !ok || c < 0 {
			return next, types.Errorf(types.ErrArgument, n.Line, "DO count must be a non-negative whole number, got %q", v.String())
		}
		count = c
	}

	pop := f.pushLoop("")
	defer pop()

	for i := 0; count < 0 || i < count; i++ {
		fl, done, err := e.iteration(ctx, f, n, "")
		if err != nil || done {
			return fl, err
		}
	}
	return next, nil
}

// iteration runs one pass: the WHILE test, the body and the UNTIL test.
// done reports that the loop ends, with fl to hand to the enclosing
// statement.
func (e *Evaluator) iteration(ctx context.Context, f *frame, n *types.ASTNode, name string) (fl flow, done bool, err error) {
	if err := ctx.Err(); err != nil {
		return next, true, err
	}
	spec := n.Loop

	if spec.While != nil {
		ok, err := e.condition(ctx, f, spec.While)
		if err != nil {
			return next, true, err
		}
		if !ok {
			return next, true, nil
		}
	}

	fl, err = e.execBlock(ctx, f, n.Body)
	if err != nil {
		return next, true, err
	}
	switch classify(fl, name) {
	case bodyLeave:
		return next, true, nil
	case bodyPropagate:
		return fl, true, nil
	}

	if spec.Until != nil {
		ok, err := e.condition(ctx, f, spec.Until)
		if err != nil {
			return next, true, err
		}
		if ok {
			return next, true, nil
		}
	}
	return next, false, nil
}

// classify decides what a loop named name does with the flow its body
// ended with. An unnamed LEAVE or ITERATE targets the innermost loop.
func classify(fl flow, name string) loopBody {
	switch fl.kind {
	case flowNext:
		return bodyContinue
	case flowLeave:
		if fl.label == "" || fl.label == name {
			return bodyLeave
		}
	case flowIterate:
		if fl.label == "" || fl.label == name {
			return bodyContinue
		}
	}
	return bodyPropagate
}

// execCounted runs DO var = start [TO limit] [BY step] [FOR count]. The
// loop keeps its own counter; the variable is assigned before each limit
// test, so it ends one step past the limit.
func (e *Evaluator) execCounted(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	spec := n.Loop

	start, err := e.loopNumber(ctx, f, spec.Start, "start")
	if err != nil {
		return next, err
	}
	step := 1.0
	var limit float64
	if spec.To != nil {
		if limit, err = e.loopNumber(ctx, f, spec.To, "TO"); err != nil {
			return next, err
		}
	}
	if spec.By != nil {
		if step, err = e.loopNumber(ctx, f, spec.By, "BY"); err != nil {
			return next, err
		}
	}
	maxIter := -1
	if spec.For != nil {
		v, err := e.eval(ctx, f, spec.For)
		if err != nil {
			return next, err
		}
		c, ok := v.Int()
		if !ok || c < 0 {
			return next, types.Errorf(types.ErrArgument, n.Line, "DO FOR count must be a non-negative whole number, got %q", v.String())
		}
		maxIter = c
	}

	pop := f.pushLoop(spec.Var)
	defer pop()

	num := f.sess.numeric
	cur := start
	for i := 0; ; i++ {
		f.env.Set(e.varName(f, spec.VarNode), num.FromNumber(cur))
		if spec.To != nil {
			c := num.Compare(cur, limit)
			if (step >= 0 && c > 0) || (step < 0 && c < 0) {
				break
			}
		}
		if maxIter >= 0 && i >= maxIter {
			break
		}
		fl, done, err := e.iteration(ctx, f, n, spec.Var)
		if err != nil || done {
			return fl, err
		}
		cur += step
	}
	return next, nil
}

func (e *Evaluator) loopNumber(ctx context.Context, f *frame, n *types.ASTNode, what string) (float64, error) {
	v, err := e.eval(ctx, f, n)
	if err != nil {
		return 0, err
	}
	x, ok := v.Number()
	if !ok {
		return 0, types.Errorf(types.ErrArithmeticType, n.Line, "DO %s must be a number, got %q", what, v.String())
	}
	return x, nil
}

// execOver runs DO var OVER collection.
func (e *Evaluator) execOver(ctx context.Context, f *frame, n *types.ASTNode) (flow, error) {
	spec := n.Loop
	items, err := e.overItems(ctx, f, spec.Start)
	if err != nil {
		return next, err
	}

	pop := f.pushLoop(spec.Var)
	defer pop()

	for _, item := range items {
		f.env.Set(e.varName(f, spec.VarNode), item)
		fl, done, err := e.iteration(ctx, f, n, spec.Var)
		if err != nil || done {
			return fl, err
		}
	}
	return next, nil
}

// overItems lists what DO OVER iterates:
//   - a stem "arr.": arr.1 .. arr.n when arr.0 is a whole number, otherwise
//     the consecutive integer tails from 1;
//   - an array: its elements;
//   - a map keyed 0..n-1 or 1..n: its values in index order;
//   - any other map: its keys;
//   - a scalar: its blank-delimited words.
func (e *Evaluator) overItems(ctx context.Context, f *frame, n *types.ASTNode) ([]value.Value, error) {
	if n.Type == types.NodeCompound && n.Stem {
		return stemItems(f.env, e.varName(f, n)), nil
	}

	v, err := e.eval(ctx, f, n)
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case value.KindArray:
		return v.Elements(), nil
	case value.KindMap:
		if vals, ok := indexedValues(v.Map()); ok {
			return vals, nil
		}
		keys := v.Map().Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return out, nil
	default:
		words := strings.Fields(v.String())
		out := make([]value.Value, len(words))
		for i, w := range words {
			out[i] = value.String(w)
		}
		return out, nil
	}
}

func stemItems(env *Environment, stem string) []value.Value {
	var out []value.Value
	if c, ok := env.entry(stem + "0"); ok {
		if count, ok := c.Int(); ok && count >= 0 {
			for i := 1; i <= count; i++ {
				v, _ := env.Get(stem + strconv.Itoa(i))
				out = append(out, v)
			}
			return out
		}
	}
	for i := 1; ; i++ {
		v, ok := env.entry(stem + strconv.Itoa(i))
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// indexedValues returns the values of a map whose keys are exactly the
// integers 0..n-1 or 1..n, in index order.
func indexedValues(m *value.Map) ([]value.Value, bool) {
	keys := m.Keys()
	if len(keys) == 0 {
		return nil, false
	}
	idx := make([]int, len(keys))
	byIndex := make(map[int]value.Value, len(keys))
	for i, k := range keys {
		x, err := strconv.Atoi(k)
		if err != nil {
			return nil, false
		}
		idx[i] = x
		byIndex[x], _ = m.Get(k)
	}
	sort.Ints(idx)
	base := idx[0]
	if base != 0 && base != 1 {
		return nil, false
	}
	out := make([]value.Value, len(idx))
	for i, x := range idx {
		if x != base+i {
			return nil, false
		}
		out[i] = byIndex[x]
	}
	return out, true
}

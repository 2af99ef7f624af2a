package evaluator

import (
	"context"
	"strings"
	"unicode"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// eval evaluates an expression node in frame f.
func (e *Evaluator) eval(ctx context.Context, f *frame, n *types.ASTNode) (value.Value, error) {
	if n == nil {
		return value.Empty, nil
	}

	switch n.Type {
	case types.NodeString:
		if n.Interp {
			return value.String(e.interpolate(f, n.Value)), nil
		}
		return value.String(n.Value), nil

	case types.NodeNumber:
		return value.String(n.Value), nil

	case types.NodeVariable, types.NodeCompound:
		return e.lookup(f, n)

	case types.NodeBinary:
		return e.evalBinary(ctx, f, n)

	case types.NodeUnary:
		return e.evalUnary(ctx, f, n)

	case types.NodeFunction:
		return e.callFunction(ctx, f, n)

	case types.NodePipe:
		lhs, err := e.eval(ctx, f, n.LHS)
		if err != nil {
			return value.Empty, err
		}
		f.pipe = append(f.pipe, lhs)
		defer func() { f.pipe = f.pipe[:len(f.pipe)-1] }()
		return e.eval(ctx, f, n.RHS)

	case types.NodePipeSlot:
		if len(f.pipe) == 0 {
			return value.Empty, types.NewError(types.ErrSyntax, "placeholder ? used outside a pipe", n.Line)
		}
		return f.pipe[len(f.pipe)-1], nil

	case types.NodeArray:
		elems := make([]value.Value, len(n.Arguments))
		for i, arg := range n.Arguments {
			v, err := e.eval(ctx, f, arg)
			if err != nil {
				return value.Empty, err
			}
			elems[i] = v
		}
		return value.Array(elems...), nil

	case types.NodeObject:
		m := value.NewMap()
		for _, entry := range n.Arguments {
			v, err := e.eval(ctx, f, entry.LHS)
			if err != nil {
				return value.Empty, err
			}
			m.Set(entry.Value, v)
		}
		return value.FromMap(m), nil

	case types.NodeLambda:
		return value.Func(&lambda{params: n.Names, body: n.RHS, frame: f}), nil

	case types.NodeNamedArg:
		return value.Empty, types.Errorf(types.ErrSyntax, n.Line, "named argument %s outside a call", strings.ToUpper(n.Value))

	default:
		return value.Empty, types.Errorf(types.ErrSyntax, n.Line, "unsupported expression %s", n.Type)
	}
}

// lookup reads a variable. An unset variable yields its own (derived,
// upper-cased) name unless the evaluator is strict.
func (e *Evaluator) lookup(f *frame, n *types.ASTNode) (value.Value, error) {
	name := e.varName(f, n)
	if v, ok := f.env.Get(name); ok {
		return v, nil
	}
	if e.opts.Strict {
		return value.Empty, types.Errorf(types.ErrUndefinedVariable, n.Line, "variable %s is not defined", name)
	}
	return value.String(name), nil
}

// varName returns the derived name of a variable node.
func (e *Evaluator) varName(f *frame, n *types.ASTNode) string {
	return e.symbolName(f, n.Value)
}

// symbolName upper-cases a symbol and substitutes the tail of a compound
// name: each non-constant tail part is replaced by the value of the variable
// of that name when it is set.
func (e *Evaluator) symbolName(f *frame, name string) string {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return strings.ToUpper(name)
	}
	stem := strings.ToUpper(name[:i+1])
	tail := name[i+1:]
	if tail == "" {
		return stem
	}

	parts := strings.Split(tail, ".")
	for j, p := range parts {
		if p == "" || isConstantSymbol(p) {
			parts[j] = strings.ToUpper(p)
			continue
		}
		key := strings.ToUpper(p)
		if v, ok := f.env.Get(key); ok {
			parts[j] = v.String()
		} else {
			parts[j] = key
		}
	}
	return stem + strings.Join(parts, ".")
}

func isConstantSymbol(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// interpolate replaces {name} with the value of name when it is set. Other
// braces are left alone.
func (e *Evaluator) interpolate(f *frame, s string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open+1:], '}')
		if end < 0 {
			break
		}
		end += open + 1

		b.WriteString(s[:open])
		ref := s[open+1 : end]
		if v, ok := e.interpolated(f, ref); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[open : end+1])
		}
		s = s[end+1:]
	}
	b.WriteString(s)
	return b.String()
}

func (e *Evaluator) interpolated(f *frame, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if symbolKind(ref) != symVar {
		return "", false
	}
	v, ok := f.env.Get(e.symbolName(f, ref))
	if !ok {
		return "", false
	}
	return v.String(), true
}

type symbolClass uint8

const (
	symBad symbolClass = iota
	symVar
	symConst
)

// symbolKind classifies s as a variable symbol, a constant symbol (starting
// with a digit or a dot) or not a symbol.
func symbolKind(s string) symbolClass {
	if s == "" {
		return symBad
	}
	for _, r := range s {
		if !isSymbolRune(r) {
			return symBad
		}
	}
	if s[0] == '.' || (s[0] >= '0' && s[0] <= '9') {
		return symConst
	}
	return symVar
}

func isSymbolRune(r rune) bool {
	switch r {
	case '_', '.', '@', '#', '$':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

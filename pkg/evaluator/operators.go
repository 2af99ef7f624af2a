package evaluator

import (
	"context"
	"math"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

func (e *Evaluator) evalBinary(ctx context.Context, f *frame, n *types.ASTNode) (value.Value, error) {
	switch n.Value {
	case "&", "|":
		return e.evalLogical(ctx, f, n)
	}

	lhs, err := e.eval(ctx, f, n.LHS)
	if err != nil {
		return value.Empty, err
	}
	rhs, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return value.Empty, err
	}

	switch n.Value {
	case "||":
		return value.String(lhs.String() + rhs.String()), nil
	case "+", "-", "*", "/", "%", "**":
		return e.arithmetic(f, n, lhs, rhs)
	case "==":
		return value.Bool(lhs.StrictEqual(rhs)), nil
	case "\\==":
		return value.Bool(!lhs.StrictEqual(rhs)), nil
	case "=", "\\=", "<", "<=", ">", ">=":
		c := compareValues(f.sess.numeric, lhs, rhs)
		return value.Bool(comparison(n.Value, c)), nil
	case "&&":
		a, err := logical(n, n.LHS, lhs)
		if err != nil {
			return value.Empty, err
		}
		b, err := logical(n, n.RHS, rhs)
		if err != nil {
			return value.Empty, err
		}
		return value.Bool(a != b), nil
	default:
		return value.Empty, types.Errorf(types.ErrSyntax, n.Line, "unknown operator %s", n.Value)
	}
}

// evalLogical evaluates & and | with short-circuit.
func (e *Evaluator) evalLogical(ctx context.Context, f *frame, n *types.ASTNode) (value.Value, error) {
	lhs, err := e.eval(ctx, f, n.LHS)
	if err != nil {
		return value.Empty, err
	}
	a, err := logical(n, n.LHS, lhs)
	if err != nil {
		return value.Empty, err
	}
	if (n.Value == "&" && !a) || (n.Value == "|" && a) {
		return value.Bool(a), nil
	}
	rhs, err := e.eval(ctx, f, n.RHS)
	if err != nil {
		return value.Empty, err
	}
	b, err := logical(n, n.RHS, rhs)
	if err != nil {
		return value.Empty, err
	}
	return value.Bool(b), nil
}

func logical(op, operand *types.ASTNode, v value.Value) (bool, error) {
	b, ok := v.Bool()
	if !ok {
		return false, types.Errorf(types.ErrArithmeticType, operand.Line, "logical value expected for %s, got %q", op.Value, v.String())
	}
	return b, nil
}

func (e *Evaluator) arithmetic(f *frame, n *types.ASTNode, lhs, rhs value.Value) (value.Value, error) {
	a, err := operand(n, lhs)
	if err != nil {
		return value.Empty, err
	}
	b, err := operand(n, rhs)
	if err != nil {
		return value.Empty, err
	}

	var r float64
	switch n.Value {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return value.Empty, types.NewError(types.ErrDivisionByZero, "division by zero", n.Line)
		}
		r = a / b
	case "%":
		if b == 0 {
			return value.Empty, types.NewError(types.ErrDivisionByZero, "division by zero", n.Line)
		}
		r = math.Mod(a, b)
	case "**":
		r = math.Pow(a, b)
	}
	return f.sess.numeric.FromNumber(r), nil
}

func operand(n *types.ASTNode, v value.Value) (float64, error) {
	x, ok := v.Number()
	if !ok {
		return 0, types.Errorf(types.ErrArithmeticType, n.Line, "non-numeric operand %q for %s", v.String(), n.Value)
	}
	return x, nil
}

func (e *Evaluator) evalUnary(ctx context.Context, f *frame, n *types.ASTNode) (value.Value, error) {
	v, err := e.eval(ctx, f, n.LHS)
	if err != nil {
		return value.Empty, err
	}
	switch n.Value {
	case "\\":
		b, err := logical(n, n.LHS, v)
		if err != nil {
			return value.Empty, err
		}
		return value.Bool(!b), nil
	case "-", "+":
		x, err := operand(n, v)
		if err != nil {
			return value.Empty, err
		}
		if n.Value == "-" {
			x = -x
		}
		return f.sess.numeric.FromNumber(x), nil
	default:
		return value.Empty, types.Errorf(types.ErrSyntax, n.Line, "unknown operator %s", n.Value)
	}
}

// compareValues compares two values: numerically under the NUMERIC settings
// when both are numbers, otherwise as strings with leading and trailing
// blanks ignored and the shorter padded with blanks.
func compareValues(num value.Numeric, a, b value.Value) int {
	if x, ok := a.Number(); ok {
		if y, ok := b.Number(); ok {
			return num.Compare(x, y)
		}
	}
	s := strings.Trim(a.String(), " ")
	t := strings.Trim(b.String(), " ")
	if d := len(s) - len(t); d < 0 {
		s += strings.Repeat(" ", -d)
	} else if d > 0 {
		t += strings.Repeat(" ", d)
	}
	return strings.Compare(s, t)
}

func comparison(op string, c int) bool {
	switch op {
	case "=":
		return c == 0
	case "\\=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

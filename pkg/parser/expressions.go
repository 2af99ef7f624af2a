package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
)

// Operator precedence table (binding power).
// Higher values bind more tightly.
const (
	precPipe           = 10 // |>
	precOr             = 20 // | &&
	precAnd            = 30 // &
	precComparison     = 40 // = == \= < > ...
	precConcat         = 50 // ||
	precAdditive       = 60 // + -
	precMultiplicative = 70 // * / %
	precPower          = 80 // **
	precUnary          = 90 // - + \
)

var precedence = map[TokenType]int{
	TokenPipe:           precPipe,
	TokenOr:             precOr,
	TokenXor:            precOr,
	TokenAnd:            precAnd,
	TokenEqual:          precComparison,
	TokenStrictEqual:    precComparison,
	TokenNotEqual:       precComparison,
	TokenStrictNotEqual: precComparison,
	TokenLess:           precComparison,
	TokenLessEqual:      precComparison,
	TokenGreater:        precComparison,
	TokenGreaterEqual:   precComparison,
	TokenConcat:         precConcat,
	TokenPlus:           precAdditive,
	TokenMinus:          precAdditive,
	TokenMult:           precMultiplicative,
	TokenDiv:            precMultiplicative,
	TokenMod:            precMultiplicative,
	TokenPower:          precPower,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString, TokenDString:
		return p.parseString()
	case TokenNumber:
		return p.parseNumber()
	case TokenSymbol:
		if p.isCallStart(0) {
			return p.parseFunctionCall()
		}
		n := p.symbolNode(token)
		p.advance()
		return n, nil
	case TokenPlaceholder:
		if p.pipeDepth == 0 {
			return nil, p.error("placeholder ? used outside a pipe")
		}
		p.advance()
		return p.node(types.NodePipeSlot, token), nil
	case TokenMinus, TokenPlus, TokenNot:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		return p.parseArrayConstructor()
	case TokenBraceOpen:
		return p.parseObjectConstructor()
	case TokenArrow:
		return nil, p.error("arrow functions are only allowed as arguments of higher-order functions")
	default:
		return nil, p.unexpected("expression")
	}
}

// parseInfix parses an infix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenPipe:
		return p.parsePipe(left)
	case TokenPower:
		// Right associative
		return p.parseBinaryOp(left, precPower-1)
	default:
		return p.parseBinaryOp(left, p.getPrecedence(token.Type))
	}
}

// parseBinaryOp parses a binary operator with the given right binding power.
func (p *Parser) parseBinaryOp(left *types.ASTNode, rbp int) (*types.ASTNode, error) {
	token := p.current
	p.advance()

	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	n := p.node(types.NodeBinary, token)
	n.Value = token.Type.String()
	n.LHS = left
	n.RHS = right
	return n, nil
}

// parseUnary parses prefix -, + and \ (or !).
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	token := p.current
	p.advance()

	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}

	n := p.node(types.NodeUnary, token)
	n.Value = token.Type.String()
	n.LHS = operand
	return n, nil
}

// parseString parses a string literal. Double-quoted strings containing a
// brace are marked for {name} interpolation.
func (p *Parser) parseString() (*types.ASTNode, error) {
	n := p.node(types.NodeString, p.current)
	n.Value = p.current.Value
	n.Interp = p.current.Type == TokenDString && strings.Contains(n.Value, "{")
	p.advance()
	return n, nil
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	n := p.node(types.NodeNumber, p.current)

	val, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.error(fmt.Sprintf("invalid number %s", p.current.Value))
	}

	n.Value = p.current.Value
	n.NumValue = val
	p.advance()
	return n, nil
}

// symbolNode builds a variable or compound-variable node from a symbol token.
// "stem." names the whole stem; "stem.tail" is a compound variable whose
// tail is substituted at run time.
func (p *Parser) symbolNode(t Token) *types.ASTNode {
	if i := strings.IndexByte(t.Value, '.'); i >= 0 {
		n := p.node(types.NodeCompound, t)
		n.Value = t.Value
		n.Stem = i == len(t.Value)-1
		return n
	}
	n := p.node(types.NodeVariable, t)
	n.Value = t.Value
	return n
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseArrayConstructor parses an array constructor [...].
func (p *Parser) parseArrayConstructor() (*types.ASTNode, error) {
	n := p.node(types.NodeArray, p.current)
	p.advance() // Skip '['

	if p.current.Type == TokenBracketClose {
		p.advance()
		return n, nil
	}

	for {
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n.Arguments = append(n.Arguments, expr)

		if p.current.Type == TokenBracketClose {
			p.advance()
			return n, nil
		}

		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
}

// parseObjectConstructor parses an object constructor {key: value, ...}.
// Keys are strings, numbers or bare symbols taken literally.
func (p *Parser) parseObjectConstructor() (*types.ASTNode, error) {
	n := p.node(types.NodeObject, p.current)
	p.advance() // Skip '{'

	if p.current.Type == TokenBraceClose {
		p.advance()
		return n, nil
	}

	for {
		switch p.current.Type {
		case TokenString, TokenDString, TokenSymbol, TokenNumber:
		default:
			return nil, p.unexpected("object key")
		}
		entry := p.node(types.NodeNamedArg, p.current)
		entry.Value = p.current.Value
		p.advance()

		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		entry.LHS = val
		n.Arguments = append(n.Arguments, entry)

		if p.current.Type == TokenBraceClose {
			p.advance()
			return n, nil
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
}

// parseFunctionCall parses NAME(args). The current token is the name.
func (p *Parser) parseFunctionCall() (*types.ASTNode, error) {
	n := p.node(types.NodeFunction, p.current)
	n.Value = p.current.Value
	site := p.opts.LambdaSites[strings.ToUpper(n.Value)]
	p.advance() // name
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		p.advance()
		return n, nil
	}

	for {
		arg, err := p.parseArgument(site)
		if err != nil {
			return nil, err
		}
		n.Arguments = append(n.Arguments, arg)

		switch p.current.Type {
		case TokenParenClose:
			p.advance()
			return n, nil
		case TokenComma:
			p.advance()
		case TokenArrow:
			return nil, p.error(fmt.Sprintf("%s does not accept arrow functions", strings.ToUpper(n.Value)))
		default:
			return nil, p.unexpected(", or )")
		}
	}
}

// parseArgument parses one call argument: a named argument "name=value", an
// arrow lambda (only when the callee is a lambda site) or an expression.
//
// "name=" followed by ">" is an arrow, which the lexer already tokenizes as
// TokenArrow, so named arguments are never read as lambdas.
func (p *Parser) parseArgument(lambdaSite bool) (*types.ASTNode, error) {
	if p.current.Type == TokenSymbol && p.peek(1).Type == TokenEqual {
		n := p.node(types.NodeNamedArg, p.current)
		n.Value = p.current.Value
		p.advance()
		p.advance()
		val, err := p.parseArgument(lambdaSite)
		if err != nil {
			return nil, err
		}
		if val.Type == types.NodeNamedArg {
			return nil, p.error("nested named argument")
		}
		n.LHS = val
		return n, nil
	}

	if lambdaSite {
		if params, width, ok := p.lambdaAhead(); ok {
			return p.parseLambda(params, width)
		}
	}
	return p.parseExpression(0)
}

// lambdaAhead looks for "x =>", "(x) =>", "(a, b) =>" or "() =>" at the
// current position. It returns the parameters and the number of tokens before
// the arrow.
func (p *Parser) lambdaAhead() ([]string, int, bool) {
	if p.current.Type == TokenSymbol && p.peek(1).Type == TokenArrow {
		return []string{strings.ToUpper(p.current.Value)}, 1, true
	}
	if p.current.Type != TokenParenOpen {
		return nil, 0, false
	}

	var params []string
	i := 1
	for {
		t := p.peek(i)
		if t.Type == TokenParenClose {
			break
		}
		if t.Type != TokenSymbol || strings.Contains(t.Value, ".") {
			return nil, 0, false
		}
		params = append(params, strings.ToUpper(t.Value))
		i++
		switch p.peek(i).Type {
		case TokenComma:
			i++
		case TokenParenClose:
		default:
			return nil, 0, false
		}
	}
	if p.peek(i+1).Type != TokenArrow {
		return nil, 0, false
	}
	return params, i + 1, true
}

// parseLambda parses a lambda whose parameter list spans width tokens.
func (p *Parser) parseLambda(params []string, width int) (*types.ASTNode, error) {
	n := p.node(types.NodeLambda, p.current)
	n.Names = params
	for i := 0; i < width; i++ {
		p.advance()
	}
	if err := p.expect(TokenArrow); err != nil {
		return nil, err
	}

	// The body has its own placeholder scope.
	saved := p.pipeDepth
	p.pipeDepth = 0
	body, err := p.parseExpression(0)
	p.pipeDepth = saved
	if err != nil {
		return nil, err
	}
	n.RHS = body
	return n, nil
}

// parsePipe parses "left |> F", "left |> F(args)" and "left |> F(a, ?, b)".
// The right side becomes a call whose pipe slot receives the left value: at
// the "?" placeholder when present, otherwise as the first argument.
func (p *Parser) parsePipe(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	p.advance()

	p.pipeDepth++
	right, err := p.parseExpression(precPipe)
	p.pipeDepth--
	if err != nil {
		return nil, err
	}

	switch right.Type {
	case types.NodeVariable:
		call := p.arena.Alloc(types.NodeFunction, right.Line, right.Column)
		call.Value = right.Value
		right = call
	case types.NodeFunction:
	default:
		err := types.NewError(types.ErrSyntax, "pipe target must be a function", right.Line)
		err.Column = right.Column
		err.Expected = "function"
		err.Found = string(right.Type)
		return nil, err
	}

	if !containsSlot(right.Arguments) {
		slot := p.arena.Alloc(types.NodePipeSlot, right.Line, right.Column)
		right.Arguments = append([]*types.ASTNode{slot}, right.Arguments...)
	}

	n := p.node(types.NodePipe, token)
	n.LHS = left
	n.RHS = right
	return n, nil
}

// containsSlot reports whether a placeholder occurs in the arguments, not
// counting nested pipes and lambdas, which own their placeholders.
func containsSlot(nodes []*types.ASTNode) bool {
	for _, n := range nodes {
		if hasSlot(n) {
			return true
		}
	}
	return false
}

func hasSlot(n *types.ASTNode) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case types.NodePipeSlot:
		return true
	case types.NodePipe:
		return hasSlot(n.LHS)
	case types.NodeLambda:
		return false
	}
	return hasSlot(n.LHS) || hasSlot(n.RHS) || containsSlot(n.Arguments)
}

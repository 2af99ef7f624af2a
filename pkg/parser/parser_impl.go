package parser

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
)

// Parser implements a recursive descent parser for REXX programs.
// Statements are parsed top-down; expressions use Pratt's "Top Down Operator
// Precedence" algorithm to handle operator precedence correctly.
type Parser struct {
	tokens     []Token
	pos        int
	current    Token
	prev       Token
	errors     []error
	opts       CompileOptions
	arena      *types.NodeArena
	source     string
	depth      int // expression and block nesting
	blockDepth int // statement blocks (labels are only legal at 0)
	pipeDepth  int // open pipe right-hand sides ("?" is legal when > 0)
}

// blockEnders are keywords that close a clause and never start an expression.
var blockEnders = []string{"THEN", "ELSE", "END", "ENDIF", "WHEN", "OTHERWISE"}

// NewParser creates a new parser for the given source.
func NewParser(source string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		EnableRecovery: false,
		MaxDepth:       200,
	}
	WithLambdaSites(DefaultLambdaSites...)(&options)
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		tokens: Tokenize(source),
		opts:   options,
		arena:  types.NewNodeArena(),
		source: source,
	}
	p.current = p.tokens[0]

	return p
}

// Parse parses the whole program and builds its label table.
func (p *Parser) Parse() (*types.Program, error) {
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if p.current.Type != TokenEOF {
		return nil, p.unexpected("end of input")
	}
	return types.NewProgram(body, p.source, p.arena)
}

// Errors returns every syntax error collected in recovery mode.
func (p *Parser) Errors() []error {
	return p.errors
}

// Token navigation

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

// peek returns the token n positions ahead of the current one.
func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

// restore rewinds to a saved position, dropping errors collected since.
func (p *Parser) restore(pos, nerrs int) {
	p.pos = pos
	p.current = p.tokens[pos]
	if pos > 0 {
		p.prev = p.tokens[pos-1]
	}
	p.errors = p.errors[:nerrs]
}

func isKeyword(t Token, kw string) bool {
	return t.Type == TokenSymbol && strings.EqualFold(t.Value, kw)
}

func (p *Parser) atKeyword(kws ...string) bool {
	for _, kw := range kws {
		if isKeyword(p.current, kw) {
			return true
		}
	}
	return false
}

func isSeparator(t Token) bool {
	return t.Type == TokenNewline || t.Type == TokenSemicolon || t.Type == TokenEOF
}

// atStatementEnd reports whether the current token ends a statement.
func (p *Parser) atStatementEnd() bool {
	return isSeparator(p.current)
}

// atClauseEnd also treats block keywords as an end, for optional operands
// ("IF x THEN RETURN ELSE ...").
func (p *Parser) atClauseEnd() bool {
	return p.atStatementEnd() || p.atKeyword(blockEnders...)
}

func (p *Parser) skipSeparators() {
	for p.current.Type == TokenNewline || p.current.Type == TokenSemicolon {
		p.advance()
	}
}

// syncStatement skips to the end of the current statement after an error.
func (p *Parser) syncStatement() {
	for !p.atStatementEnd() {
		p.advance()
	}
}

// isCallStart reports whether the token n positions ahead starts a function
// call: a symbol immediately followed by "(" with no blank in between.
func (p *Parser) isCallStart(n int) bool {
	name, open := p.peek(n), p.peek(n+1)
	return name.Type == TokenSymbol && open.Type == TokenParenOpen &&
		open.Line == name.Line && open.Column == name.Column+len(name.Value)
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.unexpected(tt.String())
	}
	p.advance()
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return p.unexpected(kw)
	}
	p.advance()
	return nil
}

// Errors

func describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "end of line"
	case TokenString, TokenDString:
		return fmt.Sprintf("%q", t.Value)
	default:
		return t.Value
	}
}

// error creates a syntax error at the current token.
func (p *Parser) error(message string) *types.Error {
	err := types.NewError(types.ErrSyntax, message, p.current.Line)
	err.Column = p.current.Column
	err.Found = describe(p.current)
	return err
}

// unexpected reports that expected was wanted but something else was found.
func (p *Parser) unexpected(expected string) *types.Error {
	if p.current.Type == TokenError {
		err := p.error(p.current.Value)
		err.Expected = expected
		return err
	}
	err := p.error(fmt.Sprintf("expected %s but found %s", expected, describe(p.current)))
	err.Expected = expected
	return err
}

func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return p.error(fmt.Sprintf("nesting deeper than %d levels", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) node(nodeType types.NodeType, t Token) *types.ASTNode {
	return p.arena.Alloc(nodeType, t.Line, t.Column)
}

// Statements

// parseStatements parses statements until EOF or one of the stop keywords.
// The stop keyword is left as the current token.
func (p *Parser) parseStatements(stops ...string) ([]*types.ASTNode, error) {
	var body []*types.ASTNode
	for {
		p.skipSeparators()
		if p.current.Type == TokenEOF || p.atKeyword(stops...) {
			return body, nil
		}

		stmt, err := p.parseStatement()
		if err == nil && stmt.Type != types.NodeLabel && !p.atStatementEnd() && !p.atKeyword(stops...) {
			err = p.unexpected("end of statement")
		}
		if err != nil {
			if !p.opts.EnableRecovery {
				return nil, err
			}
			p.errors = append(p.errors, err)
			p.syncStatement()
			continue
		}
		body = append(body, stmt)
	}
}

// parseBlock parses a nested statement list.
func (p *Parser) parseBlock(stops ...string) ([]*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.blockDepth++
	defer func() { p.blockDepth-- }()
	return p.parseStatements(stops...)
}

// parseStatement parses one statement.
func (p *Parser) parseStatement() (*types.ASTNode, error) {
	tok := p.current

	switch tok.Type {
	case TokenError:
		return nil, p.unexpected("statement")
	case TokenSymbol:
	default:
		return p.parseExpressionStatement()
	}

	switch next := p.peek(1); next.Type {
	case TokenColon:
		return p.parseLabel()
	case TokenEqual:
		return p.parseAssignment()
	}

	switch strings.ToUpper(tok.Value) {
	case "SAY":
		return p.parseSay()
	case "LET":
		p.advance()
		if p.current.Type != TokenSymbol || p.peek(1).Type != TokenEqual {
			return nil, p.unexpected("assignment")
		}
		return p.parseAssignment()
	case "IF":
		return p.parseIf()
	case "SELECT":
		return p.parseSelect()
	case "DO":
		return p.parseDo()
	case "LEAVE", "ITERATE":
		return p.parseLoopControl()
	case "CALL":
		return p.parseCall()
	case "RETURN", "EXIT":
		return p.parseReturn()
	case "SIGNAL":
		return p.parseSignal()
	case "ADDRESS":
		return p.parseAddress()
	case "INTERPRET":
		return p.parseInterpret()
	case "NO":
		if p.peek(1).Type == TokenMinus && isKeyword(p.peek(2), "INTERPRET") {
			n := p.node(types.NodeNoInterpret, tok)
			p.advance()
			p.advance()
			p.advance()
			return n, nil
		}
	case "PARSE", "ARG", "PULL":
		return p.parseParse()
	case "NUMERIC":
		return p.parseNumeric()
	case "DROP":
		n := p.node(types.NodeDrop, tok)
		p.advance()
		names, err := p.parseNameList("variable name")
		if err != nil {
			return nil, err
		}
		n.Names = names
		return n, nil
	case "NOP":
		p.advance()
		return p.node(types.NodeNop, tok), nil
	case "PROCEDURE":
		return p.parseProcedure()
	case "THEN", "ELSE", "END", "ENDIF", "WHEN", "OTHERWISE":
		return nil, p.error(fmt.Sprintf("unexpected %s", strings.ToUpper(tok.Value)))
	}

	return p.parseCommandOrExpression()
}

// parseLabel parses "name:".
func (p *Parser) parseLabel() (*types.ASTNode, error) {
	if p.blockDepth > 0 {
		return nil, p.error("labels are only allowed outside blocks")
	}
	n := p.node(types.NodeLabel, p.current)
	n.Value = p.current.Value
	p.advance()
	p.advance()
	return n, nil
}

// parseAssignment parses "target = expr"; the current token is the target.
func (p *Parser) parseAssignment() (*types.ASTNode, error) {
	tok := p.current
	n := p.node(types.NodeAssign, tok)
	n.LHS = p.symbolNode(tok)
	p.advance()
	p.advance() // Skip '='

	rhs, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = rhs
	return n, nil
}

// parseSay parses "SAY [expr]".
func (p *Parser) parseSay() (*types.ASTNode, error) {
	n := p.node(types.NodeSay, p.current)
	p.advance()
	if p.atClauseEnd() {
		return n, nil
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = expr
	return n, nil
}

// parseClause parses the single statement after THEN, ELSE or OTHERWISE.
func (p *Parser) parseClause() (*types.ASTNode, error) {
	p.skipSeparators()
	if p.current.Type == TokenEOF {
		return nil, p.unexpected("statement")
	}
	if p.current.Type == TokenSymbol && p.peek(1).Type == TokenColon {
		return nil, p.error("labels are only allowed outside blocks")
	}
	p.blockDepth++
	defer func() { p.blockDepth-- }()
	return p.parseStatement()
}

// parseIf parses the IF statement in its two forms:
//
//	IF cond THEN stmt [ELSE stmt]
//	IF cond THEN <newline> stmts [ELSE stmts] ENDIF
func (p *Parser) parseIf() (*types.ASTNode, error) {
	n := p.node(types.NodeIf, p.current)
	p.advance()

	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.LHS = cond

	for p.current.Type == TokenNewline {
		p.advance()
	}
	if err := p.expectKeyword("THEN"); err != nil {
		return nil, err
	}

	if p.current.Type == TokenNewline {
		if body, els, ok := p.tryIfBlock(); ok {
			n.Body, n.Else = body, els
			return n, nil
		}
	}

	stmt, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	n.Body = []*types.ASTNode{stmt}

	save, nerrs := p.pos, len(p.errors)
	p.skipSeparators()
	if !p.atKeyword("ELSE") {
		p.restore(save, nerrs)
		return n, nil
	}
	p.advance()

	stmt, err = p.parseClause()
	if err != nil {
		return nil, err
	}
	n.Else = []*types.ASTNode{stmt}
	return n, nil
}

// tryIfBlock speculatively parses the ENDIF form. On failure the parser is
// rewound so the single-statement form can be tried.
func (p *Parser) tryIfBlock() ([]*types.ASTNode, []*types.ASTNode, bool) {
	save, nerrs := p.pos, len(p.errors)

	body, err := p.parseBlock(blockEnders...)
	if err == nil && p.atKeyword("ELSE") {
		p.advance()
		var els []*types.ASTNode
		els, err = p.parseBlock(blockEnders...)
		if err == nil && p.atKeyword("ENDIF") {
			p.advance()
			if els == nil {
				els = []*types.ASTNode{}
			}
			return body, els, true
		}
	} else if err == nil && p.atKeyword("ENDIF") {
		p.advance()
		return body, nil, true
	}

	p.restore(save, nerrs)
	return nil, nil, false
}

// parseSelect parses SELECT; WHEN c THEN stmts ...; [OTHERWISE stmts]; END.
// Each WHEN branch runs until the next WHEN, OTHERWISE or END.
func (p *Parser) parseSelect() (*types.ASTNode, error) {
	n := p.node(types.NodeSelect, p.current)
	p.advance()
	p.skipSeparators()

	for p.atKeyword("WHEN") {
		when := p.node(types.NodeWhen, p.current)
		p.advance()

		cond, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		when.LHS = cond
		for p.current.Type == TokenNewline {
			p.advance()
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}

		body, err := p.parseBlock("WHEN", "OTHERWISE", "END")
		if err != nil {
			return nil, err
		}
		when.Body = body
		n.Body = append(n.Body, when)
	}

	if len(n.Body) == 0 {
		return nil, p.unexpected("WHEN")
	}

	if p.atKeyword("OTHERWISE") {
		p.advance()
		body, err := p.parseBlock("END")
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = []*types.ASTNode{}
		}
		n.Else = body
	}

	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseDo parses every DO form:
//
//	DO                                    (block)
//	DO FOREVER
//	DO WHILE c | DO UNTIL c
//	DO i = a [TO b] [BY s] [FOR n]        (counted)
//	DO x OVER collection
//	DO n                                  (bounded repeat)
//
// Any form but the plain block accepts trailing WHILE / UNTIL conditions.
func (p *Parser) parseDo() (*types.ASTNode, error) {
	n := p.node(types.NodeDo, p.current)
	p.advance()

	spec := &types.LoopSpec{}
	n.Loop = spec

	var err error
	switch {
	case p.atStatementEnd():
		spec.Kind = types.LoopBlock

	case p.atKeyword("FOREVER"):
		spec.Kind = types.LoopForever
		p.advance()

	case p.atKeyword("WHILE", "UNTIL"):
		spec.Kind = types.LoopCond

	case p.current.Type == TokenSymbol && p.peek(1).Type == TokenEqual:
		spec.Kind = types.LoopCounted
		spec.Var = strings.ToUpper(p.current.Value)
		spec.VarNode = p.symbolNode(p.current)
		p.advance()
		p.advance()
		if spec.Start, err = p.parseExpression(0); err != nil {
			return nil, err
		}
		if err := p.parseCountedClauses(spec); err != nil {
			return nil, err
		}

	case p.current.Type == TokenSymbol && isKeyword(p.peek(1), "OVER"):
		spec.Kind = types.LoopOver
		spec.Var = strings.ToUpper(p.current.Value)
		spec.VarNode = p.symbolNode(p.current)
		p.advance()
		p.advance()
		if spec.Start, err = p.parseExpression(0); err != nil {
			return nil, err
		}

	default:
		spec.Kind = types.LoopRepeat
		if spec.Start, err = p.parseExpression(0); err != nil {
			return nil, err
		}
	}

	if spec.Kind != types.LoopBlock {
		if err := p.parseConditions(spec); err != nil {
			return nil, err
		}
	}

	if !p.atStatementEnd() {
		return nil, p.unexpected("end of DO clause")
	}

	body, err := p.parseBlock("END")
	if err != nil {
		return nil, err
	}
	n.Body = body

	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	if p.current.Type == TokenSymbol && !p.atKeyword(blockEnders...) {
		if spec.Var == "" || !strings.EqualFold(p.current.Value, spec.Var) {
			return nil, p.error(fmt.Sprintf("END %s does not match DO", p.current.Value))
		}
		p.advance()
	}
	return n, nil
}

func (p *Parser) parseCountedClauses(spec *types.LoopSpec) error {
	for {
		var target **types.ASTNode
		switch {
		case p.atKeyword("TO"):
			target = &spec.To
		case p.atKeyword("BY"):
			target = &spec.By
		case p.atKeyword("FOR"):
			target = &spec.For
		default:
			return nil
		}
		if *target != nil {
			return p.error(fmt.Sprintf("duplicate %s in DO", strings.ToUpper(p.current.Value)))
		}
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return err
		}
		*target = expr
	}
}

func (p *Parser) parseConditions(spec *types.LoopSpec) error {
	for {
		var target **types.ASTNode
		switch {
		case p.atKeyword("WHILE"):
			target = &spec.While
		case p.atKeyword("UNTIL"):
			target = &spec.Until
		default:
			return nil
		}
		if *target != nil {
			return p.error(fmt.Sprintf("duplicate %s in DO", strings.ToUpper(p.current.Value)))
		}
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return err
		}
		*target = expr
	}
}

// parseLoopControl parses "LEAVE [name]" and "ITERATE [name]".
func (p *Parser) parseLoopControl() (*types.ASTNode, error) {
	nodeType := types.NodeLeave
	if strings.EqualFold(p.current.Value, "ITERATE") {
		nodeType = types.NodeIterate
	}
	n := p.node(nodeType, p.current)
	p.advance()
	if p.current.Type == TokenSymbol && !p.atKeyword(blockEnders...) {
		n.Label = strings.ToUpper(p.current.Value)
		p.advance()
	}
	return n, nil
}

// parseCall parses "CALL name [args]" and "CALL name(args)".
func (p *Parser) parseCall() (*types.ASTNode, error) {
	n := p.node(types.NodeCall, p.current)
	p.advance()

	switch p.current.Type {
	case TokenSymbol, TokenString, TokenDString:
		n.Label = p.current.Value
	default:
		return nil, p.unexpected("routine name")
	}

	if p.isCallStart(0) {
		call, err := p.parseFunctionCall()
		if err != nil {
			return nil, err
		}
		n.Arguments = call.Arguments
		return n, nil
	}
	p.advance()

	if p.atClauseEnd() {
		return n, nil
	}
	site := p.opts.LambdaSites[strings.ToUpper(n.Label)]
	for {
		arg, err := p.parseArgument(site)
		if err != nil {
			return nil, err
		}
		n.Arguments = append(n.Arguments, arg)
		if p.current.Type != TokenComma {
			return n, nil
		}
		p.advance()
	}
}

// parseReturn parses "RETURN [expr]" and "EXIT [expr]".
func (p *Parser) parseReturn() (*types.ASTNode, error) {
	nodeType := types.NodeReturn
	if strings.EqualFold(p.current.Value, "EXIT") {
		nodeType = types.NodeExit
	}
	n := p.node(nodeType, p.current)
	p.advance()
	if p.atClauseEnd() {
		return n, nil
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = expr
	return n, nil
}

// parseSignal parses SIGNAL label, SIGNAL VALUE expr, SIGNAL ON ERROR
// [NAME label] and SIGNAL OFF ERROR.
func (p *Parser) parseSignal() (*types.ASTNode, error) {
	tok := p.current
	p.advance()

	if p.current.Type != TokenSymbol {
		return nil, p.unexpected("label")
	}

	switch {
	case (p.atKeyword("ON") || p.atKeyword("OFF")) && p.peek(1).Type == TokenSymbol:
		nodeType := types.NodeSignalOn
		if p.atKeyword("OFF") {
			nodeType = types.NodeSignalOff
		}
		n := p.node(nodeType, tok)
		p.advance()
		if !p.atKeyword("ERROR") {
			return nil, p.unexpected("ERROR")
		}
		n.Condition = "ERROR"
		n.Label = "ERROR"
		p.advance()
		if nodeType == types.NodeSignalOn && p.atKeyword("NAME") {
			p.advance()
			if p.current.Type != TokenSymbol {
				return nil, p.unexpected("label")
			}
			n.Label = p.current.Value
			p.advance()
		}
		return n, nil

	case p.atKeyword("VALUE") && !p.peekIsSeparator(1):
		n := p.node(types.NodeSignal, tok)
		n.Dynamic = true
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n.RHS = expr
		return n, nil

	default:
		n := p.node(types.NodeSignal, tok)
		n.Label = p.current.Value
		p.advance()
		return n, nil
	}
}

func (p *Parser) peekIsSeparator(n int) bool {
	return isSeparator(p.peek(n))
}

// parseAddress parses the ADDRESS forms:
//
//	ADDRESS                 toggle with the previous target
//	ADDRESS target          switch the target
//	ADDRESS target command  send one command without switching
//	ADDRESS VALUE expr      switch to a computed target
func (p *Parser) parseAddress() (*types.ASTNode, error) {
	n := p.node(types.NodeAddress, p.current)
	p.advance()

	if p.atClauseEnd() {
		return n, nil
	}

	if p.atKeyword("VALUE") && !p.peekIsSeparator(1) {
		n.Dynamic = true
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n.RHS = expr
		return n, nil
	}

	switch p.current.Type {
	case TokenSymbol, TokenString, TokenDString:
		n.Label = p.current.Value
		p.advance()
	default:
		return nil, p.unexpected("address target")
	}

	if p.atClauseEnd() {
		return n, nil
	}
	cmd, err := p.parseCommandOrExpression()
	if err != nil {
		return nil, err
	}
	n.RHS = cmd
	return n, nil
}

// parseInterpret parses INTERPRET expr [WITH ISOLATED [IMPORT names] [EXPORT names]].
func (p *Parser) parseInterpret() (*types.ASTNode, error) {
	n := p.node(types.NodeInterpret, p.current)
	p.advance()

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = expr
	n.Mode = types.InterpretClassic

	if !p.atKeyword("WITH") {
		return n, nil
	}
	p.advance()
	if p.atKeyword("CLASSIC") {
		p.advance()
		return n, nil
	}
	if err := p.expectKeyword("ISOLATED"); err != nil {
		return nil, err
	}

	var imports, exports bool
	for {
		switch {
		case p.atKeyword("IMPORT") && !imports:
			p.advance()
			if n.Names, err = p.parseNameList("IMPORT variable"); err != nil {
				return nil, err
			}
			imports = true
			continue
		case p.atKeyword("EXPORT") && !exports:
			p.advance()
			if n.Exports, err = p.parseNameList("EXPORT variable"); err != nil {
				return nil, err
			}
			exports = true
			continue
		}
		break
	}

	switch {
	case imports && exports:
		n.Mode = types.InterpretIsolatedImportExport
	case imports:
		n.Mode = types.InterpretIsolatedImport
	case exports:
		n.Mode = types.InterpretIsolatedExport
	default:
		n.Mode = types.InterpretIsolated
	}
	return n, nil
}

// parseNameList parses variable names separated by blanks or commas,
// optionally in parentheses. It stops at IMPORT/EXPORT or the end of the clause.
func (p *Parser) parseNameList(what string) ([]string, error) {
	paren := p.current.Type == TokenParenOpen
	if paren {
		p.advance()
	}

	var names []string
	for p.current.Type == TokenSymbol && !p.atKeyword("IMPORT", "EXPORT") && !p.atKeyword(blockEnders...) {
		names = append(names, p.current.Value)
		p.advance()
		if p.current.Type == TokenComma {
			p.advance()
		}
	}

	if paren {
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return nil, p.unexpected(what)
	}
	return names, nil
}

// parseNumeric parses NUMERIC DIGITS [e] | FUZZ [e] | FORM [SCIENTIFIC|ENGINEERING|VALUE e].
func (p *Parser) parseNumeric() (*types.ASTNode, error) {
	n := p.node(types.NodeNumeric, p.current)
	p.advance()

	switch {
	case p.atKeyword("DIGITS"), p.atKeyword("FUZZ"):
		n.Value = strings.ToUpper(p.current.Value)
		p.advance()
	case p.atKeyword("FORM"):
		n.Value = "FORM"
		p.advance()
		switch {
		case p.atKeyword("SCIENTIFIC"), p.atKeyword("ENGINEERING"):
			n.Label = strings.ToUpper(p.current.Value)
			p.advance()
			return n, nil
		case p.atKeyword("VALUE"):
			p.advance()
		default:
			return n, nil
		}
	default:
		return nil, p.unexpected("DIGITS, FUZZ or FORM")
	}

	if p.atClauseEnd() {
		return n, nil
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = expr
	return n, nil
}

// parseProcedure parses "PROCEDURE [EXPOSE names]".
func (p *Parser) parseProcedure() (*types.ASTNode, error) {
	n := p.node(types.NodeProcedure, p.current)
	p.advance()
	if !p.atKeyword("EXPOSE") {
		return n, nil
	}
	p.advance()
	names, err := p.parseNameList("EXPOSE variable")
	if err != nil {
		return nil, err
	}
	n.Names = names
	return n, nil
}

// parseCommandOrExpression parses an imperative command
// ("NAME key=value ...", never parenthesized) or falls back to an
// expression statement.
func (p *Parser) parseCommandOrExpression() (*types.ASTNode, error) {
	if p.isCommandStart() {
		return p.parseCommand()
	}
	return p.parseExpressionStatement()
}

// isCommandStart reports whether the current symbol starts an imperative
// command: it is not a function call and is followed by the end of the
// clause, a key=value pair or a literal.
func (p *Parser) isCommandStart() bool {
	if p.current.Type != TokenSymbol || p.isCallStart(0) {
		return false
	}
	next := p.peek(1)
	switch {
	case isSeparator(next):
		return true
	case next.Type == TokenSymbol:
		return p.peek(2).Type == TokenEqual || isBlockEnder(next)
	case next.Type == TokenString, next.Type == TokenDString, next.Type == TokenNumber:
		return true
	}
	return false
}

func isBlockEnder(t Token) bool {
	for _, kw := range blockEnders {
		if isKeyword(t, kw) {
			return true
		}
	}
	return false
}

// parseCommand parses "NAME key=value literal ...".
func (p *Parser) parseCommand() (*types.ASTNode, error) {
	n := p.node(types.NodeCommand, p.current)
	n.Value = p.current.Value
	p.advance()

	for !p.atClauseEnd() {
		if p.current.Type == TokenSymbol && p.peek(1).Type == TokenEqual {
			arg := p.node(types.NodeNamedArg, p.current)
			arg.Value = p.current.Value
			p.advance()
			p.advance()
			val, err := p.parseExpression(precComparison)
			if err != nil {
				return nil, err
			}
			arg.LHS = val
			n.Arguments = append(n.Arguments, arg)
		} else {
			val, err := p.parseExpression(precComparison)
			if err != nil {
				return nil, err
			}
			n.Arguments = append(n.Arguments, val)
		}
		if p.current.Type == TokenComma {
			p.advance()
		}
	}
	return n, nil
}

// parseExpressionStatement parses a bare expression used as a statement.
func (p *Parser) parseExpressionStatement() (*types.ASTNode, error) {
	n := p.node(types.NodeExprStmt, p.current)
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	n.RHS = expr
	return n, nil
}

package types

// NodeType identifies the type of an AST node.
type NodeType string

// Statement node types.
const (
	NodeAssign      NodeType = "assign"       // x = expr, LET x = expr
	NodeSay         NodeType = "say"          // SAY expr
	NodeIf          NodeType = "if"           // IF cond THEN ... ELSE ...
	NodeSelect      NodeType = "select"       // SELECT ... END
	NodeWhen        NodeType = "when"         // WHEN cond THEN ...
	NodeDo          NodeType = "do"           // DO ... END (all loop forms)
	NodeLeave       NodeType = "leave"        // LEAVE [name]
	NodeIterate     NodeType = "iterate"      // ITERATE [name]
	NodeCall        NodeType = "call"         // CALL name args
	NodeReturn      NodeType = "return"       // RETURN [expr]
	NodeExit        NodeType = "exit"         // EXIT [expr]
	NodeSignal      NodeType = "signal"       // SIGNAL label / SIGNAL VALUE expr
	NodeSignalOn    NodeType = "signal_on"    // SIGNAL ON ERROR [NAME label]
	NodeSignalOff   NodeType = "signal_off"   // SIGNAL OFF ERROR
	NodeLabel       NodeType = "label"        // name:
	NodeAddress     NodeType = "address"      // ADDRESS [target [command]]
	NodeInterpret   NodeType = "interpret"    // INTERPRET expr [WITH ISOLATED ...]
	NodeNoInterpret NodeType = "no_interpret" // NO-INTERPRET
	NodeParse       NodeType = "parse"        // PARSE ... template
	NodeNumeric     NodeType = "numeric"      // NUMERIC DIGITS|FUZZ|FORM
	NodeDrop        NodeType = "drop"         // DROP names
	NodeNop         NodeType = "nop"          // NOP
	NodeProcedure   NodeType = "procedure"    // PROCEDURE [EXPOSE names]
	NodeCommand     NodeType = "command"      // NAME key=value ...
	NodeExprStmt    NodeType = "expr_stmt"    // bare expression
)

// Expression node types.
const (
	NodeString   NodeType = "string"    // "text" or 'text'
	NodeNumber   NodeType = "number"    // 12, 3.5, 1E+3
	NodeVariable NodeType = "variable"  // simple symbol
	NodeCompound NodeType = "compound"  // stem.tail
	NodeBinary   NodeType = "binary"    // a + b, a || b, a = b ...
	NodeUnary    NodeType = "unary"     // -a, \a
	NodeFunction NodeType = "function"  // NAME(args)
	NodePipe     NodeType = "pipe"      // a |> F(...)
	NodePipeSlot NodeType = "pipe_slot" // where the piped value lands
	NodeArray    NodeType = "array"     // [a, b]
	NodeObject   NodeType = "object"    // {"k": v}
	NodeLambda   NodeType = "lambda"    // x => expr
	NodeNamedArg NodeType = "named_arg" // name=value inside calls and commands
)

// InterpretMode selects the variable visibility of an INTERPRET statement.
type InterpretMode uint8

const (
	InterpretClassic InterpretMode = iota
	InterpretIsolated
	InterpretIsolatedImport
	InterpretIsolatedExport
	InterpretIsolatedImportExport
)

// String returns the mode name.
func (m InterpretMode) String() string {
	switch m {
	case InterpretClassic:
		return "CLASSIC"
	case InterpretIsolated:
		return "ISOLATED"
	case InterpretIsolatedImport:
		return "ISOLATED IMPORT"
	case InterpretIsolatedExport:
		return "ISOLATED EXPORT"
	case InterpretIsolatedImportExport:
		return "ISOLATED IMPORT EXPORT"
	default:
		return "UNKNOWN"
	}
}

// LoopKind distinguishes the DO forms.
type LoopKind uint8

const (
	LoopBlock   LoopKind = iota // DO ... END, runs once
	LoopCounted                 // DO i = a TO b BY s FOR n
	LoopRepeat                  // DO n
	LoopForever                 // DO FOREVER
	LoopOver                    // DO x OVER collection
	LoopCond                    // DO WHILE c / DO UNTIL c with no other control
)

// LoopSpec holds the control clauses of a DO statement.
type LoopSpec struct {
	Kind    LoopKind
	Var     string   // control variable (counted, over)
	Start   *ASTNode // counted start, repeat count, or over collection
	To      *ASTNode
	By      *ASTNode
	For     *ASTNode
	While   *ASTNode
	Until   *ASTNode
	VarNode *ASTNode // parsed control variable (may be compound)
}

// TemplateKind identifies a PARSE template element.
type TemplateKind uint8

const (
	TemplateTarget   TemplateKind = iota // variable name receiving a piece
	TemplateDot                          // '.' placeholder
	TemplateLiteral                      // 'text' pattern
	TemplateVarPat                       // (name) pattern
	TemplateAbsolute                     // 5 or =5
	TemplateRelative                     // +3 / -3
	TemplateComma                        // ',' argument separator
)

// TemplateItem is one element of a PARSE template.
type TemplateItem struct {
	Kind   TemplateKind
	Name   string   // target variable, or pattern variable
	Node   *ASTNode // target node (compound targets)
	Text   string   // literal pattern
	Offset int      // absolute / relative position
}

// ParseSource identifies where PARSE reads its input from.
type ParseSource uint8

const (
	ParseArg ParseSource = iota
	ParseVar
	ParseValue
	ParsePull
)

// ParseSpec holds a PARSE instruction.
type ParseSpec struct {
	Source   ParseSource
	Upper    bool
	Lower    bool
	Var      *ASTNode // PARSE VAR target
	Template []*TemplateItem
}

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Statements and expressions share the struct; the NodeType decides which
// fields are populated.
type ASTNode struct {
	Type     NodeType
	Value    string // literal text, operator, variable or function name
	NumValue float64
	Line     int
	Column   int

	// Relations
	LHS       *ASTNode   // left operand, condition, assignment target
	RHS       *ASTNode   // right operand, assigned value, lambda body, command
	Arguments []*ASTNode // call arguments, array elements, object entries
	Body      []*ASTNode // THEN branch, loop body, WHEN list
	Else      []*ASTNode // ELSE branch, OTHERWISE branch

	// Attributes
	Names     []string // DROP/EXPOSE/IMPORT names, lambda parameters
	Exports   []string // INTERPRET EXPORT names
	Label     string   // SIGNAL/CALL target, LEAVE/ITERATE loop name, handler label
	Condition string   // SIGNAL ON/OFF condition name
	Mode      InterpretMode
	Loop      *LoopSpec
	Parse     *ParseSpec
	Dynamic   bool // SIGNAL VALUE, ADDRESS VALUE
	Interp    bool // double-quoted string eligible for {name} interpolation
	Stem      bool // compound/variable names a whole stem ("arr.")
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable; attaching it to the [Program] achieves this. NodeArena is NOT
// thread-safe: each Parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena with Type
// and source position set.
func (a *NodeArena) Alloc(nodeType NodeType, line, column int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Line = line
	n.Column = column
	return n
}

// NewASTNode creates a heap-allocated node. Prefer NodeArena.Alloc when parsing.
func NewASTNode(nodeType NodeType, line, column int) *ASTNode {
	return &ASTNode{Type: nodeType, Line: line, Column: column}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}

// IsStatement reports whether the node is a statement rather than an expression.
func (n *ASTNode) IsStatement() bool {
	switch n.Type {
	case NodeString, NodeNumber, NodeVariable, NodeCompound, NodeBinary, NodeUnary,
		NodeFunction, NodePipe, NodePipeSlot, NodeArray, NodeObject, NodeLambda, NodeNamedArg:
		return false
	default:
		return true
	}
}

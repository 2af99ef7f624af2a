// Package types defines the core type system for GoRexx.
//
// This package contains type definitions for:
//   - Program: compiled REXX programs with their label table
//   - ASTNode: Abstract Syntax Tree nodes for statements and expressions
//   - Error types: Structured errors with codes
package types

import (
	"sort"
	"strings"
)

// MainRoutine is the owner name of labels outside any subroutine region.
const MainRoutine = ""

// Program represents a compiled REXX program (or an INTERPRET unit).
//
// A Program is immutable after construction and is safe for concurrent use
// by multiple evaluators.
type Program struct {
	body     []*ASTNode
	source   string
	labels   map[string]int    // upper-cased label -> statement index
	owners   map[string]string // upper-cased label -> owning routine label
	routines map[string]bool
	arena    *NodeArena
}

// NewProgram builds a Program from a parsed statement list, running the label
// pre-pass. Duplicate labels are reported as a SyntaxError.
func NewProgram(body []*ASTNode, source string, arena *NodeArena) (*Program, error) {
	p := &Program{
		body:     body,
		source:   source,
		labels:   make(map[string]int),
		owners:   make(map[string]string),
		routines: make(map[string]bool),
		arena:    arena,
	}

	for i, stmt := range body {
		if stmt.Type != NodeLabel {
			continue
		}
		name := strings.ToUpper(stmt.Value)
		if _, dup := p.labels[name]; dup {
			err := Errorf(ErrSyntax, stmt.Line, "duplicate label %q", stmt.Value)
			err.Column = stmt.Column
			return nil, err
		}
		p.labels[name] = i
	}

	// Routine labels: CALL targets, user function names, labels followed by PROCEDURE.
	Walk(body, func(n *ASTNode) {
		var target string
		switch n.Type {
		case NodeCall:
			target = n.Label
		case NodeFunction:
			target = n.Value
		default:
			return
		}
		name := strings.ToUpper(target)
		if _, ok := p.labels[name]; ok {
			p.routines[name] = true
		}
	})
	for name, idx := range p.labels {
		if next := nextStatement(body, idx); next != nil && next.Type == NodeProcedure {
			p.routines[name] = true
		}
	}

	owner := MainRoutine
	for _, stmt := range body {
		if stmt.Type != NodeLabel {
			continue
		}
		name := strings.ToUpper(stmt.Value)
		if p.routines[name] {
			owner = name
		}
		p.owners[name] = owner
	}

	return p, nil
}

func nextStatement(body []*ASTNode, idx int) *ASTNode {
	for i := idx + 1; i < len(body); i++ {
		if body[i].Type != NodeLabel {
			return body[i]
		}
	}
	return nil
}

// Body returns the top-level statement list.
func (p *Program) Body() []*ASTNode {
	return p.body
}

// Source returns the original source code of the program.
func (p *Program) Source() string {
	return p.source
}

// Label returns the statement index of a label (case-insensitive).
func (p *Program) Label(name string) (int, bool) {
	idx, ok := p.labels[strings.ToUpper(name)]
	return idx, ok
}

// Owner returns the routine region that lexically contains the label.
// MainRoutine is returned for labels before the first routine label.
func (p *Program) Owner(label string) string {
	return p.owners[strings.ToUpper(label)]
}

// IsRoutine reports whether the label starts a subroutine region.
func (p *Program) IsRoutine(label string) bool {
	return p.routines[strings.ToUpper(label)]
}

// Labels returns all label names (upper-cased) in sorted order.
func (p *Program) Labels() []string {
	out := make([]string, 0, len(p.labels))
	for name := range p.labels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String returns the program source.
func (p *Program) String() string {
	return p.source
}

// Walk visits every node reachable from nodes in depth-first order.
func Walk(nodes []*ASTNode, fn func(*ASTNode)) {
	for _, n := range nodes {
		walkNode(n, fn)
	}
}

func walkNode(n *ASTNode, fn func(*ASTNode)) {
	if n == nil {
		return
	}
	fn(n)
	walkNode(n.LHS, fn)
	walkNode(n.RHS, fn)
	Walk(n.Arguments, fn)
	Walk(n.Body, fn)
	Walk(n.Else, fn)
	if l := n.Loop; l != nil {
		walkNode(l.VarNode, fn)
		walkNode(l.Start, fn)
		walkNode(l.To, fn)
		walkNode(l.By, fn)
		walkNode(l.For, fn)
		walkNode(l.While, fn)
		walkNode(l.Until, fn)
	}
	if ps := n.Parse; ps != nil {
		walkNode(ps.Var, fn)
		for _, item := range ps.Template {
			walkNode(item.Node, fn)
		}
	}
}

// Package ast defines the PL0 core's typed tree: the raw node shapes the
// external parser produces, and the additional node kinds (ConstNode,
// VariableNode, ErrorExpNode, NarrowSubrange, WidenSubrange, Dereference)
// the static checker rewrites the tree into (spec.md §3).
//
// Dispatch on node kind is a plain Go type switch throughout this module,
// not the double-dispatch Accept(Visitor) pattern — see DESIGN.md and
// spec.md §9's design note.
package ast

import (
	"github.com/funvibe/funxy/internal/pos"
	"github.com/funvibe/funxy/internal/types"
)

// Node is the base of every AST node: something with a source position.
type Node interface {
	Pos() pos.Position
}

// Statement is a Node that appears in a statement list.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a Node with a type slot. After checking, Type() is never
// nil (spec.md §8, "n.type != null").
type Expression interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

// StmtBase is embedded by every Statement implementation.
type StmtBase struct {
	Position pos.Position
}

func (b *StmtBase) Pos() pos.Position { return b.Position }
func (*StmtBase) stmtNode()           {}

// ExprBase is embedded by every Expression implementation.
type ExprBase struct {
	Position pos.Position
	Typ      types.Type
}

func (b *ExprBase) Pos() pos.Position    { return b.Position }
func (b *ExprBase) Type() types.Type     { return b.Typ }
func (b *ExprBase) SetType(t types.Type) { b.Typ = t }
func (*ExprBase) exprNode()              {}

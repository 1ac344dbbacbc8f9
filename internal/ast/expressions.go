package ast

import (
	"github.com/funvibe/funxy/internal/pos"
	"github.com/funvibe/funxy/internal/symbols"
)

// Identifier is the raw, unresolved form the parser produces for every bare
// name reference. No Identifier survives the checker: each one is rewritten
// to a ConstNode, VariableNode, or ErrorExpNode (spec.md §3, §4.3).
type Identifier struct {
	ExprBase
	Name string
}

func NewIdentifier(p pos.Position, name string) *Identifier {
	return &Identifier{ExprBase: ExprBase{Position: p}, Name: name}
}

// ConstNode is what an identifier referring to a Constant entry becomes.
type ConstNode struct {
	ExprBase
	Value int
}

// VariableNode is what an identifier referring to a Variable entry becomes.
// Its type is always Reference(T) where T is the variable's declared type,
// preserving L-value-ness for downstream coercion.
type VariableNode struct {
	ExprBase
	Symbol symbols.Symbol
}

// ErrorExpNode replaces an identifier the checker could not resolve to a
// constant or variable. Its type is always types.Error.
type ErrorExpNode struct {
	ExprBase
}

// IntLiteral is a literal integer constant from the source text.
type IntLiteral struct {
	ExprBase
	Value int
}

// BoolLiteral is a literal boolean constant from the source text.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// ArgumentsNode is the transformed argument list of an operator or call;
// its type is Product([types...]).
type ArgumentsNode struct {
	ExprBase
	Elements []Expression
}

// OperatorNode is an application of a named operator to an ArgumentsNode.
// Resolved carries the chosen monomorphic signature once the checker has
// selected it (directly, or via intersection first-match).
type OperatorNode struct {
	ExprBase
	Name     string
	Args     *ArgumentsNode
	Resolved symbols.Symbol // the Operator entry looked up
}

// Dereference turns an L-value into the value it holds.
type Dereference struct {
	ExprBase
	Inner Expression
}

// FieldAccess projects a named field out of a record L-value. Its type is
// Reference(fieldType), so the access itself is an L-value.
type FieldAccess struct {
	ExprBase
	Inner      Expression
	FieldName  string
	FieldIndex int // resolved position within the record's field list
}

// PointerDereference follows a pointer L-value to the pointee, yielding an
// L-value of the pointee's type.
type PointerDereference struct {
	ExprBase
	Inner Expression
}

// New yields a pointer to a cell of the named type. The code generator
// reserves one cell per New call site in the enclosing procedure's frame
// (see codegen's compileNew), so every evaluation of the same New yields
// the same address; there is no heap. This is a value, not an L-value.
type New struct {
	ExprBase
	TypeName string
}

// RecordConstructor builds a record value from positional field
// expressions, matched against the named record type's field order.
type RecordConstructor struct {
	ExprBase
	TypeName string
	Fields   []Expression
}

// NarrowSubrange is inserted by the checker when coercing T into
// Subrange(lo,hi,T); it carries a runtime-checked bounds check.
type NarrowSubrange struct {
	ExprBase
	Inner  Expression
	Lo, Hi int
}

// WidenSubrange is inserted by the checker when coercing
// Subrange(lo,hi,T) into T; free at runtime.
type WidenSubrange struct {
	ExprBase
	Inner Expression
}

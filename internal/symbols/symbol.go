// Package symbols implements the PL0 core's symbol table: lexically nested
// scopes addressed by static level, and the tagged-variant symbol entries
// they hold (spec.md §3, §4.2).
package symbols

import "github.com/funvibe/funxy/internal/types"

// Kind tags which variant a Symbol is.
type Kind int

const (
	KindConstant Kind = iota
	KindVariable
	KindProcedure
	KindTypeAlias
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	case KindProcedure:
		return "procedure"
	case KindTypeAlias:
		return "type"
	case KindOperator:
		return "operator"
	default:
		return "?"
	}
}

// Symbol is a tagged-variant entry in a scope. Not every field is
// meaningful for every Kind; see the per-kind constructors below, which are
// the intended way to build one.
type Symbol struct {
	Name string
	Kind Kind
	Type types.Type

	// KindConstant
	Value int

	// KindVariable (Level is also set for KindProcedure: the static level
	// of the procedure's own body)
	Level  int
	Offset int

	// KindProcedure. EntryAddress and HasEntry are never set by this core:
	// the code generator addresses a procedure by its Procedures table index.
	Local        *Scope
	EntryAddress int
	HasEntry     bool

	// KindOperator: Type is a Function or Intersection of Functions.
}

// NewConstant builds a Constant(type, value) entry.
func NewConstant(name string, t types.Type, value int) Symbol {
	return Symbol{Name: name, Kind: KindConstant, Type: t, Value: value}
}

// NewVariable builds a Variable(type, level, offset) entry.
func NewVariable(name string, t types.Type, level, offset int) Symbol {
	return Symbol{Name: name, Kind: KindVariable, Type: t, Level: level, Offset: offset}
}

// NewProcedure builds a Procedure(localScope, level) entry. The entry
// address is left unset.
func NewProcedure(name string, local *Scope, level int) Symbol {
	return Symbol{Name: name, Kind: KindProcedure, Local: local, Level: level}
}

// NewTypeAlias builds a TypeAlias(type) entry.
func NewTypeAlias(name string, t types.Type) Symbol {
	return Symbol{Name: name, Kind: KindTypeAlias, Type: t}
}

// NewOperator builds an Operator(type) entry; t is a Function or
// Intersection.
func NewOperator(name string, t types.Type) Symbol {
	return Symbol{Name: name, Kind: KindOperator, Type: t}
}

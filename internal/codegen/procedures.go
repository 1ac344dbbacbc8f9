package codegen

import "github.com/funvibe/funxy/internal/symbols"

// Procedure is one compiled procedure body plus the frame size its prologue
// must reserve.
type Procedure struct {
	Name          string
	Level         int
	VariableSpace int
	Code          *Code
}

// Procedures is the ordered table of every compiled procedure, in the order
// their slots were reserved: the program body first, and every procedure
// declared in a block before any procedure nested inside those. Order is preserved rather than keyed by name because nested
// procedures may shadow an enclosing name, and the VM addresses a
// procedure by table index (spec.md §4.5, §6: the Call opcode's second
// operand is a procedure index, not a name).
//
// Lookup is keyed by *symbols.Scope rather than by symbols.Symbol: a
// Symbol's Type field is a types.Type that may resolve to a struct holding
// a slice (Record, Product, Intersection), which cannot be compared or
// hashed as a Go map key. A *Scope is a plain pointer — comparable by
// address regardless of what it points to — and it is exactly the value a
// Procedure symbol's Local field carries, so a Call's Resolved symbol maps
// straight to the table index its ProcedureDecl was compiled to.
type Procedures struct {
	entries []Procedure
	index   map[*symbols.Scope]int
}

// NewProcedures returns an empty table.
func NewProcedures() *Procedures {
	return &Procedures{index: make(map[*symbols.Scope]int)}
}

// Reserve allocates scope's table slot before its body is compiled, so a
// self-recursive Call, or a Call from a sibling in the same block (whichever
// of the two is compiled first), can resolve an index while the body is
// still being walked. Fill completes the entry
// once the body's Code and frame size are known.
func (p *Procedures) Reserve(scope *symbols.Scope, name string, level int) int {
	i := len(p.entries)
	p.entries = append(p.entries, Procedure{Name: name, Level: level})
	p.index[scope] = i
	return i
}

// Fill records the compiled body and frame size for a slot Reserve
// returned.
func (p *Procedures) Fill(index int, code *Code, variableSpace int) {
	p.entries[index].Code = code
	p.entries[index].VariableSpace = variableSpace
}

// IndexOf returns the table index the procedure owning scope was compiled
// to.
func (p *Procedures) IndexOf(scope *symbols.Scope) (int, bool) {
	i, ok := p.index[scope]
	return i, ok
}

// List returns every compiled procedure in table-index order.
func (p *Procedures) List() []Procedure {
	out := make([]Procedure, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len is the number of compiled procedures.
func (p *Procedures) Len() int { return len(p.entries) }

package symbols

import (
	"fmt"

	"github.com/funvibe/funxy/internal/types"
)

// SymbolTable owns the arena of all scopes created during parsing and
// checking, plus the stack of currently open scope indices that mirrors
// lexical nesting as the checker descends into procedure bodies.
type SymbolTable struct {
	arena []*Scope
	open  []int // stack; open[len(open)-1] is the current scope
}

// New creates a SymbolTable with a single base scope at static level 1 (the
// program scope; predefined types and operators are Defined into it by the
// caller before checking starts).
func New() *SymbolTable {
	st := &SymbolTable{}
	root := newScope(-1, 1)
	st.arena = append(st.arena, root)
	st.open = []int{0}
	return st
}

// ScopeRef is an opaque handle to an arena-allocated scope, returned by
// EnterScope so a procedure's declaration (ast.ProcedureDecl) can later
// ReenterScope its own body.
type ScopeRef struct{ index int }

func (st *SymbolTable) scopeAt(ref ScopeRef) *Scope { return st.arena[ref.index] }

// CurrentScope returns a handle to the innermost open scope.
func (st *SymbolTable) CurrentScope() ScopeRef {
	return ScopeRef{index: st.open[len(st.open)-1]}
}

// EnterScope pushes a brand new child scope of the current scope, at the
// given static level, and returns a handle to it (kept by the caller's
// ProcedureDecl so the checker can ReenterScope it out of lexical
// order — e.g. once per nested procedure before checking its body).
func (st *SymbolTable) EnterScope(level int) ScopeRef {
	parent := st.open[len(st.open)-1]
	idx := len(st.arena)
	st.arena = append(st.arena, newScope(parent, level))
	st.open = append(st.open, idx)
	return ScopeRef{index: idx}
}

// LeaveScope pops the current scope, returning to its parent.
func (st *SymbolTable) LeaveScope() {
	st.open = st.open[:len(st.open)-1]
}

// ReenterScope pushes an already-created scope back onto the open stack,
// used when the checker visits a Procedure declaration and needs to check
// its body against the scope that was created for it during parsing.
func (st *SymbolTable) ReenterScope(ref ScopeRef) {
	st.open = append(st.open, ref.index)
}

// Define adds name to the current scope, rejecting a duplicate within that
// same scope (shadowing an outer scope's name is fine).
func (st *SymbolTable) Define(name string, sym Symbol) error {
	scope := st.arena[st.open[len(st.open)-1]]
	if _, exists := scope.names[name]; exists {
		return fmt.Errorf("%q is already defined in this scope", name)
	}
	scope.names[name] = sym
	if sym.Kind == KindVariable {
		scope.variableSpace += types.SizeOf(sym.Type)
	}
	return nil
}

// DefineOperator adds an operator entry to the separate operator namespace
// of the current scope; operators are never shadowed by user identifiers
// looked up through Lookup.
func (st *SymbolTable) DefineOperator(name string, sym Symbol) {
	scope := st.arena[st.open[len(st.open)-1]]
	scope.operators[name] = sym
}

// Lookup walks the current scope and its parents for name in the value
// namespace, returning ok=false if nothing is found.
func (st *SymbolTable) Lookup(name string) (Symbol, bool) {
	idx := st.open[len(st.open)-1]
	for idx != -1 {
		scope := st.arena[idx]
		if sym, ok := scope.names[name]; ok {
			return sym, true
		}
		idx = scope.parent
	}
	return Symbol{}, false
}

// LookupType is Lookup restricted to TypeAlias entries.
func (st *SymbolTable) LookupType(name string) (Symbol, bool) {
	sym, ok := st.Lookup(name)
	if !ok || sym.Kind != KindTypeAlias {
		return Symbol{}, false
	}
	return sym, true
}

// LookupOperator walks the operator namespace only (never the value
// namespace), since operators live in a separate table per spec.md §4.2.
func (st *SymbolTable) LookupOperator(name string) (Symbol, bool) {
	idx := st.open[len(st.open)-1]
	for idx != -1 {
		scope := st.arena[idx]
		if sym, ok := scope.operators[name]; ok {
			return sym, true
		}
		idx = scope.parent
	}
	return Symbol{}, false
}

// ResolveScope marks the current scope's deferred type expressions as
// ground. The core checker calls this exactly once per scope, before
// checking that scope's body, satisfying spec.md §4.2's contract that every
// entry's type is fully ground before use. This implementation has no
// actual deferred-type bookkeeping to perform (the symbol table is
// populated with already-ground types by the time the checker runs — see
// spec.md §6 "Inputs"); ResolveScope exists as the hook a fuller front end
// would use, and simply marks the scope resolved so a second call is a
// harmless no-op.
func (st *SymbolTable) ResolveScope() {
	scope := st.arena[st.open[len(st.open)-1]]
	scope.resolved = true
}

// VariableSpace returns the current scope's running variable-space total.
func (st *SymbolTable) VariableSpace() int {
	return st.arena[st.open[len(st.open)-1]].VariableSpace()
}

// Level returns the current scope's static level.
func (st *SymbolTable) Level() int {
	return st.arena[st.open[len(st.open)-1]].Level()
}

// ScopeVariableSpace returns ref's variable-space total, used by the code
// generator to size a procedure's frame-allocation prologue without
// re-entering the scope.
func (st *SymbolTable) ScopeVariableSpace(ref ScopeRef) int {
	return st.scopeAt(ref).VariableSpace()
}

// ScopeLevel returns ref's static level.
func (st *SymbolTable) ScopeLevel(ref ScopeRef) int {
	return st.scopeAt(ref).Level()
}

// ScopeOf exposes the *Scope a ScopeRef points at. The code generator uses
// this pointer (rather than ScopeRef's bare arena index) as the identity it
// keys compiled procedures by, since it is exactly the same pointer a
// Procedure symbol's Local field carries, letting a Call's Resolved symbol
// and its ProcedureDecl agree on one identity without an extra lookup.
func (st *SymbolTable) ScopeOf(ref ScopeRef) *Scope {
	return st.scopeAt(ref)
}

// Package types implements the PL0 core's closed type-variant system:
// scalars, subranges, references, function/product types for operator and
// procedure signatures, records, pointers, the absorbing Error type, and
// intersection types for overloaded operators.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every type variant. Unlike a Hindley-Milner type
// system there are no unification variables here: every type is ground by
// the time the checker asks about it, so the interface only needs identity
// and display.
type Type interface {
	String() string
	// Equal reports structural equality. Two Error types are never equal to
	// anything, including each other, so that an Error source never makes a
	// coercion look trivially satisfied by identity.
	Equal(Type) bool
}

// Scalar is a predefined base type: Int or Bool.
type Scalar struct {
	Name string
}

func (s Scalar) String() string { return s.Name }
func (s Scalar) Equal(t Type) bool {
	o, ok := t.(Scalar)
	return ok && o.Name == s.Name
}

var (
	Int  = Scalar{Name: "int"}
	Bool = Scalar{Name: "boolean"}
)

// Subrange is an integer range lo..hi that widens implicitly to Base and
// narrows from it with a runtime bounds check.
type Subrange struct {
	Lo, Hi int
	Base   Type
}

func (s Subrange) String() string {
	return fmt.Sprintf("%d..%d", s.Lo, s.Hi)
}

func (s Subrange) Equal(t Type) bool {
	o, ok := t.(Subrange)
	return ok && o.Lo == s.Lo && o.Hi == s.Hi && o.Base.Equal(s.Base)
}

// InRange reports whether k is a legal value of the subrange.
func (s Subrange) InRange(k int) bool { return k >= s.Lo && k <= s.Hi }

// Reference is the type of an L-value: an assignable location holding Inner.
type Reference struct {
	Inner Type
}

func (r Reference) String() string { return "ref " + r.Inner.String() }
func (r Reference) Equal(t Type) bool {
	o, ok := t.(Reference)
	return ok && o.Inner.Equal(r.Inner)
}

// Function is the signature of an operator or procedure: Arg -> Result.
// Arg is typically a Product for multi-argument operators.
type Function struct {
	Arg    Type
	Result Type
}

func (f Function) String() string {
	return fmt.Sprintf("(%s) -> %s", f.Arg.String(), f.Result.String())
}

func (f Function) Equal(t Type) bool {
	o, ok := t.(Function)
	return ok && o.Arg.Equal(f.Arg) && o.Result.Equal(f.Result)
}

// Product is the type of an argument list.
type Product struct {
	Elements []Type
}

func (p Product) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p Product) Equal(t Type) bool {
	o, ok := t.(Product)
	if !ok || len(o.Elements) != len(p.Elements) {
		return false
	}
	for i := range p.Elements {
		if !p.Elements[i].Equal(o.Elements[i]) {
			return false
		}
	}
	return true
}

// Field is one named, ordered member of a Record.
type Field struct {
	Name string
	Type Type
}

// Record is an ordered list of uniquely-named fields.
type Record struct {
	Name   string // declared type name, for diagnostics; may be empty
	Fields []Field
}

func (r Record) String() string {
	if r.Name != "" {
		return r.Name
	}
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return "record " + strings.Join(parts, "; ") + " end"
}

func (r Record) Equal(t Type) bool {
	o, ok := t.(Record)
	if !ok || len(o.Fields) != len(r.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i].Name != o.Fields[i].Name || !r.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// FieldIndex returns the position of name within the record, or -1.
func (r Record) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Pointer is a reference to a value of type Inner. In this core a pointer
// value is a frame address (see codegen's compileNew), not a heap address.
type Pointer struct {
	Inner Type
}

func (p Pointer) String() string { return "^" + p.Inner.String() }
func (p Pointer) Equal(t Type) bool {
	o, ok := t.(Pointer)
	return ok && o.Inner.Equal(p.Inner)
}

// Error is the absorbing element: it is never equal to itself or anything
// else, so that downstream code never mistakes two unrelated error results
// for a match, yet every coercion involving it always succeeds silently.
type Error struct{}

func (Error) String() string    { return "<error>" }
func (Error) Equal(Type) bool   { return false }

// IsError reports whether t is the Error type.
func IsError(t Type) bool {
	_, ok := t.(Error)
	return ok
}

// SizeOf returns the number of words a value of type t occupies in a stack
// frame. Scalars, subranges, and pointers are one word; records are the sum
// of their fields' sizes; references are never stored directly (they are
// always an address computation, handled separately by the generator) but
// report their inner size for completeness.
func SizeOf(t Type) int {
	switch tt := t.(type) {
	case Record:
		total := 0
		for _, f := range tt.Fields {
			total += SizeOf(f.Type)
		}
		return total
	case Reference:
		return SizeOf(tt.Inner)
	default:
		return 1
	}
}

// Intersection is the type of an overloaded operator: an ordered list of
// Function signatures. Declaration order is significant (first match wins)
// and must stay stable across runs for reproducible diagnostics.
type Intersection struct {
	Members []Function
}

func (i Intersection) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}

func (i Intersection) Equal(t Type) bool {
	o, ok := t.(Intersection)
	if !ok || len(o.Members) != len(i.Members) {
		return false
	}
	for idx := range i.Members {
		if !i.Members[idx].Equal(o.Members[idx]) {
			return false
		}
	}
	return true
}

package types

// StepKind names one elementary coercion the checker can insert.
type StepKind int

const (
	// StepDereference turns a Reference(T) into a T value.
	StepDereference StepKind = iota
	// StepWidenSubrange erases a subrange's bounds, producing its Base.
	StepWidenSubrange
	// StepNarrowSubrange inserts a runtime-checked narrowing into a subrange.
	StepNarrowSubrange
)

// Step is one elementary coercion in a plan. Narrow and Widen steps carry
// the subrange they widen from / narrow into, so the checker can stamp a
// NarrowSubrange/WidenSubrange AST node with concrete bounds without
// recomputing them.
type Step struct {
	Kind     StepKind
	Subrange Subrange
}

// OptDereferenceType returns U if t is Reference(U), else t unchanged.
// Used whenever a context accepts either a value or an L-value.
func OptDereferenceType(t Type) Type {
	if r, ok := t.(Reference); ok {
		return r.Inner
	}
	return t
}

// AsRecord returns the Record type underlying t, transparently accepting a
// Reference(Record(...)), and false if t is not (a reference to) a record.
func AsRecord(t Type) (Record, bool) {
	r, ok := OptDereferenceType(t).(Record)
	return r, ok
}

// AsPointer returns the Pointer type underlying t, transparently accepting
// a Reference(Pointer(...)), and false if t is not (a reference to) a
// pointer.
func AsPointer(t Type) (Pointer, bool) {
	p, ok := OptDereferenceType(t).(Pointer)
	return p, ok
}

// Plan computes the minimal coercion chain turning a value of type source
// into one of type target. allowNarrow controls whether a NarrowSubrange
// step may be used (the checker passes false when probing intersection
// members, true everywhere else).
//
// The chain is one of: identity, a lone dereference, a lone widen, a lone
// narrow, dereference-then-widen, dereference-then-narrow, widen-then-narrow
// (between two subranges sharing a common base), or, for a reference to a
// subrange coerced into another subrange of the same base,
// dereference-then-widen-then-narrow. No other composition is legal; Plan
// returns ok=false rather than searching further.
func Plan(target, source Type, allowNarrow bool) ([]Step, bool) {
	if source.Equal(target) {
		return nil, true
	}

	var steps []Step
	cur := source
	if ref, ok := cur.(Reference); ok {
		steps = append(steps, Step{Kind: StepDereference})
		cur = ref.Inner
		if cur.Equal(target) {
			return steps, true
		}
	}

	if sub, ok := cur.(Subrange); ok {
		if sub.Base.Equal(target) {
			steps = append(steps, Step{Kind: StepWidenSubrange, Subrange: sub})
			return steps, true
		}
		if targetSub, ok := target.(Subrange); ok && targetSub.Base.Equal(sub.Base) {
			if !allowNarrow {
				return nil, false
			}
			steps = append(steps,
				Step{Kind: StepWidenSubrange, Subrange: sub},
				Step{Kind: StepNarrowSubrange, Subrange: targetSub},
			)
			return steps, true
		}
	}

	if targetSub, ok := target.(Subrange); ok && targetSub.Base.Equal(cur) {
		if !allowNarrow {
			return nil, false
		}
		steps = append(steps, Step{Kind: StepNarrowSubrange, Subrange: targetSub})
		return steps, true
	}

	return nil, false
}

// SelectIntersection picks the first member of inter (in declaration order)
// whose argument type CoerceToType accepts from argType, per spec.md §4.1.
// It returns the chosen member, the coercion plan for the argument, and
// whether any member matched.
func SelectIntersection(inter Intersection, argType Type) (Function, []Step, bool) {
	for _, member := range inter.Members {
		if steps, ok := Plan(member.Arg, argType, false); ok {
			return member, steps, true
		}
	}
	return Function{}, nil, false
}

// Package checker implements the PL0 core's static checker: the one-pass
// tree-rewriting walker that resolves identifiers against the symbol
// table, selects and coerces operator arguments, and inserts
// Dereference/NarrowSubrange/WidenSubrange nodes wherever the coercion
// lattice (internal/types) requires one (spec.md §4.3).
//
// Dispatch is a direct Go type switch on each node's concrete type, not
// the double-dispatch Accept(Visitor) pattern the teacher's own analyzer
// uses for its tree — see DESIGN.md and spec.md §9's redesign note. The
// walker terminology and the practice of accumulating diagnostics on a
// struct rather than returning an error from every visit method are kept
// from the teacher (internal/analyzer/analyzer.go's walker).
package checker

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/pos"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/types"
)

// Checker holds the state local to one compilation's checking pass: the
// symbol table it resolves identifiers against, and the sink it reports
// diagnostics to. It never aborts a traversal; nodes it cannot type are
// typed Error so downstream checking silently absorbs them (spec.md §4.3,
// "Failure policy").
type Checker struct {
	table *symbols.SymbolTable
	sink  *diagnostics.Sink
}

// New returns a Checker over an already-populated table (predefined types,
// operators, and every user declaration — spec.md §6 "Inputs").
func New(table *symbols.SymbolTable, sink *diagnostics.Sink) *Checker {
	return &Checker{table: table, sink: sink}
}

// CheckProgram checks the outermost block, treated as the procedure at
// static level 1 (spec.md §4.3, "Program"). The caller is expected to have
// left the table's current scope positioned at prog.Body.Scope, exactly as
// symbols.New() does for a freshly built table.
func (c *Checker) CheckProgram(prog *ast.Program) {
	c.table.ResolveScope()
	c.checkBlock(prog.Body)
}

// checkBlock checks a block's nested procedures, in declaration order,
// then its statement list (spec.md §4.3, "Block").
func (c *Checker) checkBlock(block *ast.Block) {
	for _, pd := range block.Procedures {
		c.checkProcedure(pd)
	}
	c.checkStatements(block.Statements)
}

// checkProcedure re-enters the procedure's local scope (created while the
// tree was built), resolves it, checks its body, then leaves the scope
// (spec.md §4.3, "Procedure").
func (c *Checker) checkProcedure(pd *ast.ProcedureDecl) {
	c.table.ReenterScope(pd.Scope)
	c.table.ResolveScope()
	c.checkBlock(pd.Body)
	c.table.LeaveScope()
}

func (c *Checker) checkStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		c.checkStatement(s)
	}
}

func (c *Checker) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		c.checkAssignment(s)
	case *ast.Write:
		c.checkWrite(s)
	case *ast.Read:
		c.checkRead(s)
	case *ast.Call:
		c.checkCall(s)
	case *ast.If:
		c.checkIf(s)
	case *ast.While:
		c.checkWhile(s)
	case *ast.Case:
		c.checkCase(s)
	default:
		panic(fmt.Sprintf("checker: unhandled statement %T", stmt))
	}
}

// checkAssignment implements spec.md §4.3's "Assignment" (including the
// multi-assignment reconciliation of §9 Open Question 1): every
// target/source pair is checked and coerced independently, left to right.
// A target whose type is not Reference(T) (and not itself Error) is
// reported as "variable expected"; its paired source is left unchecked
// against it since there is no T to coerce to.
func (c *Checker) checkAssignment(a *ast.Assignment) {
	for i := range a.Targets {
		a.Targets[i] = c.checkExpression(a.Targets[i])
		a.Sources[i] = c.checkExpression(a.Sources[i])

		ref, ok := a.Targets[i].Type().(types.Reference)
		if !ok {
			if !types.IsError(a.Targets[i].Type()) {
				c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotAnLValue, a.Targets[i].Pos(), a.Targets[i].Type().String())
			}
			continue
		}
		a.Sources[i] = c.coerceExpOrError(ref.Inner, a.Sources[i])
	}
}

func (c *Checker) checkWrite(s *ast.Write) {
	s.Expr = c.checkExpression(s.Expr)
	s.Expr = c.coerceWithCode(types.Int, s.Expr, diagnostics.ErrWriteNotInteger, func(t types.Type) []interface{} {
		return []interface{}{t.String()}
	})
}

// checkRead mirrors the assignment target rule: the target must be an
// L-value, and since the VM's Read instruction yields a single integer
// word, its base type must be Int.
func (c *Checker) checkRead(s *ast.Read) {
	s.Target = c.checkExpression(s.Target)
	ref, ok := s.Target.Type().(types.Reference)
	if !ok {
		if !types.IsError(s.Target.Type()) {
			c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotAnLValue, s.Target.Pos(), s.Target.Type().String())
		}
		return
	}
	if !types.IsError(ref.Inner) && !ref.Inner.Equal(types.Int) {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrReadNotInteger, s.Target.Pos(), ref.Inner.String())
	}
}

// checkCall implements spec.md §4.3's "Call": a name that doesn't resolve
// to a Procedure entry is reported and the node is left with no Resolved
// symbol, so the generator (which must never run once diagnostics have
// been reported) never has to handle it.
func (c *Checker) checkCall(s *ast.Call) {
	sym, ok := c.table.Lookup(s.Name)
	if !ok {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrUndeclaredIdentifier, s.Pos(), s.Name)
		return
	}
	if sym.Kind != symbols.KindProcedure {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrProcedureRequired, s.Pos(), sym.Kind.String(), s.Name)
		return
	}
	s.Resolved = sym
}

func (c *Checker) checkIf(s *ast.If) {
	s.Cond = c.checkExpression(s.Cond)
	s.Cond = c.coerceWithCode(types.Bool, s.Cond, diagnostics.ErrConditionNotBoolean, func(t types.Type) []interface{} {
		return []interface{}{t.String()}
	})
	c.checkStatements(s.Then)
	if s.Else != nil {
		c.checkStatements(s.Else)
	}
}

func (c *Checker) checkWhile(s *ast.While) {
	s.Cond = c.checkExpression(s.Cond)
	s.Cond = c.coerceWithCode(types.Bool, s.Cond, diagnostics.ErrConditionNotBoolean, func(t types.Type) []interface{} {
		return []interface{}{t.String()}
	})
	c.checkStatements(s.Body)
}

// checkCase checks the scrutinee (coerced to Int) and every branch's body,
// including the default if declared. Label uniqueness and the jump-table
// lowering itself are the generator's concern (internal/codegen), not the
// checker's.
func (c *Checker) checkCase(s *ast.Case) {
	s.Scrutinee = c.checkExpression(s.Scrutinee)
	s.Scrutinee = c.coerceWithCode(types.Int, s.Scrutinee, diagnostics.ErrIncompatibleTypes, func(t types.Type) []interface{} {
		return []interface{}{t.String(), types.Int.String()}
	})
	for i := range s.Branches {
		c.checkStatements(s.Branches[i].Body)
	}
	if s.Default != nil {
		c.checkStatements(s.Default)
	}
}

// checkExpression dispatches on the expression's concrete node kind and
// returns its (possibly replaced) transformed form. No IdentifierNode
// survives this function (spec.md §3, §8): every Identifier is rewritten
// to a ConstNode, VariableNode, or ErrorExpNode.
func (c *Checker) checkExpression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.Identifier:
		return c.checkIdentifier(e)
	case *ast.IntLiteral:
		e.SetType(types.Int)
		return e
	case *ast.BoolLiteral:
		e.SetType(types.Bool)
		return e
	case *ast.ConstNode, *ast.VariableNode, *ast.ErrorExpNode:
		// Already resolved by an earlier pass over this same node (or built
		// directly by a test fixture); revisiting is a no-op.
		return e
	case *ast.ArgumentsNode:
		return c.checkArguments(e)
	case *ast.OperatorNode:
		return c.checkOperator(e)
	case *ast.Dereference:
		return c.checkDereference(e)
	case *ast.FieldAccess:
		return c.checkFieldAccess(e)
	case *ast.PointerDereference:
		return c.checkPointerDereference(e)
	case *ast.New:
		return c.checkNew(e)
	case *ast.RecordConstructor:
		return c.checkRecordConstructor(e)
	case *ast.NarrowSubrange, *ast.WidenSubrange:
		// Already inserted by this checker during an earlier coercion;
		// revisiting is a no-op (spec.md §4.3).
		return e
	default:
		panic(fmt.Sprintf("checker: unhandled expression %T", expr))
	}
}

// checkIdentifier implements spec.md §4.3's "Identifier expression".
func (c *Checker) checkIdentifier(id *ast.Identifier) ast.Expression {
	sym, ok := c.table.Lookup(id.Name)
	if !ok {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrUndeclaredIdentifier, id.Pos(), id.Name)
		return errorExp(id.Pos())
	}
	switch sym.Kind {
	case symbols.KindConstant:
		n := &ast.ConstNode{Value: sym.Value}
		n.Position = id.Pos()
		n.SetType(sym.Type)
		return n
	case symbols.KindVariable:
		n := &ast.VariableNode{Symbol: sym}
		n.Position = id.Pos()
		n.SetType(types.Reference{Inner: sym.Type})
		return n
	default:
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrConstantOrVariableNeeded, id.Pos(), sym.Kind.String(), id.Name)
		return errorExp(id.Pos())
	}
}

// checkArguments implements spec.md §4.3's "Arguments".
func (c *Checker) checkArguments(e *ast.ArgumentsNode) ast.Expression {
	for i, el := range e.Elements {
		e.Elements[i] = c.checkExpression(el)
	}
	e.SetType(types.Product{Elements: elementTypesOf(e.Elements)})
	return e
}

// checkOperator implements spec.md §4.1 and §4.3's "Operator": arguments
// are checked first, the operator name is looked up in the (separate)
// operator namespace, and the monomorphic or overloaded match is selected.
//
// A plain Function signature's argument is coerced with the full coercion
// lattice (narrow included — there is only one candidate, so narrowing it
// in creates no ambiguity). An Intersection's members are each probed with
// CoerceToType (narrow excluded) per spec.md §4.1, so that a narrow
// conversion never makes two members both "match" depending only on
// declaration order; the first member whose every argument coerces this
// way wins.
func (c *Checker) checkOperator(op *ast.OperatorNode) ast.Expression {
	op.Args = c.checkArguments(op.Args).(*ast.ArgumentsNode)

	sym, ok := c.table.LookupOperator(op.Name)
	if !ok {
		c.sink.Fatal(diagnostics.PhaseChecker, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
		return op
	}

	switch t := sym.Type.(type) {
	case types.Function:
		prod, ok := t.Arg.(types.Product)
		if !ok {
			c.sink.Fatal(diagnostics.PhaseChecker, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
			return op
		}
		coerced, ok := c.coerceArgs(prod, op.Args, true)
		if !ok {
			c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNoMatchingOperator, op.Pos(), op.Name, op.Args.Type().String())
			op.SetType(types.Error{})
			return op
		}
		op.Args = coerced
		op.Resolved = sym
		op.SetType(t.Result)
		return op

	case types.Intersection:
		for _, member := range t.Members {
			prod, ok := member.Arg.(types.Product)
			if !ok {
				continue
			}
			coerced, ok := c.coerceArgs(prod, op.Args, false)
			if !ok {
				continue
			}
			op.Args = coerced
			op.Resolved = symbols.NewOperator(op.Name, member)
			op.SetType(member.Result)
			return op
		}
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNoMatchingOperator, op.Pos(), op.Name, op.Args.Type().String())
		op.SetType(types.Error{})
		return op

	default:
		c.sink.Fatal(diagnostics.PhaseChecker, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
		return op
	}
}

// coerceArgs tries to coerce every element of args to the corresponding
// element of target, failing as soon as one element or the arity doesn't
// match. It never reports a diagnostic itself: a failed probe against one
// intersection member must let the caller try the next member silently.
func (c *Checker) coerceArgs(target types.Product, args *ast.ArgumentsNode, allowNarrow bool) (*ast.ArgumentsNode, bool) {
	if len(target.Elements) != len(args.Elements) {
		return nil, false
	}
	newElems := make([]ast.Expression, len(args.Elements))
	for i, el := range args.Elements {
		coerced, ok := c.tryCoerce(target.Elements[i], el, allowNarrow)
		if !ok {
			return nil, false
		}
		newElems[i] = coerced
	}
	out := &ast.ArgumentsNode{Elements: newElems}
	out.Position = args.Pos()
	out.SetType(types.Product{Elements: elementTypesOf(newElems)})
	return out, true
}

// checkDereference handles a Dereference node already present in the tree
// (spec.md §4.3, "Dereference"): the common case is that this checker
// inserted it itself via coercion, in which case its type is already set
// and revisiting recomputes the identical result.
func (c *Checker) checkDereference(e *ast.Dereference) ast.Expression {
	e.Inner = c.checkExpression(e.Inner)
	ref, ok := e.Inner.Type().(types.Reference)
	if !ok {
		if !types.IsError(e.Inner.Type()) {
			c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotAnLValue, e.Pos(), e.Inner.Type().String())
		}
		e.SetType(types.Error{})
		return e
	}
	e.SetType(ref.Inner)
	return e
}

// checkFieldAccess implements spec.md §4.3's "FieldAccess": the access
// itself is an L-value, so its type is Reference(fieldType).
func (c *Checker) checkFieldAccess(e *ast.FieldAccess) ast.Expression {
	e.Inner = c.checkExpression(e.Inner)
	rec, ok := types.AsRecord(e.Inner.Type())
	if !ok {
		if !types.IsError(e.Inner.Type()) {
			c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotARecord, e.Pos(), e.Inner.Type().String())
		}
		e.SetType(types.Error{})
		return e
	}
	idx := rec.FieldIndex(e.FieldName)
	if idx < 0 {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrFieldNotInRecord, e.Pos(), rec.String(), e.FieldName)
		e.SetType(types.Error{})
		return e
	}
	e.FieldIndex = idx
	e.SetType(types.Reference{Inner: rec.Fields[idx].Type})
	return e
}

// checkPointerDereference implements spec.md §4.3's "PointerDereference":
// following a pointer L-value yields an L-value of the pointee's type. The
// generator's compileAddress reads this node's Inner as a plain pointer
// *value* (the pointer's value is already the pointee's frame address — see
// internal/codegen's compileNew), so a pointer held in a variable is
// dereferenced here, same as any other value-position use of an L-value.
func (c *Checker) checkPointerDereference(e *ast.PointerDereference) ast.Expression {
	e.Inner = c.checkExpression(e.Inner)
	ptr, ok := types.AsPointer(e.Inner.Type())
	if !ok {
		if !types.IsError(e.Inner.Type()) {
			c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotAPointer, e.Pos(), e.Inner.Type().String())
		}
		e.SetType(types.Error{})
		return e
	}
	if coerced, ok := c.tryCoerce(ptr, e.Inner, true); ok {
		e.Inner = coerced
	}
	e.SetType(types.Reference{Inner: ptr.Inner})
	return e
}

// checkNew implements spec.md §4.3's "New": a value (not an L-value) of
// pointer type, named by the identifier to its right.
func (c *Checker) checkNew(e *ast.New) ast.Expression {
	sym, ok := c.table.LookupType(e.TypeName)
	if !ok {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrUnknownTypeName, e.Pos(), e.TypeName)
		e.SetType(types.Error{})
		return e
	}
	e.SetType(types.Pointer{Inner: sym.Type})
	return e
}

// checkRecordConstructor implements spec.md §4.3's "RecordConstructor",
// enforcing the arity check spec.md §9 Open Question 2 requires.
func (c *Checker) checkRecordConstructor(e *ast.RecordConstructor) ast.Expression {
	for i, f := range e.Fields {
		e.Fields[i] = c.checkExpression(f)
	}

	sym, ok := c.table.LookupType(e.TypeName)
	if !ok {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrUnknownTypeName, e.Pos(), e.TypeName)
		e.SetType(types.Error{})
		return e
	}
	rec, ok := sym.Type.(types.Record)
	if !ok {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrNotARecord, e.Pos(), sym.Type.String())
		e.SetType(types.Error{})
		return e
	}
	if len(e.Fields) != len(rec.Fields) {
		c.sink.Error(diagnostics.PhaseChecker, diagnostics.ErrRecordConstructorArity, e.Pos(), rec.String(), len(rec.Fields), len(e.Fields))
		e.SetType(types.Error{})
		return e
	}

	for i := range e.Fields {
		fieldType := rec.Fields[i].Type
		e.Fields[i] = c.coerceWithCode(fieldType, e.Fields[i], diagnostics.ErrIncompatibleTypes, func(t types.Type) []interface{} {
			return []interface{}{t.String(), fieldType.String()}
		})
	}
	e.SetType(rec)
	return e
}

// tryCoerce inserts the minimal coercion chain (internal/types.Plan) to
// turn e into one of type target, returning ok=false (and reporting
// nothing) when no chain exists — the caller decides whether that failure
// is fatal to the surrounding construct or just one rejected candidate.
// Error sources and Error targets always succeed, per spec.md §4.1, so
// that a node already typed Error never produces a second diagnostic.
func (c *Checker) tryCoerce(target types.Type, e ast.Expression, allowNarrow bool) (ast.Expression, bool) {
	if types.IsError(target) || types.IsError(e.Type()) {
		return e, true
	}

	steps, ok := types.Plan(target, e.Type(), allowNarrow)
	if !ok {
		return nil, false
	}

	cur := e
	curType := e.Type()
	for _, step := range steps {
		switch step.Kind {
		case types.StepDereference:
			ref := curType.(types.Reference)
			n := &ast.Dereference{Inner: cur}
			n.Position = cur.Pos()
			n.SetType(ref.Inner)
			cur, curType = n, ref.Inner
		case types.StepWidenSubrange:
			n := &ast.WidenSubrange{Inner: cur}
			n.Position = cur.Pos()
			n.SetType(step.Subrange.Base)
			cur, curType = n, step.Subrange.Base
		case types.StepNarrowSubrange:
			n := &ast.NarrowSubrange{Inner: cur, Lo: step.Subrange.Lo, Hi: step.Subrange.Hi}
			n.Position = cur.Pos()
			n.SetType(step.Subrange)
			cur, curType = n, step.Subrange
		}
	}
	return cur, true
}

// coerceExpOrError is coerceExp (spec.md §4.1): it allows narrowing and
// reports a generic IncompatibleTypes diagnostic on failure.
func (c *Checker) coerceExpOrError(target types.Type, e ast.Expression) ast.Expression {
	return c.coerceWithCode(target, e, diagnostics.ErrIncompatibleTypes, func(actual types.Type) []interface{} {
		return []interface{}{actual.String(), target.String()}
	})
}

// coerceWithCode is coerceExpOrError generalized to a caller-chosen
// diagnostic (spec.md §7 distinguishes "non-integer to Write",
// "non-boolean condition", and a generic incompatible-types error, though
// all three are the same underlying coercion failure).
func (c *Checker) coerceWithCode(target types.Type, e ast.Expression, code diagnostics.ErrorCode, args func(types.Type) []interface{}) ast.Expression {
	coerced, ok := c.tryCoerce(target, e, true)
	if ok {
		return coerced
	}
	if !types.IsError(e.Type()) {
		c.sink.Error(diagnostics.PhaseChecker, code, e.Pos(), args(e.Type())...)
	}
	return errorExp(e.Pos())
}

func errorExp(p pos.Position) ast.Expression {
	n := &ast.ErrorExpNode{}
	n.Position = p
	n.SetType(types.Error{})
	return n
}

func elementTypesOf(elems []ast.Expression) []types.Type {
	out := make([]types.Type, len(elems))
	for i, e := range elems {
		out[i] = e.Type()
	}
	return out
}

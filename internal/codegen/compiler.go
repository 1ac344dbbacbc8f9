package codegen

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/types"
)

// Compiler walks a checked AST (every Expression already carries a non-nil
// Type, every Identifier already rewritten — spec.md §4.3) and emits
// stack-machine instructions into a Procedures table, addressed by static
// level and frame offset (spec.md §4.4, §4.5).
//
// Grounded on the teacher's internal/vm: Chunk-building shape of
// internal/vm/chunk.go and the emit-as-you-walk structure of
// internal/vm/compiler.go, adapted from its Accept(Visitor) double dispatch
// to a direct type switch (spec.md §9 design note).
type Compiler struct {
	table *symbols.SymbolTable
	sink  *diagnostics.Sink
	procs *Procedures
}

// NewCompiler returns a Compiler that will emit into a fresh Procedures
// table.
func NewCompiler(table *symbols.SymbolTable, sink *diagnostics.Sink) *Compiler {
	return &Compiler{table: table, sink: sink, procs: NewProcedures()}
}

// blockCtx carries the state that is local to one procedure body's
// compilation: its static level (for static-link depth arithmetic) and a
// bump allocator for New() call sites, which reserve extra frame cells past
// the block's declared VariableSpace (see compileNew).
type blockCtx struct {
	level    int
	varSpace int
	extra    int
}

// CompileProgram compiles the outermost block as procedure 0 ("program")
// and every procedure nested anywhere inside it, returning the completed
// table.
func (c *Compiler) CompileProgram(prog *ast.Program) *Procedures {
	c.compileProcedureBody("program", prog.Body.Scope, prog.Body)
	return c.procs
}

// compileProcedureBody reserves scopeRef's table slot unless its enclosing
// block already did, reserves the slots of every procedure declared in
// block before compiling any of them (so a call to one from within its own
// body, or from any sibling in the same block, resolves), compiles its
// block, and fills the slot in.
func (c *Compiler) compileProcedureBody(name string, scopeRef symbols.ScopeRef, block *ast.Block) int {
	scope := c.table.ScopeOf(scopeRef)
	level := c.table.ScopeLevel(scopeRef)
	idx, reserved := c.procs.IndexOf(scope)
	if !reserved {
		idx = c.procs.Reserve(scope, name, level)
	}

	ctx := &blockCtx{level: level, varSpace: c.table.ScopeVariableSpace(scopeRef)}

	for _, pd := range block.Procedures {
		c.procs.Reserve(c.table.ScopeOf(pd.Scope), pd.Name, c.table.ScopeLevel(pd.Scope))
	}
	for _, pd := range block.Procedures {
		c.compileProcedureBody(pd.Name, pd.Scope, pd.Body)
	}

	body := NewCode()
	for _, stmt := range block.Statements {
		body.Append(c.compileStmt(ctx, stmt))
	}
	body.Emit(OpReturn)

	full := NewCode()
	full.EmitAllocStack(ctx.varSpace + ctx.extra)
	full.Append(body)

	c.procs.Fill(idx, full, ctx.varSpace+ctx.extra)
	return idx
}

func (c *Compiler) compileStatements(ctx *blockCtx, stmts []ast.Statement) *Code {
	code := NewCode()
	for _, s := range stmts {
		code.Append(c.compileStmt(ctx, s))
	}
	return code
}

func (c *Compiler) compileStmt(ctx *blockCtx, stmt ast.Statement) *Code {
	switch s := stmt.(type) {
	case *ast.Assignment:
		return c.compileAssignment(ctx, s)
	case *ast.Write:
		code := NewCode()
		code.Append(c.compileValue(ctx, s.Expr))
		code.Emit(OpWrite)
		return code
	case *ast.Read:
		code := NewCode()
		code.Append(c.compileAddress(ctx, s.Target))
		code.Emit(OpRead)
		return code
	case *ast.Call:
		return c.compileCall(ctx, s)
	case *ast.If:
		return c.compileIf(ctx, s)
	case *ast.While:
		return c.compileWhile(ctx, s)
	case *ast.Case:
		return c.compileCase(ctx, s)
	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", stmt))
	}
}

// compileAssignment evaluates every source left to right, leaving their
// values on the stack in that order, then stores them right to left: the
// rightmost source is on top of the stack and pairs with the rightmost
// target (ast.Assignment's documented evaluation order).
func (c *Compiler) compileAssignment(ctx *blockCtx, a *ast.Assignment) *Code {
	code := NewCode()
	for _, src := range a.Sources {
		code.Append(c.compileValue(ctx, src))
	}
	for i := len(a.Targets) - 1; i >= 0; i-- {
		code.Append(c.compileAddress(ctx, a.Targets[i]))
		code.EmitStore(types.SizeOf(types.OptDereferenceType(a.Targets[i].Type())))
	}
	return code
}

// compileCall emits a Call whose depth operand walks the caller's own
// static chain up to the frame that lexically encloses the callee —
// s.Resolved.Level-1, since a Procedure symbol's Level is its own body
// level, one deeper than its declaring scope. This disagrees with
// spec.md §8 scenario 4's illustrative depths for both a self-call and a
// call to an outer procedure; see DESIGN.md Open Question 4 for why this
// formula, not that one, is the one that keeps static links correct, and
// TestSelfRecursiveCallUsesStaticLinkDepthOne /
// TestInnermostCallToOutermostProcedureUsesStaticLinkDepth for the pinned
// values.
func (c *Compiler) compileCall(ctx *blockCtx, s *ast.Call) *Code {
	scope := s.Resolved.Local
	idx, ok := c.procs.IndexOf(scope)
	if !ok {
		panic(fmt.Sprintf("codegen: call to %q resolved before its procedure was compiled", s.Name))
	}
	depth := ctx.level - (s.Resolved.Level - 1)
	code := NewCode()
	code.EmitCall(depth, idx)
	return code
}

func (c *Compiler) compileIf(ctx *blockCtx, s *ast.If) *Code {
	cond := c.compileValue(ctx, s.Cond)
	thenCode := c.compileStatements(ctx, s.Then)

	code := NewCode()
	code.Append(cond)
	if s.Else == nil {
		code.EmitJumpIfFalse(thenCode.Len())
		code.Append(thenCode)
		return code
	}

	elseCode := c.compileStatements(ctx, s.Else)
	code.EmitJumpIfFalse(thenCode.Len() + SizeJumpAlways)
	code.Append(thenCode)
	code.EmitJumpAlways(elseCode.Len())
	code.Append(elseCode)
	return code
}

func (c *Compiler) compileWhile(ctx *blockCtx, s *ast.While) *Code {
	cond := c.compileValue(ctx, s.Cond)
	body := c.compileStatements(ctx, s.Body)

	code := NewCode()
	code.Append(cond)
	code.EmitJumpIfFalse(body.Len() + SizeJumpAlways)
	code.Append(body)
	backOffset := -(cond.Len() + InstrSize(OpJumpIfFalse) + body.Len() + SizeJumpAlways)
	code.EmitJumpAlways(backOffset)
	return code
}

// compileAddress compiles an L-value expression — one whose static Type is
// Reference(T) — to code that leaves its frame address on the stack.
func (c *Compiler) compileAddress(ctx *blockCtx, expr ast.Expression) *Code {
	switch e := expr.(type) {
	case *ast.VariableNode:
		depth := ctx.level - e.Symbol.Level
		code := NewCode()
		code.EmitMemRef(depth, e.Symbol.Offset)
		return code
	case *ast.FieldAccess:
		rec, ok := types.AsRecord(e.Inner.Type())
		if !ok {
			panic(fmt.Sprintf("codegen: field access on non-record type %s", e.Inner.Type()))
		}
		offset := 0
		for i := 0; i < e.FieldIndex; i++ {
			offset += types.SizeOf(rec.Fields[i].Type)
		}
		code := NewCode()
		code.Append(c.compileAddress(ctx, e.Inner))
		if offset != 0 {
			code.EmitConstant(offset)
			code.Emit(OpAdd)
		}
		return code
	case *ast.PointerDereference:
		// The pointer's own value already is the pointee's frame address
		// (see compileNew): no extra instruction is needed to follow it.
		return c.compileValue(ctx, e.Inner)
	default:
		panic(fmt.Sprintf("codegen: %T is not an addressable expression", expr))
	}
}

// compileValue compiles a value-producing expression to code that leaves
// its value (one or more words, per types.SizeOf) on the stack.
func (c *Compiler) compileValue(ctx *blockCtx, expr ast.Expression) *Code {
	switch e := expr.(type) {
	case *ast.ConstNode:
		code := NewCode()
		code.EmitConstant(e.Value)
		return code
	case *ast.IntLiteral:
		code := NewCode()
		code.EmitConstant(e.Value)
		return code
	case *ast.BoolLiteral:
		code := NewCode()
		if e.Value {
			code.EmitConstant(1)
		} else {
			code.EmitConstant(0)
		}
		return code
	case *ast.Dereference:
		code := NewCode()
		code.Append(c.compileAddress(ctx, e.Inner))
		code.EmitLoad(types.SizeOf(e.Type()))
		return code
	case *ast.OperatorNode:
		return c.compileOperator(ctx, e)
	case *ast.New:
		return c.compileNew(ctx, e)
	case *ast.RecordConstructor:
		code := NewCode()
		for _, f := range e.Fields {
			code.Append(c.compileValue(ctx, f))
		}
		return code
	case *ast.NarrowSubrange:
		code := NewCode()
		code.Append(c.compileValue(ctx, e.Inner))
		code.EmitBoundsCheck(e.Lo, e.Hi)
		return code
	case *ast.WidenSubrange:
		return c.compileValue(ctx, e.Inner)
	case *ast.ErrorExpNode:
		c.sink.Fatal(diagnostics.PhaseCodegen, diagnostics.ErrInternalCodegenOnError, e.Pos(), "ErrorExpNode")
		return nil
	default:
		panic(fmt.Sprintf("codegen: %T is not a value-producing expression", expr))
	}
}

// compileNew allocates a fresh cell for the pointee within the current
// block's own frame, past its declared variables, and yields a pointer
// value that is simply that cell's frame address. The closed instruction
// set has no heap or allocator opcode, so this core gives every New() call
// site its own statically reserved cell — precisely the stack-discipline
// pointer model spec.md §3's Pointer type requires, without inventing an
// instruction spec.md §6 does not list.
func (c *Compiler) compileNew(ctx *blockCtx, e *ast.New) *Code {
	pt, ok := types.AsPointer(e.Type())
	if !ok {
		panic(fmt.Sprintf("codegen: New has non-pointer type %s", e.Type()))
	}
	size := types.SizeOf(pt.Inner)
	offset := ctx.varSpace + ctx.extra
	ctx.extra += size

	code := NewCode()
	code.EmitMemRef(0, offset)
	return code
}

// compileOperator emits an argument's worth of pushed values followed by
// the opcode sequence that realizes the named operator. The closed opcode
// set has no subtraction, inequality, reverse-comparison, or boolean "or"
// instruction, so those are synthesized from Add/Negate, Equal, Swap, and
// And (spec.md §6's instruction set plus De Morgan's law for "or").
func (c *Compiler) compileOperator(ctx *blockCtx, op *ast.OperatorNode) *Code {
	code := NewCode()
	for _, a := range op.Args.Elements {
		code.Append(c.compileValue(ctx, a))
	}

	switch len(op.Args.Elements) {
	case 1:
		switch op.Name {
		case "-":
			code.Emit(OpNegate)
		case "not":
			code.Emit(OpZero)
			code.Emit(OpEqual)
		default:
			c.sink.Fatal(diagnostics.PhaseCodegen, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
		}
	case 2:
		switch op.Name {
		case "+":
			code.Emit(OpAdd)
		case "-":
			code.Emit(OpNegate)
			code.Emit(OpAdd)
		case "*":
			code.Emit(OpMpy)
		case "/":
			code.Emit(OpDiv)
		case "=":
			code.Emit(OpEqual)
		case "<>":
			code.Emit(OpEqual)
			code.Emit(OpZero)
			code.Emit(OpEqual)
		case "<":
			code.Emit(OpLess)
		case "<=":
			code.Emit(OpLessEq)
		case ">":
			code.Emit(OpSwap)
			code.Emit(OpLess)
		case ">=":
			code.Emit(OpSwap)
			code.Emit(OpLessEq)
		case "and":
			code.Emit(OpAnd)
		case "or":
			// a or b == not(not a and not b).
			code.Emit(OpZero)
			code.Emit(OpEqual) // not b
			code.Emit(OpSwap)
			code.Emit(OpZero)
			code.Emit(OpEqual) // not a
			code.Emit(OpAnd)
			code.Emit(OpZero)
			code.Emit(OpEqual)
		default:
			c.sink.Fatal(diagnostics.PhaseCodegen, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
		}
	default:
		c.sink.Fatal(diagnostics.PhaseCodegen, diagnostics.ErrInternalUnknownOperator, op.Pos(), op.Name)
	}
	return code
}

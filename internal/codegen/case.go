package codegen

import (
	"sort"

	"github.com/funvibe/funxy/internal/ast"
)

// compileCase lowers a Case statement into the three regions spec.md §4.4
// describes: an entry that range-checks the scrutinee and computes a jump
// index, a jump table of one unconditional jump per label in the branches'
// contiguous [lo, hi] range (a gap jumps straight to the default), and the
// branches region itself, each branch falling through to a trailing jump
// past the rest of the case statement. Every region's size only depends on
// regions built before it, so offsets are computed directly rather than
// patched after the fact — the same approach the rest of this package uses
// for If and While.
func (c *Compiler) compileCase(ctx *blockCtx, s *ast.Case) *Code {
	branches := append([]ast.CaseBranch(nil), s.Branches...)
	sort.Slice(branches, func(i, j int) bool { return branches[i].Label < branches[j].Label })

	// No branches: range = max-min is negative, so spec.md §4.4 step 1 calls
	// for no entry, table, or range check at all. PL0 expressions have no
	// side effects (scrutinee is built from constants, variables, and pure
	// operators only — there are no call expressions), so it is never
	// evaluated; every scrutinee value falls straight to the default / trap.
	if len(branches) == 0 {
		code := NewCode()
		if s.Default != nil {
			code.Append(c.compileStatements(ctx, s.Default))
		} else {
			code.EmitConstant(CaseLabelMissing)
			code.Emit(OpStop)
		}
		return code
	}

	lo, hi := branches[0].Label, branches[len(branches)-1].Label
	byLabel := make(map[int]int, len(branches)) // label -> index into branches
	for i, b := range branches {
		byLabel[b.Label] = i
	}

	bodies := make([]*Code, len(branches))
	for i, b := range branches {
		bodies[i] = c.compileStatements(ctx, b.Body)
	}

	var defaultCode *Code
	if s.Default != nil {
		defaultCode = c.compileStatements(ctx, s.Default)
	} else {
		defaultCode = NewCode()
		defaultCode.EmitConstant(CaseLabelMissing)
		defaultCode.Emit(OpStop)
	}

	// branchStart[i] is bodies[i]'s offset from the start of the branches
	// region; branchesLen is the region's total size, which is also the
	// default region's offset from that same start.
	branchStart := make([]int, len(branches))
	offset := 0
	for i, body := range bodies {
		branchStart[i] = offset
		offset += body.Len() + SizeJumpAlways
	}
	branchesLen := offset

	tempOffset := ctx.varSpace + ctx.extra
	ctx.extra++

	entry := NewCode()
	entry.Append(c.compileValue(ctx, s.Scrutinee))
	entry.EmitMemRef(0, tempOffset)
	entry.EmitStore(1)

	entry.EmitMemRef(0, tempOffset)
	entry.EmitLoad(1)
	entry.EmitConstant(lo)
	entry.Emit(OpSwap)
	entry.Emit(OpLessEq) // lo <= v

	entry.EmitMemRef(0, tempOffset)
	entry.EmitLoad(1)
	entry.EmitConstant(hi)
	entry.Emit(OpLessEq) // v <= hi

	entry.Emit(OpAnd)

	dispatch := NewCode()
	dispatch.EmitMemRef(0, tempOffset)
	dispatch.EmitLoad(1)
	dispatch.EmitConstant(lo)
	dispatch.Emit(OpNegate)
	dispatch.Emit(OpAdd) // v - lo
	dispatch.EmitConstant(SizeJumpAlways)
	dispatch.Emit(OpMpy)
	dispatch.Emit(OpBr)

	slots := hi - lo + 1
	tableLen := slots * SizeJumpAlways
	skipToDefault := dispatch.Len() + tableLen + branchesLen
	entry.EmitJumpIfFalse(skipToDefault)

	table := NewCode()
	for s := 0; s < slots; s++ {
		remainingTable := tableLen - (s+1)*SizeJumpAlways
		if i, ok := byLabel[lo+s]; ok {
			table.EmitJumpAlways(remainingTable + branchStart[i])
		} else {
			table.EmitJumpAlways(remainingTable + branchesLen)
		}
	}

	// afterCase is measured from the end of each branch's own trailing
	// JumpAlways, which sits branchStart[i]+body.Len() words into the
	// branches region; the case statement's end is defaultCode.Len() words
	// past the end of the branches region.
	branchesRegion := NewCode()
	for i, body := range bodies {
		branchesRegion.Append(body)
		afterThisJump := (branchesLen - (branchStart[i] + body.Len() + SizeJumpAlways)) + defaultCode.Len()
		branchesRegion.EmitJumpAlways(afterThisJump)
	}

	code := NewCode()
	code.Append(entry)
	code.Append(dispatch)
	code.Append(table)
	code.Append(branchesRegion)
	code.Append(defaultCode)
	return code
}

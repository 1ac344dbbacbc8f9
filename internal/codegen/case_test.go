package codegen

import (
	"testing"

	"github.com/funvibe/funxy/internal/ast"
)

func caseProgram(t *testing.T, scrutinee int) []int {
	t.Helper()
	caseStmt := &ast.Case{
		Scrutinee: constExpr(scrutinee),
		Branches: []ast.CaseBranch{
			{Label: 1, Body: []ast.Statement{writeStmt(10)}},
			// label 2 is a deliberate gap between 1 and 3.
			{Label: 3, Body: []ast.Statement{writeStmt(30)}},
		},
		Default: []ast.Statement{writeStmt(99)},
	}
	return compileProgram(t, []ast.Statement{caseStmt, writeStmt(-1)})
}

func TestCaseDispatchesToMatchingBranch(t *testing.T) {
	out := runFlatVM(t, caseProgram(t, 1))
	if len(out) != 2 || out[0] != 10 || out[1] != -1 {
		t.Fatalf("label 1 should reach its branch then fall through, got %v", out)
	}

	out = runFlatVM(t, caseProgram(t, 3))
	if len(out) != 2 || out[0] != 30 || out[1] != -1 {
		t.Fatalf("label 3 should reach its branch then fall through, got %v", out)
	}
}

func TestCaseGapInLabelRangeFallsToDefault(t *testing.T) {
	out := runFlatVM(t, caseProgram(t, 2))
	if len(out) != 2 || out[0] != 99 || out[1] != -1 {
		t.Fatalf("a gap label should reach the default, got %v", out)
	}
}

func TestCaseOutOfRangeFallsToDefault(t *testing.T) {
	for _, v := range []int{0, 4, -5} {
		out := runFlatVM(t, caseProgram(t, v))
		if len(out) != 2 || out[0] != 99 || out[1] != -1 {
			t.Fatalf("scrutinee %d out of [1,3] should reach the default, got %v", v, out)
		}
	}
}

func TestCaseWithNoDefaultTraps(t *testing.T) {
	caseStmt := &ast.Case{
		Scrutinee: constExpr(5),
		Branches: []ast.CaseBranch{
			{Label: 1, Body: []ast.Statement{writeStmt(10)}},
		},
	}
	out := runFlatVM(t, compileProgram(t, []ast.Statement{caseStmt}))
	if len(out) != 0 {
		t.Fatalf("an undeclared-default trap must not reach any Write, got %v", out)
	}
}

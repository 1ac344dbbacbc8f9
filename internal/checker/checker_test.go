package checker

import (
	"testing"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/pos"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/types"
)

func ident(name string) *ast.Identifier {
	return ast.NewIdentifier(pos.Position{Line: 1, Column: 1}, name)
}

func newProgram(body []ast.Statement) (*symbols.SymbolTable, *ast.Program) {
	table := symbols.New()
	scope := table.CurrentScope()
	return table, &ast.Program{Body: &ast.Block{Scope: scope, Statements: body}}
}

func checkProgram(t *testing.T, table *symbols.SymbolTable, prog *ast.Program) *diagnostics.Sink {
	t.Helper()
	sink := diagnostics.NewSilentSink()
	New(table, sink).CheckProgram(prog)
	return sink
}

func TestIdentifierResolvesConstantToConstNode(t *testing.T) {
	table, prog := newProgram([]ast.Statement{
		&ast.Write{Expr: ident("answer")},
	})
	if err := table.Define("answer", symbols.NewConstant("answer", types.Int, 42)); err != nil {
		t.Fatal(err)
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}

	write := prog.Body.Statements[0].(*ast.Write)
	cn, ok := write.Expr.(*ast.ConstNode)
	if !ok {
		t.Fatalf("expected ConstNode, got %T", write.Expr)
	}
	if cn.Value != 42 {
		t.Fatalf("expected value 42, got %d", cn.Value)
	}
	if !cn.Type().Equal(types.Int) {
		t.Fatalf("expected type int, got %s", cn.Type())
	}
}

func TestUndeclaredIdentifierReportsAndYieldsErrorNode(t *testing.T) {
	table, prog := newProgram([]ast.Statement{
		&ast.Write{Expr: ident("nope")},
	})

	sink := checkProgram(t, table, prog)
	if !sink.HasErrors() {
		t.Fatalf("expected an undeclared-identifier diagnostic")
	}
	if sink.Errors()[0].Code != diagnostics.ErrUndeclaredIdentifier {
		t.Fatalf("expected ErrUndeclaredIdentifier, got %s", sink.Errors()[0].Code)
	}

	write := prog.Body.Statements[0].(*ast.Write)
	if !types.IsError(write.Expr.Type()) {
		t.Fatalf("expected the write expression to be typed Error, got %s", write.Expr.Type())
	}
}

func TestAssignmentToNonVariableIsRejected(t *testing.T) {
	table, prog := newProgram([]ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("k")}, Sources: []ast.Expression{ident("k")}},
	})
	if err := table.Define("k", symbols.NewConstant("k", types.Int, 7)); err != nil {
		t.Fatal(err)
	}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrNotAnLValue {
		t.Fatalf("expected a single ErrNotAnLValue diagnostic, got %v", sink.Errors())
	}
}

func TestAssignmentInsertsWidenSubrangeWhenSourceIsNarrower(t *testing.T) {
	digit := types.Subrange{Lo: 0, Hi: 9, Base: types.Int}

	table, prog := newProgram(nil)
	if err := table.Define("x", symbols.NewVariable("x", types.Int, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := table.Define("d", symbols.NewVariable("d", digit, 1, 1)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("x")}, Sources: []ast.Expression{ident("d")}},
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}

	a := prog.Body.Statements[0].(*ast.Assignment)
	widen, ok := a.Sources[0].(*ast.WidenSubrange)
	if !ok {
		t.Fatalf("expected the narrower source to be wrapped in WidenSubrange, got %T", a.Sources[0])
	}
	if _, ok := widen.Inner.(*ast.Dereference); !ok {
		t.Fatalf("expected the variable to be dereferenced before widening, got %T", widen.Inner)
	}
}

func TestAssignmentInsertsNarrowSubrangeWithBounds(t *testing.T) {
	digit := types.Subrange{Lo: 0, Hi: 9, Base: types.Int}

	table, prog := newProgram(nil)
	if err := table.Define("x", symbols.NewVariable("x", types.Int, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := table.Define("d", symbols.NewVariable("d", digit, 1, 1)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("d")}, Sources: []ast.Expression{ident("x")}},
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}

	a := prog.Body.Statements[0].(*ast.Assignment)
	narrow, ok := a.Sources[0].(*ast.NarrowSubrange)
	if !ok {
		t.Fatalf("expected the wider source to be wrapped in NarrowSubrange, got %T", a.Sources[0])
	}
	if narrow.Lo != 0 || narrow.Hi != 9 {
		t.Fatalf("expected bounds 0..9, got %d..%d", narrow.Lo, narrow.Hi)
	}
}

func TestWriteRejectsNonInteger(t *testing.T) {
	table, prog := newProgram(nil)
	if err := table.Define("b", symbols.NewVariable("b", types.Bool, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{&ast.Write{Expr: ident("b")}}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrWriteNotInteger {
		t.Fatalf("expected a single ErrWriteNotInteger diagnostic, got %v", sink.Errors())
	}
}

func TestReadRejectsNonIntegerTarget(t *testing.T) {
	table, prog := newProgram(nil)
	if err := table.Define("b", symbols.NewVariable("b", types.Bool, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{&ast.Read{Target: ident("b")}}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrReadNotInteger {
		t.Fatalf("expected a single ErrReadNotInteger diagnostic, got %v", sink.Errors())
	}
}

func TestIfConditionMustBeBoolean(t *testing.T) {
	table, prog := newProgram(nil)
	if err := table.Define("n", symbols.NewVariable("n", types.Int, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{
		&ast.If{Cond: ident("n"), Then: []ast.Statement{&ast.Write{Expr: ident("n")}}},
	}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrConditionNotBoolean {
		t.Fatalf("expected a single ErrConditionNotBoolean diagnostic, got %v", sink.Errors())
	}
}

func TestCallToNonProcedureIsRejected(t *testing.T) {
	table, prog := newProgram(nil)
	if err := table.Define("n", symbols.NewVariable("n", types.Int, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{&ast.Call{Name: "n"}}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrProcedureRequired {
		t.Fatalf("expected a single ErrProcedureRequired diagnostic, got %v", sink.Errors())
	}
}

func TestCallResolvesProcedureSymbol(t *testing.T) {
	table, prog := newProgram(nil)
	nested := table.EnterScope(2)
	table.LeaveScope()
	procSym := symbols.NewProcedure("inc", table.ScopeOf(nested), 2)
	if err := table.Define("inc", procSym); err != nil {
		t.Fatal(err)
	}

	prog.Body.Procedures = []*ast.ProcedureDecl{
		{Name: "inc", Level: 2, Scope: nested, Body: &ast.Block{Scope: nested}},
	}
	prog.Body.Statements = []ast.Statement{&ast.Call{Name: "inc"}}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}

	call := prog.Body.Statements[0].(*ast.Call)
	if call.Resolved.Kind != symbols.KindProcedure {
		t.Fatalf("expected Resolved to be set to the procedure symbol")
	}
}

func TestOperatorSelectsIntersectionMemberByArgumentType(t *testing.T) {
	table, prog := newProgram(nil)
	table.DefineOperator("eq", symbols.NewOperator("eq", types.Intersection{Members: []types.Function{
		{Arg: types.Product{Elements: []types.Type{types.Int, types.Int}}, Result: types.Bool},
		{Arg: types.Product{Elements: []types.Type{types.Bool, types.Bool}}, Result: types.Bool},
	}}))
	if err := table.Define("p", symbols.NewVariable("p", types.Bool, 1, 0)); err != nil {
		t.Fatal(err)
	}

	op := &ast.OperatorNode{Name: "eq", Args: &ast.ArgumentsNode{Elements: []ast.Expression{ident("p"), &ast.BoolLiteral{Value: true}}}}
	prog.Body.Statements = []ast.Statement{&ast.If{Cond: op}}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}
	if !op.Type().Equal(types.Bool) {
		t.Fatalf("expected the boolean overload's result type, got %s", op.Type())
	}
}

func TestOperatorWithNoMatchingOverloadIsReported(t *testing.T) {
	table, prog := newProgram(nil)
	table.DefineOperator("+", symbols.NewOperator("+", types.Function{
		Arg:    types.Product{Elements: []types.Type{types.Int, types.Int}},
		Result: types.Int,
	}))

	op := &ast.OperatorNode{Name: "+", Args: &ast.ArgumentsNode{Elements: []ast.Expression{
		&ast.BoolLiteral{Value: true}, &ast.BoolLiteral{Value: false},
	}}}
	prog.Body.Statements = []ast.Statement{&ast.Write{Expr: op}}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) == 0 {
		t.Fatalf("expected a no-matching-operator diagnostic")
	}
	found := false
	for _, e := range sink.Errors() {
		if e.Code == diagnostics.ErrNoMatchingOperator {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrNoMatchingOperator among %v", sink.Errors())
	}
}

func TestFieldAccessResolvesIndex(t *testing.T) {
	rec := types.Record{Name: "point", Fields: []types.Field{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int},
	}}
	table, prog := newProgram(nil)
	if err := table.Define("p", symbols.NewVariable("p", rec, 1, 0)); err != nil {
		t.Fatal(err)
	}

	fa := &ast.FieldAccess{Inner: ident("p"), FieldName: "y"}
	prog.Body.Statements = []ast.Statement{&ast.Write{Expr: fa}}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}
	if fa.FieldIndex != 1 {
		t.Fatalf("expected field index 1 for %q, got %d", "y", fa.FieldIndex)
	}
}

func TestFieldAccessOnUnknownFieldIsReported(t *testing.T) {
	rec := types.Record{Name: "point", Fields: []types.Field{{Name: "x", Type: types.Int}}}
	table, prog := newProgram(nil)
	if err := table.Define("p", symbols.NewVariable("p", rec, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{
		&ast.Write{Expr: &ast.FieldAccess{Inner: ident("p"), FieldName: "z"}},
	}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrFieldNotInRecord {
		t.Fatalf("expected a single ErrFieldNotInRecord diagnostic, got %v", sink.Errors())
	}
}

func TestNewYieldsPointerToNamedType(t *testing.T) {
	node := types.Record{Name: "node", Fields: []types.Field{{Name: "v", Type: types.Int}}}
	table, prog := newProgram(nil)
	if err := table.Define("node", symbols.NewTypeAlias("node", node)); err != nil {
		t.Fatal(err)
	}
	if err := table.Define("p", symbols.NewVariable("p", types.Pointer{Inner: node}, 1, 0)); err != nil {
		t.Fatal(err)
	}

	n := &ast.New{TypeName: "node"}
	prog.Body.Statements = []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("p")}, Sources: []ast.Expression{n}},
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}
	if _, ok := n.Type().(types.Pointer); !ok {
		t.Fatalf("expected New to be typed Pointer, got %s", n.Type())
	}
}

func TestRecordConstructorArityMismatchIsReported(t *testing.T) {
	table, prog := newProgram(nil)
	rec := types.Record{Name: "point", Fields: []types.Field{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int},
	}}
	if err := table.Define("point", symbols.NewTypeAlias("point", rec)); err != nil {
		t.Fatal(err)
	}

	rc := &ast.RecordConstructor{TypeName: "point", Fields: []ast.Expression{constExprFixture(1)}}
	prog.Body.Statements = []ast.Statement{&ast.Write{Expr: rc}}

	sink := checkProgram(t, table, prog)
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != diagnostics.ErrRecordConstructorArity {
		t.Fatalf("expected a single ErrRecordConstructorArity diagnostic, got %v", sink.Errors())
	}
}

func TestRecordConstructorCoercesFieldsElementwise(t *testing.T) {
	digit := types.Subrange{Lo: 0, Hi: 9, Base: types.Int}
	rec := types.Record{Name: "pair", Fields: []types.Field{
		{Name: "a", Type: types.Int},
		{Name: "b", Type: digit},
	}}
	table, prog := newProgram(nil)
	if err := table.Define("pair", symbols.NewTypeAlias("pair", rec)); err != nil {
		t.Fatal(err)
	}

	rc := &ast.RecordConstructor{TypeName: "pair", Fields: []ast.Expression{constExprFixture(5), constExprFixture(3)}}
	if err := table.Define("r", symbols.NewVariable("r", rec, 1, 0)); err != nil {
		t.Fatal(err)
	}
	prog.Body.Statements = []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("r")}, Sources: []ast.Expression{rc}},
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}
	if _, ok := rc.Fields[1].(*ast.NarrowSubrange); !ok {
		t.Fatalf("expected the second field to be narrowed into the subrange, got %T", rc.Fields[1])
	}
}

func TestPointerDereferenceYieldsReferenceAndDereferencesInner(t *testing.T) {
	table, prog := newProgram(nil)
	if err := table.Define("p", symbols.NewVariable("p", types.Pointer{Inner: types.Int}, 1, 0)); err != nil {
		t.Fatal(err)
	}

	pd := &ast.PointerDereference{Inner: ident("p")}
	prog.Body.Statements = []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{pd}, Sources: []ast.Expression{constExprFixture(9)}},
	}

	sink := checkProgram(t, table, prog)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Errors())
	}
	if _, ok := pd.Type().(types.Reference); !ok {
		t.Fatalf("expected PointerDereference to be typed Reference, got %s", pd.Type())
	}
	if _, ok := pd.Inner.(*ast.Dereference); !ok {
		t.Fatalf("expected the pointer variable itself to be dereferenced, got %T", pd.Inner)
	}
}

func constExprFixture(v int) *ast.IntLiteral {
	return &ast.IntLiteral{Value: v}
}

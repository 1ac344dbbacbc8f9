package driver

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/checker"
	"github.com/funvibe/funxy/internal/codegen"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
)

// Compile runs the static checker then the code generator over prog, using
// table as the (already populated) symbol table and sink as the
// diagnostic collector. It is the single entry point external callers
// (the parser/VM-loader side, and cmd/plc0check) use, matching the
// "Procedure table + driver" component spec.md's System Overview table
// names.
//
// A checker error does not panic: it is collected on sink and Compile
// returns a non-nil error summarizing the diagnostic count, leaving the
// caller to inspect sink.Errors() for detail. A Fatal diagnostic
// (diagnostics.FatalError, spec.md §7's two "broken invariant" conditions)
// is recovered here and turned into the same kind of returned error,
// mirroring the teacher's own practice of using panic/recover for
// "should never happen" invariant breaks and catching it at a boundary
// (internal/vm/compiler_scope.go's addLocal/addUpvalue panics, recovered
// by its caller).
func Compile(table *symbols.SymbolTable, sink *diagnostics.Sink, prog *ast.Program) (procs *codegen.Procedures, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(diagnostics.FatalError)
			if !ok {
				panic(r)
			}
			procs = nil
			err = fe.DiagnosticError
		}
	}()

	checker.New(table, sink).CheckProgram(prog)
	if sink.HasErrors() {
		return nil, fmt.Errorf("compilation failed with %d diagnostic(s); see sink.Errors()", len(sink.Errors()))
	}

	procs = codegen.NewCompiler(table, sink).CompileProgram(prog)
	return procs, nil
}

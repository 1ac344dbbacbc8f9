// Command plc0check is a go vet-shaped smoke binary for the checker and
// code generator: it builds a small hand-written AST fixture (parsing is
// external to this core, spec.md §1), runs it through driver.Compile, and
// prints either the compiled procedure table (as procwire YAML) or the
// reported diagnostics, colorized when stdout is a terminal the same way
// the teacher gates color in internal/evaluator/builtins_term.go.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/driver"
	"github.com/funvibe/funxy/internal/pos"
	"github.com/funvibe/funxy/internal/procwire"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/types"
)

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// fixture builds:
//
//	var x: integer;
//	begin
//	  x := 41;
//	  write(x + 1)
//	end.
func fixture(table *symbols.SymbolTable) *ast.Program {
	scope := table.CurrentScope()
	must(table.Define("x", symbols.NewVariable("x", types.Int, 1, 0)))

	ident := func(name string) *ast.Identifier {
		return ast.NewIdentifier(pos.Position{Line: 1, Column: 1}, name)
	}

	return &ast.Program{Body: &ast.Block{Scope: scope, Statements: []ast.Statement{
		&ast.Assignment{Targets: []ast.Expression{ident("x")}, Sources: []ast.Expression{&ast.IntLiteral{Value: 41}}},
		&ast.Write{Expr: &ast.OperatorNode{
			Name: "+",
			Args: &ast.ArgumentsNode{Elements: []ast.Expression{ident("x"), &ast.IntLiteral{Value: 1}}},
		}},
	}}}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	color := colorEnabled()
	table := driver.NewBaseTable()
	prog := fixture(table)

	sink := diagnostics.NewSilentSink()
	procs, err := driver.Compile(table, sink, prog)
	if err != nil {
		for _, d := range sink.Errors() {
			printDiagnostic(d, color)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	data, err := procwire.Marshal(procs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encoding compiled procedures:", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func printDiagnostic(d *diagnostics.DiagnosticError, color bool) {
	if color {
		fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", d.Error())
		return
	}
	fmt.Fprintln(os.Stderr, d.Error())
}

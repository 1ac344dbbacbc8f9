// Package driver wires the static checker and the code generator together
// over one already-populated symbol table, and supplies the predefined
// operator/type environment spec.md §6 says an external parser would
// otherwise have built (spec.md §6 "Inputs").
package driver

import (
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/types"
)

func unary(arg, result types.Type) types.Function {
	return types.Function{Arg: types.Product{Elements: []types.Type{arg}}, Result: result}
}

func binary(a, b, result types.Type) types.Function {
	return types.Function{Arg: types.Product{Elements: []types.Type{a, b}}, Result: result}
}

// NewBaseTable returns a fresh SymbolTable whose root scope already carries
// every predefined operator the closed instruction set's compileOperator
// switch (internal/codegen) recognizes by name and arity, plus the two
// predefined scalar type names. Tests and cmd/plc0check build on top of
// this rather than a bare symbols.New(), since this core has no parser to
// populate a table from source text (spec.md §6).
func NewBaseTable() *symbols.SymbolTable {
	table := symbols.New()

	must(table.Define("int", symbols.NewTypeAlias("int", types.Int)))
	must(table.Define("boolean", symbols.NewTypeAlias("boolean", types.Bool)))

	table.DefineOperator("-", symbols.NewOperator("-", types.Intersection{Members: []types.Function{
		unary(types.Int, types.Int),
		binary(types.Int, types.Int, types.Int),
	}}))
	table.DefineOperator("+", symbols.NewOperator("+", binary(types.Int, types.Int, types.Int)))
	table.DefineOperator("*", symbols.NewOperator("*", binary(types.Int, types.Int, types.Int)))
	table.DefineOperator("/", symbols.NewOperator("/", binary(types.Int, types.Int, types.Int)))

	table.DefineOperator("=", symbols.NewOperator("=", types.Intersection{Members: []types.Function{
		binary(types.Int, types.Int, types.Bool),
		binary(types.Bool, types.Bool, types.Bool),
	}}))
	table.DefineOperator("<>", symbols.NewOperator("<>", types.Intersection{Members: []types.Function{
		binary(types.Int, types.Int, types.Bool),
		binary(types.Bool, types.Bool, types.Bool),
	}}))
	table.DefineOperator("<", symbols.NewOperator("<", binary(types.Int, types.Int, types.Bool)))
	table.DefineOperator("<=", symbols.NewOperator("<=", binary(types.Int, types.Int, types.Bool)))
	table.DefineOperator(">", symbols.NewOperator(">", binary(types.Int, types.Int, types.Bool)))
	table.DefineOperator(">=", symbols.NewOperator(">=", binary(types.Int, types.Int, types.Bool)))

	table.DefineOperator("and", symbols.NewOperator("and", binary(types.Bool, types.Bool, types.Bool)))
	table.DefineOperator("or", symbols.NewOperator("or", binary(types.Bool, types.Bool, types.Bool)))
	table.DefineOperator("not", symbols.NewOperator("not", unary(types.Bool, types.Bool)))

	return table
}

// must panics on a duplicate-definition error: the base table's own names
// are fixed at compile time, so a collision here is a programming error in
// this file, not a user-reportable diagnostic.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Package procwire is a gopkg.in/yaml.v3-based wire format for a compiled
// internal/codegen.Procedures table: a human-readable, diffable snapshot
// used by golden-file tests (spec.md §6, §8) and as cmd/plc0check's
// output format, grounded on the
// teacher's own yaml.v3 use for structured config/fixture data
// (internal/ext/config.go's yaml-tagged structs) — see DESIGN.md. This is
// not a runtime loader format; the VM loader spec.md §1 places outside
// this core's scope is free to define its own.
package procwire

import (
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funxy/internal/codegen"
)

// Instruction is one decoded (opcode, operands) pair in wire form: the
// opcode's debug name rather than its numeric encoding, so a golden file
// survives an Opcode renumbering untouched.
type Instruction struct {
	Opcode   string `yaml:"opcode"`
	Operands []int  `yaml:"operands,omitempty"`
}

// Procedure is one compiled procedure in wire form.
type Procedure struct {
	Name          string        `yaml:"name"`
	Level         int           `yaml:"level"`
	VariableSpace int           `yaml:"variable_space"`
	Code          []Instruction `yaml:"code"`
}

// Table is the wire form of a whole Procedures table, in table-index order.
type Table struct {
	Procedures []Procedure `yaml:"procedures"`
}

// FromProcedures converts a compiled table into its wire form.
func FromProcedures(procs *codegen.Procedures) Table {
	var out Table
	for _, p := range procs.List() {
		wp := Procedure{Name: p.Name, Level: p.Level, VariableSpace: p.VariableSpace}
		for _, instr := range p.Code.Decode() {
			wp.Code = append(wp.Code, Instruction{Opcode: instr.Op.String(), Operands: instr.Operands})
		}
		out.Procedures = append(out.Procedures, wp)
	}
	return out
}

// Marshal renders procs as YAML.
func Marshal(procs *codegen.Procedures) ([]byte, error) {
	return yaml.Marshal(FromProcedures(procs))
}

// Unmarshal parses YAML produced by Marshal back into a Table, for tests
// that compare against a testdata/*.yaml golden fixture without needing a
// live Procedures table on both sides.
func Unmarshal(data []byte) (Table, error) {
	var t Table
	err := yaml.Unmarshal(data, &t)
	return t, err
}

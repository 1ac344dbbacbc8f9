// Package codegen implements the PL0 core's code generator: the Code
// instruction buffer, jump-offset arithmetic, the Compiler that walks a
// checked tree emitting stack-machine instructions addressed by static
// level and frame offset, the case-statement jump-table lowering, and the
// Procedures table the VM loader reads (spec.md §4.4, §4.5).
//
// Grounded on internal/vm/chunk.go and internal/vm/opcodes.go (the
// growable-buffer-plus-opcode-enum shape) and internal/vm/compiler_scope.go
// (emitJump/patchJump) — see DESIGN.md.
package codegen

// Opcode is one of the VM instructions spec.md §6 names. The instruction
// set is closed: codegen emits exactly these and nothing else.
type Opcode int

const (
	OpAllocStack   Opcode = iota // operand: word count
	OpReturn                     // no operands
	OpLoadConstant               // operand: value
	OpZero                       // no operands; pushes 0
	OpOne                        // no operands; pushes 1
	OpAdd
	OpNegate
	OpMpy
	OpDiv
	OpEqual
	OpLess
	OpLessEq
	OpAnd
	OpSwap
	OpDup
	OpBr           // unconditional computed jump: pops a relative offset
	OpJumpAlways   // operand: signed relative offset (words)
	OpJumpIfFalse  // operand: signed relative offset (words); pops condition
	OpRead
	OpWrite
	OpStop
	OpLoad        // operand: size in words; pops address, pushes that many words
	OpStore       // operand: size in words; pops address, then the value(s) beneath it
	OpBoundsCheck // operands: lo, hi
	OpMemRef      // operands: static-link depth, frame offset
	OpCall        // operands: static-link depth, procedure index
)

var opcodeNames = map[Opcode]string{
	OpAllocStack:   "AllocStack",
	OpReturn:       "Return",
	OpLoadConstant: "LoadConstant",
	OpZero:         "Zero",
	OpOne:          "One",
	OpAdd:          "Add",
	OpNegate:       "Negate",
	OpMpy:          "Mpy",
	OpDiv:          "Div",
	OpEqual:        "Equal",
	OpLess:         "Less",
	OpLessEq:       "LessEq",
	OpAnd:          "And",
	OpSwap:         "Swap",
	OpDup:          "Dup",
	OpBr:           "Br",
	OpJumpAlways:   "JumpAlways",
	OpJumpIfFalse:  "JumpIfFalse",
	OpRead:         "Read",
	OpWrite:        "Write",
	OpStop:         "Stop",
	OpLoad:         "Load",
	OpStore:        "Store",
	OpBoundsCheck:  "BoundsCheck",
	OpMemRef:       "MemRef",
	OpCall:         "Call",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// operandCount is how many operand words follow each opcode word.
var operandCount = map[Opcode]int{
	OpAllocStack:   1,
	OpReturn:       0,
	OpLoadConstant: 1,
	OpZero:         0,
	OpOne:          0,
	OpAdd:          0,
	OpNegate:       0,
	OpMpy:          0,
	OpDiv:          0,
	OpEqual:        0,
	OpLess:         0,
	OpLessEq:       0,
	OpAnd:          0,
	OpSwap:         0,
	OpDup:          0,
	OpBr:           0,
	OpJumpAlways:   1,
	OpJumpIfFalse:  1,
	OpRead:         0,
	OpWrite:        0,
	OpStop:         0,
	OpLoad:         1,
	OpStore:        1,
	OpBoundsCheck:  2,
	OpMemRef:       2,
	OpCall:         2,
}

// InstrSize is the in-stream size (in words) of one instruction: the
// opcode word plus its operands.
func InstrSize(op Opcode) int { return 1 + operandCount[op] }

// SizeJumpAlways is the in-stream size of an unconditional jump
// instruction; the case statement's offset arithmetic is expressed in
// units of this constant (spec.md §4.4).
var SizeJumpAlways = InstrSize(OpJumpAlways)

// CaseLabelMissing is the VM-agreed reserved stop code pushed before Stop
// when a case statement's scrutinee matches no label and no default was
// declared (spec.md §6).
const CaseLabelMissing = -1

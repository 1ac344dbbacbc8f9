package codegen

import "testing"

// runFlatVM executes one procedure's word stream against a single, base-0
// frame. It understands exactly the subset of the opcode set the compiler
// emits for If/While/Case/arithmetic and ignores static-link depth (every
// frame reference lands in the one flat frame, even when the words are a
// nested procedure's body run on its own), which keeps it a few dozen lines instead
// of a full VM while still proving the jump and dispatch arithmetic by
// actually executing it, rather than re-deriving the offsets by hand.
func runFlatVM(t *testing.T, words []int) []int {
	t.Helper()
	mem := make([]int, 256)
	var stack []int
	var output []int

	push := func(v int) { stack = append(stack, v) }
	pop := func() int {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}

	pc := 0
	for {
		op := Opcode(words[pc])
		switch op {
		case OpReturn, OpStop:
			return output
		case OpAllocStack:
			pc += InstrSize(op)
		case OpLoadConstant:
			push(words[pc+1])
			pc += InstrSize(op)
		case OpZero:
			push(0)
			pc += InstrSize(op)
		case OpOne:
			push(1)
			pc += InstrSize(op)
		case OpAdd:
			b, a := pop(), pop()
			push(a + b)
			pc += InstrSize(op)
		case OpNegate:
			push(-pop())
			pc += InstrSize(op)
		case OpMpy:
			b, a := pop(), pop()
			push(a * b)
			pc += InstrSize(op)
		case OpDiv:
			b, a := pop(), pop()
			push(a / b)
			pc += InstrSize(op)
		case OpEqual:
			b, a := pop(), pop()
			push(boolInt(a == b))
			pc += InstrSize(op)
		case OpLess:
			b, a := pop(), pop()
			push(boolInt(a < b))
			pc += InstrSize(op)
		case OpLessEq:
			b, a := pop(), pop()
			push(boolInt(a <= b))
			pc += InstrSize(op)
		case OpAnd:
			b, a := pop(), pop()
			push(boolInt(a != 0 && b != 0))
			pc += InstrSize(op)
		case OpSwap:
			a, b := pop(), pop()
			push(a)
			push(b)
			pc += InstrSize(op)
		case OpDup:
			a := stack[len(stack)-1]
			push(a)
			pc += InstrSize(op)
		case OpBr:
			off := pop()
			pc = pc + InstrSize(op) + off
		case OpJumpAlways:
			off := words[pc+1]
			pc = pc + InstrSize(op) + off
		case OpJumpIfFalse:
			off := words[pc+1]
			cond := pop()
			if cond == 0 {
				pc = pc + InstrSize(op) + off
			} else {
				pc += InstrSize(op)
			}
		case OpWrite:
			output = append(output, pop())
			pc += InstrSize(op)
		case OpLoad:
			addr := pop()
			push(mem[addr])
			pc += InstrSize(op)
		case OpStore:
			addr := pop()
			v := pop()
			mem[addr] = v
			pc += InstrSize(op)
		case OpMemRef:
			offset := words[pc+2]
			push(offset)
			pc += InstrSize(op)
		case OpBoundsCheck:
			lo, hi := words[pc+1], words[pc+2]
			v := stack[len(stack)-1]
			if v < lo || v > hi {
				t.Fatalf("bounds check failed: %d not in [%d, %d]", v, lo, hi)
			}
			pc += InstrSize(op)
		default:
			t.Fatalf("runFlatVM: opcode %s not supported by this harness", op)
		}
	}
}

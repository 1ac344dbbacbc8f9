package codegen

// Code is a growable sequence of stack-machine words: the unit the
// generator builds per procedure and the unit jump offsets are measured in
// (spec.md §4.4). Jump offsets are relative to the end of the jump
// instruction; forward jumps encode the size of the code to skip, backward
// jumps encode a negative value equal to -(code already emitted + size of
// the jump itself). Because every region a jump needs to skip over is
// fully built (and therefore measurable) before the jump that skips it is
// emitted, this generator computes offsets directly rather than emitting
// placeholders and patching them after the fact.
type Code struct {
	words []int
}

// NewCode returns an empty instruction buffer.
func NewCode() *Code { return &Code{} }

// Len returns the number of words currently in the buffer.
func (c *Code) Len() int { return len(c.words) }

// Words exposes the raw word stream, e.g. for disassembly or golden tests.
func (c *Code) Words() []int {
	out := make([]int, len(c.words))
	copy(out, c.words)
	return out
}

// Append concatenates other onto c, in place.
func (c *Code) Append(other *Code) {
	if other == nil {
		return
	}
	c.words = append(c.words, other.words...)
}

func (c *Code) emit(op Opcode, operands ...int) {
	c.words = append(c.words, int(op))
	c.words = append(c.words, operands...)
}

// Emit appends a zero-operand opcode.
func (c *Code) Emit(op Opcode) { c.emit(op) }

// EmitConstant appends the shortest encoding of the integer constant k:
// the dedicated Zero/One opcodes for those two values, else a generic
// LoadConstant (spec.md §4.4, "Constants 0 and 1 use dedicated short
// opcodes").
func (c *Code) EmitConstant(k int) {
	switch k {
	case 0:
		c.emit(OpZero)
	case 1:
		c.emit(OpOne)
	default:
		c.emit(OpLoadConstant, k)
	}
}

// EmitAllocStack appends a procedure prologue reserving n words for locals.
func (c *Code) EmitAllocStack(n int) { c.emit(OpAllocStack, n) }

// EmitLoad appends a typed load of size words, given the address already on
// top of the stack.
func (c *Code) EmitLoad(size int) { c.emit(OpLoad, size) }

// EmitStore appends a typed store of size words: the value(s) followed by
// the address are expected on the stack.
func (c *Code) EmitStore(size int) { c.emit(OpStore, size) }

// EmitBoundsCheck appends a runtime range check against [lo, hi] on the
// value on top of the stack; the value is left in place if it passes.
func (c *Code) EmitBoundsCheck(lo, hi int) { c.emit(OpBoundsCheck, lo, hi) }

// EmitMemRef appends a frame-relative address computation: staticLinkDepth
// frames back (0 = current frame), then offset words into that frame.
func (c *Code) EmitMemRef(staticLinkDepth, offset int) { c.emit(OpMemRef, staticLinkDepth, offset) }

// EmitCall appends a call to the procedure at procIndex in the Procedures
// table, whose frame is staticLinkDepth frames back from the caller's.
func (c *Code) EmitCall(staticLinkDepth, procIndex int) { c.emit(OpCall, staticLinkDepth, procIndex) }

// EmitJumpAlways appends an unconditional relative jump.
func (c *Code) EmitJumpAlways(offset int) { c.emit(OpJumpAlways, offset) }

// EmitJumpIfFalse appends a conditional relative jump that pops its
// condition.
func (c *Code) EmitJumpIfFalse(offset int) { c.emit(OpJumpIfFalse, offset) }

// EmitBr appends an unconditional computed jump: the target offset is
// popped from the stack (used by the case statement's table dispatch).
func (c *Code) EmitBr() { c.emit(OpBr) }

// Instruction is one decoded (opcode, operands) pair, used by disassembly
// and by tests proving the code-offset and case-dispatch laws.
type Instruction struct {
	Op       Opcode
	Operands []int
	// At is the word offset of this instruction's opcode word within the
	// Code it was decoded from.
	At int
}

// Decode walks the word stream into a slice of Instructions.
func (c *Code) Decode() []Instruction {
	var out []Instruction
	i := 0
	for i < len(c.words) {
		op := Opcode(c.words[i])
		n := operandCount[op]
		ops := append([]int(nil), c.words[i+1:i+1+n]...)
		out = append(out, Instruction{Op: op, Operands: ops, At: i})
		i += 1 + n
	}
	return out
}

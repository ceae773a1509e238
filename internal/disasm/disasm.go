// Package disasm implements the bytecode disassembler; Instruction backs the
// --trace-exec CLI flag (SPEC_FULL.md's supplemented ambient tracing), and
// no CLI flag prints a whole Chunk. It is
// grounded on original_source/clox/debug.c's disassembleChunk/
// disassembleInstruction pair.
package disasm

import (
	"fmt"
	"strings"

	"github.com/kristoferb/lox/internal/value"
)

// Chunk disassembles every instruction in c, prefixed with a "== name =="
// header, matching clox's disassembleChunk output shape.
func Chunk(c *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = Instruction(c, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Instruction disassembles the instruction at offset, returning its text
// and the offset of the next instruction.
func Instruction(c *value.Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := value.OpCode(c.Code[offset])
	switch op {
	case value.OpConstant:
		return constantInstr(&b, op, c, offset)
	case value.OpNil, value.OpTrue, value.OpFalse, value.OpPop, value.OpEqual,
		value.OpGreater, value.OpLess, value.OpAdd, value.OpSubtract,
		value.OpMultiply, value.OpDivide, value.OpNot, value.OpNegate,
		value.OpPrint, value.OpCloseUpvalue, value.OpReturn, value.OpInherit:
		return simpleInstr(&b, op, offset)
	case value.OpGetLocal, value.OpSetLocal, value.OpGetUpvalue, value.OpSetUpvalue,
		value.OpCall:
		return byteInstr(&b, op, c, offset)
	case value.OpGetGlobal, value.OpDefineGlobal, value.OpSetGlobal,
		value.OpGetProperty, value.OpSetProperty, value.OpGetSuper,
		value.OpClass, value.OpMethod:
		return constantInstr(&b, op, c, offset)
	case value.OpJump, value.OpJumpIfFalse:
		return jumpInstr(&b, op, 1, c, offset)
	case value.OpLoop:
		return jumpInstr(&b, op, -1, c, offset)
	case value.OpInvoke, value.OpSuperInvoke:
		return invokeInstr(&b, op, c, offset)
	case value.OpClosure:
		return closureInstr(&b, c, offset)
	default:
		fmt.Fprintf(&b, "Unknown opcode %d", op)
		return b.String(), offset + 1
	}
}

func simpleInstr(b *strings.Builder, op value.OpCode, offset int) (string, int) {
	b.WriteString(op.String())
	return b.String(), offset + 1
}

func byteInstr(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) (string, int) {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d", op, slot)
	return b.String(), offset + 2
}

func jumpInstr(b *strings.Builder, op value.OpCode, sign int, c *value.Chunk, offset int) (string, int) {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d", op, offset, target)
	return b.String(), offset + 3
}

func constantInstr(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) (string, int) {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'", op, idx, value.Print(c.Constants[idx]))
	return b.String(), offset + 2
}

func invokeInstr(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) (string, int) {
	nameIdx := c.Code[offset+1]
	argc := c.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'", op, argc, nameIdx, value.Print(c.Constants[nameIdx]))
	return b.String(), offset + 3
}

func closureInstr(b *strings.Builder, c *value.Chunk, offset int) (string, int) {
	offset++
	constant := c.Code[offset]
	offset++
	fmt.Fprintf(b, "%-16s %4d '%s'", value.OpClosure, constant, value.Print(c.Constants[constant]))

	fn := c.Constants[constant].AsFunction()
	for j := 0; j < fn.UpvalueCount; j++ {
		isLocal := c.Code[offset]
		offset++
		index := c.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "\n%04d      |                     %s %d", offset-2, kind, index)
	}
	return b.String(), offset
}

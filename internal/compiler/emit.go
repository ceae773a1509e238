package compiler

import (
	"github.com/dolthub/swiss"

	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

func (p *parser) chunk() *value.Chunk { return &p.scope.fn.Chunk }

func (p *parser) emitByte(b byte) {
	p.chunk().Write(b, p.previous.Line)
}

func (p *parser) emitOp(op value.OpCode) { p.emitByte(byte(op)) }

func (p *parser) emitOpByte(op value.OpCode, b byte) {
	p.emitByte(byte(op))
	p.emitByte(b)
}

func (p *parser) emitOps(a, b value.OpCode) {
	p.emitByte(byte(a))
	p.emitByte(byte(b))
}

// emitJump emits a jump instruction with a placeholder 16-bit big-endian
// offset, returning the offset of the placeholder's first byte for a later
// patchJump call (spec §4.2's forward-jump back-patching).
func (p *parser) emitJump(op value.OpCode) int {
	p.emitByte(byte(op))
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

// patchJump backfills the jump at offset with the distance from just after
// the placeholder to the current code position.
func (p *parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
		return
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

// emitLoop emits a LOOP back-edge to loopStart.
func (p *parser) emitLoop(loopStart int) {
	p.emitOp(value.OpLoop)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *parser) emitReturn() {
	if p.scope.funcType == value.FuncInitializer {
		p.emitOpByte(value.OpGetLocal, 0)
	} else {
		p.emitOp(value.OpNil)
	}
	p.emitOp(value.OpReturn)
}

// makeConstant appends v to the current chunk's constant pool, reporting a
// compile error at the 256-entry limit (spec §3's byte-indexed pool).
func (p *parser) makeConstant(v value.Value) byte {
	idx, ok := p.chunk().AddConstant(v)
	if !ok {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *parser) emitConstant(v value.Value) {
	p.emitOpByte(value.OpConstant, p.makeConstant(v))
}

// identifierConstant interns name and returns its constant-pool index, used
// whenever a variable name must be referenced as runtime data (globals,
// property names, method names).
func (p *parser) identifierConstant(tok token.Token) byte {
	return p.stringConstant(tok.Lexeme)
}

// stringConstant interns chars and returns its constant-pool index within
// the current function, reusing a prior index for the same content rather
// than adding a duplicate entry (see funcScope.constCache).
func (p *parser) stringConstant(chars string) byte {
	if p.scope.constCache == nil {
		p.scope.constCache = swiss.NewMap[string, byte](uint32(8))
	}
	if idx, ok := p.scope.constCache.Get(chars); ok {
		return idx
	}
	s := p.host.InternString(chars)
	idx := p.makeConstant(value.FromObj(s))
	p.scope.constCache.Put(chars, idx)
	return idx
}

// Package compiler implements the single-pass Pratt parser that compiles
// source bytes directly to bytecode (spec §4.2): no intermediate AST, a
// table of (prefix, infix, precedence) parse rules per token kind, a stack
// of nested function scopes tracking locals and upvalue descriptors, and a
// parallel stack of class scopes governing `this`/`super` resolution.
//
// The overall shape (parser struct holding scanner/current/previous/error
// state, a rule table driving parsePrecedence) is grounded on
// original_source/clox/compiler.c; the package layout (one file per
// concern: scopes, rules, classes) follows nenuphar's convention of
// splitting a large compiler into purpose-named files rather than one
// monolith.
package compiler

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/kristoferb/lox/internal/lox"
	"github.com/kristoferb/lox/internal/scanner"
	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

// Host is the compiler's view of its allocator: every heap object a
// compile-time constant needs (interned strings, the Function objects
// wrapping each Chunk) is allocated through the same GC-aware allocator the
// VM uses at runtime, since spec §4.4 requires that a collection triggered
// while compiling can still find every function currently being built. The
// BeginFunctionCompile/EndFunctionCompile pair lets the VM (which
// implements Host) track that root set without this package importing the
// vm or gc packages.
type Host interface {
	InternString(chars string) *value.ObjString
	NewFunction() *value.ObjFunction
	BeginFunctionCompile(fn *value.ObjFunction)
	EndFunctionCompile()
}

// maxLocals and maxUpvalues match spec §4.2's 256-entry local/upvalue
// descriptor arrays (one byte operand each).
const (
	maxLocals   = 256
	maxUpvalues = 256
)

// Compile compiles source into a top-level script Function, or reports the
// compile errors collected during a single panic-mode-resynchronized pass
// (spec §4.2/§7). A failed compile discards the partially built Function.
func Compile(source []byte, host Host) (*value.ObjFunction, error) {
	p := &parser{host: host}
	p.sc.Init(source)

	p.beginFunction(value.FuncScript, "")
	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	p.consume(token.EOF, "Expect end of expression.")
	fn := p.endFunction()

	if p.hadError {
		return nil, p.errs.Err()
	}
	return fn, nil
}

// local is a compile-time stack slot: its declaring token, scope depth (-1
// while "declared but uninitialized"), and whether any nested function
// captures it as an upvalue.
type local struct {
	name     token.Token
	depth    int
	captured bool
}

// upvalueDesc records how a function's upvalue slot is sourced: either the
// enclosing function's local at Index, or the enclosing function's own
// upvalue at Index.
type upvalueDesc struct {
	index   byte
	isLocal bool
}

// funcScope is one nested compiler frame: the Function being built and
// everything needed to resolve names against it (spec §4.2's "stack of
// nested compiler frames").
type funcScope struct {
	enclosing *funcScope

	fn       *value.ObjFunction
	funcType value.FuncType

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int

	// constCache dedups this function's string/identifier constants so the
	// same name or literal referenced twice in one body shares a single
	// constant-pool slot instead of padding the 256-entry pool with
	// duplicates. Built lazily, since most functions reference few distinct
	// names; backed by a swiss table rather than a Go map because this
	// package already reaches for dolthub/swiss elsewhere in the toolchain's
	// dependency set and a flat hash map is exactly what compile-time-only
	// dedup needs (no GC weak-reference semantics, unlike internal/table).
	constCache *swiss.Map[string, byte]
}

// classScope tracks nested class bodies for `this`/`super` resolution (spec
// §4.2's ClassCompiler).
type classScope struct {
	enclosing     *classScope
	hasSuperclass bool
}

type parser struct {
	host Host
	sc   scanner.Scanner

	current, previous token.Token
	hadError, panicMode bool
	errs lox.ErrorList

	scope *funcScope
	class *classScope

	// pendingUpvalues carries the just-ended function's upvalue descriptors
	// from endFunction to the OP_CLOSURE emission that follows it.
	pendingUpvalues []upvalueDesc
}

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.sc.Scan()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// --- error reporting ----------------------------------------------------

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	text := msg
	if tok.Kind == token.EOF {
		text = fmt.Sprintf("at end: %s", msg)
	} else if tok.Kind != token.ILLEGAL {
		text = fmt.Sprintf("at '%s': %s", tok.Lexeme, msg)
	}
	p.errs.Add(lox.LinePos(tok.Line), text)
	p.hadError = true
}

// synchronize implements panic-mode resynchronization: skip tokens until a
// statement boundary (a semicolon, or a statement-starting keyword) so one
// error doesn't cascade into a flood of secondary ones.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

package compiler

import (
	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

// classDeclaration compiles `class Name [< Super] { methods }` (spec §4.2).
// The class itself is emitted as a named global/local like any other
// variable; its superclass, if present, is bound in a synthetic enclosing
// scope so methods can resolve `super` as an upvalue the same way they'd
// resolve any other captured name.
func (p *parser) classDeclaration() {
	p.consume(token.IDENT, "Expect class name.")
	nameTok := p.previous
	nameConstant := p.identifierConstant(nameTok)
	p.declareVariable(nameTok)

	p.emitOpByte(value.OpClass, nameConstant)
	p.defineVariable(nameConstant)

	cls := &classScope{enclosing: p.class}
	p.class = cls

	if p.match(token.LT) {
		p.consume(token.IDENT, "Expect superclass name.")
		p.variable(false)

		if identEqual(nameTok, p.previous) {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal(token.Token{Lexeme: "super"})
		p.defineVariable(0)

		p.namedVariable(nameTok, false)
		p.emitOp(value.OpInherit)
		cls.hasSuperclass = true
	}

	p.namedVariable(nameTok, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emitOp(value.OpPop)

	if cls.hasSuperclass {
		p.endScope()
	}
	p.class = cls.enclosing
}

// method compiles one class-body method: "init" is special-cased to the
// FuncInitializer type (which returns the receiver by default, per the
// initializer contract of spec §4.3).
func (p *parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.previous
	nameConstant := p.identifierConstant(name)

	ft := value.FuncMethod
	if name.Lexeme == "init" {
		ft = value.FuncInitializer
	}
	p.compileFunction(ft)
	p.emitOpByte(value.OpMethod, nameConstant)
}

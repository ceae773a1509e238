package compiler

import (
	"strconv"

	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

// precedence mirrors clox's Precedence enum; parsePrecedence consumes the
// prefix rule for the current token then repeatedly consumes infix
// operators whose precedence is at least p (spec §4.2).
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:    {prefix: (*parser).grouping, infix: (*parser).call, prec: precCall},
		token.DOT:       {infix: (*parser).dot, prec: precCall},
		token.MINUS:     {prefix: (*parser).unary, infix: (*parser).binary, prec: precTerm},
		token.PLUS:      {infix: (*parser).binary, prec: precTerm},
		token.SLASH:     {infix: (*parser).binary, prec: precFactor},
		token.STAR:      {infix: (*parser).binary, prec: precFactor},
		token.BANG:      {prefix: (*parser).unary},
		token.BANG_EQ:   {infix: (*parser).binary, prec: precEquality},
		token.EQ_EQ:     {infix: (*parser).binary, prec: precEquality},
		token.GT:        {infix: (*parser).binary, prec: precComparison},
		token.GT_EQ:     {infix: (*parser).binary, prec: precComparison},
		token.LT:        {infix: (*parser).binary, prec: precComparison},
		token.LT_EQ:     {infix: (*parser).binary, prec: precComparison},
		token.IDENT:     {prefix: (*parser).variable},
		token.STRING:    {prefix: (*parser).string},
		token.NUMBER:    {prefix: (*parser).number},
		token.AND:       {infix: (*parser).and_, prec: precAnd},
		token.FALSE:     {prefix: (*parser).literal},
		token.NIL:       {prefix: (*parser).literal},
		token.OR:        {infix: (*parser).or_, prec: precOr},
		token.SUPER:     {prefix: (*parser).super_},
		token.THIS:      {prefix: (*parser).this_},
		token.TRUE:      {prefix: (*parser).literal},
	}
}

func (p *parser) getRule(k token.Kind) parseRule { return rules[k] }

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	rule := p.getRule(p.previous.Kind)
	if rule.prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(p, canAssign)

	for prec <= p.getRule(p.current.Kind).prec {
		p.advance()
		infix := p.getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) number(_ bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(value.Number(n))
}

func (p *parser) string(_ bool) {
	lit := p.previous.Lexeme
	p.emitOpByte(value.OpConstant, p.stringConstant(lit[1:len(lit)-1]))
}

func (p *parser) literal(_ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(value.OpFalse)
	case token.TRUE:
		p.emitOp(value.OpTrue)
	case token.NIL:
		p.emitOp(value.OpNil)
	}
}

func (p *parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (p *parser) unary(_ bool) {
	op := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		p.emitOp(value.OpNot)
	case token.MINUS:
		p.emitOp(value.OpNegate)
	}
}

func (p *parser) binary(_ bool) {
	op := p.previous.Kind
	rule := p.getRule(op)
	p.parsePrecedence(rule.prec + 1)

	switch op {
	case token.BANG_EQ:
		p.emitOps(value.OpEqual, value.OpNot)
	case token.EQ_EQ:
		p.emitOp(value.OpEqual)
	case token.GT:
		p.emitOp(value.OpGreater)
	case token.GT_EQ:
		p.emitOps(value.OpLess, value.OpNot)
	case token.LT:
		p.emitOp(value.OpLess)
	case token.LT_EQ:
		p.emitOps(value.OpGreater, value.OpNot)
	case token.PLUS:
		p.emitOp(value.OpAdd)
	case token.MINUS:
		p.emitOp(value.OpSubtract)
	case token.STAR:
		p.emitOp(value.OpMultiply)
	case token.SLASH:
		p.emitOp(value.OpDivide)
	}
}

// and_ and or_ short-circuit: the left operand stays on the stack as the
// result when it determines the outcome, otherwise it's discarded and the
// right operand is evaluated.
func (p *parser) and_(_ bool) {
	endJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *parser) or_(_ bool) {
	elseJump := p.emitJump(value.OpJumpIfFalse)
	endJump := p.emitJump(value.OpJump)
	p.patchJump(elseJump)
	p.emitOp(value.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *parser) call(_ bool) {
	argc := p.argumentList()
	p.emitOpByte(value.OpCall, argc)
}

func (p *parser) argumentList() byte {
	var argc int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argc == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

// dot compiles `.name`, optionally fusing a trailing call into INVOKE
// (spec §4.3) or, as an assignment target, SET_PROPERTY.
func (p *parser) dot(canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitOpByte(value.OpSetProperty, name)
	case p.match(token.LPAREN):
		argc := p.argumentList()
		p.emitOpByte(value.OpInvoke, name)
		p.emitByte(argc)
	default:
		p.emitOpByte(value.OpGetProperty, name)
	}
}

func (p *parser) variable(canAssign bool) { p.namedVariable(p.previous, canAssign) }

// namedVariable resolves an identifier per spec §4.2's three-step order:
// this function's locals, then enclosing functions as upvalues, else a
// global.
func (p *parser) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	idx := resolveLocal(p, p.scope, name)
	if idx != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if idx = resolveUpvalue(p, p.scope, name); idx != -1 {
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		idx = int(p.identifierConstant(name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitOpByte(setOp, byte(idx))
	} else {
		p.emitOpByte(getOp, byte(idx))
	}
}

var syntheticThis = token.Token{Kind: token.IDENT, Lexeme: "this"}
var syntheticSuper = token.Token{Kind: token.IDENT, Lexeme: "super"}

func (p *parser) this_(_ bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

// super_ compiles `super.method(...)`: push the implicit `this`, compile
// arguments, push the superclass, then emit SUPER_INVOKE (or GET_SUPER if
// no call follows).
func (p *parser) super_(_ bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	name := p.identifierConstant(p.previous)

	p.namedVariable(syntheticThis, false)
	if p.match(token.LPAREN) {
		argc := p.argumentList()
		p.namedVariable(syntheticSuper, false)
		p.emitOpByte(value.OpSuperInvoke, name)
		p.emitByte(argc)
	} else {
		p.namedVariable(syntheticSuper, false)
		p.emitOpByte(value.OpGetSuper, name)
	}
}

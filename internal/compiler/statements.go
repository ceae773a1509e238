package compiler

import (
	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

// declaration is the top of the statement grammar (spec §4.2): a class, fun
// or var declaration, or a fallback to statement. Panic-mode resync happens
// here so one bad declaration doesn't poison the rest of the file.
func (p *parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(value.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(value.OpPop)
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

// ifStatement emits a JUMP_IF_FALSE over the then-branch, and (always) an
// unconditional JUMP over the else-branch so the then-branch skips it (spec
// §4.2's control-flow compilation via back-patched forward jumps).
func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()

	elseJump := p.emitJump(value.OpJump)
	p.patchJump(thenJump)
	p.emitOp(value.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(value.OpPop)
}

// forStatement desugars C-style for into the equivalent while loop built
// from its three clauses (spec §4.2), each of which is optional.
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(value.OpJumpIfFalse)
		p.emitOp(value.OpPop)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(value.OpJump)
		incrStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(value.OpPop)
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(value.OpPop)
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.scope.funcType == value.FuncScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.scope.funcType == value.FuncInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(value.OpReturn)
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(value.OpNil)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes a name token, declares it as a local when inside a
// scope, and otherwise returns its constant-pool index for a later
// DEFINE_GLOBAL.
func (p *parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENT, errMsg)

	p.declareVariable(p.previous)
	if p.scope.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

func (p *parser) defineVariable(global byte) {
	if p.scope.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(value.OpDefineGlobal, global)
}

// funDeclaration compiles `fun name(params) { body }` as a named variable
// holding the value produced by compiling the function body (spec §4.2).
func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.compileFunction(value.FuncFunction)
	p.defineVariable(global)
}

// compileFunction compiles a parameter list and body into a nested function
// scope, then emits OP_CLOSURE with its upvalue-descriptor trailer (spec
// §4.3's CLOSURE instruction).
func (p *parser) compileFunction(ft value.FuncType) {
	p.beginFunction(ft, p.previous.Lexeme)
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			p.scope.fn.Arity++
			if p.scope.fn.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	fn := p.endFunction()
	upvalues := p.pendingUpvalues

	idx := p.makeConstant(value.FromObj(fn))
	p.emitOpByte(value.OpClosure, idx)
	for _, u := range upvalues {
		isLocal := byte(0)
		if u.isLocal {
			isLocal = 1
		}
		p.emitByte(isLocal)
		p.emitByte(u.index)
	}
}

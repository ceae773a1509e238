package compiler

import (
	"github.com/kristoferb/lox/internal/token"
	"github.com/kristoferb/lox/internal/value"
)

// beginFunction pushes a new function scope and starts compiling into its
// Chunk. Slot 0 of every frame is reserved: for methods/initializers it is
// the synthetic "this" local (the receiver), for plain functions and the
// top-level script it is an unnamed, unreachable placeholder (spec §4.2).
func (p *parser) beginFunction(ft value.FuncType, name string) {
	fn := p.host.NewFunction()
	p.host.BeginFunctionCompile(fn)
	if name != "" {
		fn.Name = p.host.InternString(name)
	}
	fn.Type = ft

	s := &funcScope{enclosing: p.scope, fn: fn, funcType: ft}
	slotName := ""
	if ft != value.FuncFunction && ft != value.FuncScript {
		slotName = "this"
	}
	s.locals = append(s.locals, local{name: token.Token{Lexeme: slotName}, depth: 0})
	p.scope = s
}

// endFunction finishes the current function scope, returning its Function.
func (p *parser) endFunction() *value.ObjFunction {
	p.emitReturn()
	fn := p.scope.fn
	fn.UpvalueCount = len(p.scope.upvalues)
	upvalues := p.scope.upvalues
	p.host.EndFunctionCompile()
	p.scope = p.scope.enclosing
	p.pendingUpvalues = upvalues
	return fn
}

func (p *parser) beginScope() { p.scope.scopeDepth++ }

// endScope pops every local declared in the scope being left. A captured
// local is closed over (CLOSE_UPVALUE, which also pops the slot); any other
// local is just popped.
func (p *parser) endScope() {
	p.scope.scopeDepth--
	locals := p.scope.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.scope.scopeDepth {
		if locals[len(locals)-1].captured {
			p.emitOp(value.OpCloseUpvalue)
		} else {
			p.emitOp(value.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.scope.locals = locals
}

func identEqual(a, b token.Token) bool { return a.Lexeme == b.Lexeme }

// declareVariable registers name as a new local in the current scope (a
// no-op at global scope, where variables are looked up by name at runtime).
func (p *parser) declareVariable(name token.Token) {
	if p.scope.scopeDepth == 0 {
		return
	}
	for i := len(p.scope.locals) - 1; i >= 0; i-- {
		l := p.scope.locals[i]
		if l.depth != -1 && l.depth < p.scope.scopeDepth {
			break
		}
		if identEqual(l.name, name) {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name token.Token) {
	if len(p.scope.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.scope.locals = append(p.scope.locals, local{name: name, depth: -1})
}

func (p *parser) markInitialized() {
	if p.scope.scopeDepth == 0 {
		return
	}
	p.scope.locals[len(p.scope.locals)-1].depth = p.scope.scopeDepth
}

// resolveLocal walks scope's locals from the top, matching by lexeme; it
// reports "read in its own initializer" if the match's depth is still -1.
func resolveLocal(p *parser, s *funcScope, name token.Token) int {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if identEqual(s.locals[i].name, name) {
			if s.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name against an enclosing scope, recursively
// capturing through intermediate functions and deduplicating upvalue
// descriptors by (index, isLocal) (spec §4.2's variable-resolution order,
// step 2).
func resolveUpvalue(p *parser, s *funcScope, name token.Token) int {
	if s.enclosing == nil {
		return -1
	}
	if i := resolveLocal(p, s.enclosing, name); i != -1 {
		s.enclosing.locals[i].captured = true
		return addUpvalue(p, s, byte(i), true)
	}
	if i := resolveUpvalue(p, s.enclosing, name); i != -1 {
		return addUpvalue(p, s, byte(i), false)
	}
	return -1
}

func addUpvalue(p *parser, s *funcScope, index byte, isLocal bool) int {
	for i, u := range s.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(s.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	s.upvalues = append(s.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(s.upvalues) - 1
}

// Package lox holds the error types shared across the compiler and virtual
// machine, plus the small set of result codes the CLI collaborator
// (cmd/lox) translates into process exit codes.
package lox

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"
)

// Error and ErrorList are the same aggregation types go/scanner uses to
// collect lexical/syntax errors: one position-tagged message per entry,
// sorted and deduplicated on demand, exposed as a single error via Err.
type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// LinePos builds the go/token.Position go/scanner's Error expects, carrying
// only the source line (the core language tracks no column, per spec §4.1).
func LinePos(line int) gotoken.Position {
	return gotoken.Position{Line: line}
}

// Result mirrors clox's InterpretResult: the three outcomes interpret() can
// produce, consumed by cmd/lox to choose a process exit code.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// RuntimeErr wraps a runtime failure message together with the stack trace
// captured at the point of failure (Trace runs from the script frame to the
// most recent call; Format prints it in reverse), matching the trace format
// printed by the reference clox implementation.
type RuntimeErr struct {
	Message string
	Trace   []Frame
}

// Frame is one line of a runtime stack trace: the function name ("script"
// for the top-level frame) and the source line executing when the error was
// raised.
type Frame struct {
	Name string
	Line int
}

func (e *RuntimeErr) Error() string { return e.Message }

// Format renders the error message followed by the stack trace, most recent
// frame first, the same layout clox's runtimeError() prints to stderr.
func (e *RuntimeErr) Format() string {
	s := e.Message + "\n"
	for i := len(e.Trace) - 1; i >= 0; i-- {
		fr := e.Trace[i]
		name := fr.Name
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		s += fmt.Sprintf("[line %d] in %s\n", fr.Line, name)
	}
	return s
}

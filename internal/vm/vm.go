// Package vm implements the stack-based bytecode interpreter (spec §4.3): a
// call-frame stack, a fixed-size value stack, global and intern tables
// shared with the garbage collector, and the main dispatch loop that
// executes one OpCode at a time.
//
// The struct shape (frame array, flat value stack, resetStack,
// READ_BYTE/READ_SHORT/READ_CONSTANT macros reimagined as closures in run) is
// grounded on original_source/clox/vm.c/vm.h; VM satisfies both gc.Roots and
// compiler.Host so the gc and compiler packages never import this one.
package vm

import (
	"fmt"
	"io"

	"github.com/kristoferb/lox/internal/compiler"
	"github.com/kristoferb/lox/internal/gc"
	"github.com/kristoferb/lox/internal/lox"
	"github.com/kristoferb/lox/internal/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// callFrame is one active call's bookkeeping: the closure it's executing,
// its instruction pointer, and the base index into the VM's flat value
// stack where its locals (including the receiver/function, slot 0) start.
type callFrame struct {
	closure   *value.ObjClosure
	ip        int
	slotsBase int
}

// VM owns the entire runtime heap and executes compiled chunks.
type VM struct {
	frames     [framesMax]callFrame
	frameCount int

	stack    [stackMax]value.Value
	stackTop int

	globals *value.Table
	gc      *gc.GC

	openUpvalues *value.ObjUpvalue
	initString   *value.ObjString

	// compilingFuncs is the stack of Function objects currently being built
	// by the compiler, exposed to the GC as roots via CompilerFunctions so a
	// collection triggered mid-compile can't reclaim them (spec §4.4).
	compilingFuncs []*value.ObjFunction

	// Stdout is where OP_PRINT writes; tests redirect it to capture output.
	Stdout io.Writer

	// Trace, when set, disassembles and prints each instruction before it
	// executes (the -trace-exec CLI flag's backend, SPEC_FULL.md's
	// supplemented ambient tracing).
	Trace    bool
	traceOut io.Writer
}

// New constructs a VM ready to Interpret source, printing to stdout. The
// embedded collector's stress mode and logging are off; SetStress and
// SetGCLog turn them on for the --stress-gc/--log-gc flags.
func New(stdout io.Writer) *VM {
	vm := &VM{
		globals:  value.NewTable(),
		gc:       gc.New(),
		Stdout:   stdout,
		traceOut: stdout,
	}
	vm.initString = vm.gc.InternString(vm, "init")
	return vm
}

// SetStress toggles the collector's stress mode (collect before every
// allocation), for --stress-gc / LOX_STRESS_GC.
func (vm *VM) SetStress(on bool) { vm.gc.StressGC = on }

// SetGCLog enables per-collection logging to w, for --log-gc.
func (vm *VM) SetGCLog(w io.Writer) {
	vm.gc.LogGC = true
	vm.gc.LogWriter = w
}

// SetTraceExec enables per-instruction disassembly tracing to w.
func (vm *VM) SetTraceExec(w io.Writer) {
	vm.Trace = true
	vm.traceOut = w
}

// BytesAllocated exposes the collector's current heap-accounting total.
func (vm *VM) BytesAllocated() int { return vm.gc.BytesAllocated() }

// DefineNative installs a native function under name in the global table,
// the mechanism internal/natives and any embedder use to extend the
// language (spec §1's explicit out-of-core-scope native layer).
func (vm *VM) DefineNative(name string, fn value.NativeFn) {
	// Push/pop around the allocations so a GC triggered mid-definition can
	// still find the name and the ObjNative (clox's defineNative does the
	// same dance for the same reason: both are otherwise unrooted).
	vm.push(value.FromObj(vm.gc.InternString(vm, name)))
	vm.push(value.FromObj(vm.gc.NewNative(vm, name, fn)))
	vm.globals.Set(vm.peek(1).AsString(), vm.peek(0))
	vm.pop()
	vm.pop()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret compiles and runs source, mirroring clox's interpret(): a
// compile error short-circuits before any bytecode runs (spec §6/§7).
func (vm *VM) Interpret(source []byte) (lox.Result, error) {
	fn, err := compiler.Compile(source, vm)
	if err != nil {
		return lox.CompileError, err
	}

	vm.resetStack()
	vm.push(value.FromObj(fn))
	closure := vm.gc.NewClosure(vm, fn)
	vm.pop()
	vm.push(value.FromObj(closure))
	vm.call(closure, 0)

	if err := vm.run(); err != nil {
		return lox.RuntimeError, err
	}
	return lox.OK, nil
}

// runtimeError builds the position-tagged RuntimeErr clox's runtimeError()
// reports, with a stack trace from the script frame outward to the
// innermost active call (spec §7), then resets the VM to a clean state.
func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	trace := make([]lox.Frame, 0, vm.frameCount)
	for i := 0; i < vm.frameCount; i++ {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := 0
		if idx := fr.ip - 1; idx >= 0 && idx < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[idx]
		}
		name := ""
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		trace = append(trace, lox.Frame{Name: name, Line: line})
	}

	vm.resetStack()
	return &lox.RuntimeErr{Message: msg, Trace: trace}
}

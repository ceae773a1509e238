package vm

import (
	"fmt"

	"github.com/kristoferb/lox/internal/disasm"
	"github.com/kristoferb/lox/internal/value"
)

// run is the main dispatch loop (spec §4.3): fetch-decode-execute over the
// current frame's bytecode until the outermost call returns or a runtime
// error is raised.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() uint16 {
		hi := frame.closure.Function.Chunk.Code[frame.ip]
		lo := frame.closure.Function.Chunk.Code[frame.ip+1]
		frame.ip += 2
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() value.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *value.ObjString {
		return readConstant().AsString()
	}

	for {
		if vm.Trace {
			line, _ := disasm.Instruction(&frame.closure.Function.Chunk, frame.ip)
			fmt.Fprintln(vm.traceOut, line)
		}

		op := value.OpCode(readByte())
		switch op {
		case value.OpConstant:
			vm.push(readConstant())

		case value.OpNil:
			vm.push(value.Nil)
		case value.OpTrue:
			vm.push(value.Bool(true))
		case value.OpFalse:
			vm.push(value.Bool(false))
		case value.OpPop:
			vm.pop()

		case value.OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.slotsBase+int(slot)])
		case value.OpSetLocal:
			slot := readByte()
			vm.stack[frame.slotsBase+int(slot)] = vm.peek(0)

		case value.OpGetGlobal:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case value.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case value.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case value.OpGetUpvalue:
			slot := readByte()
			vm.push(*frame.closure.Upvalues[slot].Location)
		case value.OpSetUpvalue:
			slot := readByte()
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case value.OpGetProperty:
			if !vm.peek(0).IsObjKind(value.ObjInstanceKind) {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := readString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}
		case value.OpSetProperty:
			if !vm.peek(1).IsObjKind(value.ObjInstanceKind) {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsInstance()
			name := readString()
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case value.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsClass()
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case value.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case value.OpGreater:
			if err := vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case value.OpLess:
			if err := vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}
		case value.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case value.OpSubtract:
			if err := vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case value.OpMultiply:
			if err := vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case value.OpDivide:
			if err := vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}
		case value.OpNot:
			vm.push(value.Bool(vm.pop().Falsey()))
		case value.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case value.OpPrint:
			fmt.Fprintln(vm.Stdout, value.Print(vm.pop()))

		case value.OpJump:
			offset := readShort()
			frame.ip += int(offset)
		case value.OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).Falsey() {
				frame.ip += int(offset)
			}
		case value.OpLoop:
			offset := readShort()
			frame.ip -= int(offset)

		case value.OpCall:
			argCount := int(readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpInvoke:
			name := readString()
			argCount := int(readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsClass()
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClosure:
			fn := readConstant().AsFunction()
			closure := vm.gc.NewClosure(vm, fn)
			vm.push(value.FromObj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slotsBase+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case value.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case value.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slotsBase])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slotsBase
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClass:
			vm.push(value.FromObj(vm.gc.NewClass(vm, readString())))

		case value.OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsObjKind(value.ObjClassKind) {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			superVal.AsClass().Methods.Each(func(k *value.ObjString, v value.Value) {
				subclass.Methods.Set(k, v)
			})
			vm.pop()

		case value.OpMethod:
			vm.defineMethod(readString())

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// binaryNumeric implements the numeric binary operators, checking both
// operands are numbers before calling op (spec §4.3's arithmetic rules).
func (vm *VM) binaryNumeric(op func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

// add implements `+`'s overload: number+number arithmetic or string+string
// concatenation, nothing else (spec §4.3).
func (vm *VM) add() error {
	a, b := vm.peek(1), vm.peek(0)
	switch {
	case a.IsNumber() && b.IsNumber():
		y := vm.pop().AsNumber()
		x := vm.pop().AsNumber()
		vm.push(value.Number(x + y))
	case a.IsObjKind(value.ObjStringKind) && b.IsObjKind(value.ObjStringKind):
		y := vm.pop().AsString()
		x := vm.pop().AsString()
		vm.push(value.FromObj(vm.gc.InternString(vm, x.Chars+y.Chars)))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

// defineMethod pops a just-closed method closure and installs it in the
// class sitting just below it on the stack (spec §4.3's class-body
// compilation protocol: OP_METHOD fires once per method, in body order).
func (vm *VM) defineMethod(name *value.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}

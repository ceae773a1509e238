package vm

import "github.com/kristoferb/lox/internal/value"

// callValue dispatches CALL against whatever is being called: a bare
// closure, a bound method (which rebinds the receiver into slot 0), a
// class (instantiation, with an `init` method call if one exists), or a
// native function (spec §4.3's call-value dispatch table).
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObj() {
		switch kind, _ := callee.ObjKind(); kind {
		case value.ObjClosureKind:
			return vm.call(callee.AsClosure(), argCount)
		case value.ObjBoundMethodKind:
			bound := callee.AsBoundMethod()
			vm.stack[vm.stackTop-argCount-1] = bound.Receiver
			return vm.call(bound.Method, argCount)
		case value.ObjClassKind:
			return vm.instantiate(callee.AsClass(), argCount)
		case value.ObjNativeKind:
			return vm.callNative(callee.AsNative(), argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) instantiate(class *value.ObjClass, argCount int) error {
	instance := vm.gc.NewInstance(vm, class)
	vm.stack[vm.stackTop-argCount-1] = value.FromObj(instance)

	if init, ok := class.Methods.Get(vm.initString); ok {
		return vm.call(init.AsClosure(), argCount)
	}
	if argCount != 0 {
		return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
	}
	return nil
}

func (vm *VM) callNative(native *value.ObjNative, argCount int) error {
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(argCount, args)
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return nil
}

// call pushes a new callFrame for closure, checking arity and the
// framesMax recursion limit (spec §4.3, §7).
func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slotsBase = vm.stackTop - argCount - 1
	return nil
}

// invoke fuses a GET_PROPERTY + CALL into one step: look up name on the
// receiver's instance fields first (a field may shadow a method, spec
// §4.3), falling back to the receiver's class method table.
func (vm *VM) invoke(name *value.ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObjKind(value.ObjInstanceKind) {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsClosure(), argCount)
}

// bindMethod wraps a class method closure with its receiver into a
// BoundMethod, for a bare GET_PROPERTY (no call following) resolving to a
// method.
func (vm *VM) bindMethod(class *value.ObjClass, name *value.ObjString) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.gc.NewBoundMethod(vm, vm.peek(0), method.AsClosure())
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}

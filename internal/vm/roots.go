package vm

import "github.com/kristoferb/lox/internal/value"

// --- gc.Roots ------------------------------------------------------------

func (vm *VM) StackValues() []value.Value { return vm.stack[:vm.stackTop] }

func (vm *VM) FrameClosures() []*value.ObjClosure {
	closures := make([]*value.ObjClosure, vm.frameCount)
	for i := 0; i < vm.frameCount; i++ {
		closures[i] = vm.frames[i].closure
	}
	return closures
}

func (vm *VM) OpenUpvalues() *value.ObjUpvalue { return vm.openUpvalues }

func (vm *VM) Globals() *value.Table { return vm.globals }

func (vm *VM) CompilerFunctions() []*value.ObjFunction { return vm.compilingFuncs }

func (vm *VM) InitString() *value.ObjString { return vm.initString }

// --- compiler.Host ---------------------------------------------------------

func (vm *VM) InternString(chars string) *value.ObjString {
	return vm.gc.InternString(vm, chars)
}

func (vm *VM) NewFunction() *value.ObjFunction {
	return vm.gc.NewFunction(vm)
}

// BeginFunctionCompile/EndFunctionCompile push/pop the compiler's
// currently-being-built Function so a collection triggered mid-compile
// still finds every function on the nested-scope stack (spec §4.4).
func (vm *VM) BeginFunctionCompile(fn *value.ObjFunction) {
	vm.compilingFuncs = append(vm.compilingFuncs, fn)
}

func (vm *VM) EndFunctionCompile() {
	vm.compilingFuncs = vm.compilingFuncs[:len(vm.compilingFuncs)-1]
}

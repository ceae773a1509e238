// Package natives implements the small set of native functions the runtime
// exposes to scripts (SPEC_FULL.md's supplemented features): clock(), the
// same native clox's standard library chapter defines, and len(), which
// returns the length in bytes of its one string argument.
package natives

import (
	"fmt"
	"time"

	"github.com/kristoferb/lox/internal/value"
)

// Host is the subset of *vm.VM natives need: a place to register
// themselves under a global name.
type Host interface {
	DefineNative(name string, fn value.NativeFn)
}

// Install registers every native function on host.
func Install(host Host) {
	host.DefineNative("clock", clock)
	host.DefineNative("len", length)
}

func clock(argCount int, args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}

func length(argCount int, args []value.Value) (value.Value, error) {
	if argCount != 1 {
		return value.Nil, errArity(1, argCount)
	}
	arg := args[0]
	if !arg.IsObjKind(value.ObjStringKind) {
		return value.Nil, errNotAString()
	}
	return value.Number(float64(len(arg.AsString().Chars))), nil
}

type nativeError struct{ msg string }

func (e *nativeError) Error() string { return e.msg }

func errArity(want, got int) error {
	return &nativeError{msg: fmt.Sprintf("len() takes exactly %d argument, got %d", want, got)}
}

func errNotAString() error {
	return &nativeError{msg: "len() only supports strings"}
}

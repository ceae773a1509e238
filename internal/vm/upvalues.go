package vm

import (
	"unsafe"

	"github.com/kristoferb/lox/internal/value"
)

// captureUpvalue returns the open upvalue for the stack slot at local,
// reusing an existing one if the open list already has one for that exact
// address (spec §3's "open upvalue dedup" invariant). The list is kept
// sorted by descending stack address so closeUpvalues can stop early.
func (vm *VM) captureUpvalue(local *value.Value) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Location != local {
		if uintptrOf(cur.Location) < uintptrOf(local) {
			break
		}
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == local {
		return cur
	}

	created := vm.gc.NewUpvalue(vm, local)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at or above last,
// moving each captured value out of the stack and into the upvalue's own
// storage before the corresponding stack slots are discarded (spec §3/§4.3,
// CLOSE_UPVALUE and function-return cleanup).
func (vm *VM) closeUpvalues(last *value.Value) {
	for vm.openUpvalues != nil && uintptrOf(vm.openUpvalues.Location) >= uintptrOf(last) {
		u := vm.openUpvalues
		u.Close()
		vm.openUpvalues = u.NextOpen
	}
}

// uintptrOf compares stack slot addresses. Go forbids ordered comparison of
// arbitrary pointers as integers directly, but unsafe.Pointer round-tripped
// through uintptr is the idiomatic way to get clox's pointer-arithmetic
// ordering over slots of the same backing array.
func uintptrOf(v *value.Value) uintptr {
	return uintptr(unsafe.Pointer(v))
}

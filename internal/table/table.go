// Package table implements the open-addressed, string-keyed hash table used
// throughout the interpreter for globals, instance fields, class method
// tables and the string intern set (spec §4's "Hash Table" component).
//
// A generic, general-purpose map (Go's builtin map, or a library like
// dolthub/swiss) cannot serve this component: the interning weak-reference
// discipline requires walking live entries between the GC's mark and sweep
// phases and deleting any whose key is unmarked (see FilterKeys), and the
// load-factor/tombstone accounting is spec-mandated (spec.md §9) down to the
// exact 75% growth threshold. Grounded on clox/table.h, reshaped into a Go
// generic type so it can back globals, fields, and methods tables (all
// keyed by *value.ObjString) without duplicating the probing logic three
// times, the way nenuphar centralizes comparable logic in one generic type
// per concern.
package table

// Key is the constraint satisfied by table keys: comparable (so entries can
// be compared by == for probing) plus a precomputed hash, the way
// value.ObjString precomputes its 32-bit hash at construction.
type Key interface {
	comparable
	HashKey() uint32
}

type entryState uint8

const (
	stateEmpty entryState = iota
	stateTombstone
	stateOccupied
)

type entry[K Key, V any] struct {
	key   K
	value V
	state entryState
}

// maxLoad is the load-factor threshold (count, including tombstones,
// relative to capacity) past which the table grows, matching the 75%
// described in spec.md §9.
const maxLoad = 0.75

// Table is an open-addressed hash table with linear probing and tombstone
// deletion.
type Table[K Key, V any] struct {
	entries []entry[K, V]
	count   int // live entries + tombstones, for load-factor purposes
}

// New returns an empty table. Capacity grows lazily on first Set.
func New[K Key, V any]() *Table[K, V] {
	return &Table[K, V]{}
}

// Len reports the number of live (non-tombstone) entries.
func (t *Table[K, V]) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.state == stateOccupied {
			n++
		}
	}
	return n
}

// Get looks up key, reporting whether it was found.
func (t *Table[K, V]) Get(key K) (V, bool) {
	var zero V
	if len(t.entries) == 0 {
		return zero, false
	}
	e := t.find(key)
	if e.state != stateOccupied {
		return zero, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value, reporting whether this was a new
// key (matching clox's tableSet return value, used by the VM to detect
// global redefinition/assignment-to-undefined).
func (t *Table[K, V]) Set(key K, val V) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.find(key)
	isNew := e.state != stateOccupied
	if isNew && e.state == stateEmpty {
		t.count++
	}
	e.key = key
	e.value = val
	e.state = stateOccupied
	return isNew
}

// Delete removes key, leaving a tombstone in its slot so later probes that
// skipped over it during a collision chain still find their target.
func (t *Table[K, V]) Delete(key K) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.state != stateOccupied {
		return false
	}
	var zero V
	e.key, e.value = zeroKey[K](), zero
	e.state = stateTombstone
	return true
}

// FilterKeys removes every live entry whose key fails keep, used by the
// garbage collector to implement the intern table's weak-reference
// discipline: between mark and sweep, any interned string that nothing else
// reached is dropped here so the sweep phase is free to collect it.
func (t *Table[K, V]) FilterKeys(keep func(K, V) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.state == stateOccupied && !keep(e.key, e.value) {
			var zero V
			e.key, e.value = zeroKey[K](), zero
			e.state = stateTombstone
		}
	}
}

// Each calls fn for every live entry, in table (not insertion) order.
func (t *Table[K, V]) Each(fn func(K, V)) {
	for _, e := range t.entries {
		if e.state == stateOccupied {
			fn(e.key, e.value)
		}
	}
}

func zeroKey[K Key]() K {
	var k K
	return k
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

// find returns the entry key should occupy: either the matching occupied
// entry, the first tombstone seen along the probe chain (so deletes don't
// break lookups for keys inserted after them), or the first empty slot.
func (t *Table[K, V]) find(key K) *entry[K, V] {
	cap := len(t.entries)
	idx := int(keyHash(key) % uint32(cap))
	var tombstone *entry[K, V]
	for {
		e := &t.entries[idx]
		switch e.state {
		case stateEmpty:
			if tombstone != nil {
				return tombstone
			}
			return e
		case stateTombstone:
			if tombstone == nil {
				tombstone = e
			}
		case stateOccupied:
			if e.key == key {
				return e
			}
		}
		idx = (idx + 1) % cap
	}
}

func keyHash[K Key](key K) uint32 { return key.HashKey() }

func (t *Table[K, V]) grow(newCap int) {
	old := t.entries
	t.entries = make([]entry[K, V], newCap)
	t.count = 0
	for _, e := range old {
		if e.state != stateOccupied {
			continue
		}
		dst := t.find(e.key)
		dst.key, dst.value, dst.state = e.key, e.value, stateOccupied
		t.count++
	}
}

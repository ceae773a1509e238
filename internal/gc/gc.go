// Package gc implements the tracing mark-sweep garbage collector described
// in spec §4.4: heap accounting that triggers a collection whenever
// allocation pushes bytes-allocated past a threshold, a gray worklist
// tri-color marker, and a sweep that frees unmarked objects and prunes the
// string intern table's weak references.
//
// Go objects are already reclaimed by the host runtime once unreachable;
// this package still performs the full mark/sweep walk over the
// interpreter's own object graph so the heap-accounting and collection
// triggers specified in spec §4.4 are real and observable (bytes-allocated
// tracking, stress-GC mode, GC logging), and "sweep" makes freed objects
// genuinely unreachable (unlinked from every table and from the object
// list) rather than merely computing which ones could be freed. See
// DESIGN.md for why no attempt is made to reimplement manual allocation.
package gc

import (
	"fmt"
	"io"
	"reflect"

	"github.com/kristoferb/lox/internal/value"
)

// heapGrowFactor is clox's HEAP_GROW_FACTOR.
const heapGrowFactor = 2

// initialThreshold matches clox's default next-GC threshold (1 MiB) before
// any allocation has happened.
const initialThreshold = 1024 * 1024

// objSize is a rough per-kind byte-accounting estimate, used only to decide
// when to collect; it does not need to be exact, only monotonic with
// allocation the way clox's sizeof(ObjX) accounting is.
func objSize(k value.ObjKind) int {
	switch k {
	case value.ObjStringKind:
		return 32
	case value.ObjFunctionKind:
		return 96
	case value.ObjNativeKind:
		return 48
	case value.ObjClosureKind:
		return 48
	case value.ObjUpvalueKind:
		return 40
	case value.ObjClassKind:
		return 64
	case value.ObjInstanceKind:
		return 64
	case value.ObjBoundMethodKind:
		return 40
	default:
		return 16
	}
}

// Roots lets the collector ask the VM (and, during compilation, the
// compiler) for every Value and Obj reachable as a GC root, without this
// package importing the vm/compiler packages (see spec §4.4's root list).
type Roots interface {
	StackValues() []value.Value
	FrameClosures() []*value.ObjClosure
	OpenUpvalues() *value.ObjUpvalue
	Globals() *value.Table
	CompilerFunctions() []*value.ObjFunction
	// InitString is the VM's dedicated interned "init" string, kept as an
	// explicit root per spec §4.4 since between calls it may be reachable
	// from nowhere else.
	InitString() *value.ObjString
}

// GC owns the heap: the intrusive object list, the string intern table, and
// the allocation accounting that drives collection triggers.
type GC struct {
	objects value.Obj // head of the intrusive object list

	strings *value.InternTable

	bytesAllocated int
	nextGC         int

	gray []value.Obj

	// StressGC, when true, runs a collection before every allocation
	// (spec §4.4's optional stress mode).
	StressGC bool
	// LogGC, when set, writes one line per collection and per mark/sweep
	// event to LogWriter, the Go-native equivalent of clox's
	// -DDEBUG_LOG_GC build toggle (see SPEC_FULL.md's supplemented features).
	LogGC     bool
	LogWriter io.Writer
}

func New() *GC {
	return &GC{
		strings: value.NewInternTable(),
		nextGC:  initialThreshold,
	}
}

func (g *GC) link(o value.Obj) {
	h := o.Header()
	h.Next = g.objects
	g.objects = o
	g.bytesAllocated += objSize(o.Kind())
}

func (g *GC) logf(format string, args ...any) {
	if g.LogGC && g.LogWriter != nil {
		fmt.Fprintf(g.LogWriter, format, args...)
	}
}

// InternString returns the canonical *ObjString for chars, allocating and linking
// a new one only if this content has never been seen before (spec §3's
// string-interning invariant: a == b iff identity-equal).
func (g *GC) InternString(roots Roots, chars string) *value.ObjString {
	if existing, ok := g.strings.Get(value.InternKey(chars)); ok {
		return existing
	}
	g.MaybeCollect(roots)
	s := value.NewRawString(chars)
	g.link(s)
	g.strings.Set(value.InternKey(chars), s)
	return s
}

func (g *GC) NewFunction(roots Roots) *value.ObjFunction {
	g.MaybeCollect(roots)
	f := value.NewFunction()
	g.link(f)
	return f
}

func (g *GC) NewNative(roots Roots, name string, fn value.NativeFn) *value.ObjNative {
	g.MaybeCollect(roots)
	n := value.NewNative(name, fn)
	g.link(n)
	return n
}

func (g *GC) NewClosure(roots Roots, fn *value.ObjFunction) *value.ObjClosure {
	g.MaybeCollect(roots)
	c := value.NewClosure(fn)
	g.link(c)
	return c
}

func (g *GC) NewUpvalue(roots Roots, slot *value.Value) *value.ObjUpvalue {
	g.MaybeCollect(roots)
	u := value.NewUpvalue(slot)
	g.link(u)
	return u
}

func (g *GC) NewClass(roots Roots, name *value.ObjString) *value.ObjClass {
	g.MaybeCollect(roots)
	c := value.NewClass(name)
	g.link(c)
	return c
}

func (g *GC) NewInstance(roots Roots, class *value.ObjClass) *value.ObjInstance {
	g.MaybeCollect(roots)
	i := value.NewInstance(class)
	g.link(i)
	return i
}

func (g *GC) NewBoundMethod(roots Roots, receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	g.MaybeCollect(roots)
	b := value.NewBoundMethod(receiver, method)
	g.link(b)
	return b
}

// MaybeCollect runs a collection if bytes-allocated has passed the
// threshold, or unconditionally when StressGC is enabled (spec §4.4's
// trigger policy). roots may be nil during the earliest bootstrap
// allocations (before a VM exists to provide them), in which case no
// collection is possible yet and none is attempted.
func (g *GC) MaybeCollect(roots Roots) {
	if roots == nil {
		return
	}
	if g.StressGC || g.bytesAllocated > g.nextGC {
		g.Collect(roots)
	}
}

// Collect runs one full mark-sweep cycle.
func (g *GC) Collect(roots Roots) {
	before := g.bytesAllocated
	g.logf("-- gc begin\n")

	g.markRoots(roots)
	g.traceReferences()
	g.sweepStrings()
	g.sweep()

	g.nextGC = g.bytesAllocated * heapGrowFactor
	if g.nextGC < initialThreshold {
		g.nextGC = initialThreshold
	}
	g.logf("-- gc end, collected %d bytes (from %d to %d), next at %d\n",
		before-g.bytesAllocated, before, g.bytesAllocated, g.nextGC)
}

func (g *GC) markRoots(roots Roots) {
	for _, v := range roots.StackValues() {
		g.markValue(v)
	}
	for _, c := range roots.FrameClosures() {
		g.markObject(c)
	}
	for u := roots.OpenUpvalues(); u != nil; u = u.NextOpen {
		g.markObject(u)
	}
	if globals := roots.Globals(); globals != nil {
		globals.Each(func(k *value.ObjString, v value.Value) {
			g.markObject(k)
			g.markValue(v)
		})
	}
	for _, fn := range roots.CompilerFunctions() {
		g.markObject(fn)
	}
	g.markObject(roots.InitString())
}

func (g *GC) markValue(v value.Value) {
	if v.IsObj() {
		g.markObject(v.AsObj())
	}
}

func (g *GC) markObject(o value.Obj) {
	// A nil pointer of a concrete kind (the script's unnamed Function, a
	// closure's not-yet-filled upvalue slot) arrives as a non-nil interface.
	if o == nil || reflect.ValueOf(o).IsNil() {
		return
	}
	h := o.Header()
	if h.Marked {
		return
	}
	h.Marked = true
	g.logf("mark %s\n", value.Print(value.FromObj(o)))
	g.gray = append(g.gray, o)
}

// traceReferences repeatedly blackens gray objects until the worklist is
// empty, implementing the tri-color abstraction of spec §4.4.
func (g *GC) traceReferences() {
	for len(g.gray) > 0 {
		o := g.gray[len(g.gray)-1]
		g.gray = g.gray[:len(g.gray)-1]
		g.blacken(o)
	}
}

func (g *GC) blacken(o value.Obj) {
	switch ob := o.(type) {
	case *value.ObjString, *value.ObjNative:
		// header only, no further references.
	case *value.ObjFunction:
		g.markObject(ob.Name)
		for _, c := range ob.Chunk.Constants {
			g.markValue(c)
		}
	case *value.ObjClosure:
		g.markObject(ob.Function)
		for _, u := range ob.Upvalues {
			g.markObject(u)
		}
	case *value.ObjUpvalue:
		g.markValue(ob.Closed)
	case *value.ObjClass:
		g.markObject(ob.Name)
		ob.Methods.Each(func(k *value.ObjString, v value.Value) {
			g.markObject(k)
			g.markValue(v)
		})
	case *value.ObjInstance:
		g.markObject(ob.Class)
		ob.Fields.Each(func(k *value.ObjString, v value.Value) {
			g.markObject(k)
			g.markValue(v)
		})
	case *value.ObjBoundMethod:
		g.markValue(ob.Receiver)
		g.markObject(ob.Method)
	}
}

// sweepStrings implements the intern table's weak-reference discipline:
// between mark and sweep, any interned string nothing else reached is
// dropped so the table doesn't keep resurrecting about-to-be-freed strings.
func (g *GC) sweepStrings() {
	g.strings.FilterKeys(func(_ value.InternKey, s *value.ObjString) bool {
		return s.Marked
	})
}

// sweep walks the intrusive object list, frees (unlinks) every unmarked
// object, and clears the mark bit on survivors.
func (g *GC) sweep() {
	var prev value.Obj
	cur := g.objects
	for cur != nil {
		h := cur.Header()
		if h.Marked {
			h.Marked = false
			prev = cur
			cur = h.Next
			continue
		}
		unreached := cur
		cur = h.Next
		if prev != nil {
			prev.Header().Next = cur
		} else {
			g.objects = cur
		}
		g.bytesAllocated -= objSize(unreached.Kind())
		g.logf("free %s\n", value.Print(value.FromObj(unreached)))
	}
}

// BytesAllocated exposes the current heap-accounting total, for tests and
// for VM.BytesAllocated.
func (g *GC) BytesAllocated() int { return g.bytesAllocated }

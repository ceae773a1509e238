package value

// ObjKind tags the concrete variant of a heap Object.
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjNativeKind
	ObjClosureKind
	ObjUpvalueKind
	ObjClassKind
	ObjInstanceKind
	ObjBoundMethodKind
)

// Obj is implemented by every heap-allocated object. Every kind shares a
// header carrying the kind tag, the GC mark bit and the intrusive
// next-object link the collector's object list threads through (spec §3's
// Object header). Header is exported so the gc package, which lives outside
// this one, can walk and mutate it through the interface.
type Obj interface {
	Kind() ObjKind
	Header() *ObjHeader
}

// ObjHeader is embedded by every concrete Obj implementation.
type ObjHeader struct {
	kind   ObjKind
	Marked bool
	Next   Obj
}

func (h *ObjHeader) Kind() ObjKind     { return h.kind }
func (h *ObjHeader) Header() *ObjHeader { return h }

// ObjString is an immutable, interned byte sequence with a precomputed
// 32-bit FNV-1a hash (matching clox's hashString).
type ObjString struct {
	ObjHeader
	Chars string
	Hash  uint32
}

// HashKey lets *ObjString satisfy table.Key without this package importing
// the table package (structural interfaces, see table.Key's doc comment).
func (s *ObjString) HashKey() uint32 { return s.Hash }

// NewRawString allocates an ObjString without interning it. Only the
// garbage collector's InternString should call this; every other caller
// must go through interning so the one-object-per-content invariant holds.
func NewRawString(chars string) *ObjString {
	s := &ObjString{Chars: chars, Hash: HashString(chars)}
	s.kind = ObjStringKind
	return s
}

// HashString computes clox's FNV-1a string hash.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// Chunk is a bytecode buffer plus its constant pool and per-byte source-line
// map (spec §3's Chunk). Constant-pool indices are single bytes, so a chunk
// may hold at most 256 constants; AddConstant reports failure past that.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends a bytecode byte with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool, returning its index and false
// if the pool is already at the 256-entry byte-index limit (spec §3).
func (c *Chunk) AddConstant(v Value) (int, bool) {
	if len(c.Constants) >= 256 {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

// FuncType distinguishes the top-level script from user functions, methods
// and initializers, governing `this`/`super` resolution and the implicit
// `return this` of initializers (spec §4.2, §4.3).
type FuncType uint8

const (
	FuncScript FuncType = iota
	FuncFunction
	FuncMethod
	FuncInitializer
)

// ObjFunction is a compiled function: its arity, upvalue count, code and
// constant pool, and an optional name (nil for the top-level script).
type ObjFunction struct {
	ObjHeader
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
	Type         FuncType
}

func NewFunction() *ObjFunction {
	f := &ObjFunction{}
	f.kind = ObjFunctionKind
	return f
}

// NativeFn is an externally supplied callable, the interface boundary to
// the native-function extension library (spec §1, out of core scope).
type NativeFn func(argCount int, args []Value) (Value, error)

type ObjNative struct {
	ObjHeader
	Name string
	Fn   NativeFn
}

func NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.kind = ObjNativeKind
	return n
}

// ObjUpvalue is a cell that either points at a still-live stack slot (open,
// Location aliases that slot) or owns a captured Value (closed, Location
// points back at its own Closed field). NextOpen threads the VM's
// descending-address open-upvalue list; it is distinct from the GC's Next
// object-list link in ObjHeader.
type ObjUpvalue struct {
	ObjHeader
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue
}

func NewUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	u.kind = ObjUpvalueKind
	return u
}

// Close moves the current value out of the stack slot and into the upvalue's
// own storage, repointing Location at it. After Close, the upvalue survives
// the stack slot being reused or popped.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a Function with its captured upvalues. It is the only
// directly callable function object; an ObjFunction is never invoked on its
// own.
type ObjClosure struct {
	ObjHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	c.kind = ObjClosureKind
	return c
}

// ObjClass is a class: its name and its method table (name -> closure).
type ObjClass struct {
	ObjHeader
	Name    *ObjString
	Methods *Table
}

func NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	c.kind = ObjClassKind
	return c
}

// ObjInstance is an instance of a class: the class pointer and a fields
// table (name -> value), distinct from (and shadowing, on lookup) the
// class's methods.
type ObjInstance struct {
	ObjHeader
	Class  *ObjClass
	Fields *Table
}

func NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	i.kind = ObjInstanceKind
	return i
}

// ObjBoundMethod pairs a receiver with one of its class's method closures.
// The bytecode mostly avoids allocating these by fusing GET_PROPERTY with a
// following CALL into INVOKE/SUPER_INVOKE (spec §4.3); GET_PROPERTY /
// GET_SUPER without a following call still need this object to represent
// "a method, not yet called, tied to its receiver".
type ObjBoundMethod struct {
	ObjHeader
	Receiver Value
	Method   *ObjClosure
}

func NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	b.kind = ObjBoundMethodKind
	return b
}

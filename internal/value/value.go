package value

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kristoferb/lox/internal/table"
)

// ValueType tags the kind of a Value's payload (spec §3's tagged-union
// backend; the NaN-boxed alternative described in spec.md §9 is not built,
// see DESIGN.md/SPEC_FULL.md's Open Questions section).
type ValueType uint8

const (
	TypeNil ValueType = iota
	TypeBool
	TypeNumber
	TypeObj
)

// Value is a dynamically-typed value: nil, bool, a 64-bit float, or a
// reference to a heap Object.
type Value struct {
	typ     ValueType
	boolean bool
	number  float64
	obj     Obj
}

var Nil = Value{typ: TypeNil}

func Bool(b bool) Value       { return Value{typ: TypeBool, boolean: b} }
func Number(n float64) Value  { return Value{typ: TypeNumber, number: n} }
func FromObj(o Obj) Value     { return Value{typ: TypeObj, obj: o} }

func (v Value) IsNil() bool    { return v.typ == TypeNil }
func (v Value) IsBool() bool   { return v.typ == TypeBool }
func (v Value) IsNumber() bool { return v.typ == TypeNumber }
func (v Value) IsObj() bool    { return v.typ == TypeObj }

func (v Value) AsBool() bool     { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Obj        { return v.obj }

func (v Value) ObjKind() (ObjKind, bool) {
	if v.typ != TypeObj {
		return 0, false
	}
	return v.obj.Kind(), true
}

func (v Value) IsObjKind(k ObjKind) bool {
	kind, ok := v.ObjKind()
	return ok && kind == k
}

func (v Value) AsString() *ObjString         { return v.obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction     { return v.obj.(*ObjFunction) }
func (v Value) AsNative() *ObjNative         { return v.obj.(*ObjNative) }
func (v Value) AsClosure() *ObjClosure       { return v.obj.(*ObjClosure) }
func (v Value) AsClass() *ObjClass           { return v.obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance     { return v.obj.(*ObjInstance) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.obj.(*ObjBoundMethod) }

// Falsey implements spec §4.3's falsiness rule: nil and false are falsey,
// everything else (including 0, "", NaN) is truthy.
func (v Value) Falsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements spec §4.3's == semantics: different kinds are never
// equal, numbers compare by IEEE 754 rules (NaN != NaN), bool/nil compare
// structurally, and objects compare by identity (which, thanks to string
// interning, makes two equal-content strings compare equal too).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNil:
		return true
	case TypeBool:
		return a.boolean == b.boolean
	case TypeNumber:
		return a.number == b.number
	case TypeObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print renders v using the exact format the reference implementation's
// test suite depends on (spec §6's Print format table).
func Print(v Value) string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case TypeNumber:
		return formatNumber(v.number)
	case TypeObj:
		return printObj(v.obj)
	default:
		return "?"
	}
}

// formatNumber renders a float the way clox's printValue does: %g-style,
// but integral values print without a trailing ".0".
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func printObj(o Obj) string {
	switch ob := o.(type) {
	case *ObjString:
		return ob.Chars
	case *ObjFunction:
		if ob.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", ob.Name.Chars)
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return printObj(ob.Function)
	case *ObjUpvalue:
		return "upvalue"
	case *ObjClass:
		return ob.Name.Chars
	case *ObjInstance:
		return fmt.Sprintf("%s instance", ob.Class.Name.Chars)
	case *ObjBoundMethod:
		return printObj(ob.Method)
	default:
		return "<obj>"
	}
}

// InternKey is the comparable, hashable key type used by the string intern
// table: the raw content, so lookups can be done before an ObjString for
// that content exists.
type InternKey string

func (k InternKey) HashKey() uint32 { return HashString(string(k)) }

// Table is the concrete Table specialization used for globals, instance
// fields and class method tables: *ObjString keys (compared by identity,
// which the intern set makes equivalent to content equality) to Value.
type Table = table.Table[*ObjString, Value]

func NewTable() *Table { return table.New[*ObjString, Value]() }

// InternTable is the concrete Table specialization backing the string
// intern set: content keys to the canonical *ObjString for that content.
type InternTable = table.Table[InternKey, *ObjString]

func NewInternTable() *InternTable { return table.New[InternKey, *ObjString]() }

package oba

import "fmt"

// ObjectKind discriminates Object's variants, per spec §3.
type ObjectKind byte

const (
	ObjStringKind ObjectKind = iota
	ObjFunctionKind
	ObjClosureKind
	ObjUpvalueKind
	ObjTableKind
)

// Object is the shared header for every heap-allocated value. next threads
// every live object through the owning VM's object list (VM.objects) for
// bulk teardown on Close — the same "linked list through owned storage, one
// head in the owner" shape the teacher uses for its dictionary (see
// DESIGN.md's Open Questions entry on arena-vs-pointers).
type Object struct {
	Kind ObjectKind
	next *Object

	str      *ObjString
	function *ObjFunction
	closure  *ObjClosure
	upvalue  *ObjUpvalue
	table    *ObjTable
}

func (o *Object) AsString() *ObjString     { return o.str }
func (o *Object) AsFunction() *ObjFunction { return o.function }
func (o *Object) AsClosure() *ObjClosure   { return o.closure }
func (o *Object) AsUpvalue() *ObjUpvalue   { return o.upvalue }
func (o *Object) AsTable() *ObjTable       { return o.table }

// String renders the object per the `debug` sink's textual-value contract.
func (o *Object) String() string {
	switch o.Kind {
	case ObjStringKind:
		return o.str.Value
	case ObjFunctionKind:
		return o.function.String()
	case ObjClosureKind:
		return o.closure.Function.String()
	case ObjUpvalueKind:
		return "<upvalue>"
	case ObjTableKind:
		return "<table>"
	default:
		return "<object>"
	}
}

// ObjString is an immutable, content-hashed, interned string.
type ObjString struct {
	Value        string
	hash         uint32
	objectHeader *Object
}

// fnv1a32 computes the 32-bit FNV-1a hash of s, per spec §4.4 ("a
// deterministic byte-level hash... FNV-1a is the intended family").
func fnv1a32(s string) uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := uint32(offsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// ObjFunction is a compiled unit: a Chunk owned by a top-level or nested fn.
type ObjFunction struct {
	Name       string // "" for the implicit top-level function
	Arity      int
	UpvalCount int
	Chunk      Chunk
}

func (f *ObjFunction) String() string {
	if f.Name == "" {
		return "<fn>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// UpvalueDesc records how a Closure's Nth upvalue is captured, per spec
// §4.2: IsLocal true captures a slot of the immediately enclosing function;
// false chains through that function's own upvalue at Index.
type UpvalueDesc struct {
	IsLocal bool
	Index   int
}

// ObjClosure pairs a Function with the Upvalues captured at creation time.
type ObjClosure struct {
	Function     *ObjFunction
	Upvalues     []*ObjUpvalue
	objectHeader *Object
}

// ObjUpvalue is a cell referring to a captured variable: open while the
// source stack slot is still live, closed once it has been copied out.
type ObjUpvalue struct {
	// StackIndex is the absolute index into the VM's value stack this
	// upvalue refers to while Closed is false.
	StackIndex int
	Closed     bool
	Value      Value

	// next chains open upvalues in descending StackIndex order, mirroring
	// spec §4.5's "open list... sorted by descending slot index".
	next *ObjUpvalue
}

// Get reads the upvalue's current value, either live off the stack (open)
// or from its own storage (closed).
func (uv *ObjUpvalue) Get(stack *valueStack) Value {
	if uv.Closed {
		return uv.Value
	}
	v, _ := stack.At(uv.StackIndex)
	return v
}

// Set writes the upvalue's current value.
func (uv *ObjUpvalue) Set(stack *valueStack, v Value) {
	if uv.Closed {
		uv.Value = v
		return
	}
	_ = stack.SetAt(uv.StackIndex, v)
}

// Close copies the current stack value into the upvalue's own storage and
// marks it closed; subsequent reads/writes target that storage.
func (uv *ObjUpvalue) Close(stack *valueStack) {
	if uv.Closed {
		return
	}
	v, _ := stack.At(uv.StackIndex)
	uv.Value = v
	uv.Closed = true
}

package oba

import (
	"context"
	"io"

	"github.com/QuantumBits/oba/internal/flushio"
	"github.com/QuantumBits/oba/internal/logio"
	"github.com/QuantumBits/oba/internal/panicerr"
	"github.com/QuantumBits/oba/internal/runeio"
	"github.com/QuantumBits/oba/internal/stack"
	"github.com/josharian/intern"
)

type valueStack = stack.Stack[Value]

const (
	defaultStackLimit = 4096
	defaultFrameLimit = 256
)

// VM is a single Oba execution context: a value stack, a call-frame stack,
// a global environment, and the object graph allocated while running. It
// is not safe for concurrent use, matching the teacher's single-goroutine
// VM (concurrency is out of scope, see SPEC_FULL.md).
type VM struct {
	stk    valueStack
	frames []CallFrame

	frameLimit uint

	ctx context.Context

	globals *ObjTable
	strtab  map[string]*ObjString
	objects *Object

	openUpvalues *ObjUpvalue

	out     flushio.WriteFlusher
	closers []io.Closer
	logfn   func(mess string, args ...interface{})
	log     *logio.Logger
}

// New constructs a VM, applying opts over the defaults (output discarded,
// a 4096-slot value stack, 256 call frames), mirroring the teacher's
// New(opts ...VMOption) functional-options constructor.
func New(opts ...Option) *VM {
	vm := &VM{
		globals: &ObjTable{},
		strtab:  make(map[string]*ObjString),
	}
	vm.stk.What = "value stack"
	vm.stk.Limit = defaultStackLimit
	vm.frameLimit = defaultFrameLimit
	defaultOptions.apply(vm)
	Options(opts...).apply(vm)
	if vm.out == nil {
		vm.out = flushio.NewWriteFlusher(io.Discard)
	}
	return vm
}

// Close flushes and closes any output writers the VM was given, and drops
// its object graph so the garbage collector can reclaim it.
func (vm *VM) Close() error {
	var err error
	if vm.out != nil {
		err = vm.out.Flush()
	}
	for _, c := range vm.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if vm.log != nil {
		vm.log.Close()
	}
	vm.objects = nil
	vm.openUpvalues = nil
	return err
}

// ObjectCount walks the VM's object list, mostly useful for tests asserting
// that allocation and teardown behave as expected.
func (vm *VM) ObjectCount() int {
	n := 0
	for o := vm.objects; o != nil; o = o.next {
		n++
	}
	return n
}

func (vm *VM) trace(mess string, args ...interface{}) {
	if vm.logfn != nil {
		vm.logfn(mess, args...)
	}
}

// Interpret compiles and runs source, returning the outcome per spec §6.
// A compile error returns ResultCompileError with every diagnostic
// collected into a *CompileError; a runtime fault returns
// ResultRuntimeError with the *RuntimeError that halted execution. The
// whole run executes on its own goroutine via internal/panicerr.Recover
// (the same halting discipline the teacher's api.go used for its own
// Run), so ctx cancellation or a deadline can interrupt it between
// opcodes without the caller's goroutine ever observing a raw panic.
func (vm *VM) Interpret(ctx context.Context, source string) (Result, error) {
	fn, err := vm.compile(source)
	if err != nil {
		return ResultCompileError, err
	}

	// A prior call may have panicked out of run() mid-frame, leaving stale
	// slots/frames behind; globals and the string table persist across
	// calls (the REPL relies on it), but the stack and frames do not.
	vm.stk.Reset()
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	closure := vm.newClosure(fn)
	if err := vm.push(ObjectValue(closure.objectHeader)); err != nil {
		return ResultRuntimeError, &RuntimeError{Message: err.Error()}
	}
	vm.frames = append(vm.frames, CallFrame{closure: closure, slotBase: vm.stk.Len() - 1})

	vm.ctx = ctx
	rerr := panicerr.Recover("oba-vm", vm.run)
	vm.ctx = nil
	if rerr != nil {
		re, ok := rerr.(RuntimeError)
		if !ok {
			re = RuntimeError{Message: rerr.Error()}
		}
		return ResultRuntimeError, &re
	}
	return ResultOK, nil
}

func (vm *VM) compile(source string) (*ObjFunction, error) {
	c := newCompiler(vm, NewLexer(source))
	return c.compile()
}

func (vm *VM) push(v Value) error {
	if err := vm.stk.Push(v); err != nil {
		panic(runtimeErrorf(vm.currentLine(), errStackOverflow, "%v", err))
	}
	return nil
}

func (vm *VM) pop() Value {
	v, err := vm.stk.Pop()
	if err != nil {
		panic(runtimeErrorf(vm.currentLine(), errStackOverflow, "%v", err))
	}
	return v
}

func (vm *VM) peek(distance int) Value {
	v, err := vm.stk.Peek(distance)
	if err != nil {
		panic(runtimeErrorf(vm.currentLine(), errStackOverflow, "%v", err))
	}
	return v
}

func (vm *VM) currentFrame() *CallFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) currentLine() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.currentFrame().line()
}

func (vm *VM) raisef(cause error, format string, args ...interface{}) {
	panic(runtimeErrorf(vm.currentLine(), cause, format, args...))
}

// run is the dispatch loop, one opcode byte per iteration, per spec §4.5.
// A RuntimeError raised by raisef is recovered here and returned as run's
// error; any other panic is re-raised and caught by the
// internal/panicerr.Recover wrapper Interpret runs it under.
func (vm *VM) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	for {
		if vm.ctx != nil {
			if cerr := vm.ctx.Err(); cerr != nil {
				vm.raisef(cerr, "interpretation halted: %v", cerr)
			}
		}

		frame := vm.currentFrame()
		op := OpCode(frame.readByte())
		vm.trace("%04d %s", frame.ip-1, op)

		switch op {
		case OpConstant:
			vm.push(frame.readConstant())

		case OpConstantLong:
			idx := frame.readUint16()
			vm.push(frame.chunk().Constants[idx])

		case OpTrue:
			vm.push(BoolValue(true))
		case OpFalse:
			vm.push(BoolValue(false))
		case OpNil:
			vm.push(NilValue)
		case OpPop:
			vm.pop()

		case OpAdd:
			vm.binaryAdd()
		case OpSub:
			vm.binaryNumeric(op)
		case OpMul:
			vm.binaryNumeric(op)
		case OpDiv:
			vm.binaryNumeric(op)

		case OpNot:
			top := vm.peek(0)
			if !top.IsBool() {
				vm.raisef(errNonBoolean, "operand to '!' must be a boolean")
			}
			vm.stk.Set(0, BoolValue(!top.Bool))

		case OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(BoolValue(a.Equal(b)))
		case OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(BoolValue(!a.Equal(b)))
		case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
			vm.comparison(op)

		case OpDebug:
			vm.debugSink(vm.pop())

		case OpDefineGlobal:
			name := frame.readConstant().Obj.AsString()
			vm.globals.Set(name, vm.pop())

		case OpGetGlobal:
			name := frame.readConstant().Obj.AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				if name.Value == matchExhaustionSentinel {
					vm.raisef(errNoMatchArm, "no match arm satisfied")
				}
				vm.raisef(errUndefinedGlobal, "undefined variable %q", name.Value)
			}
			vm.push(v)

		case OpSetGlobal:
			name := frame.readConstant().Obj.AsString()
			if _, ok := vm.globals.Get(name); !ok {
				vm.raisef(errUndefinedGlobal, "undefined variable %q", name.Value)
			}
			vm.globals.Set(name, vm.peek(0))

		case OpGetLocal:
			slot := int(frame.readByte())
			v, _ := vm.stk.At(frame.slotBase + slot)
			vm.push(v)

		case OpSetLocal:
			slot := int(frame.readByte())
			_ = vm.stk.SetAt(frame.slotBase+slot, vm.peek(0))

		case OpGetUpvalue:
			idx := int(frame.readByte())
			vm.push(frame.closure.Upvalues[idx].Get(&vm.stk))

		case OpSetUpvalue:
			idx := int(frame.readByte())
			frame.closure.Upvalues[idx].Set(&vm.stk, vm.peek(0))

		case OpJump:
			off := frame.readUint16()
			frame.ip += off

		case OpJumpIfFalse:
			off := frame.readUint16()
			top := vm.peek(0)
			if !top.IsBool() {
				vm.raisef(errNonBoolean, "condition must be a boolean")
			}
			if !top.Bool {
				frame.ip += off
			}

		case OpJumpIfTrue:
			off := frame.readUint16()
			top := vm.peek(0)
			if !top.IsBool() {
				vm.raisef(errNonBoolean, "condition must be a boolean")
			}
			if top.Bool {
				frame.ip += off
			}

		case OpJumpIfNotMatch:
			off := frame.readUint16()
			pattern := vm.pop()
			scrutinee := vm.peek(0)
			if !pattern.Equal(scrutinee) {
				vm.pop()
				frame.ip += off
			}

		case OpLoop:
			target := frame.readUint16()
			frame.ip = target

		case OpCall:
			argc := int(frame.readByte())
			vm.call(argc)

		case OpClosure:
			fn := frame.readConstant().Obj.AsFunction()
			closure := vm.newClosure(fn)
			for i := 0; i < fn.UpvalCount; i++ {
				isLocal := frame.readByte() != 0
				index := int(frame.readByte())
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotBase + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(ObjectValue(closure.objectHeader))

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stk.Len() - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			base := frame.slotBase
			vm.closeUpvalues(base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stk.Truncate(base)
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		case OpExit:
			return nil

		default:
			vm.raisef(nil, "unknown opcode %d", byte(op))
		}

		if len(vm.frames) == 0 {
			return nil
		}
	}
}

func (vm *VM) binaryAdd() {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(NumberValue(a.Number + b.Number))
	case a.IsObject(ObjStringKind) && b.IsObject(ObjStringKind):
		vm.pop()
		vm.pop()
		vm.push(ObjectValue(vm.allocString(a.Obj.AsString().Value + b.Obj.AsString().Value)))
	default:
		vm.raisef(errNonNumericOrStr, "Expected numeric or string operands to '+'")
	}
}

func (vm *VM) binaryNumeric(op OpCode) {
	b, a := vm.peek(0), vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.raisef(errNonNumeric, "operands must be numbers")
	}
	vm.pop()
	vm.pop()
	switch op {
	case OpSub:
		vm.push(NumberValue(a.Number - b.Number))
	case OpMul:
		vm.push(NumberValue(a.Number * b.Number))
	case OpDiv:
		vm.push(NumberValue(a.Number / b.Number))
	}
}

func (vm *VM) comparison(op OpCode) {
	b, a := vm.peek(0), vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.raisef(errNonNumeric, "comparison operands must be numbers")
	}
	vm.pop()
	vm.pop()
	var result bool
	switch op {
	case OpLess:
		result = a.Number < b.Number
	case OpGreater:
		result = a.Number > b.Number
	case OpLessEqual:
		result = a.Number <= b.Number
	case OpGreaterEqual:
		result = a.Number >= b.Number
	}
	vm.push(BoolValue(result))
}

func (vm *VM) call(argc int) {
	callee := vm.peek(argc)
	if !callee.IsObject(ObjClosureKind) {
		vm.raisef(errNotCallable, "attempt to call a non-function value")
	}
	closure := callee.Obj.AsClosure()
	if argc != closure.Function.Arity {
		vm.raisef(errArityMismatch, "expected %d argument(s) but got %d", closure.Function.Arity, argc)
	}
	if uint(len(vm.frames))+1 > vm.frameLimit {
		vm.raisef(errFrameOverflow, "call frames exceeded limit of %d", vm.frameLimit)
	}
	vm.frames = append(vm.frames, CallFrame{
		closure:  closure,
		slotBase: vm.stk.Len() - argc - 1,
	})
}

func (vm *VM) captureUpvalue(absIndex int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackIndex > absIndex {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.StackIndex == absIndex {
		return cur
	}
	uv := &ObjUpvalue{StackIndex: absIndex, next: cur}
	if prev == nil {
		vm.openUpvalues = uv
	} else {
		prev.next = uv
	}
	return uv
}

func (vm *VM) closeUpvalues(fromAbsIndex int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= fromAbsIndex {
		uv := vm.openUpvalues
		uv.Close(&vm.stk)
		vm.openUpvalues = uv.next
	}
}

// debugSink writes "DEBUG: ", a value's textual rendering, and a newline to
// the configured output, via the same ANSI-safe rune writer the teacher's
// io.go uses for untrusted-content output.
func (vm *VM) debugSink(v Value) {
	if vm.out == nil {
		return
	}
	_, _ = runeio.WriteANSIString(vm.out, "DEBUG: "+v.String())
	_, _ = runeio.WriteANSIString(vm.out, "\n")
	_ = vm.out.Flush()
}

const matchExhaustionSentinel = "\x00match-exhausted\x00"

func (vm *VM) newObjectHeader(kind ObjectKind) *Object {
	o := &Object{Kind: kind, next: vm.objects}
	vm.objects = o
	return o
}

// allocString interns s: identical content always yields the same
// *ObjString, which is what lets Value.Equal fast-path strings by pointer
// (see value.go). The underlying Go string bytes are additionally run
// through josharian/intern so repeated identical literals across separately
// compiled chunks share one backing array too.
func (vm *VM) allocString(s string) *Object {
	s = intern.String(s)
	if existing, ok := vm.strtab[s]; ok {
		return existing.objectHeader
	}
	hdr := vm.newObjectHeader(ObjStringKind)
	str := &ObjString{Value: s, hash: fnv1a32(s)}
	hdr.str = str
	str.objectHeader = hdr
	vm.strtab[s] = str
	return hdr
}

func (vm *VM) newFunction(name string, arity int) *Object {
	hdr := vm.newObjectHeader(ObjFunctionKind)
	hdr.function = &ObjFunction{Name: name, Arity: arity}
	return hdr
}

// wrapFunction wraps an already-compiled nested function in an Object so
// the enclosing chunk's constant pool can hold it, per spec §4.2's
// function-compilation step: the compiler builds the whole ObjFunction
// (including its own Chunk) before the enclosing compiler ever sees it.
func (vm *VM) wrapFunction(fn *ObjFunction) *Object {
	hdr := vm.newObjectHeader(ObjFunctionKind)
	hdr.function = fn
	return hdr
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	hdr := vm.newObjectHeader(ObjClosureKind)
	cl := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalCount), objectHeader: hdr}
	hdr.closure = cl
	return cl
}

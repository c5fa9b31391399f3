package oba

import (
	"fmt"
	"io"
)

// Disassemble compiles source and writes a readable opcode listing for the
// resulting top-level function and every nested function constant
// reachable from it, without ever running the program. It backs cmd/oba's
// --dump flag, mirroring the teacher's own vmDumper in spirit (one line
// per unit of execution state) while printing bytecode offsets instead of
// FIRST/THIRD memory cells.
func (vm *VM) Disassemble(w io.Writer, source string) error {
	fn, err := vm.compile(source)
	if err != nil {
		return err
	}
	dumpFunction(w, fn)
	return nil
}

func dumpFunction(w io.Writer, fn *ObjFunction) {
	fmt.Fprintf(w, "== %s ==\n", fn.String())
	chunk := &fn.Chunk
	for offset := 0; offset < len(chunk.Code); {
		offset = dumpInstruction(w, chunk, offset)
	}
	for _, k := range chunk.Constants {
		if k.IsObject(ObjFunctionKind) {
			fmt.Fprintln(w)
			dumpFunction(w, k.Obj.AsFunction())
		}
	}
}

// dumpInstruction prints one instruction at offset and returns the offset
// of the next one, decoding each opcode's operand width the way vm.go's
// dispatch loop reads it.
func dumpInstruction(w io.Writer, chunk *Chunk, offset int) int {
	op := OpCode(chunk.Code[offset])
	line := chunk.LineAt(offset)
	fmt.Fprintf(w, "%04d %4d %-17s", offset, line, op)

	switch op {
	case OpConstant:
		idx := chunk.Code[offset+1]
		fmt.Fprintf(w, " %4d '%s'\n", idx, chunk.Constants[idx].String())
		return offset + 2

	case OpConstantLong:
		idx := readUint16(chunk.Code, offset+1)
		fmt.Fprintf(w, " %4d '%s'\n", idx, chunk.Constants[idx].String())
		return offset + 3

	case OpDefineGlobal, OpGetGlobal, OpSetGlobal:
		idx := chunk.Code[offset+1]
		fmt.Fprintf(w, " %4d '%s'\n", idx, chunk.Constants[idx].String())
		return offset + 2

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue:
		fmt.Fprintf(w, " %4d\n", chunk.Code[offset+1])
		return offset + 2

	case OpCall:
		fmt.Fprintf(w, " %4d\n", chunk.Code[offset+1])
		return offset + 2

	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfNotMatch:
		off := readUint16(chunk.Code, offset+1)
		fmt.Fprintf(w, " %4d -> %d\n", off, offset+3+off)
		return offset + 3

	case OpLoop:
		target := readUint16(chunk.Code, offset+1)
		fmt.Fprintf(w, " %4d -> %d\n", target, target)
		return offset + 3

	case OpClosure:
		idx := chunk.Code[offset+1]
		fn := chunk.Constants[idx].Obj.AsFunction()
		fmt.Fprintf(w, " %4d '%s'\n", idx, fn.String())
		next := offset + 2
		for i := 0; i < fn.UpvalCount; i++ {
			isLocal := chunk.Code[next]
			index := chunk.Code[next+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(w, "%04d      |                     %s %d\n", next, kind, index)
			next += 2
		}
		return next

	default:
		fmt.Fprintln(w)
		return offset + 1
	}
}

// Package oba implements a bytecode compiler and stack-based virtual
// machine for Oba, a small expression-oriented scripting language.
//
// A VM owns everything a running program needs: its value stack, call
// frames, global table, interned string table, and the heap of objects
// allocated while it runs. New constructs one; Interpret compiles and runs
// one complete source unit against it, returning a Result identifying
// whether compilation or execution failed; Close releases its output
// writers and objects.
//
// The three subsystems that do the interesting work are the lexer+compiler
// (lexer.go, compiler.go), which emits a Chunk of bytecode for each
// function encountered; the value/object model (value.go, object.go,
// table.go), which gives every runtime value a home; and the VM's dispatch
// loop (vm.go), which executes a Chunk's instructions against the stack and
// globals and manages closures, upvalues, and call frames.
package oba

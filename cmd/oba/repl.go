package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/QuantumBits/oba"
	"github.com/QuantumBits/oba/internal/fileinput"
)

// repl reads one top-level statement at a time from readline and runs it
// against a persistent VM: globals and the string table survive across
// lines, and each line compiles into its own fresh top-level function, per
// SPEC_FULL.md's supplemented REPL feature.
func repl(ctx context.Context, vm *oba.VM) int {
	rl, err := readline.New("oba> ")
	if err != nil {
		log.WithError(err).Error("oba")
		return 1
	}
	defer rl.Close()

	lineNo := 0
	exitCode := 0
	var pending strings.Builder

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF (ctrl-D) or readline.ErrInterrupt (ctrl-C)
			break
		}
		pending.WriteString(line)
		pending.WriteByte('\n')

		if needsContinuation(pending.String()) {
			rl.SetPrompt("   -> ")
			continue
		}
		rl.SetPrompt("oba> ")

		lineNo++
		text := pending.String()
		pending.Reset()

		src := fileinput.Source{Name: fmt.Sprintf("<repl:%d>", lineNo), Text: replWrap(text)}
		result, err := vm.Interpret(ctx, src.Text)
		if err != nil {
			reportError(src, result, err)
			if result == oba.ResultRuntimeError {
				exitCode = result.ExitCode()
			}
		}
	}
	return exitCode
}

// needsContinuation reports whether src has an unclosed `{...}` block or an
// unterminated `match ... ;` chain, by lexing it with the real Lexer rather
// than hand-rolled bracket counting.
func needsContinuation(src string) bool {
	lx := oba.NewLexer(src)
	braces, matches := 0, 0
	for {
		tok := lx.Next()
		switch tok.Kind {
		case oba.TokEOF:
			return braces > 0 || matches > 0
		case oba.TokError:
			return strings.Contains(tok.Str, "unterminated")
		case oba.TokLBrace:
			braces++
		case oba.TokRBrace:
			braces--
		case oba.TokMatch:
			matches++
		case oba.TokSemicolon:
			if matches > 0 {
				matches--
			}
		}
	}
}

var replStatementPrefixes = []string{"let ", "fn ", "debug ", "if ", "{", "match "}

// replWrap wraps a bare trailing expression in `debug` so the REPL prints
// its value, the convenience most scripting REPLs give a lone expression,
// without touching the compiler's statement grammar (spec §1: the CLI is a
// thin external collaborator).
func replWrap(src string) string {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return src
	}
	for _, p := range replStatementPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return src
		}
	}
	return "debug " + src
}

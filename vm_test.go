package oba_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantumBits/oba"
)

// vmTestCase drives one Interpret call against a fresh VM and checks its
// debug output and outcome, the table-driven shape the teacher's own
// vmTestCase/vmTestCases harness uses for FIRST op sequences, generalized
// here to drive Oba source instead.
type vmTestCase struct {
	name       string
	source     string
	opts       []oba.Option
	wantOutput string
	wantResult oba.Result
	wantErr    string // substring expected in the returned error, if any

	exclusive bool
}

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	var exclusive vmTestCases
	for _, vmt := range vmts {
		if vmt.exclusive {
			exclusive = append(exclusive, vmt)
		}
	}
	if len(exclusive) > 0 {
		vmts = exclusive
	}
	for _, vmt := range vmts {
		vmt := vmt
		t.Run(vmt.name, vmt.run)
	}
}

func (vmt vmTestCase) run(t *testing.T) {
	var out bytes.Buffer
	opts := append([]oba.Option{oba.WithOutput(&out)}, vmt.opts...)
	vm := oba.New(opts...)
	defer vm.Close()

	result, err := vm.Interpret(context.Background(), vmt.source)
	assert.Equal(t, vmt.wantResult, result, "result")
	assert.Equal(t, vmt.wantOutput, out.String(), "debug output")
	if vmt.wantErr == "" {
		assert.NoError(t, err)
	} else {
		require.Error(t, err)
		assert.Contains(t, err.Error(), vmt.wantErr)
	}
}

func TestArithmeticAndVariables(t *testing.T) {
	vmTestCases{
		{
			name: "add two globals",
			source: heredoc.Doc(`
				let a = 1
				let b = 2
				debug a + b
			`),
			wantOutput: "DEBUG: 3\n",
			wantResult: oba.ResultOK,
		},
		{
			name:       "string concatenation",
			source:     `debug "foo" + "bar"`,
			wantOutput: "DEBUG: foobar\n",
			wantResult: oba.ResultOK,
		},
		{
			name:       "fractional arithmetic",
			source:     `debug 1.5 + 2.5`,
			wantOutput: "DEBUG: 4\n",
			wantResult: oba.ResultOK,
		},
		{
			name:       "integral numbers print without a fractional tail",
			source:     `debug 2 * 3`,
			wantOutput: "DEBUG: 6\n",
			wantResult: oba.ResultOK,
		},
		{
			name:       "same-precedence subtraction chain is right-associative",
			source:     `debug 10 - 5 - 2`,
			wantOutput: "DEBUG: 7\n",
			wantResult: oba.ResultOK,
		},
		{
			name:       "same-precedence division chain is right-associative",
			source:     `debug 100 / 10 / 5`,
			wantOutput: "DEBUG: 50\n",
			wantResult: oba.ResultOK,
		},
	}.run(t)
}

func TestClosuresAndUpvalues(t *testing.T) {
	vmTestCases{
		{
			name: "closure over argument",
			source: heredoc.Doc(`
				fn make x { fn get { x } get }
				let g = make(42)
				debug g()
			`),
			wantOutput: "DEBUG: 42\n",
			wantResult: oba.ResultOK,
		},
		{
			name: "nested upvalue chain through two enclosing functions",
			source: heredoc.Doc(`
				fn outer arg {
					fn middle {
						fn inner { arg }
						debug inner()
						debug "middle"
					}
					debug "arg"
					middle()
				}
				outer("arg")
			`),
			wantOutput: "DEBUG: arg\nDEBUG: arg\nDEBUG: middle\n",
			wantResult: oba.ResultOK,
		},
		{
			name: "two closures sharing a captured local observe the same mutations",
			source: heredoc.Doc(`
				fn makeCounter {
					let n = 0
					fn inc { n = n + 1 }
					fn get { n }
					inc()
					inc()
					get()
				}
				debug makeCounter()
			`),
			wantOutput: "DEBUG: 2\n",
			wantResult: oba.ResultOK,
		},
	}.run(t)
}

func TestMatchExpression(t *testing.T) {
	vmTestCases{
		{
			name: "first matching arm wins",
			source: heredoc.Doc(`
				fn describe n {
					match n
					| 1 = "one"
					| 2 = "two"
					| n = "many"
					;
				}
				debug describe(1)
				debug describe(2)
				debug describe(9)
			`),
			wantOutput: "DEBUG: one\nDEBUG: two\nDEBUG: many\n",
			wantResult: oba.ResultOK,
		},
		{
			name: "exhausted match raises a runtime error",
			source: heredoc.Doc(`
				match 3
				| 1 = { debug "one" }
				;
			`),
			wantResult: oba.ResultRuntimeError,
			wantErr:    "no match arm satisfied",
		},
	}.run(t)
}

func TestControlFlow(t *testing.T) {
	vmTestCases{
		{
			name: "if/else chooses the true branch",
			source: heredoc.Doc(`
				let x = 5
				if x > 3 {
					debug "big"
				} else {
					debug "small"
				}
			`),
			wantOutput: "DEBUG: big\n",
			wantResult: oba.ResultOK,
		},
		{
			name: "logical and short-circuits",
			source: heredoc.Doc(`
				fn boom { debug "boom" true }
				debug false and boom()
			`),
			wantOutput: "DEBUG: false\n",
			wantResult: oba.ResultOK,
		},
		{
			name: "logical or short-circuits",
			source: heredoc.Doc(`
				fn boom { debug "boom" false }
				debug true or boom()
			`),
			wantOutput: "DEBUG: true\n",
			wantResult: oba.ResultOK,
		},
	}.run(t)
}

func TestScopeDiscipline(t *testing.T) {
	vmTestCases{
		{
			name: "a block-scoped let does not leak, and rebinding outside is independent",
			source: heredoc.Doc(`
				let x = "outer"
				{
					let x = "inner"
					debug x
				}
				debug x
			`),
			wantOutput: "DEBUG: inner\nDEBUG: outer\n",
			wantResult: oba.ResultOK,
		},
	}.run(t)
}

func TestRuntimeErrors(t *testing.T) {
	vmTestCases{
		{
			name:       "adding a number and a boolean",
			source:     `debug 1 + true`,
			wantResult: oba.ResultRuntimeError,
			wantErr:    "Expected numeric or string operands",
		},
		{
			name:       "undefined global",
			source:     `debug nope`,
			wantResult: oba.ResultRuntimeError,
			wantErr:    "undefined variable",
		},
		{
			name: "calling a non-callable value",
			source: heredoc.Doc(`
				let x = 1
				x()
			`),
			wantResult: oba.ResultRuntimeError,
			wantErr:    "non-function value",
		},
		{
			name: "arity mismatch",
			source: heredoc.Doc(`
				fn f a b { a + b }
				f(1)
			`),
			wantResult: oba.ResultRuntimeError,
			wantErr:    "argument",
		},
	}.run(t)
}

func TestCompileErrors(t *testing.T) {
	vmTestCases{
		{
			name:       "let without a variable name",
			source:     `let = 1`,
			wantResult: oba.ResultCompileError,
			wantErr:    "expect variable name",
		},
		{
			name: "duplicate local in the same scope",
			source: heredoc.Doc(`
				fn f {
					let a = 1
					let a = 2
					a
				}
			`),
			wantResult: oba.ResultCompileError,
			wantErr:    "already declared",
		},
	}.run(t)
}

func TestStringInterning(t *testing.T) {
	var out bytes.Buffer
	vm := oba.New(oba.WithOutput(&out))
	defer vm.Close()

	_, err := vm.Interpret(context.Background(), heredoc.Doc(`
		let a = "ab"
		let b = "ab"
		debug a == b
	`))
	require.NoError(t, err)
	assert.Equal(t, "DEBUG: true\n", out.String())
}

func TestStackOverflow(t *testing.T) {
	vmt := vmTestCase{
		name: "unbounded recursion overflows the frame limit",
		source: heredoc.Doc(`
			fn loop n { loop(n + 1) }
			loop(0)
		`),
		opts:       []oba.Option{oba.WithFrameLimit(8)},
		wantResult: oba.ResultRuntimeError,
		wantErr:    "call frame",
	}
	vmt.run(t)
}

func TestResultExitCodes(t *testing.T) {
	assert.Equal(t, 0, oba.ResultOK.ExitCode())
	assert.Equal(t, 65, oba.ResultCompileError.ExitCode())
	assert.Equal(t, 70, oba.ResultRuntimeError.ExitCode())
}

func TestInterpretRecoversFromRuntimeErrorForReuse(t *testing.T) {
	var out bytes.Buffer
	vm := oba.New(oba.WithOutput(&out))
	defer vm.Close()
	ctx := context.Background()

	// This call panics out of run() mid-frame (1 + true is a type error),
	// leaving a stale CallFrame and stale stack slots behind were Interpret
	// not to reset them.
	result, err := vm.Interpret(ctx, `debug 1 + true`)
	require.Error(t, err)
	assert.Equal(t, oba.ResultRuntimeError, result)

	// The SAME VM must be clean for the next call: no leftover frame should
	// resume executing, and no leftover stack values should leak into the
	// next run's output or arithmetic.
	out.Reset()
	result, err = vm.Interpret(ctx, `debug 1 + 2`)
	require.NoError(t, err)
	assert.Equal(t, oba.ResultOK, result)
	assert.Equal(t, "DEBUG: 3\n", out.String())
}

func TestRuntimeErrorIsComparable(t *testing.T) {
	vm := oba.New()
	defer vm.Close()
	_, err := vm.Interpret(context.Background(), `debug 1 + true`)
	require.Error(t, err)
	var re *oba.RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Greater(t, re.Line, 0)
}

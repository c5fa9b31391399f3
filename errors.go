package oba

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Result names the outcome of an Interpret call, per spec §6.
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "SUCCESS"
	case ResultCompileError:
		return "COMPILE_ERROR"
	case ResultRuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps Result onto the CLI exit-code contract from spec §6.
func (r Result) ExitCode() int {
	switch r {
	case ResultOK:
		return 0
	case ResultCompileError:
		return 65
	case ResultRuntimeError:
		return 70
	default:
		return 1
	}
}

// parseError is one diagnostic raised during compilation.
type parseError struct {
	Line    int
	Message string
}

func (e parseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// CompileError aggregates every diagnostic a compile pass raised, per spec
// §7 ("reports each and sets a flag; emission continues so multiple issues
// surface in one pass"). It wraps a *multierror.Error the same way golox
// aggregates parser diagnostics, rather than stopping at the first one.
type CompileError struct {
	Errors *multierror.Error
}

func (e *CompileError) Error() string {
	if e == nil || e.Errors == nil {
		return "compile error"
	}
	return e.Errors.Error()
}

func (e *CompileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Errors.ErrorOrNil()
}

// RuntimeError is raised by the VM's dispatch loop and carries the source
// line active when it fired, per spec §7's "(when known) the source line
// number" requirement on error output. Cause categorizes the error so
// callers can errors.Is against it instead of matching on Message text.
type RuntimeError struct {
	Line    int
	Message string
	Cause   error
}

func (e RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e RuntimeError) Unwrap() error { return e.Cause }

func runtimeErrorf(line int, cause error, format string, args ...interface{}) RuntimeError {
	return RuntimeError{Line: line, Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// Sentinel runtime-error causes, named so callers can errors.Is against a
// category rather than parsing messages.
var (
	errUndefinedGlobal = errors.New("undefined global")
	errNoMatchArm      = errors.New("no match arm satisfied")
	errNotCallable     = errors.New("value is not callable")
	errArityMismatch   = errors.New("wrong number of arguments")
	errStackOverflow   = errors.New("value stack overflow")
	errFrameOverflow   = errors.New("call frame overflow")
	errNonNumeric      = errors.New("expected numeric operands")
	errNonBoolean      = errors.New("expected a boolean operand")
	errNonNumericOrStr = errors.New("expected numeric or string operands")
)

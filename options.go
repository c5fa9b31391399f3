package oba

import (
	"io"

	"github.com/QuantumBits/oba/internal/flushio"
	"github.com/QuantumBits/oba/internal/logio"
)

// Option configures a VM at construction time, the same functional-options
// shape the teacher used for its own VMOption.
type Option interface{ apply(vm *VM) }

var defaultOptions = Options(
	WithOutput(io.Discard),
)

// Options flattens a list of Options into one, merging nested option lists
// the same way the teacher's VMOptions does, so New can apply opts in one
// call regardless of how they were composed by the caller.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(vm *VM) {}

type options []Option

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) { vm.logfn = logfn }

// WithLogf installs a trace callback invoked once per dispatched opcode,
// per spec §6's optional leveled tracing.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type stackLimitOption uint
type frameLimitOption uint
type loggerOption struct{ *logio.Logger }

// WithOutput directs `debug` output to w, replacing the default discard
// sink, per the teacher's withOutput.
func WithOutput(w io.Writer) Option { return outputOption{w} }

// WithTee additionally mirrors `debug` output to w, per the teacher's
// withTee (used for capturing a trace copy alongside normal output).
func WithTee(w io.Writer) Option { return teeOption{w} }

// WithStackLimit overrides the value stack's slot limit (default 4096).
func WithStackLimit(limit uint) Option { return stackLimitOption(limit) }

// WithFrameLimit overrides the call-frame depth limit (default 256).
func WithFrameLimit(limit uint) Option { return frameLimitOption(limit) }

// WithLogger installs a logio.Logger, giving the caller control over
// buffered diagnostics and exit-code propagation the way cmd/oba's
// --trace flag does.
func WithLogger(log *logio.Logger) Option { return loggerOption{log} }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		_ = vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
	if cl, ok := o.Writer.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
	if cl, ok := o.Writer.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (lim stackLimitOption) apply(vm *VM) { vm.stk.Limit = uint(lim) }

func (lim frameLimitOption) apply(vm *VM) { vm.frameLimit = uint(lim) }

func (l loggerOption) apply(vm *VM) {
	vm.log = l.Logger
	vm.logfn = vm.log.Leveledf("TRACE")
}

// Command oba runs Oba source files, or drops into a line-editing REPL
// when given none, generalizing the teacher's flag-based main.go onto the
// richer cobra command surface demonstrated in the retrieved examples.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/QuantumBits/oba"
	"github.com/QuantumBits/oba/internal/fileinput"
	"github.com/QuantumBits/oba/internal/logio"
)

var log = logrus.New()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		trace      bool
		dump       bool
		timeout    time.Duration
		stackLimit uint
		frameLimit uint
	)

	exitCode := 0

	root := &cobra.Command{
		Use:           "oba [script]",
		Short:         "Oba bytecode compiler and virtual machine",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if timeout != 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			opts := []oba.Option{oba.WithOutput(os.Stdout)}
			if stackLimit != 0 {
				opts = append(opts, oba.WithStackLimit(stackLimit))
			}
			if frameLimit != 0 {
				opts = append(opts, oba.WithFrameLimit(frameLimit))
			}
			if trace {
				vmLog := &logio.Logger{}
				vmLog.SetOutput(os.Stderr)
				opts = append(opts, oba.WithLogger(vmLog))
			}

			vm := oba.New(opts...)
			defer vm.Close()

			switch {
			case len(args) == 1:
				src, err := fileinput.ReadFile(args[0])
				if err != nil {
					return err
				}
				exitCode = interpretSource(ctx, vm, src, dump)

			case !isTerminal(os.Stdin):
				src, err := fileinput.Read("<stdin>", os.Stdin)
				if err != nil {
					return err
				}
				exitCode = interpretSource(ctx, vm, src, dump)

			default:
				exitCode = repl(ctx, vm)
			}
			return nil
		},
	}

	root.Flags().BoolVar(&trace, "trace", false, "log one line per dispatched instruction")
	root.Flags().BoolVar(&dump, "dump", false, "print a bytecode disassembly before running")
	root.Flags().DurationVar(&timeout, "timeout", 0, "cancel interpretation after this long")
	root.Flags().UintVar(&stackLimit, "stack-limit", 0, "override the value stack's slot limit")
	root.Flags().UintVar(&frameLimit, "frame-limit", 0, "override the call-frame depth limit")

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.WithError(err).Error("oba")
		return 1
	}
	return exitCode
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// interpretSource compiles and runs one complete source unit, per spec §6's
// CLI exit-code contract: 0 for SUCCESS, 65 for COMPILE_ERROR, 70 for
// RUNTIME_ERROR.
func interpretSource(ctx context.Context, vm *oba.VM, src fileinput.Source, dump bool) int {
	if dump {
		if err := vm.Disassemble(os.Stdout, src.Text); err != nil {
			reportError(src, oba.ResultCompileError, err)
			return oba.ResultCompileError.ExitCode()
		}
	}
	result, err := vm.Interpret(ctx, src.Text)
	if err != nil {
		reportError(src, result, err)
	}
	return result.ExitCode()
}

// reportError writes a structured, source-tagged diagnostic line through
// logrus, per spec §6 ("human-readable lines... prefixed with Error: and
// (when known) the source line number"), distinguishing the compile and
// runtime phases the way SPEC_FULL.md's CLI error reporting section asks.
func reportError(src fileinput.Source, result oba.Result, err error) {
	entry := log.WithField("source", src.Name)

	var ce *oba.CompileError
	var re *oba.RuntimeError
	switch {
	case errors.As(err, &ce):
		entry.WithField("phase", "compile").Errorf("Error: %v", ce)
	case errors.As(err, &re):
		entry.WithFields(logrus.Fields{"phase": "runtime", "line": re.Line}).Errorf("Error: %v", re)
	default:
		entry.WithField("phase", result.String()).Errorf("Error: %v", err)
	}
}

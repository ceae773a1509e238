package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/kristoferb/lox/internal/lox"
	"github.com/kristoferb/lox/internal/natives"
	"github.com/kristoferb/lox/internal/vm"
)

// Run compiles and executes the script at args[0] (spec §6's `run <path>`
// entry point), translating the interpret result into the CLI's
// sysexits.h-style exit code.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		c.setExitCode(ExitIOErr)
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}

	machine := c.newVM(stdio)
	result, err := machine.Interpret(source)
	return c.reportResult(stdio, result, err)
}

func (c *Cmd) newVM(stdio mainer.Stdio) *vm.VM {
	machine := vm.New(stdio.Stdout)
	natives.Install(machine)
	if c.StressGC {
		machine.SetStress(true)
	}
	if c.LogGC {
		machine.SetGCLog(stdio.Stderr)
	}
	if c.TraceExec {
		machine.SetTraceExec(stdio.Stderr)
	}
	return machine
}

// reportResult prints a compile or runtime error to stderr and maps the
// result to the appropriate exit code; a nil err on lox.OK is success.
func (c *Cmd) reportResult(stdio mainer.Stdio, result lox.Result, err error) error {
	switch result {
	case lox.CompileError:
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		c.setExitCode(ExitDataErr)
		return err
	case lox.RuntimeError:
		if re, ok := err.(*lox.RuntimeErr); ok {
			fmt.Fprint(stdio.Stderr, re.Format())
		} else {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
		}
		c.setExitCode(ExitSoftware)
		return err
	default:
		return nil
	}
}

// Package maincmd implements the lox CLI's flag parsing and subcommand
// dispatch, grounded on nenuphar's internal/maincmd: a Cmd struct tagged for
// mna/mainer's reflection-based flag parser, a reflection-discovered method
// table mapping subcommand names to handlers, and mainer.Stdio/ExitCode for
// a testable, redirectable entry point.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "lox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command> [<path>]]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command> [<path>]]
       %[1]s -h|--help
       %[1]s -v|--version

A bytecode compiler and virtual machine for the lox scripting language.

The <command> can be one of:
       run                       Compile and execute the script at <path>.
       repl                      Start an interactive read-eval-print loop,
                                 ignoring <path>.
With no <command>, repl is started.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace-exec              Disassemble and print every instruction as
                                 it executes.
       --stress-gc               Run a collection before every allocation.
       --log-gc                  Log each collection's mark/sweep activity.

The LOX_STRESS_GC environment variable (any non-empty value) has the same
effect as --stress-gc.
`, binName)
)

// Exit codes follow the BSD sysexits.h convention the reference
// implementation uses (spec §6): 64 for usage errors, 65 for a data
// (compile) error, 70 for an internal software error, 74 for I/O failure.
const (
	ExitUsage    mainer.ExitCode = 64
	ExitDataErr  mainer.ExitCode = 65
	ExitSoftware mainer.ExitCode = 70
	ExitIOErr    mainer.ExitCode = 74
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	TraceExec bool `flag:"trace-exec"`
	StressGC  bool `flag:"stress-gc"`
	LogGC     bool `flag:"log-gc"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error

	// exitCode is set by a subcommand (via setExitCode) when it needs to
	// signal a specific sysexits.h code instead of the generic Failure.
	exitCode mainer.ExitCode
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) setExitCode(code mainer.ExitCode) { c.exitCode = code }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		c.args = []string{"repl"}
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	if cmdName == "run" && len(c.args[1:]) != 1 {
		return errors.New("run: exactly one script path must be provided")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		if c.exitCode != 0 {
			return c.exitCode
		}
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds discovers v's exported methods matching the
// func(context.Context, mainer.Stdio, []string) error shape and indexes
// them by lowercased method name, the subcommand dispatch table.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

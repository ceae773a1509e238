package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Repl runs an interactive read-eval-print loop: each line is compiled and
// run as its own top-level script, sharing one VM (and so one global table)
// across lines, the way clox's repl() in main.c works.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	machine := c.newVM(stdio)
	scanner := bufio.NewScanner(stdio.Stdin)

	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(stdio.Stdout)
			return nil
		}
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		result, err := machine.Interpret([]byte(line))
		if err != nil {
			c.reportResult(stdio, result, err)
		}
	}
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoctl/internal/config"
	"todoctl/internal/engine"
	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&DueCmd{})
}

// DueCmd implements the due command.
type DueCmd struct{}

func (c *DueCmd) Name() string       { return "due" }
func (c *DueCmd) Aliases() []string  { return nil }
func (c *DueCmd) Synopsis() string   { return "Set a task's deadline" }
func (c *DueCmd) Usage() string      { return "todoctl due <ref> <datetime>" }
func (c *DueCmd) NeedsBackend() bool { return true }

func (c *DueCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DueCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	_, task, err := resolve(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: deadline required")
		return exitcode.UserError
	}

	// "2026-05-04 09:30" arrives as two arguments.
	updated, err := eng.SetDeadline(ctx, task.ID, strings.Join(args[1:], " "))
	if err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet && updated.Deadline != nil {
		fmt.Fprintf(out, "due %s\n", output.FormatDeadline(*updated.Deadline, cfg.Location))
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/engine"
	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todoctl` (no args) and `todoctl list`.
type ListCmd struct {
	hideCompleted bool
}

// SetHideCompleted hides the completed section (for testing).
func (c *ListCmd) SetHideCompleted(hide bool) {
	c.hideCompleted = hide
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todoctl list [--open]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.hideCompleted, "open", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	s, err := load(ctx, eng)
	if err != nil {
		return fail(errOut, err)
	}
	if c.hideCompleted {
		s.Completed = nil
	}

	if len(s.Active) == 0 && len(s.Completed) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	output.FormatState(out, s, eng.IsOverdue, cfg.Location)
	return exitcode.Success
}

package commands

import (
	"context"
	"flag"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/engine"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "todoctl rm <ref>" }
func (c *RmCmd) NeedsBackend() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	ref, task, err := resolve(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}

	if ref.Completed {
		err = eng.DeleteCompletedTask(ctx, task.ID)
	} else {
		err = eng.DeleteTask(ctx, task.ID)
	}
	if err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

package commands

import (
	"context"
	"flag"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/engine"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. On a completed task (c<N>) it
// re-opens the task instead.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed, or re-open c<N>" }
func (c *DoneCmd) Usage() string      { return "todoctl done <ref>" }
func (c *DoneCmd) NeedsBackend() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	_, task, err := resolve(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if _, err := eng.ToggleTaskCompletion(ctx, task.ID); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

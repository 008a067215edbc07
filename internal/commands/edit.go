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
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return nil }
func (c *EditCmd) Synopsis() string   { return "Change a task's text" }
func (c *EditCmd) Usage() string      { return "todoctl edit <ref> <text...>" }
func (c *EditCmd) NeedsBackend() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	_, task, err := resolve(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}
	text := strings.Join(args[1:], " ")

	if err := eng.BeginEdit(task.ID); err != nil {
		return fail(errOut, err)
	}
	eng.SetEditInput(task.ID, text)
	if _, err := eng.UpdateTask(ctx, task.ID, text); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

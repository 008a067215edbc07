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
	"todoctl/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	due string
}

// SetDue sets the deadline input (for testing).
func (c *AddCmd) SetDue(due string) {
	c.due = due
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "todoctl add [--due <datetime>] <text...>" }
func (c *AddCmd) NeedsBackend() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, eng, c.due, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	due string
}

func (c *CreateCmd) Name() string       { return "create" }
func (c *CreateCmd) Aliases() []string  { return nil }
func (c *CreateCmd) Synopsis() string   { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string      { return "todoctl create [--due <datetime>] <text...>" }
func (c *CreateCmd) NeedsBackend() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, eng, c.due, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, eng *engine.Engine, due string, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}
	text := strings.Join(args, " ")

	// Reject a bad deadline before anything is created.
	if due != "" {
		if _, err := service.ParseDeadline(due, cfg.Location); err != nil {
			return fail(errOut, err)
		}
	}

	eng.SetNewTaskInput(text)
	task, err := eng.CreateTask(ctx, text)
	if err != nil {
		return fail(errOut, err)
	}

	if due != "" {
		if _, err := eng.SetDeadline(ctx, task.ID, due); err != nil {
			return fail(errOut, err)
		}
	}
	return printOK(cfg, out)
}

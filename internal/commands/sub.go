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
	Register(&SubCmd{})
	Register(&CheckCmd{})
	Register(&UncheckCmd{})
	Register(&SubRmCmd{})
}

// SubCmd implements the sub command: add a sub-task.
type SubCmd struct{}

func (c *SubCmd) Name() string       { return "sub" }
func (c *SubCmd) Aliases() []string  { return nil }
func (c *SubCmd) Synopsis() string   { return "Add a sub-task" }
func (c *SubCmd) Usage() string      { return "todoctl sub <ref> <text...>" }
func (c *SubCmd) NeedsBackend() bool { return true }

func (c *SubCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SubCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	_, task, err := resolve(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}
	text := strings.Join(args[1:], " ")

	eng.SetSubTaskInput(task.ID, text)
	if _, err := eng.AddSubTask(ctx, task.ID, text); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

// CheckCmd implements the check command: mark a sub-task done.
type CheckCmd struct{}

func (c *CheckCmd) Name() string       { return "check" }
func (c *CheckCmd) Aliases() []string  { return nil }
func (c *CheckCmd) Synopsis() string   { return "Mark a sub-task done" }
func (c *CheckCmd) Usage() string      { return "todoctl check <ref>.<n>" }
func (c *CheckCmd) NeedsBackend() bool { return true }

func (c *CheckCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CheckCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	return setSubTask(ctx, cfg, eng, args, true, out, errOut)
}

// UncheckCmd implements the uncheck command: re-open a sub-task.
type UncheckCmd struct{}

func (c *UncheckCmd) Name() string       { return "uncheck" }
func (c *UncheckCmd) Aliases() []string  { return nil }
func (c *UncheckCmd) Synopsis() string   { return "Re-open a sub-task" }
func (c *UncheckCmd) Usage() string      { return "todoctl uncheck <ref>.<n>" }
func (c *UncheckCmd) NeedsBackend() bool { return true }

func (c *UncheckCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UncheckCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	return setSubTask(ctx, cfg, eng, args, false, out, errOut)
}

// setSubTask toggles the referenced sub-task only when it is not already
// in the wanted state.
func setSubTask(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, completed bool, out, errOut io.Writer) int {
	task, st, err := resolveSub(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if st.Completed != completed {
		if _, err := eng.ToggleSubTaskCompletion(ctx, task.ID, st.ID); err != nil {
			return fail(errOut, err)
		}
	}
	return printOK(cfg, out)
}

// SubRmCmd implements the subrm command: delete a sub-task.
type SubRmCmd struct{}

func (c *SubRmCmd) Name() string       { return "subrm" }
func (c *SubRmCmd) Aliases() []string  { return nil }
func (c *SubRmCmd) Synopsis() string   { return "Delete a sub-task" }
func (c *SubRmCmd) Usage() string      { return "todoctl subrm <ref>.<n>" }
func (c *SubRmCmd) NeedsBackend() bool { return true }

func (c *SubRmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SubRmCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	task, st, err := resolveSub(ctx, eng, args)
	if err != nil {
		return fail(errOut, err)
	}
	if err := eng.DeleteSubTask(ctx, task.ID, st.ID); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

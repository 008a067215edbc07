package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"todoctl/internal/config"
	"todoctl/internal/engine"
	"todoctl/internal/exitcode"
	"todoctl/internal/service"
)

// fail prints err to errOut and returns the exit code for its class.
func fail(errOut io.Writer, err error) int {
	var rejected *service.RejectedError
	switch {
	case errors.Is(err, ErrTaskRefRequired):
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	case service.IsLocal(err),
		errors.Is(err, ErrInvalidTaskRef),
		errors.Is(err, ErrRefOutOfRange),
		errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.As(err, &rejected) &&
		(rejected.Code == http.StatusUnauthorized || rejected.Code == http.StatusForbidden):
		fmt.Fprintf(errOut, "error: auth error: %v (run: todoctl login <token>)\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// load brings the engine up to date so references resolve against what the
// server holds now.
func load(ctx context.Context, eng *engine.Engine) (engine.State, error) {
	if err := eng.Reconcile(ctx); err != nil {
		return engine.State{}, err
	}
	return eng.Snapshot(), nil
}

// resolve loads state and resolves the task reference in args.
func resolve(ctx context.Context, eng *engine.Engine, args []string) (TaskRef, service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return TaskRef{}, service.Task{}, err
	}
	s, err := load(ctx, eng)
	if err != nil {
		return TaskRef{}, service.Task{}, err
	}
	task, err := ResolveTask(s, ref)
	return ref, task, err
}

// resolveSub loads state and resolves the sub-task reference in args.
func resolveSub(ctx context.Context, eng *engine.Engine, args []string) (service.Task, service.SubTask, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, service.SubTask{}, err
	}
	s, err := load(ctx, eng)
	if err != nil {
		return service.Task{}, service.SubTask{}, err
	}
	return ResolveSubTask(s, ref)
}

func printOK(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/engine"
	"todoctl/internal/exitcode"
	"todoctl/internal/service"
	"todoctl/internal/testutil"
)

// runCommand is a helper to run a command against a FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:      t.TempDir(),
		Quiet:    quiet,
		Location: time.UTC,
	}

	var eng *engine.Engine
	if svc != nil {
		eng = engine.New(svc, engine.WithLocation(time.UTC))
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, eng, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expectCode(t *testing.T, want, got int, stderr string) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d (stderr %q)", want, got, stderr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "todoctl 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	testutil.GoldenString(t, "help", stdout)
}

// Tests for list command
func TestListCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	svc.AddTask("Plan trip", false,
		service.SubTask{Text: "Book hotel", Completed: true},
		service.SubTask{Text: "Buy tickets"},
	)
	svc.AddTask("Call mom", true)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	expectCode(t, exitcode.Success, code, stderr)
	expected := "   1  Buy milk\n" +
		"   2  Plan trip  50%\n" +
		"       1. [x] Book hotel\n" +
		"       2. [ ] Buy tickets\n" +
		"------------\n" +
		"Completed\n" +
		"------------\n" +
		"  c1  Call mom\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_HideCompleted(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false)
	svc.AddTask("Call mom", true)

	cmd := &commands.ListCmd{}
	cmd.SetHideCompleted(true)
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	expectCode(t, exitcode.Success, code, "")
	if stdout != "   1  Buy milk\n" {
		t.Errorf("expected only open tasks, got %q", stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)
	expectCode(t, exitcode.Success, code, "")
	if stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found', got %q", stdout)
	}

	stdout, _, _ = runCommand(t, &commands.ListCmd{}, svc, nil, true)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = &service.NetworkError{Op: "list tasks", Err: errors.New("connection refused")}

	_, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	expectCode(t, exitcode.BackendError, code, stderr)
	if !strings.HasPrefix(stderr, "error: backend error:") {
		t.Errorf("expected backend error, got %q", stderr)
	}
}

func TestListCommand_Unauthorized(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = &service.RejectedError{Op: "list tasks", Code: 401, Message: "bad token"}

	_, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	expectCode(t, exitcode.AuthError, code, stderr)
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Buy", "milk"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	task, ok := svc.Task("1")
	if !ok || task.Text != "Buy milk" {
		t.Errorf("expected task 'Buy milk', got %+v", task)
	}
}

func TestAddCommand_WithDue(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetDue("2026-05-04T09:30")

	_, stderr, code := runCommand(t, cmd, svc, []string{"Report"}, true)

	expectCode(t, exitcode.Success, code, stderr)
	task, _ := svc.Task("1")
	if task.Deadline == nil || !task.Deadline.Equal(time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("expected deadline to be set, got %v", task.Deadline)
	}
}

func TestAddCommand_BadDueCreatesNothing(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetDue("someday")

	_, stderr, code := runCommand(t, cmd, svc, []string{"Report"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no calls, got %d", svc.TotalCalls())
	}
}

func TestAddCommand_BlankText(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, &commands.CreateCmd{}, svc, []string{"   "}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if !strings.Contains(stderr, "invalid input") {
		t.Errorf("expected invalid input error, got %q", stderr)
	}
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no calls, got %d", svc.TotalCalls())
	}
}

func TestAddCommand_NoArgs(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.AddCmd{}, testutil.NewFakeService(), nil, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if stderr != "error: text required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for done command
func TestDoneCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("first", false)
	second := svc.AddTask("second", false)

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"2"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if task, _ := svc.Task(second); !task.Completed {
		t.Error("expected task 2 to be completed")
	}
}

func TestDoneCommand_ReopensCompleted(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask("done already", true)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"c1"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if task, _ := svc.Task(id); task.Completed {
		t.Error("expected task to be re-opened")
	}
}

func TestDoneCommand_IncompleteSubTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Plan trip", false, service.SubTask{Text: "Book hotel"})

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if !strings.Contains(stderr, "complete all sub-tasks first") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("ToggleTask") != 0 {
		t.Error("expected no toggle call")
	}
}

func TestDoneCommand_RefErrors(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("only", false)

	tests := []struct {
		args []string
		want string
	}{
		{nil, "error: task reference required\n"},
		{[]string{"x1"}, "error: invalid task reference: x1\n"},
		{[]string{"2"}, "error: reference out of range: 2\n"},
		{[]string{"c1"}, "error: reference out of range: c1\n"},
	}
	for _, tt := range tests {
		_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, tt.args, false)
		expectCode(t, exitcode.UserError, code, stderr)
		if stderr != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.want, stderr)
		}
	}
}

// Tests for rm command
func TestRmCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	open := svc.AddTask("open", false)
	done := svc.AddTask("done", true)

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"c1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	if _, ok := svc.Task(done); ok {
		t.Error("expected completed task to be deleted")
	}

	_, stderr, code = runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	if _, ok := svc.Task(open); ok {
		t.Error("expected open task to be deleted")
	}
}

func TestRmCommand_ServerRejects(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("open", false)
	svc.DeleteTaskErr = &service.RejectedError{Op: "delete task", Code: 500, Message: "db down"}

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)

	expectCode(t, exitcode.BackendError, code, stderr)
	if !strings.Contains(stderr, "db down") {
		t.Errorf("expected server message, got %q", stderr)
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask("old", false)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, svc, []string{"1", "new", "text"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if task, _ := svc.Task(id); task.Text != "new text" {
		t.Errorf("expected 'new text', got %q", task.Text)
	}
}

func TestEditCommand_MissingText(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("old", false)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, svc, []string{"1"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
}

// Tests for due command
func TestDueCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask("Report", false)

	stdout, stderr, code := runCommand(t, &commands.DueCmd{}, svc, []string{"1", "2026-05-04", "09:30"}, false)

	expectCode(t, exitcode.Success, code, stderr)
	if stdout != "due 2026-05-04 09:30\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	task, _ := svc.Task(id)
	if task.Deadline == nil || service.FormatDeadline(*task.Deadline) != "2026-05-04T09:30:00.000Z" {
		t.Errorf("unexpected deadline %v", task.Deadline)
	}
}

func TestDueCommand_Invalid(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Report", false)

	_, stderr, code := runCommand(t, &commands.DueCmd{}, svc, []string{"1", "tomorrow"}, false)

	expectCode(t, exitcode.UserError, code, stderr)
	if svc.Calls("UpdateTaskDeadline") != 0 {
		t.Error("expected no deadline call")
	}
}

// Tests for sub-task commands
func TestSubTaskCommands(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask("Plan trip", false)

	_, stderr, code := runCommand(t, &commands.SubCmd{}, svc, []string{"1", "Book", "hotel"}, false)
	expectCode(t, exitcode.Success, code, stderr)

	_, stderr, code = runCommand(t, &commands.CheckCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)

	task, _ := svc.Task(id)
	if len(task.SubTasks) != 1 || !task.SubTasks[0].Completed || task.SubTasks[0].Text != "Book hotel" {
		t.Fatalf("unexpected sub-tasks %+v", task.SubTasks)
	}
	if task.Completed {
		t.Error("parent must not be completed by checking its last sub-task")
	}

	_, stderr, code = runCommand(t, &commands.SubRmCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	task, _ = svc.Task(id)
	if len(task.SubTasks) != 0 {
		t.Errorf("expected sub-task removed, got %+v", task.SubTasks)
	}
}

func TestCheckCommand_NeedsSubTaskRef(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Plan trip", false, service.SubTask{Text: "Book hotel"})

	_, stderr, code := runCommand(t, &commands.CheckCmd{}, svc, []string{"1"}, false)
	expectCode(t, exitcode.UserError, code, stderr)

	_, stderr, code = runCommand(t, &commands.CheckCmd{}, svc, []string{"1.2"}, false)
	expectCode(t, exitcode.UserError, code, stderr)
}

func TestCheckAndUncheck_SetState(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask("Plan trip", false, service.SubTask{Text: "Book hotel"})

	_, stderr, code := runCommand(t, &commands.UncheckCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	task, _ := svc.Task(id)
	if task.SubTasks[0].Completed {
		t.Error("uncheck must not complete an open sub-task")
	}

	_, stderr, code = runCommand(t, &commands.CheckCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	_, stderr, code = runCommand(t, &commands.CheckCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	task, _ = svc.Task(id)
	if !task.SubTasks[0].Completed {
		t.Error("expected sub-task done after check")
	}
	if got := svc.Calls("SetSubTaskCompleted"); got != 1 {
		t.Errorf("expected 1 SetSubTaskCompleted call, got %d", got)
	}

	_, stderr, code = runCommand(t, &commands.UncheckCmd{}, svc, []string{"1.1"}, false)
	expectCode(t, exitcode.Success, code, stderr)
	task, _ = svc.Task(id)
	if task.SubTasks[0].Completed {
		t.Error("expected sub-task open after uncheck")
	}
}

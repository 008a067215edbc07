package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoctl/internal/service"
)

func subtasks(states ...bool) []service.SubTask {
	out := make([]service.SubTask, len(states))
	for i, done := range states {
		out[i] = service.SubTask{ID: string(rune('a' + i)), Text: "step", Completed: done}
	}
	return out
}

func TestValidateText(t *testing.T) {
	got, err := service.ValidateText("  Buy milk \n")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got)

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := service.ValidateText(in)
		assert.ErrorIs(t, err, service.ErrInvalidInput, "input %q", in)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name string
		subs []service.SubTask
		want int
	}{
		{"no subtasks", nil, 0},
		{"none done", subtasks(false, false), 0},
		{"half done", subtasks(true, true, false, false), 50},
		{"one of three", subtasks(true, false, false), 33},
		{"two of three", subtasks(true, true, false), 67},
		{"all done", subtasks(true, true), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Progress(service.Task{SubTasks: tt.subs}))
		})
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, service.IsOverdue(service.Task{Deadline: &past}, now))
	assert.False(t, service.IsOverdue(service.Task{Deadline: &future}, now))
	assert.False(t, service.IsOverdue(service.Task{Deadline: &now}, now), "equal is not past")
	assert.False(t, service.IsOverdue(service.Task{}, now))
	assert.False(t, service.IsOverdue(service.Task{}, now.AddDate(100, 0, 0)))
	assert.True(t, service.IsOverdue(service.Task{Deadline: &past, Completed: true}, now))
}

func TestCanComplete(t *testing.T) {
	assert.True(t, service.CanComplete(service.Task{}))
	assert.True(t, service.CanComplete(service.Task{SubTasks: subtasks(true, true)}))
	assert.False(t, service.CanComplete(service.Task{SubTasks: subtasks(true, false)}))
}

func TestTaskClone(t *testing.T) {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := service.Task{ID: "1", Deadline: &d, SubTasks: subtasks(false)}

	c := orig.Clone()
	c.SubTasks[0].Completed = true
	*c.Deadline = d.AddDate(1, 0, 0)

	assert.False(t, orig.SubTasks[0].Completed)
	assert.Equal(t, d, *orig.Deadline)
}

func TestTaskSubTask(t *testing.T) {
	task := service.Task{SubTasks: subtasks(false, true)}

	st, idx, ok := task.SubTask("b")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.True(t, st.Completed)

	_, _, ok = task.SubTask("zz")
	assert.False(t, ok)
}

func TestParseDeadline(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-05-04T09:30", time.Date(2026, 5, 4, 9, 30, 0, 0, jakarta)},
		{"2026-05-04T09:30:15", time.Date(2026, 5, 4, 9, 30, 15, 0, jakarta)},
		{"2026-05-04 09:30", time.Date(2026, 5, 4, 9, 30, 0, 0, jakarta)},
		{"2026-05-04", time.Date(2026, 5, 4, 0, 0, 0, 0, jakarta)},
		{"2026-05-04T02:30:00Z", time.Date(2026, 5, 4, 2, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := service.ParseDeadline(tt.in, jakarta)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: want %v, got %v", tt.in, tt.want, got)
	}

	for _, bad := range []string{"", "tomorrow", "2026-13-01", "04/05/2026"} {
		_, err := service.ParseDeadline(bad, jakarta)
		assert.ErrorIs(t, err, service.ErrInvalidInput, bad)
	}
}

func TestFormatDeadline(t *testing.T) {
	local := time.Date(2026, 5, 4, 9, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "2026-05-04T02:30:00.000Z", service.FormatDeadline(local))
}

func TestErrors(t *testing.T) {
	notFound := &service.RejectedError{Op: "delete task", Code: 404, Message: "gone"}
	assert.ErrorIs(t, notFound, service.ErrNotFound)

	rejected := &service.RejectedError{Op: "create task", Message: "text too long"}
	assert.NotErrorIs(t, rejected, service.ErrNotFound)
	assert.Contains(t, rejected.Error(), "text too long")

	netErr := &service.NetworkError{Op: "list tasks", Err: errors.New("connection refused")}
	var target *service.NetworkError
	assert.ErrorAs(t, netErr, &target)

	_, err := service.ValidateText(" ")
	assert.True(t, service.IsLocal(err))
	assert.True(t, service.IsLocal(service.ErrIncompleteSubtasks))
	assert.False(t, service.IsLocal(netErr))
}

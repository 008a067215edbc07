// Package service defines the task model and the backend-agnostic gateway interface.
package service

import (
	"math"
	"strings"
	"time"
)

// SubTask is a child item of a Task.
type SubTask struct {
	ID        string
	Text      string
	Completed bool
}

// Task is a top-level to-do item. Subtasks are kept in display order.
type Task struct {
	ID        string
	Text      string
	Completed bool
	Deadline  *time.Time // nil if no deadline is set
	SubTasks  []SubTask
}

// Clone returns a deep copy of the task so callers never share sub-task
// slices or deadline pointers with the engine.
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.SubTasks != nil {
		c.SubTasks = make([]SubTask, len(t.SubTasks))
		copy(c.SubTasks, t.SubTasks)
	}
	return c
}

// SubTask returns the sub-task with the given ID and its index.
func (t Task) SubTask(id string) (SubTask, int, bool) {
	for i, st := range t.SubTasks {
		if st.ID == id {
			return st, i, true
		}
	}
	return SubTask{}, -1, false
}

// ValidateText trims s and rejects it if nothing is left.
func ValidateText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidInput("text must not be empty")
	}
	return s, nil
}

// Progress returns the percentage of completed sub-tasks, 0..100.
// A task without sub-tasks has progress 0.
func Progress(t Task) int {
	if len(t.SubTasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range t.SubTasks {
		if st.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(t.SubTasks))))
}

// IsOverdue reports whether the task has a deadline and now is strictly past it.
// Completion does not matter.
func IsOverdue(t Task, now time.Time) bool {
	return t.Deadline != nil && now.After(*t.Deadline)
}

// CanComplete reports whether every sub-task is completed.
// Vacuously true for a task without sub-tasks.
func CanComplete(t Task) bool {
	for _, st := range t.SubTasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

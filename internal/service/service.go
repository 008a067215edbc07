package service

import (
	"context"
	"time"
)

// Service defines the interface for the remote task store.
// Every call either returns the server's canonical object or an error
// from the taxonomy in errors.go. Implementations must not retry and must
// not hold shared state beyond their transport.
type Service interface {
	// ListTasks returns every task, active and completed, in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task without a deadline.
	CreateTask(ctx context.Context, text string) (Task, error)

	// UpdateTaskText replaces a task's text.
	UpdateTaskText(ctx context.Context, id, text string) (Task, error)

	// UpdateTaskDeadline sets or replaces a task's deadline.
	UpdateTaskDeadline(ctx context.Context, id string, deadline time.Time) (Task, error)

	// DeleteTask deletes a task and, server-side, all of its sub-tasks.
	DeleteTask(ctx context.Context, id string) error

	// ToggleTask flips a task's completion flag.
	ToggleTask(ctx context.Context, id string) (Task, error)

	// AddSubTask appends an open sub-task.
	AddSubTask(ctx context.Context, taskID, text string) (SubTask, error)

	// SetSubTaskCompleted sets a sub-task's completion flag.
	SetSubTaskCompleted(ctx context.Context, taskID, subTaskID string, completed bool) (SubTask, error)

	// DeleteSubTask removes a sub-task.
	DeleteSubTask(ctx context.Context, taskID, subTaskID string) error
}

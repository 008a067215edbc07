package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"todoctl/internal/service"
)

// mutation is one optimistic write. apply and the confirmed/failed hooks
// run with e.mu held; remote runs without it.
type mutation struct {
	op     string
	taskID string // the task the optimistic change touches

	// apply checks local guards and makes the optimistic change. An error
	// aborts the mutation before any network call.
	apply func() error
	// remote performs the gateway call.
	remote func(ctx context.Context) error
	// confirmed swaps the optimistic object for the server's.
	confirmed func()
	// failed runs after the rollback, e.g. to keep input buffers.
	failed func()
	// refetch overrides the default full Reconcile.
	refetch func(ctx context.Context) error
}

// run drives a mutation through optimistic apply, remote confirm or
// rollback, and the refetch that follows either outcome.
func (e *Engine) run(ctx context.Context, m mutation) error {
	e.mu.Lock()
	prev, existed := e.locate(m.taskID)
	if err := m.apply(); err != nil {
		e.lastErr = err
		e.mu.Unlock()
		e.log.Debug("mutation rejected locally", "op", m.op, "task", m.taskID, "error", err)
		e.notify()
		return err
	}
	e.mu.Unlock()
	e.notify()

	err := m.remote(ctx)

	e.mu.Lock()
	if err != nil {
		e.rollback(m.taskID, prev, existed)
		if m.failed != nil {
			m.failed()
		}
		e.lastErr = err
	} else {
		if m.confirmed != nil {
			m.confirmed()
		}
		e.lastErr = nil
	}
	e.mu.Unlock()
	e.notify()

	refetch := e.Reconcile
	if m.refetch != nil {
		refetch = m.refetch
	}
	_ = refetch(ctx)

	if err != nil {
		// The refetch must not mask the mutation's own failure.
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		e.notify()
		e.log.Warn("mutation rolled back", "op", m.op, "task", m.taskID, "error", err)
		return err
	}
	e.log.Debug("mutation confirmed", "op", m.op, "task", m.taskID)
	return nil
}

// localError records a guard failure that never reached run.
func (e *Engine) localError(err error) error {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.notify()
	return err
}

func taskNotFound(id string) error {
	return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
}

func subTaskNotFound(taskID, subID string) error {
	return fmt.Errorf("sub-task %s of task %s: %w", subID, taskID, service.ErrNotFound)
}

// lookup finds a confirmed task. Pending optimistic tasks are not addressable.
func (e *Engine) lookup(id string) (location, error) {
	if IsPending(id) {
		return location{}, taskNotFound(id)
	}
	loc, ok := e.locate(id)
	if !ok {
		return location{}, taskNotFound(id)
	}
	return loc, nil
}

// CreateTask appends a new task to the active partition.
// Empty text is rejected with ErrInvalidInput before any network call.
func (e *Engine) CreateTask(ctx context.Context, text string) (service.Task, error) {
	text, err := service.ValidateText(text)
	if err != nil {
		return service.Task{}, e.localError(err)
	}

	tempID := pendingPrefix + uuid.NewString()
	var created service.Task
	err = e.run(ctx, mutation{
		op:     "create task",
		taskID: tempID,
		apply: func() error {
			e.put(tempID, service.Task{ID: tempID, Text: text, SubTasks: []service.SubTask{}})
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			created, err = e.svc.CreateTask(ctx, text)
			return err
		},
		confirmed: func() {
			e.put(tempID, created)
			e.newTaskInput = ""
		},
	})
	if err != nil {
		return service.Task{}, err
	}
	return created.Clone(), nil
}

// DeleteTask removes a task from whichever partition holds it.
// Deleting an unknown id is an ErrNotFound no-op.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	return e.run(ctx, mutation{
		op:     "delete task",
		taskID: id,
		apply: func() error {
			if _, err := e.lookup(id); err != nil {
				return err
			}
			e.removeID(id)
			delete(e.editInput, id)
			delete(e.subTaskInput, id)
			return nil
		},
		remote: func(ctx context.Context) error {
			return e.svc.DeleteTask(ctx, id)
		},
	})
}

// DeleteCompletedTask permanently removes a task from the completed
// partition and refreshes that partition only.
func (e *Engine) DeleteCompletedTask(ctx context.Context, id string) error {
	return e.run(ctx, mutation{
		op:     "delete completed task",
		taskID: id,
		apply: func() error {
			loc, err := e.lookup(id)
			if err != nil {
				return err
			}
			if !loc.done {
				return fmt.Errorf("task %s is not completed: %w", id, service.ErrNotFound)
			}
			e.removeID(id)
			return nil
		},
		remote: func(ctx context.Context) error {
			return e.svc.DeleteTask(ctx, id)
		},
		refetch: e.FetchCompleted,
	})
}

// UpdateTask replaces a task's text. On any failure the text stays in the
// task's edit buffer so it can be retried.
func (e *Engine) UpdateTask(ctx context.Context, id, text string) (service.Task, error) {
	raw := text
	text, err := service.ValidateText(text)
	if err != nil {
		e.mu.Lock()
		if _, err := e.lookup(id); err == nil {
			e.editInput[id] = raw
		}
		e.mu.Unlock()
		return service.Task{}, e.localError(err)
	}

	var updated service.Task
	err = e.run(ctx, mutation{
		op:     "update task",
		taskID: id,
		apply: func() error {
			loc, err := e.lookup(id)
			if err != nil {
				return err
			}
			t := loc.task.Clone()
			t.Text = text
			e.put(id, t)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			updated, err = e.svc.UpdateTaskText(ctx, id, text)
			return err
		},
		confirmed: func() {
			e.put(id, updated)
			delete(e.editInput, id)
		},
		failed: func() {
			e.editInput[id] = raw
		},
	})
	if err != nil {
		return service.Task{}, err
	}
	return updated.Clone(), nil
}

// ToggleTaskCompletion moves a task between the partitions. Completing a
// task with an open sub-task fails with ErrIncompleteSubtasks and no
// network call. Re-opening a completed task is not gated.
func (e *Engine) ToggleTaskCompletion(ctx context.Context, id string) (service.Task, error) {
	var updated service.Task
	err := e.run(ctx, mutation{
		op:     "toggle task",
		taskID: id,
		apply: func() error {
			loc, err := e.lookup(id)
			if err != nil {
				return err
			}
			if !loc.task.Completed && !service.CanComplete(loc.task) {
				return fmt.Errorf("task %s: %w", id, service.ErrIncompleteSubtasks)
			}
			t := loc.task.Clone()
			t.Completed = !t.Completed
			e.put(id, t)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			updated, err = e.svc.ToggleTask(ctx, id)
			return err
		},
		confirmed: func() {
			e.put(id, updated)
		},
	})
	if err != nil {
		return service.Task{}, err
	}
	return updated.Clone(), nil
}

// SetDeadline parses input (see service.ParseDeadline) and sets it as the
// task's deadline. Unparseable input fails with ErrInvalidInput.
func (e *Engine) SetDeadline(ctx context.Context, id, input string) (service.Task, error) {
	deadline, err := service.ParseDeadline(input, e.loc)
	if err != nil {
		return service.Task{}, e.localError(err)
	}

	var updated service.Task
	err = e.run(ctx, mutation{
		op:     "set deadline",
		taskID: id,
		apply: func() error {
			loc, err := e.lookup(id)
			if err != nil {
				return err
			}
			t := loc.task.Clone()
			t.Deadline = &deadline
			e.put(id, t)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			updated, err = e.svc.UpdateTaskDeadline(ctx, id, deadline)
			return err
		},
		confirmed: func() {
			e.put(id, updated)
		},
	})
	if err != nil {
		return service.Task{}, err
	}
	return updated.Clone(), nil
}

// AddSubTask appends a sub-task. On failure the text stays in the task's
// sub-task buffer.
func (e *Engine) AddSubTask(ctx context.Context, taskID, text string) (service.SubTask, error) {
	raw := text
	text, err := service.ValidateText(text)
	if err != nil {
		e.mu.Lock()
		if _, err := e.lookup(taskID); err == nil {
			e.subTaskInput[taskID] = raw
		}
		e.mu.Unlock()
		return service.SubTask{}, e.localError(err)
	}

	tempID := pendingPrefix + uuid.NewString()
	var created service.SubTask
	err = e.run(ctx, mutation{
		op:     "add sub-task",
		taskID: taskID,
		apply: func() error {
			loc, err := e.lookup(taskID)
			if err != nil {
				return err
			}
			t := loc.task.Clone()
			t.SubTasks = append(t.SubTasks, service.SubTask{ID: tempID, Text: text})
			e.put(taskID, t)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			created, err = e.svc.AddSubTask(ctx, taskID, text)
			return err
		},
		confirmed: func() {
			e.putSubTask(taskID, tempID, created)
			delete(e.subTaskInput, taskID)
		},
		failed: func() {
			e.subTaskInput[taskID] = raw
		},
	})
	if err != nil {
		return service.SubTask{}, err
	}
	return created, nil
}

// DeleteSubTask removes a sub-task from its task.
func (e *Engine) DeleteSubTask(ctx context.Context, taskID, subTaskID string) error {
	return e.run(ctx, mutation{
		op:     "delete sub-task",
		taskID: taskID,
		apply: func() error {
			loc, err := e.lookup(taskID)
			if err != nil {
				return err
			}
			_, i, ok := loc.task.SubTask(subTaskID)
			if !ok || IsPending(subTaskID) {
				return subTaskNotFound(taskID, subTaskID)
			}
			t := loc.task.Clone()
			t.SubTasks = append(t.SubTasks[:i], t.SubTasks[i+1:]...)
			e.put(taskID, t)
			return nil
		},
		remote: func(ctx context.Context) error {
			return e.svc.DeleteSubTask(ctx, taskID, subTaskID)
		},
	})
}

// ToggleSubTaskCompletion flips a sub-task's completion flag. The parent
// task's own completion is never changed here.
func (e *Engine) ToggleSubTaskCompletion(ctx context.Context, taskID, subTaskID string) (service.SubTask, error) {
	var want bool
	var updated service.SubTask
	err := e.run(ctx, mutation{
		op:     "toggle sub-task",
		taskID: taskID,
		apply: func() error {
			loc, err := e.lookup(taskID)
			if err != nil {
				return err
			}
			st, i, ok := loc.task.SubTask(subTaskID)
			if !ok || IsPending(subTaskID) {
				return subTaskNotFound(taskID, subTaskID)
			}
			want = !st.Completed
			t := loc.task.Clone()
			t.SubTasks[i].Completed = want
			e.put(taskID, t)
			return nil
		},
		remote: func(ctx context.Context) (err error) {
			updated, err = e.svc.SetSubTaskCompleted(ctx, taskID, subTaskID, want)
			return err
		},
		confirmed: func() {
			e.putSubTask(taskID, subTaskID, updated)
		},
	})
	if err != nil {
		return service.SubTask{}, err
	}
	return updated, nil
}

// putSubTask replaces sub-task oldID (or st.ID) of taskID with st, or
// appends it. A task that vanished meanwhile is left alone.
func (e *Engine) putSubTask(taskID, oldID string, st service.SubTask) {
	loc, ok := e.locate(taskID)
	if !ok {
		return
	}
	t := loc.task.Clone()
	subs := make([]service.SubTask, 0, len(t.SubTasks)+1)
	placed := false
	for _, x := range t.SubTasks {
		if x.ID != oldID && x.ID != st.ID {
			subs = append(subs, x)
			continue
		}
		if !placed {
			subs = append(subs, st)
			placed = true
		}
	}
	if !placed {
		subs = append(subs, st)
	}
	t.SubTasks = subs
	e.put(taskID, t)
}

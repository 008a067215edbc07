package engine

// SetNewTaskInput stores the new-task text buffer.
func (e *Engine) SetNewTaskInput(s string) {
	e.mu.Lock()
	e.newTaskInput = s
	e.mu.Unlock()
	e.notify()
}

// BeginEdit opens an edit buffer for a task, seeded with its current text.
// An existing buffer is kept.
func (e *Engine) BeginEdit(id string) error {
	e.mu.Lock()
	loc, err := e.lookup(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if _, ok := e.editInput[id]; !ok {
		e.editInput[id] = loc.task.Text
	}
	e.mu.Unlock()
	e.notify()
	return nil
}

// SetEditInput replaces a task's edit buffer.
func (e *Engine) SetEditInput(id, s string) {
	e.mu.Lock()
	e.editInput[id] = s
	e.mu.Unlock()
	e.notify()
}

// CancelEdit discards a task's edit buffer.
func (e *Engine) CancelEdit(id string) {
	e.mu.Lock()
	delete(e.editInput, id)
	e.mu.Unlock()
	e.notify()
}

// SetSubTaskInput stores unsent sub-task text for a task.
func (e *Engine) SetSubTaskInput(taskID, s string) {
	e.mu.Lock()
	e.subTaskInput[taskID] = s
	e.mu.Unlock()
	e.notify()
}

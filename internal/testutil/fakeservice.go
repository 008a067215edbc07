// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"todoctl/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Like the real collaborator it performs no domain validation: ToggleTask
// flips completion regardless of sub-tasks.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  map[string]int

	// Error injection for testing
	ListTasksErr           error
	CreateTaskErr          error
	UpdateTaskTextErr      error
	UpdateTaskDeadlineErr  error
	DeleteTaskErr          error
	ToggleTaskErr          error
	AddSubTaskErr          error
	SetSubTaskCompletedErr error
	DeleteSubTaskErr       error

	// BeforeListTasks, if set, runs at the start of every ListTasks call
	// (outside the lock) with the 1-based call number.
	BeforeListTasks func(n int)
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{calls: make(map[string]int)}
}

// AddTask seeds a task and returns its id.
func (f *FakeService) AddTask(text string, completed bool, subs ...service.SubTask) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	task := service.Task{ID: id, Text: text, Completed: completed, SubTasks: []service.SubTask{}}
	for _, st := range subs {
		if st.ID == "" {
			st.ID = f.newID()
		}
		task.SubTasks = append(task.SubTasks, st)
	}
	f.tasks = append(f.tasks, task)
	return id
}

// Task returns a copy of the stored task.
func (f *FakeService) Task(id string) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(id); i >= 0 {
		return f.tasks[i].Clone(), true
	}
	return service.Task{}, false
}

// Calls returns how many times method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeService) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *FakeService) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// record counts a call and returns its 1-based sequence number.
func (f *FakeService) record(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.calls[method]
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	n := f.record("ListTasks")
	if f.BeforeListTasks != nil {
		f.BeforeListTasks(n)
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.Task, len(f.tasks))
	for i, t := range f.tasks {
		result[i] = t.Clone()
	}
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, text string) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task := service.Task{ID: f.newID(), Text: text, SubTasks: []service.SubTask{}}
	f.tasks = append(f.tasks, task)
	return task.Clone(), nil
}

// UpdateTaskText implements service.Service.
func (f *FakeService) UpdateTaskText(ctx context.Context, id, text string) (service.Task, error) {
	f.record("UpdateTaskText")
	if f.UpdateTaskTextErr != nil {
		return service.Task{}, f.UpdateTaskTextErr
	}
	return f.mutate(id, func(t *service.Task) { t.Text = text })
}

// UpdateTaskDeadline implements service.Service.
func (f *FakeService) UpdateTaskDeadline(ctx context.Context, id string, deadline time.Time) (service.Task, error) {
	f.record("UpdateTaskDeadline")
	if f.UpdateTaskDeadlineErr != nil {
		return service.Task{}, f.UpdateTaskDeadlineErr
	}
	d := deadline.UTC()
	return f.mutate(id, func(t *service.Task) { t.Deadline = &d })
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.record("ToggleTask")
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}
	return f.mutate(id, func(t *service.Task) { t.Completed = !t.Completed })
}

// AddSubTask implements service.Service.
func (f *FakeService) AddSubTask(ctx context.Context, taskID, text string) (service.SubTask, error) {
	f.record("AddSubTask")
	if f.AddSubTaskErr != nil {
		return service.SubTask{}, f.AddSubTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(taskID)
	if i < 0 {
		return service.SubTask{}, service.ErrNotFound
	}
	st := service.SubTask{ID: f.newID(), Text: text}
	f.tasks[i].SubTasks = append(f.tasks[i].SubTasks, st)
	return st, nil
}

// SetSubTaskCompleted implements service.Service.
func (f *FakeService) SetSubTaskCompleted(ctx context.Context, taskID, subTaskID string, completed bool) (service.SubTask, error) {
	f.record("SetSubTaskCompleted")
	if f.SetSubTaskCompletedErr != nil {
		return service.SubTask{}, f.SetSubTaskCompletedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(taskID)
	if i < 0 {
		return service.SubTask{}, service.ErrNotFound
	}
	_, j, ok := f.tasks[i].SubTask(subTaskID)
	if !ok {
		return service.SubTask{}, service.ErrNotFound
	}
	f.tasks[i].SubTasks[j].Completed = completed
	return f.tasks[i].SubTasks[j], nil
}

// DeleteSubTask implements service.Service.
func (f *FakeService) DeleteSubTask(ctx context.Context, taskID, subTaskID string) error {
	f.record("DeleteSubTask")
	if f.DeleteSubTaskErr != nil {
		return f.DeleteSubTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(taskID)
	if i < 0 {
		return service.ErrNotFound
	}
	_, j, ok := f.tasks[i].SubTask(subTaskID)
	if !ok {
		return service.ErrNotFound
	}
	subs := f.tasks[i].SubTasks
	f.tasks[i].SubTasks = append(subs[:j], subs[j+1:]...)
	return nil
}

func (f *FakeService) mutate(id string, fn func(*service.Task)) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	fn(&f.tasks[i])
	return f.tasks[i].Clone(), nil
}

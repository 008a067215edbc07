package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todoctl/internal/engine"
	"todoctl/internal/service"
)

// TaskRef is a parsed task or sub-task reference as shown by list.
type TaskRef struct {
	Completed bool // c-prefixed: numbers the completed section
	TaskNum   int  // 1-based task number
	SubNum    int  // 1-based sub-task number, 0 if none
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrInvalidTaskRef indicates a reference that does not parse.
var ErrInvalidTaskRef = errors.New("invalid task reference")

// ErrRefOutOfRange indicates a well-formed reference with no matching item.
var ErrRefOutOfRange = errors.New("reference out of range")

// ParseTaskRef parses the first argument as a reference.
//
// Accepted forms:
//
//	3     active task 3
//	c2    completed task 2
//	3.1   sub-task 1 of active task 3
//	c2.1  sub-task 1 of completed task 2
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	raw := args[0]

	var ref TaskRef
	s := raw
	if rest, ok := strings.CutPrefix(s, "c"); ok {
		ref.Completed = true
		s = rest
	}

	taskPart, subPart, hasSub := strings.Cut(s, ".")
	n, ok := positive(taskPart)
	if !ok {
		return TaskRef{}, fmt.Errorf("%w: %s", ErrInvalidTaskRef, raw)
	}
	ref.TaskNum = n

	if hasSub {
		m, ok := positive(subPart)
		if !ok {
			return TaskRef{}, fmt.Errorf("%w: %s", ErrInvalidTaskRef, raw)
		}
		ref.SubNum = m
	}
	return ref, nil
}

// String renders the reference the way list shows it.
func (r TaskRef) String() string {
	s := strconv.Itoa(r.TaskNum)
	if r.Completed {
		s = "c" + s
	}
	if r.SubNum > 0 {
		s += "." + strconv.Itoa(r.SubNum)
	}
	return s
}

// ResolveTask finds the task a reference points at in s.
func ResolveTask(s engine.State, ref TaskRef) (service.Task, error) {
	tasks := s.Active
	if ref.Completed {
		tasks = s.Completed
	}
	if ref.TaskNum < 1 || ref.TaskNum > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: %s", ErrRefOutOfRange, ref)
	}
	return tasks[ref.TaskNum-1], nil
}

// ResolveSubTask finds the task and sub-task a reference points at in s.
func ResolveSubTask(s engine.State, ref TaskRef) (service.Task, service.SubTask, error) {
	if ref.SubNum == 0 {
		return service.Task{}, service.SubTask{}, fmt.Errorf("%w: %s (expected <task>.<sub-task>)", ErrInvalidTaskRef, ref)
	}
	task, err := ResolveTask(s, ref)
	if err != nil {
		return service.Task{}, service.SubTask{}, err
	}
	if ref.SubNum > len(task.SubTasks) {
		return service.Task{}, service.SubTask{}, fmt.Errorf("%w: %s", ErrRefOutOfRange, ref)
	}
	return task, task.SubTasks[ref.SubNum-1], nil
}

// positive parses s as a base-10 integer >= 1 made of ASCII digits only.
func positive(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

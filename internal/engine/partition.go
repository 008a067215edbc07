package engine

import "todoctl/internal/service"

// The helpers below run with e.mu held for writing (locate also under RLock).
// Every write goes through put or removeID, which strip an id from both
// partitions before placing it, so an id is never in both.

type location struct {
	task  service.Task
	done  bool // in the completed partition
	index int
}

func (e *Engine) locate(id string) (location, bool) {
	for i, t := range e.active {
		if t.ID == id {
			return location{task: t, index: i}, true
		}
	}
	for i, t := range e.completed {
		if t.ID == id {
			return location{task: t, done: true, index: i}, true
		}
	}
	return location{}, false
}

func (e *Engine) partition(done bool) *[]service.Task {
	if done {
		return &e.completed
	}
	return &e.active
}

// put stores t in the partition matching t.Completed. If a task with oldID
// or t.ID already sits in that partition, t takes its position; otherwise t
// is appended.
func (e *Engine) put(oldID string, t service.Task) {
	placed := false
	rebuild := func(ts []service.Task, done bool) []service.Task {
		out := make([]service.Task, 0, len(ts)+1)
		for _, x := range ts {
			if x.ID != oldID && x.ID != t.ID {
				out = append(out, x)
				continue
			}
			if !placed && done == t.Completed {
				out = append(out, t)
				placed = true
			}
		}
		return out
	}
	e.active = rebuild(e.active, false)
	e.completed = rebuild(e.completed, true)
	if !placed {
		part := e.partition(t.Completed)
		*part = append(*part, t)
	}
}

func (e *Engine) removeID(id string) {
	e.active = without(e.active, id)
	e.completed = without(e.completed, id)
}

// rollback puts back what the task looked like before an optimistic change.
func (e *Engine) rollback(id string, prev location, existed bool) {
	e.removeID(id)
	if !existed {
		return
	}
	e.removeID(prev.task.ID)
	part := e.partition(prev.done)
	i := prev.index
	if i > len(*part) {
		i = len(*part)
	}
	ts := make([]service.Task, 0, len(*part)+1)
	ts = append(ts, (*part)[:i]...)
	ts = append(ts, prev.task)
	ts = append(ts, (*part)[i:]...)
	*part = ts
}

// split divides a canonical fetch into the two partitions, in server order.
func split(tasks []service.Task) (active, completed []service.Task) {
	active = make([]service.Task, 0, len(tasks))
	completed = make([]service.Task, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed
}

func without(ts []service.Task, id string) []service.Task {
	out := make([]service.Task, 0, len(ts))
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

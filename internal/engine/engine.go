// Package engine owns the canonical in-memory task state and reconciles
// optimistic local changes against the remote service.
//
// The Engine is the only writer of its collections. Readers get deep copies
// through Snapshot or a Subscribe callback. Network calls never run while
// the state lock is held, so any number of operations may be in flight.
package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"todoctl/internal/service"
)

// pendingPrefix marks ids the engine made up for optimistic creates.
const pendingPrefix = "pending-"

// DefaultRetryDelay is the first backoff step between fetch retries.
const DefaultRetryDelay = 200 * time.Millisecond

// IsPending reports whether id belongs to an object the server has not confirmed yet.
func IsPending(id string) bool {
	return strings.HasPrefix(id, pendingPrefix)
}

// State is a snapshot of the engine. It shares nothing with the engine.
type State struct {
	Active           []service.Task
	Completed        []service.Task
	LoadingActive    bool
	LoadingCompleted bool

	// NewTaskInput is the new-task text buffer. Cleared by a successful CreateTask.
	NewTaskInput string
	// EditInput holds in-progress text edits by task id.
	EditInput map[string]string
	// SubTaskInput holds unsent sub-task text by parent task id.
	SubTaskInput map[string]string

	// LastError is the most recent failure, nil after a successful operation.
	LastError error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the time source used for overdue checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone deadlines without an offset are read in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithFetchRetries retries list fetches that fail with a network error up
// to n more times, doubling the delay from base each time.
func WithFetchRetries(n int, base time.Duration) Option {
	return func(e *Engine) {
		e.fetchRetries = n
		e.retryDelay = base
	}
}

// Engine is the task/sub-task reconciliation engine.
type Engine struct {
	svc          service.Service
	log          *slog.Logger
	now          func() time.Time
	loc          *time.Location
	fetchRetries int
	retryDelay   time.Duration

	mu               sync.RWMutex
	active           []service.Task
	completed        []service.Task
	fetchingActive   int
	fetchingComplete int
	fetchSeq         uint64
	appliedActive    uint64
	appliedComplete  uint64
	newTaskInput     string
	editInput        map[string]string
	subTaskInput     map[string]string
	lastErr          error

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates an Engine backed by svc. The collections start empty;
// call Reconcile to load them.
func New(svc service.Service, opts ...Option) *Engine {
	e := &Engine{
		svc:          svc,
		log:          slog.New(slog.DiscardHandler),
		now:          time.Now,
		loc:          time.Local,
		retryDelay:   DefaultRetryDelay,
		editInput:    make(map[string]string),
		subTaskInput: make(map[string]string),
		subs:         make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return State{
		Active:           cloneTasks(e.active),
		Completed:        cloneTasks(e.completed),
		LoadingActive:    e.fetchingActive > 0,
		LoadingCompleted: e.fetchingComplete > 0,
		NewTaskInput:     e.newTaskInput,
		EditInput:        cloneMap(e.editInput),
		SubTaskInput:     cloneMap(e.subTaskInput),
		LastError:        e.lastErr,
	}
}

// Task returns a copy of the task with the given id and whether it is in
// the completed partition.
func (e *Engine) Task(id string) (task service.Task, completed bool, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	loc, ok := e.locate(id)
	if !ok {
		return service.Task{}, false, false
	}
	return loc.task.Clone(), loc.done, true
}

// IsOverdue evaluates t against the engine's clock.
func (e *Engine) IsOverdue(t service.Task) bool {
	return service.IsOverdue(t, e.now())
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block.
func (e *Engine) Subscribe(fn func(State)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) notify() {
	e.subMu.Lock()
	fns := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	if len(fns) == 0 {
		return
	}
	s := e.Snapshot()
	for _, fn := range fns {
		fn(s)
	}
}

func cloneTasks(ts []service.Task) []service.Task {
	out := make([]service.Task, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

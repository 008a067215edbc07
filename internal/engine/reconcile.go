package engine

import (
	"context"
	"errors"
	"time"

	"todoctl/internal/service"
)

type partitions uint8

const (
	activePart partitions = 1 << iota
	completedPart

	bothParts = activePart | completedPart
)

// FetchActive replaces the active partition with the server's open tasks.
// On failure the previous partition is kept.
func (e *Engine) FetchActive(ctx context.Context) error {
	return e.fetch(ctx, activePart)
}

// FetchCompleted replaces the completed partition with the server's
// completed tasks. On failure the previous partition is kept.
func (e *Engine) FetchCompleted(ctx context.Context) error {
	return e.fetch(ctx, completedPart)
}

// Reconcile re-derives both partitions from one fresh fetch. It runs after
// every mutation, successful or not.
//
// Each fetch is numbered when issued. A result that arrives after a newer
// fetch has already been applied is discarded, so the freshest confirmed
// view always wins regardless of response order.
func (e *Engine) Reconcile(ctx context.Context) error {
	return e.fetch(ctx, bothParts)
}

func (e *Engine) fetch(ctx context.Context, which partitions) error {
	e.mu.Lock()
	e.fetchSeq++
	seq := e.fetchSeq
	e.setFetching(which, 1)
	e.mu.Unlock()
	e.notify()

	tasks, err := e.listTasks(ctx)

	e.mu.Lock()
	e.setFetching(which, -1)
	if err != nil {
		e.lastErr = err
		e.mu.Unlock()
		e.log.Warn("fetch failed", "error", err)
		e.notify()
		return err
	}

	active, completed := split(tasks)
	var applied partitions
	if which&activePart != 0 && seq > e.appliedActive {
		e.active = active
		e.appliedActive = seq
		applied |= activePart
	}
	if which&completedPart != 0 && seq > e.appliedComplete {
		e.completed = completed
		e.appliedComplete = seq
		applied |= completedPart
	}
	// Only one partition took this result, either because only one was
	// asked for or because a newer fetch already owns the other. The other
	// partition must not keep an id the fresh one now holds.
	if applied == activePart || applied == completedPart {
		e.dropCrossed(applied)
	}
	e.lastErr = nil
	e.mu.Unlock()

	if applied != 0 {
		e.log.Debug("fetched tasks", "seq", seq, "active", len(active), "completed", len(completed))
	} else {
		e.log.Debug("discarded stale fetch", "seq", seq)
	}
	e.notify()
	return nil
}

func (e *Engine) setFetching(which partitions, delta int) {
	if which&activePart != 0 {
		e.fetchingActive += delta
	}
	if which&completedPart != 0 {
		e.fetchingComplete += delta
	}
}

// dropCrossed removes from the partition that was not refreshed any id the
// refreshed one now holds.
func (e *Engine) dropCrossed(fresh partitions) {
	src, dst := e.active, &e.completed
	if fresh == completedPart {
		src, dst = e.completed, &e.active
	}
	ids := make(map[string]bool, len(src))
	for _, t := range src {
		ids[t.ID] = true
	}
	kept := (*dst)[:0:0]
	for _, t := range *dst {
		if !ids[t.ID] {
			kept = append(kept, t)
		}
	}
	*dst = kept
}

// listTasks retries network failures only. Rejections are final.
func (e *Engine) listTasks(ctx context.Context) ([]service.Task, error) {
	var lastErr error
	for attempt := 0; attempt <= e.fetchRetries; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay << (attempt - 1)
			e.log.Debug("retrying fetch", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &service.NetworkError{Op: "list tasks", Err: ctx.Err()}
			}
		}

		tasks, err := e.svc.ListTasks(ctx)
		if err == nil {
			return tasks, nil
		}
		lastErr = err

		var netErr *service.NetworkError
		if !errors.As(err, &netErr) {
			return nil, err
		}
	}
	return nil, lastErr
}

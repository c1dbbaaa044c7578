// Package session hosts the optimistic-delete-with-undo protocol: per-owner
// views of the snapshot list plus the grace-window timers that defer the
// irreversible store delete.
package session

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyPending is returned when a delete is requested for an id that
// already has an unresolved pending delete.
var ErrAlreadyPending = errors.New("delete already pending for this snapshot")

// PendingDeletes owns one cancellation token per snapshot id. Each token is
// created by Schedule and consumed exactly once, by either the timer firing
// (commit) or Undo (restore) — never both, however close the two race.
type PendingDeletes struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pendingDelete
}

// pendingDelete is the cancellation token for one scheduled commit.
type pendingDelete struct {
	timer    *time.Timer
	resolved bool
}

// NewPendingDeletes creates a manager with the given grace window.
func NewPendingDeletes(window time.Duration) *PendingDeletes {
	return &PendingDeletes{
		window:  window,
		pending: make(map[string]*pendingDelete),
	}
}

// Window returns the configured grace window.
func (p *PendingDeletes) Window() time.Duration {
	return p.window
}

// Schedule starts the grace window for id. When the window elapses without an
// Undo, commit runs exactly once on the timer goroutine. The manager never
// holds its lock while calling commit, so commit may take other locks freely.
// Returns the commit deadline, or ErrAlreadyPending for a re-entrant delete.
func (p *PendingDeletes) Schedule(id string, commit func()) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.pending[id]; exists {
		return time.Time{}, ErrAlreadyPending
	}

	pd := &pendingDelete{}
	pd.timer = time.AfterFunc(p.window, func() {
		p.mu.Lock()
		if pd.resolved {
			p.mu.Unlock()
			return
		}
		pd.resolved = true
		delete(p.pending, id)
		p.mu.Unlock()
		commit()
	})
	p.pending[id] = pd

	return time.Now().Add(p.window), nil
}

// Undo cancels the pending commit for id with no residual side effect.
// Returns false when nothing is pending (never scheduled, already undone, or
// already committed).
func (p *PendingDeletes) Undo(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pd, ok := p.pending[id]
	if !ok || pd.resolved {
		return false
	}
	pd.resolved = true
	pd.timer.Stop()
	delete(p.pending, id)
	return true
}

// IsPending reports whether id has an unresolved pending delete.
func (p *PendingDeletes) IsPending(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[id]
	return ok
}

// Len returns the number of unresolved pending deletes.
func (p *PendingDeletes) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Drain resolves every pending delete immediately, returning the commit
// callbacks' ids. Timers are stopped; the caller decides what to do with the
// drained ids (the server commits them at shutdown so an accepted delete is
// not silently dropped).
func (p *PendingDeletes) Drain() []string {
	p.mu.Lock()
	ids := make([]string, 0, len(p.pending))
	for id, pd := range p.pending {
		pd.resolved = true
		pd.timer.Stop()
		ids = append(ids, id)
	}
	p.pending = make(map[string]*pendingDelete)
	p.mu.Unlock()
	return ids
}

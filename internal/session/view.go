package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
)

// ErrNotVisible is returned when a delete names an id that is not in the
// session's visible list. Callers map it to a 404-equivalent outcome.
var ErrNotVisible = errors.New("snapshot not in visible list")

// CommitFunc performs the irreversible server-side delete for one id.
type CommitFunc func(id string) error

// View is one client session's picture of the snapshot list. A delete removes
// the record from the visible list immediately and schedules the store commit
// after the grace window; an undo inside the window reinserts the record at
// the head of the list and the store is never contacted.
//
// On commit failure the record stays logically gone from the view — an
// acknowledged consistency gap; the next Refresh reconciles against the store.
type View struct {
	mu      sync.Mutex
	visible []models.Snapshot
	removed map[string]models.Snapshot // pending-delete records kept for restore
	pending *PendingDeletes
	commit  CommitFunc
	logger  *zap.Logger
}

// NewView creates a session view with the given grace window and commit
// function.
func NewView(window time.Duration, commit CommitFunc, logger *zap.Logger) *View {
	return &View{
		removed: make(map[string]models.Snapshot),
		pending: NewPendingDeletes(window),
		commit:  commit,
		logger:  logger,
	}
}

// Refresh replaces the visible list with records fresh from the store,
// excluding any ids still pending delete. This is also the reconciliation
// point after a failed commit.
func (v *View) Refresh(records []models.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visible = v.visible[:0]
	for _, rec := range records {
		if v.pending.IsPending(rec.ID) {
			continue
		}
		v.visible = append(v.visible, rec)
	}
}

// Records returns a copy of the visible list.
func (v *View) Records() []models.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Snapshot, len(v.visible))
	copy(out, v.visible)
	return out
}

// Delete optimistically removes id from the visible list and schedules the
// store commit for after the grace window. Returns the commit deadline.
// A second delete on an id already pending returns ErrAlreadyPending; an id
// not in the visible list returns ErrNotVisible.
func (v *View) Delete(id string) (time.Time, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx := -1
	for i := range v.visible {
		if v.visible[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		if v.pending.IsPending(id) {
			return time.Time{}, ErrAlreadyPending
		}
		return time.Time{}, ErrNotVisible
	}

	rec := v.visible[idx]
	deadline, err := v.pending.Schedule(id, func() { v.runCommit(id) })
	if err != nil {
		return time.Time{}, err
	}

	v.visible = append(v.visible[:idx], v.visible[idx+1:]...)
	v.removed[id] = rec
	observability.PendingDeletesGauge.Inc()
	return deadline, nil
}

// Undo cancels the pending delete for id and reinserts the record at the head
// of the visible list. Returns false when nothing is pending for id.
func (v *View) Undo(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.pending.Undo(id) {
		return false
	}

	rec, ok := v.removed[id]
	if ok {
		delete(v.removed, id)
		// Head reinsertion, not the prior sorted position; the next
		// Refresh restores store order.
		v.visible = append([]models.Snapshot{rec}, v.visible...)
	}
	observability.PendingDeletesGauge.Dec()
	observability.DeleteUndoneTotal.Inc()
	return true
}

// Contains reports whether id is in the visible list.
func (v *View) Contains(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.visible {
		if v.visible[i].ID == id {
			return true
		}
	}
	return false
}

// PendingCount returns the number of unresolved pending deletes in this view.
func (v *View) PendingCount() int {
	return v.pending.Len()
}

// Drain commits every unresolved pending delete immediately. Called at
// shutdown so an accepted delete is not silently dropped with its timer.
func (v *View) Drain() {
	for _, id := range v.pending.Drain() {
		v.runCommit(id)
	}
}

// runCommit performs the store delete for id exactly once per pending
// instance. The pending manager guarantees it is never invoked for an undone
// delete.
func (v *View) runCommit(id string) {
	err := v.commit(id)

	v.mu.Lock()
	delete(v.removed, id)
	v.mu.Unlock()

	observability.PendingDeletesGauge.Dec()
	if err != nil {
		// The record stays out of the visible list even though the store
		// may still hold it; the next Refresh reconciles.
		observability.DeleteCommitFailedTotal.Inc()
		if v.logger != nil {
			v.logger.Error("pending delete commit failed",
				zap.String("snapshot_id", id),
				zap.Error(err))
		}
		return
	}
	observability.DeleteCommittedTotal.Inc()
	if v.logger != nil {
		v.logger.Debug("pending delete committed", zap.String("snapshot_id", id))
	}
}

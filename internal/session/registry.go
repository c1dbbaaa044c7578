package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry holds one View per owner. Views are created lazily on first use
// and share the same grace window and commit function.
type Registry struct {
	mu     sync.Mutex
	views  map[string]*View
	window time.Duration
	commit CommitFunc
	logger *zap.Logger
}

// NewRegistry creates a registry producing views with the given window and
// commit function.
func NewRegistry(window time.Duration, commit CommitFunc, logger *zap.Logger) *Registry {
	return &Registry{
		views:  make(map[string]*View),
		window: window,
		commit: commit,
		logger: logger,
	}
}

// ViewFor returns the owner's view, creating it on first use.
func (r *Registry) ViewFor(owner string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[owner]
	if !ok {
		v = NewView(r.window, r.commit, r.logger)
		r.views[owner] = v
	}
	return v
}

// Drain commits every unresolved pending delete across all views. Called at
// shutdown.
func (r *Registry) Drain() {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()

	for _, v := range views {
		v.Drain()
	}
}

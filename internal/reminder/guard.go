package reminder

import (
	"sync"

	"wellbeing-reminder-backend/internal/model"
)

// runGuard is a named-lock set preventing a reminder kind's scheduled run
// from overlapping itself within this process. A second invocation of a
// held kind is dropped, not queued. Deployments with more than one
// scheduler instance need a distributed mutex instead.
type runGuard struct {
	mu   sync.Mutex
	held map[model.NotificationType]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{held: make(map[model.NotificationType]struct{})}
}

// TryAcquire takes the lock for a kind. Returns false if already held.
func (g *runGuard) TryAcquire(kind model.NotificationType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[kind]; ok {
		return false
	}
	g.held[kind] = struct{}{}
	return true
}

// Release frees the lock for a kind. Releasing an unheld kind is a no-op.
func (g *runGuard) Release(kind model.NotificationType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, kind)
}

package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/pipeline"
)

type sessionEntry struct {
	app      *pipeline.App
	lastUsed time.Time
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	factory  SessionFactory
	now      func() time.Time
}

func newSessionRegistry(factory SessionFactory) *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry), factory: factory, now: time.Now}
}

func (r *sessionRegistry) create() (string, *pipeline.App) {
	id := uuid.NewString()
	app := r.factory(id)
	r.mu.Lock()
	r.sessions[id] = &sessionEntry{app: app, lastUsed: r.now()}
	r.mu.Unlock()
	return id, app
}

// get returns the session and marks it used.
func (r *sessionRegistry) get(id string) (*pipeline.App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.app, true
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// sweep drops sessions idle for longer than ttl. Sessions with a pipeline in
// flight are kept. Returns the number removed.
func (r *sessionRegistry) sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) && !e.app.Busy() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// expireIdle sweeps every ttl/2 until ctx is done.
func (r *sessionRegistry) expireIdle(ctx context.Context, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.sweep(ttl); n > 0 {
				logger.Debug("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

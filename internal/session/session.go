package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/PetoAdam/homenavi/weather-widget/internal/observability"
	"github.com/PetoAdam/homenavi/weather-widget/internal/widget"

	"github.com/google/uuid"
)

type entry struct {
	widget    *widget.Widget
	expiresAt time.Time
}

// Registry keeps one widget per UI session in memory. Sessions expire after
// ttl without access; nothing survives a restart.
type Registry struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]*entry
	ttl       time.Duration
	newWidget func() *widget.Widget
	now       func() time.Time
}

func New(ttl time.Duration, newWidget func() *widget.Widget) *Registry {
	return &Registry{
		items:     make(map[uuid.UUID]*entry),
		ttl:       ttl,
		newWidget: newWidget,
		now:       time.Now,
	}
}

func (r *Registry) Create() (uuid.UUID, *widget.Widget) {
	id := uuid.New()
	w := r.newWidget()

	r.mu.Lock()
	r.items[id] = &entry{widget: w, expiresAt: r.now().Add(r.ttl)}
	n := len(r.items)
	r.mu.Unlock()

	observability.SetActiveSessions(n)
	return id, w
}

// Get returns the session's widget and extends its lifetime.
func (r *Registry) Get(id uuid.UUID) (*widget.Widget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok || r.now().After(e.expiresAt) {
		return nil, false
	}
	e.expiresAt = r.now().Add(r.ttl)
	return e.widget, true
}

// Delete removes the session and closes its open streams.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	e, ok := r.items[id]
	delete(r.items, id)
	n := len(r.items)
	r.mu.Unlock()

	if ok {
		e.widget.Close()
	}
	observability.SetActiveSessions(n)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Sweep drops expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*widget.Widget
	for id, e := range r.items {
		if now.After(e.expiresAt) {
			delete(r.items, id)
			expired = append(expired, e.widget)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	observability.SetActiveSessions(n)
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Debug("expired widget sessions", "count", n)
			}
		}
	}
}

package checkout

import (
	"sync"

	"github.com/fjod/go_cart/storefront/domain"
)

// BackendFactory binds the backend client to a session.
type BackendFactory func(s domain.Session) Backend

// Registry keeps one orchestrator per logged-in user.
type Registry struct {
	mu      sync.Mutex
	factory BackendFactory
	deps    Deps
	items   map[int64]*Orchestrator
}

func NewRegistry(factory BackendFactory, deps Deps) *Registry {
	if deps.Locks == nil {
		deps.Locks = NewCartLocks()
	}
	return &Registry{
		factory: factory,
		deps:    deps,
		items:   make(map[int64]*Orchestrator),
	}
}

// For returns the user's orchestrator. A new token replaces the orchestrator
// unless a submission is in flight, which keeps the one that owns it.
func (r *Registry) For(s domain.Session) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.items[s.UserID]; ok {
		if o.session.Token == s.Token || o.State().InFlight() {
			return o
		}
	}
	o := New(s, r.factory(s), r.deps)
	r.items[s.UserID] = o
	return o
}

func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.items, userID)
	r.mu.Unlock()
}

package announce

import (
	"sync"

	"github.com/google/uuid"
)

// registry holds the active subscriptions. The lock is scoped to individual
// operations; a fan-out sweep iterates a snapshot, never the live map.
type registry struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

func newRegistry() *registry {
	return &registry{subs: make(map[uuid.UUID]*Subscription)}
}

func (r *registry) add(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s.id] = s
}

// remove deletes the entry if present and returns it, nil otherwise.
// Removing an absent identity is a no-op.
func (r *registry) remove(id uuid.UUID) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil
	}
	delete(r.subs, id)
	return s
}

// snapshot returns a point-in-time copy of the registered subscriptions.
// Registrations racing with a publish land in later snapshots only.
func (r *registry) snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	return subs
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

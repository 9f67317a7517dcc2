package announce

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/metrics"
)

// Broadcaster is the surface the HTTP layer drives. Implemented by the local
// Announcer and by the boundary client talking to a remote announcer process.
type Broadcaster interface {
	// Publish delivers the event to every current listener. It returns a
	// validation error for malformed events and never blocks on listener
	// consumption.
	Publish(ev Event) error
	// Listen registers a new subscription and returns its read side.
	Listen() (Listener, error)
	// ListenerCount reports the number of active subscriptions.
	ListenerCount() (int, error)
}

// Announcer fans published events out to every registered subscription.
// Slow subscribers are evicted rather than allowed to stall the publisher:
// a full inbox at publish time removes the subscription before the publish
// call returns.
type Announcer struct {
	registry *registry
}

var _ Broadcaster = (*Announcer)(nil)

// New creates an announcer with an empty registry.
func New() *Announcer {
	return &Announcer{registry: newRegistry()}
}

// Publish delivers ev to every subscription present in the registry at call
// time. Each delivery is a non-blocking insert into the subscriber's inbox;
// subscribers whose inbox is full are removed after the sweep. Latency is
// bounded by the snapshot size, never by subscriber I/O.
func (a *Announcer) Publish(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	var evicted []*Subscription
	for _, sub := range a.registry.snapshot() {
		select {
		case sub.inbox <- ev:
		default:
			evicted = append(evicted, sub)
		}
	}

	for _, sub := range evicted {
		if removed := a.registry.remove(sub.id); removed != nil {
			removed.markDone()
			metrics.AnnouncerEvictionsTotal.Inc()
			slog.Warn("Evicting slow listener", "subscription_id", sub.id.String())
		}
	}

	metrics.AnnouncerPublishesTotal.Inc()
	metrics.AnnouncerActiveListeners.Set(float64(a.registry.count()))
	return nil
}

// Listen registers a new subscription. Its inbox is already seeded with the
// START confirmation, so that is the first event every reader observes.
func (a *Announcer) Listen() (Listener, error) {
	sub := newSubscription()
	sub.unsubscribe = a.Unsubscribe
	a.registry.add(sub)
	metrics.AnnouncerActiveListeners.Set(float64(a.registry.count()))
	slog.Debug("Listener registered", "subscription_id", sub.id.String())
	return sub, nil
}

// Unsubscribe removes the subscription with the given identity. Calling it
// for an unknown or already-removed identity is a no-op.
func (a *Announcer) Unsubscribe(id uuid.UUID) {
	if removed := a.registry.remove(id); removed != nil {
		removed.markDone()
		metrics.AnnouncerActiveListeners.Set(float64(a.registry.count()))
		slog.Debug("Listener unregistered", "subscription_id", id.String())
	}
}

// ListenerCount reports the number of active subscriptions.
func (a *Announcer) ListenerCount() (int, error) {
	return a.registry.count(), nil
}

// Close tears down every remaining subscription. Used at process shutdown.
func (a *Announcer) Close() {
	subs := a.registry.snapshot()
	for _, sub := range subs {
		if removed := a.registry.remove(sub.id); removed != nil {
			removed.markDone()
		}
	}
	metrics.AnnouncerActiveListeners.Set(0)
	slog.Info("Announcer closed", "disconnected_listeners", len(subs))
}

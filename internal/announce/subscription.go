package announce

import (
	"sync"

	"github.com/google/uuid"
)

// inboxCapacity bounds memory per subscriber and makes a stalled reader
// visible within a handful of publishes. Fixed at creation, never resized.
const inboxCapacity = 5

// Listener is the read side of one subscription. Readers pull from Events
// until Done is closed, then treat the stream as ended. Close is idempotent
// and releases the registry entry.
type Listener interface {
	Events() <-chan Event
	Done() <-chan struct{}
	Close()
}

// Subscription is one subscriber's private bounded inbox. The announcer is
// the sole writer, the owning reader the sole consumer.
type Subscription struct {
	id          uuid.UUID
	inbox       chan Event
	done        chan struct{}
	once        sync.Once
	unsubscribe func(uuid.UUID)
}

func newSubscription() *Subscription {
	s := &Subscription{
		id:    uuid.New(),
		inbox: make(chan Event, inboxCapacity),
		done:  make(chan struct{}),
	}
	// Seed the confirmation event so it is always observed first.
	s.inbox <- StartEvent()
	return s
}

// ID returns the opaque subscription identity.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Events returns the inbox to pull delivered events from.
func (s *Subscription) Events() <-chan Event { return s.inbox }

// Done is closed when the subscription has been removed, either by eviction
// or by an explicit Close.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close removes the subscription from its announcer and wakes the reader.
func (s *Subscription) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe(s.id)
	}
	s.markDone()
}

// markDone closes the done channel exactly once. The inbox channel itself is
// never closed: concurrent publishers may still hold a snapshot reference,
// and a send to a closed channel would panic.
func (s *Subscription) markDone() {
	s.once.Do(func() { close(s.done) })
}

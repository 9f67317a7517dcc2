package announce

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepAlive_PublishesPingEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := New()

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	readEvent(t, lst) // START

	k := NewKeepAlive(a, clock, time.Second)
	t.Cleanup(k.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)

		ev := readEvent(t, lst)
		assert.Equal(t, CategoryPing, ev.Category)
		assert.Equal(t, "ping", ev.Payload)
	}
}

func TestKeepAlive_IndependentOfApplicationPublishes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := New()

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	readEvent(t, lst) // START

	k := NewKeepAlive(a, clock, time.Second)
	t.Cleanup(k.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	// An application publish does not reset or replace the ping cadence.
	require.NoError(t, a.Publish(Event{Payload: "app event"}))
	assert.Equal(t, "app event", readEvent(t, lst).Payload)

	clock.Advance(time.Second)
	assert.Equal(t, CategoryPing, readEvent(t, lst).Category)
}

func TestKeepAlive_SharesEvictionPath(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := New()

	// Never drained: START plus four pings fill the inbox, the fifth ping
	// evicts.
	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	sub := lst.(*Subscription)

	k := NewKeepAlive(a, clock, time.Second)
	t.Cleanup(k.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < inboxCapacity; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
		if i < inboxCapacity-1 {
			// Wait for the tick to land before advancing again, so no
			// ping is coalesced away on the ticker channel.
			expected := i + 2 // START plus pings so far
			require.Eventually(t, func() bool { return len(sub.inbox) == expected }, time.Second, time.Millisecond)
		}
	}

	requireDone(t, lst)
	assert.Equal(t, 0, listenerCount(t, a))
}

func TestKeepAlive_StopTerminates(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := New()

	k := NewKeepAlive(a, clock, time.Second)
	k.Stop()
	// Idempotent
	k.Stop()
}

func TestKeepAlive_DefaultsInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := New()

	k := NewKeepAlive(a, clock, 0)
	t.Cleanup(k.Stop)
	assert.Equal(t, DefaultPingInterval, k.interval)
}

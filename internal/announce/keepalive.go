package announce

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/metrics"
)

// DefaultPingInterval keeps idle SSE connections alive through proxies and
// load balancers that drop connections idle beyond a short timeout.
const DefaultPingInterval = time.Second

// KeepAlive periodically publishes a synthetic PING event through the normal
// publish path, so it shares the eviction and delivery behavior of every
// other event. It knows nothing about individual listeners.
type KeepAlive struct {
	broadcaster Broadcaster
	clock       clockwork.Clock
	interval    time.Duration
	done        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewKeepAlive starts the keep-alive timer. Stop must be called to release
// the goroutine.
func NewKeepAlive(b Broadcaster, clock clockwork.Clock, interval time.Duration) *KeepAlive {
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	k := &KeepAlive{
		broadcaster: b,
		clock:       clock,
		interval:    interval,
		done:        make(chan struct{}),
	}
	k.wg.Add(1)
	go k.run()
	return k
}

func (k *KeepAlive) run() {
	defer k.wg.Done()
	ticker := k.clock.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := k.broadcaster.Publish(Event{Category: CategoryPing, Payload: "ping"}); err != nil {
				slog.Error("Keep-alive publish failed", "error", err)
				continue
			}
			metrics.AnnouncerKeepAlivesTotal.Inc()
		case <-k.done:
			return
		}
	}
}

// Stop halts the timer and waits for the keep-alive goroutine to exit.
func (k *KeepAlive) Stop() {
	k.stopOnce.Do(func() { close(k.done) })
	k.wg.Wait()
}

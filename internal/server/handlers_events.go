package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/metrics"
)

// handleEvents is the SSE subscribe endpoint. It registers a subscription,
// streams its inbox to the client until the connection closes or the
// subscription is evicted, then unsubscribes. Eviction ends the stream
// normally; the client is expected to reconnect.
func (s *Server) handleEvents(c echo.Context) error {
	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.SSEConnectionsRejected.WithLabelValues(string(reason)).Inc()
		metrics.SSEConnectionsTotal.WithLabelValues("rejected").Inc()
		slog.Warn("Rejecting SSE connection", "ip", ip, "reason", reason)
		return echo.NewHTTPError(http.StatusTooManyRequests, "connection limit reached")
	}
	defer s.limits.Release(ip)

	lst, err := s.broadcaster.Listen()
	if err != nil {
		metrics.SSEConnectionsTotal.WithLabelValues("error").Inc()
		return err
	}
	defer lst.Close()

	metrics.SSEConnectionsTotal.WithLabelValues("accepted").Inc()
	metrics.SSEConnectionsCurrent.Inc()
	defer metrics.SSEConnectionsCurrent.Dec()

	connectedAt := s.clock.Now()
	defer func() {
		metrics.SSEConnectionDuration.Observe(s.clock.Since(connectedAt).Seconds())
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			// Client went away
			return nil
		case <-lst.Done():
			// Evicted or engine shutting down: normal stream end
			return nil
		case ev := <-lst.Events():
			if _, err := io.WriteString(w, ev.Frame()); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

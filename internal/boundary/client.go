package boundary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/metrics"
)

const requestTimeout = 5 * time.Second

// Client drives a remote announcer process over the boundary channel.
// Failures of the channel itself surface as unavailable errors, distinct
// from per-subscriber evictions which stay invisible to callers.
type Client struct {
	addr       string
	authKey    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

var _ announce.Broadcaster = (*Client)(nil)

// NewClient creates a client for the announcer listening on addr (host:port).
func NewClient(addr, authKey string) *Client {
	return &Client{
		addr:       addr,
		authKey:    authKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		dialer:     websocket.DefaultDialer,
	}
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set(authKeyHeader, c.authKey)
	return h
}

// Publish sends the event to the remote announcer.
func (c *Client) Publish(ev announce.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return apperrors.InternalError("failed to encode event envelope", err)
	}

	req, err := http.NewRequest(http.MethodPost, "http://"+c.addr+publishPath, bytes.NewReader(body))
	if err != nil {
		return apperrors.InternalError("failed to build publish request", err)
	}
	req.Header = c.header()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BoundaryRequestsTotal.WithLabelValues("publish", "unreachable").Inc()
		return apperrors.UnavailableError("announcer unreachable", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus("publish", resp); err != nil {
		return err
	}
	metrics.BoundaryRequestsTotal.WithLabelValues("publish", "ok").Inc()
	return nil
}

// ListenerCount queries the remote subscription count.
func (c *Client) ListenerCount() (int, error) {
	req, err := http.NewRequest(http.MethodGet, "http://"+c.addr+countPath, nil)
	if err != nil {
		return 0, apperrors.InternalError("failed to build count request", err)
	}
	req.Header = c.header()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BoundaryRequestsTotal.WithLabelValues("count", "unreachable").Inc()
		return 0, apperrors.UnavailableError("announcer unreachable", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus("count", resp); err != nil {
		return 0, err
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, apperrors.InternalError("failed to decode count response", err)
	}
	metrics.BoundaryRequestsTotal.WithLabelValues("count", "ok").Inc()
	return payload.Count, nil
}

// Listen opens a websocket subscription stream and returns its read side.
// The remote subscription is released when the returned listener is closed.
func (c *Client) Listen() (announce.Listener, error) {
	conn, resp, err := c.dialer.Dial("ws://"+c.addr+subscribePath, c.header())
	if err != nil {
		metrics.BoundaryRequestsTotal.WithLabelValues("subscribe", "unreachable").Inc()
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, apperrors.UnavailableError("announcer rejected auth key", err)
		}
		return nil, apperrors.UnavailableError("announcer unreachable", err)
	}
	metrics.BoundaryRequestsTotal.WithLabelValues("subscribe", "ok").Inc()

	rl := &remoteListener{
		conn:   conn,
		events: make(chan announce.Event),
		done:   make(chan struct{}),
	}
	go rl.readLoop()
	return rl, nil
}

// checkStatus maps non-OK responses onto the error taxonomy: 400 means the
// envelope was rejected, 401 means the credential was, anything else is the
// channel misbehaving.
func (c *Client) checkStatus(operation string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		metrics.BoundaryRequestsTotal.WithLabelValues(operation, "rejected").Inc()
		var er apperrors.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
			return apperrors.ValidationError(er.Error)
		}
		return apperrors.ValidationError("announcer rejected the request")
	case http.StatusUnauthorized:
		metrics.BoundaryRequestsTotal.WithLabelValues(operation, "unauthorized").Inc()
		return apperrors.UnavailableError("announcer rejected auth key", nil)
	default:
		metrics.BoundaryRequestsTotal.WithLabelValues(operation, "error").Inc()
		return apperrors.UnavailableError(fmt.Sprintf("announcer %s failed with status %d", operation, resp.StatusCode), nil)
	}
}

// remoteListener adapts the websocket stream to the Listener interface used
// by the SSE handler.
type remoteListener struct {
	conn     *websocket.Conn
	events   chan announce.Event
	done     chan struct{}
	doneOnce sync.Once
}

var _ announce.Listener = (*remoteListener)(nil)

func (rl *remoteListener) readLoop() {
	defer rl.markDone()
	for {
		_, msg, err := rl.conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := announce.ParseFrame(string(msg))
		if err != nil {
			slog.Warn("Dropping malformed frame from announcer", "error", err)
			continue
		}
		select {
		case rl.events <- ev:
		case <-rl.done:
			return
		}
	}
}

func (rl *remoteListener) Events() <-chan announce.Event { return rl.events }

func (rl *remoteListener) Done() <-chan struct{} { return rl.done }

// Close drops the websocket; the announcer side unsubscribes when it notices.
func (rl *remoteListener) Close() {
	_ = rl.conn.Close()
	rl.markDone()
}

func (rl *remoteListener) markDone() {
	rl.doneOnce.Do(func() { close(rl.done) })
}

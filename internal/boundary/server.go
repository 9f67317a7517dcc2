package boundary

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
)

const (
	authKeyHeader = "X-Announcer-Key"

	subscribePath = "/subscribe"
	publishPath   = "/publish"
	countPath     = "/count"
)

// Server hosts the boundary channel in the announcer process. It is bound to
// loopback only; reaching it from another host is a deployment error, not a
// supported mode.
type Server struct {
	echo        *echo.Echo
	broadcaster announce.Broadcaster
	authKey     string
	upgrader    websocket.Upgrader
}

// NewServer wires the three remote operations. Nothing else of the engine
// crosses the boundary.
func NewServer(b announce.Broadcaster, authKey string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	s := &Server{
		echo:        e,
		broadcaster: b,
		authKey:     authKey,
	}

	e.GET(subscribePath, s.handleSubscribe, s.requireAuthKey)
	e.POST(publishPath, s.handlePublish, s.requireAuthKey)
	e.GET(countPath, s.handleCount, s.requireAuthKey)

	return s
}

// Start listens on 127.0.0.1:port and blocks until shutdown.
func (s *Server) Start(port string) error {
	return s.echo.Start(net.JoinHostPort("127.0.0.1", port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requireAuthKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(authKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.authKey)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid announcer auth key")
		}
		return next(c)
	}
}

func (s *Server) handlePublish(c echo.Context) error {
	var ev announce.Event
	if err := c.Bind(&ev); err != nil {
		return apperrors.ValidationError("malformed event envelope")
	}
	if err := s.broadcaster.Publish(ev); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCount(c echo.Context) error {
	count, err := s.broadcaster.ListenerCount()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// handleSubscribe upgrades to a websocket and forwards the subscription's
// events as SSE-framed text messages until either side goes away. An evicted
// subscription ends with a normal close frame, not an error.
func (s *Server) handleSubscribe(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}
	defer conn.Close()

	lst, err := s.broadcaster.Listen()
	if err != nil {
		slog.Error("Boundary subscribe failed", "error", err)
		return nil
	}
	defer lst.Close()

	// Detect the client dropping the connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-lst.Events():
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ev.Frame())); err != nil {
				return nil
			}
		case <-lst.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "subscription closed")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return nil
		case <-clientGone:
			return nil
		}
	}
}

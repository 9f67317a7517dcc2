package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/version"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.Get().Version,
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

// handleCounts reports the number of active listeners. In remote mode a
// broken boundary channel surfaces here as a 503, not a crash.
func (s *Server) handleCounts(c echo.Context) error {
	count, err := s.broadcaster.ListenerCount()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"listeners": count})
}

// handlePing publishes a manual ping event, mainly useful for debugging a
// presentation setup with curl.
func (s *Server) handlePing(c echo.Context) error {
	if err := s.broadcaster.Publish(announce.Event{Category: announce.CategoryPing, Payload: "Pinged"}); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Pinged\n")
}

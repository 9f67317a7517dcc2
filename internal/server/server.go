package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/config"
	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/store"
)

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	broadcaster announce.Broadcaster
	store       *store.Store
	limits      *ConnectionLimits
	clock       clockwork.Clock
	startTime   time.Time
}

func NewServer(cfg *config.Config, broadcaster announce.Broadcaster, st *store.Store, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		broadcaster: broadcaster,
		store:       st,
		limits:      NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectionRate, cfg.ConnectionBurst, clock),
		clock:       clock,
		startTime:   clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

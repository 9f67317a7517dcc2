package server

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Event stream plus manual ping and listener count
	s.echo.GET("/events", s.handleEvents)
	s.echo.GET("/ping", s.handlePing)
	s.echo.GET("/counts", s.handleCounts)

	// Nickname routes (anonymous login)
	s.echo.POST("/nickname", s.handlePostNickname)
	s.echo.GET("/nickname/:uuid", s.handleGetNickname)
	s.echo.GET("/nicknames", s.handleGetNicknames)

	// Likert scale routes
	s.echo.POST("/likert", s.handlePostLikert)
	s.echo.GET("/likerts", s.handleGetLikerts)
	s.echo.GET("/likert/:id", s.handleGetLikert)

	// Answer routes
	s.echo.POST("/answer", s.handlePostAnswer)
	s.echo.GET("/answer/:qid", s.handleGetAnswer)
	s.echo.GET("/answers", s.handleGetAnswers)

	// Presentation assets
	s.echo.GET("/", func(c echo.Context) error {
		return c.File(filepath.Join(s.config.StaticDir, s.config.IndexFile()))
	})
	s.echo.Static("/static", s.config.StaticDir)
}

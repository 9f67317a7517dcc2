package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/boundary"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/config"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/logging"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/metrics"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/server"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/store"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, keepAlive *announce.KeepAlive, announcer *announce.Announcer) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if keepAlive != nil {
			keepAlive.Stop()
		}
		if announcer != nil {
			announcer.Close()
		}

		close(done)
	}()

	return done
}

func main() {
	_ = godotenv.Load()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, runtime.Version()).Set(1)

	// The fan-out engine either runs embedded, or in a separate announcer
	// process reached over the boundary channel.
	var broadcaster announce.Broadcaster
	var announcer *announce.Announcer
	var keepAlive *announce.KeepAlive
	if cfg.AnnouncerAddr != "" {
		broadcaster = boundary.NewClient(cfg.AnnouncerAddr, cfg.AnnouncerAuthKey)
		slog.Info("Using remote announcer", "addr", cfg.AnnouncerAddr)
	} else {
		announcer = announce.New()
		broadcaster = announcer
		if cfg.PingEnabled {
			keepAlive = announce.NewKeepAlive(announcer, clock, cfg.PingInterval)
			slog.Info("Keep-alive started", "interval", cfg.PingInterval)
		}
	}

	st := store.New()
	srv := server.NewServer(cfg, broadcaster, st, clock)

	done := runGracefulShutdown(srv, keepAlive, announcer)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

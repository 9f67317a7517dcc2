// The announcer command runs the fan-out engine as its own process, exposing
// subscribe/publish/count on a loopback boundary channel so the web server
// can run isolated from it.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/boundary"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/config"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/logging"
)

func main() {
	_ = godotenv.Load()
	clock := clockwork.NewRealClock()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.AnnouncerAuthKey == "" {
		log.Fatal("ANNOUNCER_AUTH_KEY is required to run the announcer")
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Announcer starting", "env", cfg.AppEnv, "port", cfg.AnnouncerPort)

	announcer := announce.New()

	var keepAlive *announce.KeepAlive
	if cfg.PingEnabled {
		keepAlive = announce.NewKeepAlive(announcer, clock, cfg.PingInterval)
		slog.Info("Keep-alive started", "interval", cfg.PingInterval)
	}

	srv := boundary.NewServer(announcer, cfg.AnnouncerAuthKey)

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Boundary server shutdown error", "error", err)
		}

		if keepAlive != nil {
			keepAlive.Stop()
		}
		announcer.Close()

		close(done)
	}()

	if err := srv.Start(cfg.AnnouncerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Boundary server error", "error", err)
		os.Exit(1)
	}

	<-done
}

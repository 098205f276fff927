// Command escape-room-live serves the escape-room game API and pushes live
// game events to players over websockets and server-sent events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/auth"
	"github.com/aaronzipp/escape-room-live/internal/catalog"
	"github.com/aaronzipp/escape-room-live/internal/config"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/handlers"
	"github.com/aaronzipp/escape-room-live/internal/leaderboard"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ESCAPE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.BotToken == "" {
		log.Printf("Warning: ESCAPE_BOT_TOKEN is empty, every signed credential will be rejected")
	}

	sessions, err := store.Open(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	if closer, ok := sessions.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	room, err := catalog.Load(cfg.RoomPath)
	if err != nil {
		return fmt.Errorf("load room: %w", err)
	}

	var board leaderboard.Sink = leaderboard.Nop{}
	if cfg.LeaderboardPath != "" {
		lb, err := leaderboard.Open(cfg.LeaderboardPath)
		if err != nil {
			return fmt.Errorf("open leaderboard: %w", err)
		}
		defer lb.Close()
		board = lb
	}

	registry := realtime.NewRegistry()
	registry.Debug = cfg.Debug

	app := &handlers.Context{
		Store:      sessions,
		Gate:       auth.NewGate(sessions, auth.NewVerifier(cfg.BotToken, cfg.AuthMaxAge), cfg.SessionTTL),
		Manager:    game.NewManager(sessions, room, registry, board, cfg.SessionTTL),
		Engine:     game.NewEngine(sessions, room, registry, cfg.SessionTTL),
		Registry:   registry,
		Upgrader:   handlers.NewUpgrader(),
		PublicURL:  cfg.PublicURL,
		ChatSecret: cfg.ChatSecret,
		Keepalive:  cfg.Keepalive,
		Debug:      cfg.Debug,
	}
	mux := http.NewServeMux()
	app.Routes(mux)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		// Streaming handlers end when the process context is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	log.Printf("Server starting on %s (store=%s room=%q)", cfg.HTTPAddr, sessions.Backend(), room.Name())
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Printf("Server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"

	"arcade"
	"arcade/internal/game"
	"arcade/internal/game/klondike"
	"arcade/internal/game/minefield"
	"arcade/internal/game/sudoku"
	"arcade/internal/server"
	"arcade/internal/session"
	"arcade/internal/storage"
)

func main() {
	setupLogging(os.Getenv("LOG_LEVEL"))

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	dbPath := "arcade.db"
	if p := os.Getenv("DB_PATH"); p != "" {
		dbPath = p
	}

	cleanupInterval := envDuration("CLEANUP_INTERVAL", time.Minute)
	maxAge := envDuration("SESSION_MAX_AGE", time.Hour)
	tickInterval := envDuration("TICK_INTERVAL", time.Second)

	store, err := storage.New(dbPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer store.Close()

	registry := game.NewRegistry()
	registry.Register(minefield.Minesweeper{})
	registry.Register(klondike.Solitaire{})
	registry.Register(sudoku.Sudoku{})

	mgr := session.NewManager(registry, store)
	if err := mgr.Restore(); err != nil {
		log.WithError(err).Warn("restore sessions")
	}

	webFS, err := fs.Sub(arcade.WebFS, "web")
	if err != nil {
		log.WithError(err).Fatal("web assets")
	}
	srv := server.New(registry, mgr, webFS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go mgr.CleanupLoop(ctx, cleanupInterval, maxAge)
	go mgr.TickLoop(ctx, tickInterval, srv.BroadcastState)

	httpSrv := &http.Server{Addr: addr, Handler: srv}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": addr, "db": dbPath}).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server")
	}
	log.Info("shut down")
}

// setupLogging picks a coloured text formatter on a terminal and JSON
// everywhere else.
func setupLogging(level string) {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, ForceColors: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if level == "" {
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("LOG_LEVEL", level).Warn("unknown log level, using info")
		return
	}
	log.SetLevel(lvl)
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.WithField(key, v).Warn("invalid duration, using default")
		return def
	}
	return d
}

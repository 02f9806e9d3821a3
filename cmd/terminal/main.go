package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/handler"
	"github.com/kiwari-pos/terminal/internal/logging"
	"github.com/kiwari-pos/terminal/internal/metrics"
	"github.com/kiwari-pos/terminal/internal/router"
	"github.com/kiwari-pos/terminal/internal/store"
	"github.com/kiwari-pos/terminal/internal/store/sqlite"
	"github.com/kiwari-pos/terminal/internal/ws"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.DBPath != "" {
		st, err = sqlite.New(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open local store", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
	} else {
		st = store.NewMemoryStore()
	}
	defer st.Close()
	slog.Info("local store ready", "path", cfg.DBPath)

	client := api.New(cfg.UpstreamURL, cfg.UpstreamTimeout)
	events := handler.NewEventsHandler()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Order feed: relays upstream websocket events to UI listeners.
	// TODO: restart the feed when the active restaurant changes; today a
	// change requires a terminal restart.
	if rid, err := st.Get(ctx, "session", "active_restaurant"); err == nil {
		sub, err := ws.NewSubscriber(cfg.UpstreamURL, string(rid), client.AccessToken)
		if err != nil {
			slog.Error("failed to build order feed subscriber", "error", err)
			os.Exit(1)
		}
		go sub.Run(ctx)
		go func() {
			for event := range sub.Events() {
				events.Publish(event)
			}
		}()
	} else {
		slog.Info("no active restaurant selected, order feed disabled")
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router.New(cfg, client, st, events),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("terminal listening", "addr", cfg.ListenAddr, "upstream", cfg.UpstreamURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

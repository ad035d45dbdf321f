package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rentmarket/internal/platform/config"
	"rentmarket/internal/platform/httpserver"
	"rentmarket/internal/platform/logger"
	"rentmarket/internal/platform/metrics"
)

// main wires dependencies, exposes the HTTP router and owns the server
// lifecycle. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	deps, err := buildInfra(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer deps.Close(log)

	handlers := buildApp(cfg, log, m, deps)
	srv := httpserver.New(cfg.Addr, newRouter(cfg, log, m, handlers, deps))

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	log.Info("starting rentmarket", "addr", ln.Addr().String(), "storage", deps.StorageKind(), "handoff", deps.HandoffKind())
	return serve(ctx, log, srv, ln, deps.RunAudit, cfg.ShutdownTimeout)
}

// serve runs srv on ln until ctx is done. runAudit keeps running until
// Shutdown has let in-flight requests finish.
func serve(ctx context.Context, log *slog.Logger, srv *http.Server, ln net.Listener, runAudit func(context.Context) error, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	// Audit delivery outlives the HTTP server so events from requests that
	// finish during Shutdown are still drained.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	g.Go(func() error {
		return runAudit(auditCtx)
	})
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopAudit()
		log.Info("shutting down", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

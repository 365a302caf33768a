package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/db"
	"catalogsync/internal/lock"
	"catalogsync/internal/observability"
	"catalogsync/internal/repository"
	"catalogsync/internal/scanntech"
	"catalogsync/internal/server"
	"catalogsync/internal/syncer"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("servidor parou", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.SyncToken == "" {
		log.Warn("SYNC_TOKEN não definido: /api/sync vai responder 500")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	opts := []syncer.Option{syncer.WithMetrics(metrics)}

	if cfg.DatabaseURL != "" {
		sqlDB, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("abrir banco (database/sql): %w", err)
		}
		defer sqlDB.Close()

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("conectar no Postgres (pgxpool): %w", err)
		}
		defer pool.Close()

		opts = append(opts,
			syncer.WithRecorder(&repository.RunRepository{DB: sqlDB}),
			syncer.WithMirror(&repository.CatalogRepository{DB: pool}),
		)
	}

	var locks lock.Store = lock.NewMemoryStore(cfg.LockTTL)
	if cfg.RedisURL != "" {
		rs, err := lock.NewRedisStore(cfg.RedisURL, cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("configurar Redis: %w", err)
		}
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("conectar no Redis: %w", err)
		}
		locks = rs
	}

	// endpoint de métricas separado para o scrape interno
	if cfg.MetricsPort != "" && ":"+cfg.MetricsPort != cfg.HTTPAddr {
		msrv := observability.Start(cfg.MetricsPort, metrics)
		defer msrv.Close()
	}

	runner := syncer.New(cfg, scanntech.NewClient(cfg, log), log, opts...)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(cfg.SyncToken, runner, locks, metrics.Handler(), cfg.LockTTL, log).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("servidor de sincronização rodando", "addr", cfg.HTTPAddr, "variant", cfg.Variant)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"catalogsync/internal/config"
	"catalogsync/internal/db"
	"catalogsync/internal/observability"
	"catalogsync/internal/repository"
	"catalogsync/internal/scanntech"
	"catalogsync/internal/syncer"
)

// go run cmd/sync/main.go
// go run cmd/sync/main.go -variant=paged -since=2024-06-01
func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Sincronização falhou: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	initDB bool
}

// configure lê o ambiente e aplica as flags por cima.
func configure(args []string) (*config.Config, options, error) {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	variant := fs.String("variant", "", "Variante: 'elapsed' ou 'paged' (padrão: SYNC_VARIANT)")
	since := fs.String("since", "", "Watermark usado quando não há arquivo de estado (padrão: DEFAULT_SINCE)")
	initDB := fs.Bool("init-db", false, "Cria as tabelas sync_runs e catalog_products antes de sincronizar")
	if err := fs.Parse(args); err != nil {
		return nil, options{}, err
	}

	cfg := config.Load()
	if *variant != "" {
		cfg.ApplyVariant(*variant)
	}
	if *since != "" {
		cfg.DefaultSince = *since
	}
	return cfg, options{initDB: *initDB}, nil
}

func run(args []string, out io.Writer) error {
	cfg, opt, err := configure(args)
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("configuração inválida", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []syncer.Option{syncer.WithMetrics(observability.NewMetrics())}

	if cfg.DatabaseURL != "" {
		sinks, closeSinks, err := openSinks(ctx, cfg, opt.initDB, log)
		if err != nil {
			return err
		}
		defer closeSinks()
		opts = append(opts, sinks...)
	}

	client := scanntech.NewClient(cfg, log)
	rep, err := syncer.New(cfg, client, log, opts...).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cambios: %d | Creados: %d | Actualizados: %d | Omitidos: %d\n", rep.Fetched, rep.Created, rep.Updated, rep.Skipped)
	if !rep.CatalogWritten {
		fmt.Fprintln(out, "Sin cambios reales en el catálogo.")
	}
	fmt.Fprintf(out, "Nuevo last_sync: %s\n", rep.Watermark)
	return nil
}

// openSinks conecta o log de execuções e o espelho do catálogo.
func openSinks(ctx context.Context, cfg *config.Config, initDB bool, log *slog.Logger) ([]syncer.Option, func(), error) {
	sqlDB, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("abrir banco (database/sql): %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("conectar no Postgres (pgxpool): %w", err)
	}
	closeAll := func() {
		pool.Close()
		sqlDB.Close()
	}

	runs := &repository.RunRepository{DB: sqlDB}
	products := &repository.CatalogRepository{DB: pool}
	if initDB {
		if err := runs.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("criar sync_runs: %w", err)
		}
		if err := products.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("criar catalog_products: %w", err)
		}
		log.Info("tabelas criadas")
	}

	return []syncer.Option{syncer.WithRecorder(runs), syncer.WithMirror(products)}, closeAll, nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ProductVault/internal/catalog"
	"ProductVault/internal/config"
	"ProductVault/internal/kvstore"
	"ProductVault/internal/upload"
	"ProductVault/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	adapter := kvstore.NewAdapter(store, catalog.EmptyEnvelope, log)
	persister := catalog.NewPersister(adapter, registry, log)
	cat := catalog.NewStore(persister, log)

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cat.Hydrate(hydrateCtx)
	cancel()

	s := &catalog.Server{Store: cat, Log: log}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:      log,
		Service:  service,
		Registry: registry,

		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		Upload:        &upload.Handler{Log: log},
		UploadLimiter: kit.NewIPRateLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow),
	})

	if err := kit.RunHTTPServer(cfg.HTTPAddr, h, cfg.ShutdownTimeout, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}

	syncCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	if err := persister.Sync(syncCtx); err != nil {
		log.Warn("persist sync on shutdown", zap.Error(err))
	}
	cancel()
	persister.Close()
}

func openStore(cfg config.Config) (kvstore.Store, error) {
	switch cfg.StoreDriver {
	case "file":
		return kvstore.NewFileStore(cfg.DataDir)
	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := kvstore.NewPostgresStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case "memory":
		return kvstore.NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

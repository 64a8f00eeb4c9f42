package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Apurer/go-procurement-server/internal/app/api"
	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-procurement-server/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := platformobservability.NewLogger()
	db, cleanup := platformpostgres.ConnectOrNil(ctx, logger, cfg.PostgresDSN, cfg.Pool)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot reconcile stock")
	}

	report, err := api.ReconcileStock(ctx, db, logger)
	if err != nil {
		log.Fatalf("failed to reconcile stock: %v", err)
	}
	logger.Info("stock reconciliation completed", slog.Int("checked", report.Checked), slog.Int("repaired", report.Repaired))
}

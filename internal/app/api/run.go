package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"

	procurementserver "github.com/Apurer/go-procurement-server/go"
	"github.com/Apurer/go-procurement-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-procurement-server/internal/platform/postgres"
	platformredis "github.com/Apurer/go-procurement-server/internal/platform/redis"
	platformtemporal "github.com/Apurer/go-procurement-server/internal/platform/temporal"
)

const serviceName = "procurement-api"

// Run boots the procurement HTTP API with observability, repositories, locking and notification
// delivery wired. It blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, closeDB := platformpostgres.ConnectOrNil(ctx, logger, cfg.PostgresDSN, cfg.Pool)
	defer closeDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb, closeRedis := platformredis.ConnectOrNil(ctx, logger, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	defer closeRedis()

	var temporalClient client.Client
	if c, err := platformtemporal.Dial(cfg.Temporal, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal unavailable, delivering notifications inline", slog.String("error", err.Error()))
	} else {
		defer c.Close()
		temporalClient = c
		logger.Info("Temporal notifications enabled", slog.String("namespace", cfg.Temporal.Namespace))
	}

	components, err := BuildComponents(cfg, db, rdb, temporalClient, instruments)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	router := NewRouter(components, cfg.CORSAllowedOrigins, otelgin.Middleware(serviceName))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("procurement API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("procurement API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down procurement API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine for components. With no allowed origins every origin is
// accepted.
func NewRouter(components *Components, allowedOrigins []string, middleware ...gin.HandlerFunc) *gin.Engine {
	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AddAllowMethods("DELETE", "PUT")
	corsCfg.AddAllowHeaders(procurementserver.HeaderActorID, procurementserver.HeaderActorRole, procurementserver.HeaderIdempotencyKey)
	corsCfg.AddExposeHeaders("Content-Disposition")

	handlers := procurementserver.ApiHandleFunctions{
		OrderAPI:   procurementserver.NewOrderAPI(components.Orders),
		StockAPI:   procurementserver.NewStockAPI(components.Ledger),
		CatalogAPI: procurementserver.NewCatalogAPI(components.Catalog),
	}
	return procurementserver.NewRouter(handlers, append([]gin.HandlerFunc{cors.New(corsCfg)}, middleware...)...)
}

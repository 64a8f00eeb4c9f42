package api

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"gorm.io/gorm"

	notifyclient "github.com/Apurer/go-procurement-server/internal/clients/http/notify"
	catalogmemory "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-procurement-server/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	directorymemory "github.com/Apurer/go-procurement-server/internal/domains/directory/adapters/memory"
	directorypostgres "github.com/Apurer/go-procurement-server/internal/domains/directory/adapters/persistence/postgres"
	directoryapp "github.com/Apurer/go-procurement-server/internal/domains/directory/application"
	directoryports "github.com/Apurer/go-procurement-server/internal/domains/directory/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/locking"
	ordersmemory "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/memory"
	ordersnotify "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/notify"
	ordersobs "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-procurement-server/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockmemory "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/memory"
	stockobs "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/observability"
	stockpostgres "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/persistence/postgres"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
)

// Components are the instrumented application services behind the HTTP handlers.
type Components struct {
	Orders  ordersports.Service
	Ledger  stockports.Ledger
	Catalog catalogports.Service
}

// persistence is the set of repositories for one backing store.
type persistence struct {
	uow       ordersports.UnitOfWork
	store     ordersports.Store
	catalog   catalogports.Repository
	stock     stockports.Repository
	directory directoryports.Repository
}

func newPersistence(db *gorm.DB) persistence {
	if db == nil {
		catalogRepo := catalogmemory.NewRepository()
		stockRepo := stockmemory.NewRepository()
		store := ordersmemory.NewStore(catalogRepo, stockRepo)
		return persistence{uow: store, store: store, catalog: catalogRepo, stock: stockRepo, directory: directorymemory.NewRepository()}
	}
	store := orderspostgres.NewStore(db)
	return persistence{
		uow:       store,
		store:     store,
		catalog:   catalogpostgres.NewRepository(db),
		stock:     stockpostgres.NewRepository(db),
		directory: directorypostgres.NewRepository(db),
	}
}

// ledger runs stock writes in units of work of the order store, so they serialise with
// approvals and survive their rollbacks.
func (p persistence) ledger(logger *slog.Logger) *stockapp.ScopedLedger {
	return stockapp.NewScopedLedger(ordersapp.StockScope(p.uow), p.stock, stockcatalog.NewCache(p.catalog), stockapp.WithLogger(logger))
}

// BuildComponents wires the bounded contexts. A nil db selects the in-memory adapters, a nil
// redis client the in-process order lock and a nil temporal client direct notification delivery.
func BuildComponents(cfg Config, db *gorm.DB, rdb *redis.Client, temporalClient client.Client, instruments *platformobservability.Instruments) (*Components, error) {
	logger := instruments.Logger
	p := newPersistence(db)

	notifier, err := orderNotifier(cfg, temporalClient, logger)
	if err != nil {
		return nil, err
	}
	var locker ordersports.OrderLocker = locking.NewLocal()
	if rdb != nil {
		opts := []locking.RedisOption{locking.WithLogger(logger)}
		if cfg.OrderLockTTL > 0 {
			opts = append(opts, locking.WithTTL(cfg.OrderLockTTL))
		}
		locker = locking.NewRedis(rdb, opts...)
	}

	coreOrders := ordersapp.NewService(p.uow, p.store, directoryapp.NewService(p.directory),
		ordersapp.WithNotifier(notifier),
		ordersapp.WithLocker(locker),
		ordersapp.WithLogger(logger),
		ordersapp.WithStrictRestoration(cfg.StrictStockRestoration),
	)
	coreLedger := p.ledger(logger)

	return &Components{
		Orders: ordersobs.New(coreOrders,
			ordersobs.WithLogger(logger),
			ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
			ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
		),
		Ledger: stockobs.New(coreLedger,
			stockobs.WithLogger(logger),
			stockobs.WithTracer(instruments.Tracer("internal.stock.application")),
			stockobs.WithMeter(instruments.Meter("internal.stock.application")),
		),
		Catalog: catalogapp.NewService(ordersapp.SharedCatalog(p.uow, p.catalog)),
	}, nil
}

// orderNotifier prefers durable delivery through Temporal, then a direct webhook, then logging.
func orderNotifier(cfg Config, temporalClient client.Client, logger *slog.Logger) (ordersports.Notifier, error) {
	if temporalClient != nil {
		return ordersworkflows.NewTemporalNotifier(temporalClient), nil
	}
	return DeliveryNotifier(cfg, logger)
}

// DeliveryNotifier is the notifier that actually hands notifications to recipients. The worker
// runs it inside the delivery activity.
func DeliveryNotifier(cfg Config, logger *slog.Logger) (ordersports.Notifier, error) {
	if cfg.NotifyWebhookURL == "" {
		return ordersnotify.NewLogNotifier(logger), nil
	}
	webhook, err := notifyclient.NewClient(cfg.NotifyWebhookURL, nil)
	if err != nil {
		return nil, err
	}
	return ordersnotify.NewWebhookNotifier(webhook), nil
}

// ReconcileStock rewrites every cached product balance from the ledger.
func ReconcileStock(ctx context.Context, db *gorm.DB, logger *slog.Logger) (stockports.ReconcileReport, error) {
	return stockobs.New(newPersistence(db).ledger(logger), stockobs.WithLogger(logger)).ReconcileAll(ctx)
}

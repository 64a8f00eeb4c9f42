package application

import (
	"context"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

// StockScope runs ledger work in a unit of work of the order store, so stock adjustments
// made outside an order workflow share its transactions and rollback.
func StockScope(uow ports.UnitOfWork) stockapp.Scope {
	return func(ctx context.Context, fn func(ctx context.Context, repo stockports.Repository, cache stockports.CatalogCache) error) error {
		return uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
			return fn(ctx, store.Stock(), stockcatalog.NewCache(store.Catalog()))
		})
	}
}

// SharedCatalog is a catalog repository whose writes run in units of work of uow.
// Reads go straight to repo.
func SharedCatalog(uow ports.UnitOfWork, repo catalogports.Repository) catalogports.Repository {
	return &sharedCatalog{Repository: repo, uow: uow}
}

type sharedCatalog struct {
	catalogports.Repository
	uow ports.UnitOfWork
}

func (c *sharedCatalog) Save(ctx context.Context, product *catalog.Product) (*catalog.Product, error) {
	var saved *catalog.Product
	err := c.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		saved, err = store.Catalog().Save(ctx, product)
		return err
	})
	return saved, err
}

func (c *sharedCatalog) ReplaceBOM(ctx context.Context, productID int64, items []catalog.BOMItem) error {
	return c.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		return store.Catalog().ReplaceBOM(ctx, productID, items)
	})
}

func (c *sharedCatalog) UpdateAvailableQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	return c.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		return store.Catalog().UpdateAvailableQuantity(ctx, productID, quantity)
	})
}

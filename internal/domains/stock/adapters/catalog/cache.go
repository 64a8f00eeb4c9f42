package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.CatalogCache = (*Cache)(nil)

// Cache adapts the catalog repository to the ledger's cache port.
type Cache struct {
	repo catalogports.Repository
}

func NewCache(repo catalogports.Repository) *Cache {
	return &Cache{repo: repo}
}

func (c *Cache) Exists(ctx context.Context, productID int64) (bool, error) {
	_, err := c.repo.GetByID(ctx, productID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, faults.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *Cache) UpdateAvailableQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	return c.repo.UpdateAvailableQuantity(ctx, productID, quantity)
}

func (c *Cache) CachedQuantities(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error) {
	products, err := c.repo.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	cached := make(map[int64]decimal.Decimal, len(products))
	for id, product := range products {
		cached[id] = product.AvailableQuantity
	}
	return cached, nil
}

func (c *Cache) ProductIDs(ctx context.Context) ([]int64, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return ids, nil
}

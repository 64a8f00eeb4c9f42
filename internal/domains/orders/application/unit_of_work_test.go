package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

var errApprovalFailed = errors.New("approval failed")

// failWhile runs a unit of work that starts concurrent, writes through the store and then
// fails. concurrent must not finish before the rollback.
func failWhile(t *testing.T, f *fixture, concurrent func() error, write func(ctx context.Context, store ports.Store) error) {
	t.Helper()
	done := make(chan error, 1)
	err := f.store.Do(context.Background(), func(ctx context.Context, store ports.Store) error {
		go func() { done <- concurrent() }()
		time.Sleep(20 * time.Millisecond)
		if err := write(ctx, store); err != nil {
			return err
		}
		return errApprovalFailed
	})
	require.ErrorIs(t, err, errApprovalFailed)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent write never completed")
	}
}

func TestStockScope_CommittedAdjustmentSurvivesUnrelatedRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := stockapp.NewScopedLedger(StockScope(f.store), f.stock, stockcatalog.NewCache(f.catalog))

	failWhile(t, f,
		func() error {
			_, err := ledger.AdjustStock(context.Background(), stockports.Adjustment{
				ProductID: f.cement, Quantity: qty(10), Direction: stockdomain.DirectionIn, Reason: "delivery",
			})
			return err
		},
		func(ctx context.Context, store ports.Store) error {
			inner := stockapp.NewLedger(store.Stock(), stockcatalog.NewCache(store.Catalog()))
			_, err := inner.AdjustStock(ctx, stockports.Adjustment{
				ProductID: f.cement, Quantity: qty(4), Direction: stockdomain.DirectionOut, Reason: "order 1 approved",
			})
			return err
		},
	)

	balance, err := ledger.CurrentStock(ctx, f.cement, nil)
	require.NoError(t, err)
	assert.True(t, qty(20).Equal(balance), "balance %s", balance)

	product, err := f.catalog.GetByID(ctx, f.cement)
	require.NoError(t, err)
	assert.True(t, qty(20).Equal(product.AvailableQuantity))
}

func TestStockScope_FailedAdjustmentLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := stockapp.NewScopedLedger(StockScope(f.store), f.stock, stockcatalog.NewCache(f.catalog))

	_, err := ledger.AdjustStock(ctx, stockports.Adjustment{
		ProductID: f.cement, Quantity: qty(11), Direction: stockdomain.DirectionOut, Reason: "site transfer",
	})
	require.Error(t, err)

	history, err := ledger.History(ctx, stockports.HistoryFilter{ProductID: f.cement})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSharedCatalog_SaveSurvivesUnrelatedRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := SharedCatalog(f.store, f.catalog)

	var saved *catalog.Product
	failWhile(t, f,
		func() error {
			var err error
			saved, err = repo.Save(context.Background(), &catalog.Product{
				Name: "Gravel", Unit: "ton", StoreType: catalog.StoreHardware, Usage: catalog.UsageProductOnly, Active: true,
			})
			return err
		},
		func(ctx context.Context, store ports.Store) error {
			return store.Catalog().UpdateAvailableQuantity(ctx, f.cement, qty(99))
		},
	)

	require.NotNil(t, saved)
	gravel, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gravel", gravel.Name)

	cement, err := repo.GetByID(ctx, f.cement)
	require.NoError(t, err)
	assert.True(t, qty(10).Equal(cement.AvailableQuantity))
}

package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockmemory "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/memory"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

type ledgerFixture struct {
	ledger  *Ledger
	catalog *catalogmemory.Repository
	stock   *stockmemory.Repository
	product int64
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()
	catalog := catalogmemory.NewRepository()
	product, err := catalog.Save(context.Background(), &catalogdomain.Product{Name: "Cement", StoreType: catalogdomain.StoreHardware, Active: true})
	require.NoError(t, err)
	stock := stockmemory.NewRepository()
	return ledgerFixture{
		ledger:  NewLedger(stock, stockcatalog.NewCache(catalog)),
		catalog: catalog,
		stock:   stock,
		product: product.ID,
	}
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAdjustStock_UpdatesBalanceAndCache(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(10), Direction: domain.DirectionIn, Reason: "delivery"})
	require.NoError(t, err)
	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(3), Direction: domain.DirectionOut})
	require.NoError(t, err)
	entry, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(1), Direction: domain.DirectionAdjustment})
	require.NoError(t, err)
	require.Equal(t, domain.KindProduct, entry.Kind)
	require.True(t, entry.Active)

	balance, err := f.ledger.CurrentStock(ctx, f.product, nil)
	require.NoError(t, err)
	require.True(t, qty(8).Equal(balance))

	product, err := f.catalog.GetByID(ctx, f.product)
	require.NoError(t, err)
	require.True(t, qty(8).Equal(product.AvailableQuantity))
}

func TestAdjustStock_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: decimal.Zero, Direction: domain.DirectionIn})
	require.ErrorIs(t, err, faults.ErrValidation)

	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(-2), Direction: domain.DirectionIn})
	require.ErrorIs(t, err, faults.ErrValidation)

	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: 999, Quantity: qty(1), Direction: domain.DirectionIn})
	require.ErrorIs(t, err, faults.ErrValidation)

	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(1), Direction: "sideways"})
	require.ErrorIs(t, err, faults.ErrValidation)

	history, err := f.ledger.History(ctx, ports.HistoryFilter{ProductID: f.product})
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestAdjustStock_OutBeyondBalanceFails(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(2), Direction: domain.DirectionIn})
	require.NoError(t, err)

	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(5), Direction: domain.DirectionOut})
	require.ErrorIs(t, err, faults.ErrInsufficientStock)
	var insufficient *faults.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, qty(3).Equal(insufficient.Shortfall()))

	balance, err := f.ledger.CurrentStock(ctx, f.product, nil)
	require.NoError(t, err)
	require.True(t, qty(2).Equal(balance))
}

func TestCurrentStock_UnknownProductIsZero(t *testing.T) {
	f := newLedgerFixture(t)

	balance, err := f.ledger.CurrentStock(context.Background(), 12345, nil)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestCurrentStock_SiteIncludesGeneralRows(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	site := int64(7)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(10), Direction: domain.DirectionIn})
	require.NoError(t, err)
	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(4), Direction: domain.DirectionIn, SiteID: &site})
	require.NoError(t, err)

	general, err := f.ledger.CurrentStock(ctx, f.product, nil)
	require.NoError(t, err)
	require.True(t, qty(10).Equal(general))

	scoped, err := f.ledger.CurrentStock(ctx, f.product, &site)
	require.NoError(t, err)
	require.True(t, qty(14).Equal(scoped))
}

func TestAdjustMaterialStock_TagsKind(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	entry, err := f.ledger.AdjustMaterialStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(6), Direction: domain.DirectionIn})
	require.NoError(t, err)
	require.Equal(t, domain.KindMaterial, entry.Kind)
}

func TestReconcileAll_RepairsDriftedCache(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(9), Direction: domain.DirectionIn})
	require.NoError(t, err)
	require.NoError(t, f.catalog.UpdateAvailableQuantity(ctx, f.product, qty(1)))

	report, err := f.ledger.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Checked)
	require.Equal(t, 1, report.Repaired)

	product, err := f.catalog.GetByID(ctx, f.product)
	require.NoError(t, err)
	require.True(t, qty(9).Equal(product.AvailableQuantity))

	report, err = f.ledger.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Repaired)
}

func TestOutstanding_NetsByReferenceAndLabel(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	orderID := int64(42)

	_, err := f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(20), Direction: domain.DirectionIn})
	require.NoError(t, err)
	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(5), Direction: domain.DirectionOut,
		ReferenceType: domain.ReferenceOrder, ReferenceID: &orderID, Label: "approval:hardware"})
	require.NoError(t, err)

	outstanding, err := f.stock.Outstanding(ctx, domain.ReferenceOrder, orderID, []string{"approval:hardware", "rejection:hardware"})
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	require.True(t, qty(5).Equal(outstanding[0].Quantity))

	_, err = f.ledger.AdjustStock(ctx, ports.Adjustment{ProductID: f.product, Quantity: qty(5), Direction: domain.DirectionIn,
		ReferenceType: domain.ReferenceOrder, ReferenceID: &orderID, Label: "rejection:hardware"})
	require.NoError(t, err)

	outstanding, err = f.stock.Outstanding(ctx, domain.ReferenceOrder, orderID, []string{"approval:hardware", "rejection:hardware"})
	require.NoError(t, err)
	require.Empty(t, outstanding)
}

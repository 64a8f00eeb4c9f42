//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/persistence/postgres"
	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	directorypostgres "github.com/Apurer/go-procurement-server/internal/domains/directory/adapters/persistence/postgres"
	directoryapp "github.com/Apurer/go-procurement-server/internal/domains/directory/application"
	directory "github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	orderspostgres "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-procurement-server/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockpostgres "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/persistence/postgres"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	"github.com/Apurer/go-procurement-server/internal/platform/postgres/postgrestest"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var (
	supervisor = domain.Actor{ID: 2, Role: directory.RoleSiteSupervisor}
	hardware   = domain.Actor{ID: 3, Role: directory.RoleHardwareManager}
)

type harness struct {
	service *ordersapp.Service
	store   *orderspostgres.Store
	stock   *stockpostgres.Repository
	siteID  int64
	cement  int64
}

// newHarness runs the order workflow over PostgreSQL without an application lock, so the
// row lock taken by GetForUpdate is the only guard against concurrent approvals.
func newHarness(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	ctx := context.Background()

	directoryService := directoryapp.NewService(directorypostgres.NewRepository(db))
	site, err := directoryService.RegisterSite(ctx, &directory.Site{Name: "North Yard", Active: true})
	require.NoError(t, err)

	catalogRepo := catalogpostgres.NewRepository(db)
	cement, err := catalogRepo.Save(ctx, &catalog.Product{Name: "Cement", Unit: "bag", StoreType: catalog.StoreHardware, Usage: catalog.UsageProductOnly, Active: true})
	require.NoError(t, err)

	stockRepo := stockpostgres.NewRepository(db)
	ledger := stockapp.NewLedger(stockRepo, stockcatalog.NewCache(catalogRepo))
	_, err = ledger.AdjustStock(ctx, stockports.Adjustment{ProductID: cement.ID, Quantity: decimal.NewFromInt(10), Direction: stockdomain.DirectionIn, Reason: "delivery"})
	require.NoError(t, err)

	store := orderspostgres.NewStore(db)
	return &harness{
		service: ordersapp.NewService(store, store, directoryService),
		store:   store,
		stock:   stockRepo,
		siteID:  site.ID,
		cement:  cement.ID,
	}
}

func (h *harness) submit(t *testing.T, quantity int64, key string) *ordertypes.OrderView {
	t.Helper()
	view, err := h.service.Submit(context.Background(), ordertypes.SubmitOrderInput{
		Actor:          supervisor,
		SiteID:         h.siteID,
		IdempotencyKey: key,
		Lines:          []ordertypes.LineInput{{ProductID: h.cement, Quantity: decimal.NewFromInt(quantity)}},
	})
	require.NoError(t, err)
	return view
}

func (h *harness) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	balance, err := h.stock.Balance(context.Background(), h.cement, nil)
	require.NoError(t, err)
	return balance
}

func TestStore_ApproveDeductsOnceAndRejectRestores(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()

	order := h.submit(t, 4, "")
	approved, err := h.service.Approve(ctx, ordertypes.ApproveOrderInput{OrderID: order.Order.ID, Actor: hardware})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Order.Status)
	assert.True(t, decimal.NewFromInt(6).Equal(h.balance(t)))

	_, err = h.service.Approve(ctx, ordertypes.ApproveOrderInput{OrderID: order.Order.ID, Actor: hardware})
	assert.ErrorIs(t, err, faults.ErrAlreadyApproved)
	assert.True(t, decimal.NewFromInt(6).Equal(h.balance(t)))

	rejected, err := h.service.Reject(ctx, ordertypes.RejectOrderInput{OrderID: order.Order.ID, Note: "site closed", Actor: hardware})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Order.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(h.balance(t)))
}

func TestStore_InsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()

	order := h.submit(t, 12, "")
	_, err := h.service.Approve(ctx, ordertypes.ApproveOrderInput{OrderID: order.Order.ID, Actor: hardware})
	var shortage *faults.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.True(t, decimal.NewFromInt(2).Equal(shortage.Shortfall()))

	fetched, err := h.service.Get(ctx, order.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, fetched.Order.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(h.balance(t)))
}

func TestStore_ConcurrentApprovalsDeductOnce(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()
	order := h.submit(t, 4, "")

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.service.Approve(ctx, ordertypes.ApproveOrderInput{OrderID: order.Order.ID, Actor: hardware})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, faults.ErrAlreadyApproved)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.True(t, decimal.NewFromInt(6).Equal(h.balance(t)))
}

func TestStore_ConcurrentApprovalsOfDifferentOrdersNeverOverdraw(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()
	first := h.submit(t, 8, "")
	second := h.submit(t, 8, "")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for _, id := range []int64{first.Order.ID, second.Order.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.service.Approve(ctx, ordertypes.ApproveOrderInput{OrderID: id, Actor: hardware})
			mu.Lock()
			defer mu.Unlock()
			var shortage *faults.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &shortage):
				short++
			default:
				t.Errorf("unexpected approval error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	assert.True(t, decimal.NewFromInt(2).Equal(h.balance(t)), "balance %s", h.balance(t))
}

func TestStore_ConcurrentStockWithdrawalsNeverOverdraw(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()
	ledger := stockapp.NewScopedLedger(ordersapp.StockScope(h.store), h.stock, stockcatalog.NewCache(h.store.Catalog()))

	const attempts = 3
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.AdjustStock(ctx, stockports.Adjustment{ProductID: h.cement, Quantity: decimal.NewFromInt(4), Direction: stockdomain.DirectionOut, Reason: "site transfer"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, faults.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.True(t, decimal.NewFromInt(2).Equal(h.balance(t)))
}

func TestStore_IdempotentSubmissionReplays(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()

	first := h.submit(t, 2, "site-42-morning")
	again := h.submit(t, 2, "site-42-morning")
	assert.Equal(t, first.Order.ID, again.Order.ID)

	record, err := h.store.Idempotency().Get(ctx, "site-42-morning")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, first.Order.ID, record.OrderID)

	_, err = h.store.Idempotency().Save(ctx, ports.IdempotencyRecord{Key: "site-42-morning", RequestHash: "other", OrderID: first.Order.ID})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	_, err = h.service.Submit(ctx, ordertypes.SubmitOrderInput{
		Actor:          supervisor,
		SiteID:         h.siteID,
		IdempotencyKey: "site-42-morning",
		Lines:          []ordertypes.LineInput{{ProductID: h.cement, Quantity: decimal.NewFromInt(3)}},
	})
	assert.ErrorIs(t, err, faults.ErrConflict)
}

func TestStore_DeleteHidesOrderFromListing(t *testing.T) {
	h := newHarness(t, postgrestest.Start(t))
	ctx := context.Background()
	admin := domain.Actor{ID: 1, Role: directory.RoleAdmin}

	kept := h.submit(t, 1, "")
	removed := h.submit(t, 1, "")
	require.NoError(t, h.service.Delete(ctx, ordertypes.OrderCommand{OrderID: removed.Order.ID, Actor: admin}))

	page, err := h.service.List(ctx, ordertypes.ListOrdersInput{Actor: admin, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, kept.Order.ID, page.Orders[0].ID)

	_, err = h.service.Get(ctx, removed.Order.ID)
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

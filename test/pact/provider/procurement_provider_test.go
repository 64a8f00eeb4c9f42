//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/Apurer/go-procurement-server/test/pact"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	procurementserver "github.com/Apurer/go-procurement-server/go"
	catalogmemory "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/Apurer/go-procurement-server/internal/domains/catalog/application"
	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	directorymemory "github.com/Apurer/go-procurement-server/internal/domains/directory/adapters/memory"
	directoryapp "github.com/Apurer/go-procurement-server/internal/domains/directory/application"
	directory "github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/locking"
	ordersmemory "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/go-procurement-server/internal/domains/orders/application"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockmemory "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/memory"
	stockobs "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/observability"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

func TestProcurementProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	var app *contractProviderApp
	stateHandlers := models.StateHandlers{
		pacttest.StateProductInStock: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.seedProductInStock(t)
			}
			return nil, nil
		},
		pacttest.StateProductMissing: func(bool, models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
	}

	app = newContractProviderApp(t)
	verifier := pactprovider.NewVerifier()
	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves the real handlers over in-memory adapters that each provider
// state rebuilds from scratch.
type contractProviderApp struct {
	mu        sync.RWMutex
	engine    *gin.Engine
	server    *httptest.Server
	catalog   *catalogmemory.Repository
	stock     *stockmemory.Repository
	directory *directorymemory.Repository
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		engine := app.engine
		app.mu.RUnlock()
		engine.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	a.catalog = catalogmemory.NewRepository()
	a.stock = stockmemory.NewRepository()
	a.directory = directorymemory.NewRepository()
	store := ordersmemory.NewStore(a.catalog, a.stock)
	orders := ordersobs.New(ordersapp.NewService(store, store, directoryapp.NewService(a.directory), ordersapp.WithLocker(locking.NewLocal())))
	ledger := stockobs.New(stockapp.NewScopedLedger(ordersapp.StockScope(store), a.stock, stockcatalog.NewCache(a.catalog)))

	engine := procurementserver.NewRouter(procurementserver.ApiHandleFunctions{
		OrderAPI:   procurementserver.NewOrderAPI(orders),
		StockAPI:   procurementserver.NewStockAPI(ledger),
		CatalogAPI: procurementserver.NewCatalogAPI(catalogapp.NewService(ordersapp.SharedCatalog(store, a.catalog))),
	})
	a.mu.Lock()
	a.engine = engine
	a.mu.Unlock()
}

func (a *contractProviderApp) seedProductInStock(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	_, err := a.catalog.Save(ctx, &catalog.Product{
		ID:        pacttest.ExistingProductID,
		Name:      "Cement",
		Unit:      "bag",
		StoreType: catalog.StoreHardware,
		Usage:     catalog.UsageProductOnly,
		Active:    true,
	})
	require.NoError(t, err)
	_, err = a.directory.SaveSite(ctx, &directory.Site{ID: pacttest.SiteID, Name: "Harbour", Active: true})
	require.NoError(t, err)
	ledger := stockapp.NewLedger(a.stock, stockcatalog.NewCache(a.catalog))
	_, err = ledger.AdjustStock(ctx, stockports.Adjustment{
		ProductID: pacttest.ExistingProductID,
		Quantity:  decimal.NewFromInt(10),
		Direction: stockdomain.DirectionIn,
		Reason:    "contract seed",
	})
	require.NoError(t, err)
}

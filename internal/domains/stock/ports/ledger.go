package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
)

// HistoryFilter narrows a ledger history query. A nil SiteID returns general rows only.
type HistoryFilter struct {
	ProductID int64
	SiteID    *int64
	Limit     int
}

// Repository is the append-only ledger store.
type Repository interface {
	Append(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
	// Lock holds productIDs against concurrent balance checks until the enclosing
	// transaction ends. Ids are taken in ascending order.
	Lock(ctx context.Context, productIDs []int64) error
	// Balance sums active rows for productID: general rows plus siteID rows when given.
	Balance(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error)
	// Balances is the bulk form of Balance; products without rows map to zero.
	Balances(ctx context.Context, productIDs []int64, siteID *int64) (map[int64]decimal.Decimal, error)
	// History returns rows newest first.
	History(ctx context.Context, filter HistoryFilter) ([]*domain.Entry, error)
	// Outstanding nets out-minus-in over active rows with the given reference and labels,
	// omitting groups whose net is zero or negative.
	Outstanding(ctx context.Context, referenceType string, referenceID int64, labels []string) ([]domain.Outstanding, error)
}

// CatalogCache is the slice of the catalog the ledger needs.
type CatalogCache interface {
	Exists(ctx context.Context, productID int64) (bool, error)
	UpdateAvailableQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error
	CachedQuantities(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error)
	ProductIDs(ctx context.Context) ([]int64, error)
}

// Adjustment is the command accepted by the ledger.
type Adjustment struct {
	ProductID     int64            `validate:"required,gt=0"`
	Direction     domain.Direction `validate:"required,oneof=in out adjustment"`
	Reason        string           `validate:"max=500"`
	ReferenceType string           `validate:"max=64"`
	Label         string           `validate:"max=128"`
	Quantity      decimal.Decimal
	SiteID        *int64
	ReferenceID   *int64
	CorrelationID string
}

// ReconcileReport summarises a cache reconciliation run.
type ReconcileReport struct {
	Checked  int
	Repaired int
}

// Ledger exposes stock use cases.
type Ledger interface {
	AdjustStock(ctx context.Context, adj Adjustment) (*domain.Entry, error)
	AdjustMaterialStock(ctx context.Context, adj Adjustment) (*domain.Entry, error)
	CurrentStock(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error)
	History(ctx context.Context, filter HistoryFilter) ([]*domain.Entry, error)
	RefreshCache(ctx context.Context, productID int64) (decimal.Decimal, error)
	ReconcileAll(ctx context.Context) (ReconcileReport, error)
}

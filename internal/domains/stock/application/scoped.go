package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

// Scope runs fn inside one transaction, handing it the ledger repository and catalog
// cache bound to that transaction.
type Scope func(ctx context.Context, fn func(ctx context.Context, repo ports.Repository, catalog ports.CatalogCache) error) error

// ScopedLedger runs every write in its own Scope so stand-alone adjustments commit or roll
// back as a unit and serialise with other writers of the same store. Reads bypass the scope.
type ScopedLedger struct {
	scope  Scope
	reader *Ledger
	opts   []Option
}

func NewScopedLedger(scope Scope, repo ports.Repository, catalog ports.CatalogCache, opts ...Option) *ScopedLedger {
	return &ScopedLedger{scope: scope, reader: NewLedger(repo, catalog, opts...), opts: opts}
}

func (l *ScopedLedger) AdjustStock(ctx context.Context, adj ports.Adjustment) (*domain.Entry, error) {
	var entry *domain.Entry
	err := l.run(ctx, func(ctx context.Context, ledger *Ledger) error {
		var err error
		entry, err = ledger.AdjustStock(ctx, adj)
		return err
	})
	return entry, err
}

func (l *ScopedLedger) AdjustMaterialStock(ctx context.Context, adj ports.Adjustment) (*domain.Entry, error) {
	var entry *domain.Entry
	err := l.run(ctx, func(ctx context.Context, ledger *Ledger) error {
		var err error
		entry, err = ledger.AdjustMaterialStock(ctx, adj)
		return err
	})
	return entry, err
}

func (l *ScopedLedger) CurrentStock(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error) {
	return l.reader.CurrentStock(ctx, productID, siteID)
}

func (l *ScopedLedger) History(ctx context.Context, filter ports.HistoryFilter) ([]*domain.Entry, error) {
	return l.reader.History(ctx, filter)
}

func (l *ScopedLedger) RefreshCache(ctx context.Context, productID int64) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := l.run(ctx, func(ctx context.Context, ledger *Ledger) error {
		var err error
		balance, err = ledger.RefreshCache(ctx, productID)
		return err
	})
	return balance, err
}

func (l *ScopedLedger) ReconcileAll(ctx context.Context) (ports.ReconcileReport, error) {
	var report ports.ReconcileReport
	err := l.run(ctx, func(ctx context.Context, ledger *Ledger) error {
		var err error
		report, err = ledger.ReconcileAll(ctx)
		return err
	})
	return report, err
}

func (l *ScopedLedger) run(ctx context.Context, fn func(ctx context.Context, ledger *Ledger) error) error {
	return l.scope(ctx, func(ctx context.Context, repo ports.Repository, catalog ports.CatalogCache) error {
		return fn(ctx, NewLedger(repo, catalog, l.opts...))
	})
}

var _ ports.Ledger = (*ScopedLedger)(nil)

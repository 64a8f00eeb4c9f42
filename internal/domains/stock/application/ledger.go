package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var validate = validator.New()

// Ledger implements stock adjustments over an append-only repository.
type Ledger struct {
	repo    ports.Repository
	catalog ports.CatalogCache
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLedger(repo ports.Repository, catalog ports.CatalogCache, opts ...Option) *Ledger {
	l := &Ledger{repo: repo, catalog: catalog, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AdjustStock appends a finished-product movement.
func (l *Ledger) AdjustStock(ctx context.Context, adj ports.Adjustment) (*domain.Entry, error) {
	return l.adjust(ctx, adj, domain.KindProduct)
}

// AdjustMaterialStock appends a raw-material movement. It shares the ledger table but
// is tagged so the audit trail can tell the two apart.
func (l *Ledger) AdjustMaterialStock(ctx context.Context, adj ports.Adjustment) (*domain.Entry, error) {
	return l.adjust(ctx, adj, domain.KindMaterial)
}

func (l *Ledger) adjust(ctx context.Context, adj ports.Adjustment, kind domain.Kind) (*domain.Entry, error) {
	if err := validate.StructCtx(ctx, adj); err != nil {
		return nil, fmt.Errorf("%w: %w", faults.ErrValidation, err)
	}
	entry := &domain.Entry{
		ProductID:     adj.ProductID,
		SiteID:        adj.SiteID,
		Direction:     adj.Direction,
		Kind:          kind,
		Quantity:      adj.Quantity,
		ReferenceType: adj.ReferenceType,
		ReferenceID:   adj.ReferenceID,
		Label:         adj.Label,
		Reason:        adj.Reason,
		CorrelationID: adj.CorrelationID,
		Active:        true,
	}
	if err := entry.Validate(); err != nil {
		return nil, mapError(err)
	}
	exists, err := l.catalog.Exists(ctx, adj.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, faults.Validation("product %d does not exist", adj.ProductID)
	}
	if entry.Direction == domain.DirectionOut {
		if err := l.repo.Lock(ctx, []int64{entry.ProductID}); err != nil {
			return nil, err
		}
		available, err := l.repo.Balance(ctx, entry.ProductID, entry.SiteID)
		if err != nil {
			return nil, err
		}
		if available.LessThan(entry.Quantity) {
			return nil, &faults.InsufficientStockError{ProductID: entry.ProductID, Requested: entry.Quantity, Available: available}
		}
	}
	saved, err := l.repo.Append(ctx, entry)
	if err != nil {
		return nil, err
	}
	if _, err := l.RefreshCache(ctx, entry.ProductID); err != nil {
		l.logger.WarnContext(ctx, "stock cache refresh failed",
			slog.Int64("product.id", entry.ProductID),
			slog.String("error", err.Error()),
		)
	}
	return saved, nil
}

// CurrentStock returns zero for products without ledger rows, including unknown ids.
func (l *Ledger) CurrentStock(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error) {
	return l.repo.Balance(ctx, productID, siteID)
}

func (l *Ledger) History(ctx context.Context, filter ports.HistoryFilter) ([]*domain.Entry, error) {
	if filter.ProductID <= 0 {
		return nil, mapError(domain.ErrInvalidProduct)
	}
	return l.repo.History(ctx, filter)
}

// RefreshCache recomputes the general balance and writes it to the product cache.
func (l *Ledger) RefreshCache(ctx context.Context, productID int64) (decimal.Decimal, error) {
	balance, err := l.repo.Balance(ctx, productID, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := l.catalog.UpdateAvailableQuantity(ctx, productID, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ReconcileAll rewrites every product cache from the ledger. Products whose cache already
// matches are counted as checked only.
func (l *Ledger) ReconcileAll(ctx context.Context) (ports.ReconcileReport, error) {
	var report ports.ReconcileReport
	ids, err := l.catalog.ProductIDs(ctx)
	if err != nil {
		return report, err
	}
	balances, err := l.repo.Balances(ctx, ids, nil)
	if err != nil {
		return report, err
	}
	cached, err := l.catalog.CachedQuantities(ctx, ids)
	if err != nil {
		return report, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		balance := balances[id]
		if current, ok := cached[id]; ok && current.Equal(balance) {
			continue
		}
		if err := l.catalog.UpdateAvailableQuantity(ctx, id, balance); err != nil {
			return report, err
		}
		report.Repaired++
	}
	return report, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidDirection) ||
		errors.Is(err, domain.ErrInvalidProduct) ||
		errors.Is(err, domain.ErrInvalidKind) {
		return fmt.Errorf("%w: %w", faults.ErrValidation, err)
	}
	return err
}

var _ ports.Ledger = (*Ledger)(nil)

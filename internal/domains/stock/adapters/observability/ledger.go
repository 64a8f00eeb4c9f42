package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

const tracerName = "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/observability/ledger"

// Ledger decorates the stock ledger with tracing, logging, and metrics.
type Ledger struct {
	inner   stockports.Ledger
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics ledgerMetrics
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(l *Ledger) {
		l.metrics = newLedgerMetrics(m)
	}
}

// New wraps the core ledger.
func New(inner stockports.Ledger, opts ...Option) stockports.Ledger {
	l := &Ledger{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newLedgerMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.tracer == nil {
		l.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return l
}

func (l *Ledger) AdjustStock(ctx context.Context, adj stockports.Adjustment) (*stockdomain.Entry, error) {
	return l.adjust(ctx, "StockLedger.AdjustStock", adj, l.inner.AdjustStock)
}

func (l *Ledger) AdjustMaterialStock(ctx context.Context, adj stockports.Adjustment) (*stockdomain.Entry, error) {
	return l.adjust(ctx, "StockLedger.AdjustMaterialStock", adj, l.inner.AdjustMaterialStock)
}

func (l *Ledger) adjust(ctx context.Context, op string, adj stockports.Adjustment,
	fn func(context.Context, stockports.Adjustment) (*stockdomain.Entry, error)) (*stockdomain.Entry, error) {
	attrs := []slog.Attr{
		slog.Int64("product.id", adj.ProductID),
		slog.String("direction", string(adj.Direction)),
		slog.String("quantity", adj.Quantity.String()),
	}
	ctx, span := l.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("product.id", adj.ProductID),
		attribute.String("stock.direction", string(adj.Direction)),
	))
	defer span.End()

	l.logInfo(ctx, "adjusting stock", attrs...)
	entry, err := fn(ctx, adj)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to adjust stock", attrs...)
	}
	l.metrics.recordAdjustment(ctx, entry)
	l.logInfo(ctx, "stock adjusted", slog.Int64("entry.id", entry.ID), slog.Int64("product.id", entry.ProductID))
	return entry, nil
}

func (l *Ledger) CurrentStock(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.CurrentStock", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	balance, err := l.inner.CurrentStock(ctx, productID, siteID)
	if err != nil {
		return decimal.Zero, l.handleError(ctx, span, err, "failed to compute stock", slog.Int64("product.id", productID))
	}
	span.SetAttributes(attribute.String("stock.balance", balance.String()))
	return balance, nil
}

func (l *Ledger) History(ctx context.Context, filter stockports.HistoryFilter) ([]*stockdomain.Entry, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.History", trace.WithAttributes(attribute.Int64("product.id", filter.ProductID)))
	defer span.End()

	entries, err := l.inner.History(ctx, filter)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to load stock history", slog.Int64("product.id", filter.ProductID))
	}
	span.SetAttributes(attribute.Int("stock.history.count", len(entries)))
	return entries, nil
}

func (l *Ledger) RefreshCache(ctx context.Context, productID int64) (decimal.Decimal, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.RefreshCache", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	balance, err := l.inner.RefreshCache(ctx, productID)
	if err != nil {
		return decimal.Zero, l.handleError(ctx, span, err, "failed to refresh stock cache", slog.Int64("product.id", productID))
	}
	return balance, nil
}

func (l *Ledger) ReconcileAll(ctx context.Context) (stockports.ReconcileReport, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.ReconcileAll")
	defer span.End()

	l.logInfo(ctx, "reconciling stock caches")
	report, err := l.inner.ReconcileAll(ctx)
	if err != nil {
		return report, l.handleError(ctx, span, err, "stock reconciliation failed", slog.Int("checked", report.Checked))
	}
	l.logInfo(ctx, "stock caches reconciled", slog.Int("checked", report.Checked), slog.Int("repaired", report.Repaired))
	return report, nil
}

func (l *Ledger) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.logger == nil {
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (l *Ledger) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if l.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type ledgerMetrics struct {
	adjustments metric.Int64Counter
}

func newLedgerMetrics(m metric.Meter) ledgerMetrics {
	if m == nil {
		return ledgerMetrics{}
	}
	adjustments, _ := m.Int64Counter("stock.ledger.adjustments", metric.WithDescription("Number of ledger rows appended"))
	return ledgerMetrics{adjustments: adjustments}
}

func (m ledgerMetrics) recordAdjustment(ctx context.Context, entry *stockdomain.Entry) {
	if m.adjustments != nil && entry != nil {
		m.adjustments.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stock.direction", string(entry.Direction)),
			attribute.String("stock.kind", string(entry.Kind)),
		))
	}
}

var _ stockports.Ledger = (*Ledger)(nil)

package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

const tracerName = "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/observability/service"

// Service decorates the order workflow with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create the order counters.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Submit(ctx context.Context, input ordertypes.SubmitOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Submit",
		attribute.Int64("site.id", input.SiteID),
		attribute.Int("order.lines", len(input.Lines)),
		attribute.Int("order.custom_products", len(input.CustomProducts)),
		attribute.Bool("order.lpo", input.IsLPO),
	)
	defer span.End()

	s.logInfo(ctx, "submitting order", slog.Int64("site.id", input.SiteID), slog.Int64("actor.id", input.Actor.ID))
	view, err := s.inner.Submit(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to submit order", slog.Int64("site.id", input.SiteID))
	}
	s.metrics.recordSubmitted(ctx, input.IsLPO)
	s.recordOrder(ctx, span, "order submitted", view)
	return view, nil
}

func (s *Service) Approve(ctx context.Context, input ordertypes.ApproveOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Approve",
		attribute.Int64("order.id", input.OrderID),
		attribute.StringSlice("order.store_types", storeTypeNames(input.StoreTypes)),
		attribute.String("actor.role", string(input.Actor.Role)),
	)
	defer span.End()

	s.logInfo(ctx, "approving order", slog.Int64("order.id", input.OrderID), slog.Int64("actor.id", input.Actor.ID))
	view, err := s.inner.Approve(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to approve order", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordApproved(ctx, string(input.Actor.Role))
	s.recordOrder(ctx, span, "order approved", view)
	return view, nil
}

func (s *Service) Reject(ctx context.Context, input ordertypes.RejectOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Reject",
		attribute.Int64("order.id", input.OrderID),
		attribute.StringSlice("order.store_types", storeTypeNames(input.StoreTypes)),
		attribute.String("actor.role", string(input.Actor.Role)),
	)
	defer span.End()

	s.logInfo(ctx, "rejecting order", slog.Int64("order.id", input.OrderID), slog.Int64("actor.id", input.Actor.ID))
	view, err := s.inner.Reject(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reject order", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordRejected(ctx, string(input.Actor.Role))
	s.recordOrder(ctx, span, "order rejected", view)
	return view, nil
}

func (s *Service) AdvanceDelivery(ctx context.Context, input ordertypes.AdvanceDeliveryInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.AdvanceDelivery",
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.next_status", string(input.Status)),
	)
	defer span.End()

	view, err := s.inner.AdvanceDelivery(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to advance delivery", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordDispatched(ctx, input.Status)
	s.recordOrder(ctx, span, "order delivery advanced", view)
	return view, nil
}

func (s *Service) Cancel(ctx context.Context, input ordertypes.OrderCommand) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Cancel", attribute.Int64("order.id", input.OrderID))
	defer span.End()

	view, err := s.inner.Cancel(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", input.OrderID))
	}
	s.recordOrder(ctx, span, "order cancelled", view)
	return view, nil
}

func (s *Service) Delete(ctx context.Context, input ordertypes.OrderCommand) error {
	ctx, span := s.startSpan(ctx, "OrderService.Delete", attribute.Int64("order.id", input.OrderID))
	defer span.End()

	if err := s.inner.Delete(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", input.OrderID))
	}
	s.logInfo(ctx, "order deleted", slog.Int64("order.id", input.OrderID))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Get", attribute.Int64("order.id", id))
	defer span.End()

	view, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return view, nil
}

func (s *Service) List(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error) {
	ctx, span := s.startSpan(ctx, "OrderService.List",
		attribute.String("actor.role", string(input.Actor.Role)),
		attribute.Int("page", input.Page),
	)
	defer span.End()

	page, err := s.inner.List(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int64("order.result.total", page.Total))
	return page, nil
}

func (s *Service) CalculateCustomProductQuantity(ctx context.Context, input ordertypes.CustomQuantityInput) (*ordertypes.CustomQuantityResult, error) {
	ctx, span := s.startSpan(ctx, "OrderService.CalculateCustomProductQuantity", attribute.Int("materials", len(input.Materials)))
	defer span.End()

	result, err := s.inner.CalculateCustomProductQuantity(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to calculate custom product quantity")
	}
	span.SetAttributes(attribute.String("quantity.total", result.Total.String()))
	return result, nil
}

func (s *Service) recordOrder(ctx context.Context, span trace.Span, msg string, view *ordertypes.OrderView) {
	if view == nil || view.Order == nil {
		return
	}
	span.SetAttributes(
		attribute.Int64("order.id", view.Order.ID),
		attribute.String("order.status", string(view.Order.Status)),
	)
	s.logInfo(ctx, msg, slog.Int64("order.id", view.Order.ID), slog.String("status", string(view.Order.Status)))
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// handleError logs classified business failures at WARN and everything else at ERROR.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	kind := faults.KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind != "" {
		span.SetAttributes(attribute.String("error.kind", string(kind)))
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	level := slog.LevelError
	if kind != "" && kind != faults.KindConflict {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error.kind", string(kind)))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	s.metrics.recordFailure(ctx, kind)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeTypeNames(types []catalog.StoreType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}

type serviceMetrics struct {
	submitted  metric.Int64Counter
	approved   metric.Int64Counter
	rejected   metric.Int64Counter
	dispatched metric.Int64Counter
	failures   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	submitted, _ := m.Int64Counter("orders.service.submitted", metric.WithDescription("Number of orders submitted"))
	approved, _ := m.Int64Counter("orders.service.approved", metric.WithDescription("Number of approval operations"))
	rejected, _ := m.Int64Counter("orders.service.rejected", metric.WithDescription("Number of rejection operations"))
	dispatched, _ := m.Int64Counter("orders.service.dispatched", metric.WithDescription("Number of delivery transitions"))
	failures, _ := m.Int64Counter("orders.service.failures", metric.WithDescription("Number of failed order operations"))
	return serviceMetrics{
		submitted:  submitted,
		approved:   approved,
		rejected:   rejected,
		dispatched: dispatched,
		failures:   failures,
	}
}

func (m serviceMetrics) recordSubmitted(ctx context.Context, lpo bool) {
	addCounter(ctx, m.submitted, attribute.Bool("order.lpo", lpo))
}

func (m serviceMetrics) recordApproved(ctx context.Context, role string) {
	addCounter(ctx, m.approved, attribute.String("actor.role", role))
}

func (m serviceMetrics) recordRejected(ctx context.Context, role string) {
	addCounter(ctx, m.rejected, attribute.String("actor.role", role))
}

func (m serviceMetrics) recordDispatched(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.dispatched, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordFailure(ctx context.Context, kind faults.Kind) {
	if kind == "" {
		kind = "internal"
	}
	addCounter(ctx, m.failures, attribute.String("error.kind", string(kind)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)

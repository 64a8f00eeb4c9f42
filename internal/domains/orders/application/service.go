package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	directoryports "github.com/Apurer/go-procurement-server/internal/domains/directory/ports"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

const defaultPageSize = 20

// Service runs the order lifecycle: submission, approval, rejection, delivery and removal.
type Service struct {
	uow               ports.UnitOfWork
	store             ports.Store
	directory         directoryports.Service
	notifier          ports.Notifier
	locker            ports.OrderLocker
	logger            *slog.Logger
	strictRestoration bool
	now               func() time.Time
	newCorrelationID  func() string
}

// Option configures the Service.
type Option func(*Service)

func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithLocker(l ports.OrderLocker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictRestoration controls whether a failed stock restoration aborts a rejection.
func WithStrictRestoration(strict bool) Option {
	return func(s *Service) {
		s.strictRestoration = strict
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order workflow. store serves reads outside a unit of work.
func NewService(uow ports.UnitOfWork, store ports.Store, directory directoryports.Service, opts ...Option) *Service {
	s := &Service{
		uow:               uow,
		store:             store,
		directory:         directory,
		logger:            slog.Default(),
		strictRestoration: true,
		now:               func() time.Time { return time.Now().UTC() },
		newCorrelationID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Submit(ctx context.Context, input ordertypes.SubmitOrderInput) (*ordertypes.OrderView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !domain.CapabilityOf(input.Actor.Role).Submit {
		return nil, faults.Authorization("role %q cannot submit orders", input.Actor.Role)
	}
	site, err := s.directory.Site(ctx, input.SiteID)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			return nil, faults.Validation("site %d does not exist", input.SiteID)
		}
		return nil, err
	}
	supplierIDs := make([]int64, 0, len(input.Suppliers))
	for _, supplierID := range input.Suppliers {
		supplierIDs = append(supplierIDs, supplierID)
	}
	if err := s.directory.EnsureSuppliers(ctx, supplierIDs); err != nil {
		return nil, err
	}

	draft := domain.Draft{
		SiteID:               site.ID,
		SiteManagerID:        site.ManagerID,
		RequestedBy:          input.Actor.ID,
		OrderDate:            s.now(),
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Priority:             domain.Priority(input.Priority),
		Note:                 input.Note,
		IsLPO:                input.IsLPO,
		Suppliers:            input.Suppliers,
		CustomProducts:       input.CustomProducts,
	}
	for _, line := range input.Lines {
		draft.Lines = append(draft.Lines, domain.RequestedLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	products, err := s.store.Catalog().ListByIDs(ctx, draftProductIDs(draft))
	if err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(draft, products)
	if err != nil {
		return nil, mapError(err)
	}

	fingerprint := ""
	if input.IdempotencyKey != "" {
		if fingerprint, err = FingerprintSubmission(input); err != nil {
			return nil, err
		}
	}

	var (
		created  *domain.Order
		replayed bool
	)
	err = s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		if input.IdempotencyKey != "" {
			existing, err := s.replay(ctx, store, input.IdempotencyKey, fingerprint)
			if err != nil || existing != nil {
				created, replayed = existing, existing != nil
				return err
			}
		}
		var err error
		created, err = store.Orders().Create(ctx, order)
		if err != nil || input.IdempotencyKey == "" {
			return err
		}
		_, err = store.Idempotency().Save(ctx, ports.IdempotencyRecord{
			Key:         input.IdempotencyKey,
			RequestHash: fingerprint,
			OrderID:     created.ID,
		})
		return err
	})
	if errors.Is(err, ports.ErrIdempotencyConflict) {
		// A concurrent submission with the same key won the insert.
		created, err = s.replay(ctx, s.store, input.IdempotencyKey, fingerprint)
		if err == nil && created == nil {
			err = faults.Wrap(faults.KindConflict, ports.ErrIdempotencyConflict)
		}
		replayed = created != nil
	}
	if err != nil {
		return nil, err
	}
	if replayed {
		s.logger.InfoContext(ctx, "order submission replayed",
			slog.Int64("order.id", created.ID), slog.String("idempotency_key", input.IdempotencyKey))
		return s.view(ctx, s.store, created)
	}
	s.notify(ctx, ports.EventSubmitted, created, input.Actor, created.PresentTypes(), "")
	return s.view(ctx, s.store, created)
}

// replay returns the order stored under key, or nil when the key is unused. A key reused
// with a different payload is a conflict.
func (s *Service) replay(ctx context.Context, store ports.Store, key, fingerprint string) (*domain.Order, error) {
	record, err := store.Idempotency().Get(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	if record.RequestHash != fingerprint {
		return nil, faults.Conflict("idempotency key %q was used for a different submission", key)
	}
	return store.Orders().GetByID(ctx, record.OrderID)
}

func (s *Service) Get(ctx context.Context, id int64) (*ordertypes.OrderView, error) {
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.store, order)
}

func (s *Service) List(ctx context.Context, input ordertypes.ListOrdersInput) (*ordertypes.OrderPage, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	filter := ports.ListFilter{
		StoreTypes: domain.VisibleStoreTypes(input.Actor.Role),
		Status:     domain.Status(input.Status),
		SiteID:     input.SiteID,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	page, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ordertypes.OrderPage{Orders: page.Orders, Total: page.Total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *Service) Delete(ctx context.Context, input ordertypes.OrderCommand) error {
	if err := validateInput(input); err != nil {
		return err
	}
	if !domain.CapabilityOf(input.Actor.Role).Delete {
		return faults.Authorization("role %q cannot delete orders", input.Actor.Role)
	}
	release, err := s.lock(ctx, input.OrderID)
	if err != nil {
		return err
	}
	defer release()

	return s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		order, err := store.Orders().GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !order.CanDelete() {
			return faults.ImmutableState("order %d is %s and can no longer be deleted", order.ID, order.Status)
		}
		return store.Orders().Delete(ctx, order.ID)
	})
}

func (s *Service) Cancel(ctx context.Context, input ordertypes.OrderCommand) (*ordertypes.OrderView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !domain.CapabilityOf(input.Actor.Role).Cancel {
		return nil, faults.Authorization("role %q cannot cancel orders", input.Actor.Role)
	}
	release, err := s.lock(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *domain.Order
	if err := s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		order, err := store.Orders().GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCancelled {
			return faults.ImmutableState("order %d is already cancelled", order.ID)
		}
		if !order.SubStatuses.All(domain.StatusPending) {
			return faults.ImmutableState("order %d has been processed and cannot be cancelled", order.ID)
		}
		order.Cancel(s.now())
		updated, err = store.Orders().Update(ctx, order)
		return err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, ports.EventCancelled, updated, input.Actor, updated.PresentTypes(), "")
	return s.view(ctx, s.store, updated)
}

func (s *Service) AdvanceDelivery(ctx context.Context, input ordertypes.AdvanceDeliveryInput) (*ordertypes.OrderView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !domain.CapabilityOf(input.Actor.Role).Dispatch {
		return nil, faults.Authorization("role %q cannot dispatch orders", input.Actor.Role)
	}
	release, err := s.lock(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		updated *domain.Order
		moved   []catalog.StoreType
	)
	if err := s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		order, err := store.Orders().GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		moved, err = deliveryTargets(order, input.StoreTypes, input.Status)
		if err != nil {
			return err
		}
		ok, err := order.Advance(moved, input.Status, s.now())
		if err != nil {
			return mapError(err)
		}
		s.warnIfAmbiguous(ctx, order, ok)
		updated, err = store.Orders().Update(ctx, order)
		return err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, ports.EventDispatched, updated, input.Actor, moved, "")
	return s.view(ctx, s.store, updated)
}

func (s *Service) CalculateCustomProductQuantity(_ context.Context, input ordertypes.CustomQuantityInput) (*ordertypes.CustomQuantityResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	result := &ordertypes.CustomQuantityResult{Quantities: make([]decimal.Decimal, 0, len(input.Materials))}
	for _, material := range input.Materials {
		quantity, err := domain.CalculateQuantity(material.Measurements, material.Pieces)
		if err != nil {
			return nil, mapError(err)
		}
		result.Quantities = append(result.Quantities, quantity)
		result.Total = result.Total.Add(quantity)
	}
	return result, nil
}

// deliveryTargets picks the store types that move to next. Explicit types must all be
// eligible; an empty request moves every eligible type.
func deliveryTargets(order *domain.Order, requested []catalog.StoreType, next domain.Status) ([]catalog.StoreType, error) {
	if order.Status == domain.StatusCancelled {
		return nil, faults.ImmutableState("order %d is cancelled", order.ID)
	}
	if len(requested) == 0 {
		var eligible []catalog.StoreType
		for _, t := range order.PresentTypes() {
			current, _ := order.SubStatuses.Get(t)
			if domain.CanAdvance(current, next) {
				eligible = append(eligible, t)
			}
		}
		if len(eligible) == 0 {
			return nil, faults.ImmutableState("order %d has no store type that can move to %s", order.ID, next)
		}
		return eligible, nil
	}
	for _, t := range requested {
		current, ok := order.SubStatuses.Get(t)
		if !ok {
			return nil, faults.Validation("order %d has no %s lines", order.ID, t)
		}
		if !domain.CanAdvance(current, next) {
			return nil, faults.ImmutableState("%s lines of order %d are %s and cannot move to %s", t, order.ID, current, next)
		}
	}
	return dedupeTypes(requested), nil
}

// targetTypes intersects the requested store types with what the role owns. An empty
// request targets every present type the role owns.
func targetTypes(order *domain.Order, capability domain.Capability, requested []catalog.StoreType) ([]catalog.StoreType, error) {
	if len(requested) == 0 {
		requested = order.PresentTypes()
	} else {
		for _, t := range requested {
			if _, ok := order.SubStatuses.Get(t); !ok {
				return nil, faults.Validation("order %d has no %s lines", order.ID, t)
			}
		}
	}
	owned := make([]catalog.StoreType, 0, len(requested))
	for _, t := range dedupeTypes(requested) {
		if capability.Owns(t) {
			owned = append(owned, t)
		}
	}
	if len(owned) == 0 {
		return nil, faults.Authorization("role does not own any of the targeted store types of order %d", order.ID)
	}
	return owned, nil
}

func dedupeTypes(types []catalog.StoreType) []catalog.StoreType {
	seen := make(map[catalog.StoreType]struct{}, len(types))
	out := make([]catalog.StoreType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func draftProductIDs(draft domain.Draft) []int64 {
	ids := make([]int64, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		ids = append(ids, line.ProductID)
	}
	for _, custom := range draft.CustomProducts {
		ids = append(ids, custom.ConnectedIDs()...)
		ids = append(ids, custom.MaterialIDs()...)
	}
	return ids
}

func (s *Service) lock(ctx context.Context, orderID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		if errors.Is(err, ports.ErrLockNotObtained) {
			return nil, faults.Wrap(faults.KindConflict, err)
		}
		return nil, err
	}
	return release, nil
}

func (s *Service) warnIfAmbiguous(ctx context.Context, order *domain.Order, resolved bool) {
	if resolved {
		return
	}
	attrs := []slog.Attr{slog.Int64("order.id", order.ID), slog.String("status", string(order.Status))}
	for t, status := range order.SubStatuses.Map() {
		attrs = append(attrs, slog.String("sub_status."+string(t), string(status)))
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "ambiguous sub-status combination, order kept pending", attrs...)
}

func (s *Service) notify(ctx context.Context, event ports.EventType, order *domain.Order, actor domain.Actor, types []catalog.StoreType, note string) {
	if s.notifier == nil || order == nil {
		return
	}
	if order.SiteManagerID == nil {
		s.logger.DebugContext(ctx, "order has no site manager, notification skipped",
			slog.Int64("order.id", order.ID), slog.String("event", string(event)))
		return
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	notification := ports.Notification{
		Event:       event,
		OrderID:     order.ID,
		RecipientID: *order.SiteManagerID,
		ActorID:     actor.ID,
		Status:      string(order.Status),
		StoreTypes:  names,
		Note:        strings.TrimSpace(note),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.WarnContext(ctx, "order notification failed",
			slog.Int64("order.id", order.ID),
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
	}
}

var _ ports.Service = (*Service)(nil)

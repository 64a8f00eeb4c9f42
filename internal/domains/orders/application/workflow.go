package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockcatalog "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/catalog"
	stockapp "github.com/Apurer/go-procurement-server/internal/domains/stock/application"
	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

// demand is the stock one store type of an order consumes for one product.
type demand struct {
	storeType catalog.StoreType
	productID int64
	kind      stockdomain.Kind
	quantity  decimal.Decimal
}

func approvalLabel(t catalog.StoreType) string  { return "approval:" + string(t) }
func rejectionLabel(t catalog.StoreType) string { return "rejection:" + string(t) }

// Approve approves the targeted store types and deducts their stock in one unit of work.
func (s *Service) Approve(ctx context.Context, input ordertypes.ApproveOrderInput) (*ordertypes.OrderView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	capability := domain.CapabilityOf(input.Actor.Role)
	if len(capability.Approves) == 0 {
		return nil, faults.Authorization("role %q cannot approve orders", input.Actor.Role)
	}
	release, err := s.lock(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	correlationID := s.newCorrelationID()
	var (
		updated  *domain.Order
		approved []catalog.StoreType
	)
	if err := s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		order, err := store.Orders().GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCancelled {
			return faults.ImmutableState("order %d is cancelled", order.ID)
		}
		targets, err := targetTypes(order, capability, input.StoreTypes)
		if err != nil {
			return err
		}
		for _, t := range targets {
			current, _ := order.SubStatuses.Get(t)
			if !current.Fulfilled() {
				approved = append(approved, t)
			}
		}
		if len(approved) == 0 {
			return faults.AlreadyApproved("order %d is already approved for %s", order.ID, joinTypes(targets))
		}

		if order.IsLPO {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "stock deduction skipped",
				slog.Int64("order.id", order.ID),
				slog.String("reason", "lpo_order"),
				slog.String("store_types", joinTypes(approved)),
			)
		} else if err := s.deduct(ctx, store, order, approved, correlationID); err != nil {
			return err
		}

		ok, err := order.Approve(approved, input.Actor.ID, s.now())
		if err != nil {
			return mapError(err)
		}
		s.warnIfAmbiguous(ctx, order, ok)
		updated, err = store.Orders().Update(ctx, order)
		return err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, ports.EventApproved, updated, input.Actor, approved, "")
	return s.view(ctx, s.store, updated)
}

// Reject rejects the targeted store types, restoring the stock their approval took out.
func (s *Service) Reject(ctx context.Context, input ordertypes.RejectOrderInput) (*ordertypes.OrderView, error) {
	if strings.TrimSpace(input.Note) == "" {
		return nil, faults.Validation("a rejection note is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	capability := domain.CapabilityOf(input.Actor.Role)
	if len(capability.Approves) == 0 {
		return nil, faults.Authorization("role %q cannot reject orders", input.Actor.Role)
	}
	release, err := s.lock(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	correlationID := s.newCorrelationID()
	var (
		updated  *domain.Order
		rejected []catalog.StoreType
	)
	if err := s.uow.Do(ctx, func(ctx context.Context, store ports.Store) error {
		order, err := store.Orders().GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCancelled {
			return faults.ImmutableState("order %d is cancelled", order.ID)
		}
		targets, err := targetTypes(order, capability, input.StoreTypes)
		if err != nil {
			return err
		}
		var restore []catalog.StoreType
		for _, t := range targets {
			current, _ := order.SubStatuses.Get(t)
			switch {
			case current == domain.StatusDelivered:
				return faults.ImmutableState("%s lines of order %d are delivered", t, order.ID)
			case current == domain.StatusRejected:
				continue
			case current.Fulfilled():
				restore = append(restore, t)
			}
			rejected = append(rejected, t)
		}
		if len(rejected) == 0 {
			return faults.AlreadyRejected("order %d is already rejected for %s", order.ID, joinTypes(targets))
		}

		if order.IsLPO {
			if len(restore) > 0 {
				s.logger.LogAttrs(ctx, slog.LevelInfo, "stock restoration skipped",
					slog.Int64("order.id", order.ID),
					slog.String("reason", "lpo_order"),
					slog.String("store_types", joinTypes(restore)),
				)
			}
		} else if err := s.restore(ctx, store, order, restore, correlationID); err != nil {
			return err
		}

		ok, err := order.Reject(rejected, input.Note, input.Actor.ID, s.now())
		if err != nil {
			return mapError(err)
		}
		s.warnIfAmbiguous(ctx, order, ok)
		updated, err = store.Orders().Update(ctx, order)
		return err
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, ports.EventRejected, updated, input.Actor, rejected, input.Note)
	return s.view(ctx, s.store, updated)
}

// deduct locks the demanded products, checks every balance against the aggregated demand
// before writing any ledger row, then records one out row per product, kind and store type.
func (s *Service) deduct(ctx context.Context, store ports.Store, order *domain.Order, types []catalog.StoreType, correlationID string) error {
	demands, err := stockDemand(ctx, store.Catalog(), order, types)
	if err != nil {
		return err
	}
	if len(demands) == 0 {
		return nil
	}
	totals := map[int64]decimal.Decimal{}
	ids := make([]int64, 0, len(demands))
	for _, d := range demands {
		if _, ok := totals[d.productID]; !ok {
			ids = append(ids, d.productID)
		}
		totals[d.productID] = totals[d.productID].Add(d.quantity)
	}
	if err := store.Stock().Lock(ctx, ids); err != nil {
		return err
	}
	balances, err := store.Stock().Balances(ctx, ids, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if balances[id].LessThan(totals[id]) {
			return &faults.InsufficientStockError{ProductID: id, Requested: totals[id], Available: balances[id]}
		}
	}

	ledger := s.ledger(store)
	for _, d := range demands {
		adj := stockports.Adjustment{
			ProductID:     d.productID,
			Quantity:      d.quantity,
			Direction:     stockdomain.DirectionOut,
			Reason:        fmt.Sprintf("order %d approved", order.ID),
			ReferenceType: stockdomain.ReferenceOrder,
			ReferenceID:   &order.ID,
			Label:         approvalLabel(d.storeType),
			CorrelationID: correlationID,
		}
		if err := s.applyAdjustment(ctx, ledger, d.kind, adj); err != nil {
			return err
		}
	}
	return nil
}

// restore reverses what earlier approvals of types took out, as recorded in the ledger.
func (s *Service) restore(ctx context.Context, store ports.Store, order *domain.Order, types []catalog.StoreType, correlationID string) error {
	ledger := s.ledger(store)
	for _, t := range types {
		outstanding, err := store.Stock().Outstanding(ctx, stockdomain.ReferenceOrder, order.ID, []string{approvalLabel(t), rejectionLabel(t)})
		if err != nil {
			if s.strictRestoration {
				return err
			}
			s.logRestorationFailure(ctx, order.ID, t, 0, err)
			continue
		}
		for _, item := range outstanding {
			adj := stockports.Adjustment{
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				Direction:     stockdomain.DirectionIn,
				SiteID:        item.SiteID,
				Reason:        fmt.Sprintf("order %d rejected", order.ID),
				ReferenceType: stockdomain.ReferenceOrder,
				ReferenceID:   &order.ID,
				Label:         rejectionLabel(t),
				CorrelationID: correlationID,
			}
			if err := s.applyAdjustment(ctx, ledger, item.Kind, adj); err != nil {
				if s.strictRestoration {
					return err
				}
				s.logRestorationFailure(ctx, order.ID, t, item.ProductID, err)
			}
		}
	}
	return nil
}

func (s *Service) logRestorationFailure(ctx context.Context, orderID int64, t catalog.StoreType, productID int64, err error) {
	s.logger.LogAttrs(ctx, slog.LevelWarn, "stock restoration failed, rejection continues",
		slog.Int64("order.id", orderID),
		slog.String("store_type", string(t)),
		slog.Int64("product.id", productID),
		slog.String("error", err.Error()),
	)
}

func (s *Service) ledger(store ports.Store) *stockapp.Ledger {
	return stockapp.NewLedger(store.Stock(), stockcatalog.NewCache(store.Catalog()), stockapp.WithLogger(s.logger))
}

func (s *Service) applyAdjustment(ctx context.Context, ledger *stockapp.Ledger, kind stockdomain.Kind, adj stockports.Adjustment) error {
	var err error
	if kind == stockdomain.KindMaterial {
		_, err = ledger.AdjustMaterialStock(ctx, adj)
	} else {
		_, err = ledger.AdjustStock(ctx, adj)
	}
	return err
}

// stockDemand expands the lines of types into product and BOM material demand. Workshop
// approval also consumes the materials declared by custom products.
func stockDemand(ctx context.Context, repo catalogports.Repository, order *domain.Order, types []catalog.StoreType) ([]demand, error) {
	lines := order.LinesOf(types)
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	type key struct {
		storeType catalog.StoreType
		productID int64
		kind      stockdomain.Kind
	}
	totals := map[key]decimal.Decimal{}
	add := func(t catalog.StoreType, productID int64, kind stockdomain.Kind, quantity decimal.Decimal) {
		if !quantity.IsPositive() {
			return
		}
		k := key{storeType: t, productID: productID, kind: kind}
		totals[k] = totals[k].Add(quantity)
	}
	for _, line := range lines {
		add(line.StoreType, line.ProductID, stockdomain.KindProduct, line.Quantity)
		product, ok := products[line.ProductID]
		if !ok {
			return nil, faults.NotFound("product %d not found", line.ProductID)
		}
		for _, material := range product.Materials {
			add(line.StoreType, material.MaterialID, stockdomain.KindMaterial, material.QuantityPerUnit.Mul(line.Quantity))
		}
	}
	for _, t := range types {
		if t != catalog.StoreWorkshop {
			continue
		}
		for _, custom := range order.CustomProducts {
			for _, material := range custom.Payload.Materials {
				add(t, material.ProductID, stockdomain.KindMaterial, material.CalculatedQuantity)
			}
		}
	}

	demands := make([]demand, 0, len(totals))
	for k, quantity := range totals {
		demands = append(demands, demand{storeType: k.storeType, productID: k.productID, kind: k.kind, quantity: quantity})
	}
	sort.Slice(demands, func(i, j int) bool {
		a, b := demands[i], demands[j]
		if a.storeType != b.storeType {
			return a.storeType < b.storeType
		}
		if a.productID != b.productID {
			return a.productID < b.productID
		}
		return a.kind < b.kind
	})
	return demands, nil
}

func joinTypes(types []catalog.StoreType) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, ",")
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps order aggregates in memory. Deleted orders are retained but hidden.
type Repository struct {
	mu      sync.RWMutex
	orders  map[int64]*storedOrder
	nextID  int64
	nextSub int64
	now     func() time.Time
}

type storedOrder struct {
	order     *domain.Order
	deletedAt *time.Time
}

func NewRepository() *Repository {
	return &Repository{orders: map[int64]*storedOrder{}, now: time.Now}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneOrder(order)
	r.nextID++
	clone.ID = r.nextID
	for i := range clone.CustomProducts {
		r.nextSub++
		clone.CustomProducts[i].ID = r.nextSub
	}
	now := r.now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.orders[clone.ID] = &storedOrder{order: clone}
	return cloneOrder(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.orders[id]
	if !ok || stored.deletedAt != nil {
		return nil, faults.NotFound("order %d not found", id)
	}
	return cloneOrder(stored.order), nil
}

// GetForUpdate relies on the unit of work holding the store-wide lock.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.deletedAt != nil {
		return nil, faults.NotFound("order %d not found", order.ID)
	}
	clone := cloneOrder(stored.order)
	clone.Status = order.Status
	clone.SubStatuses = cloneSubStatuses(order.SubStatuses)
	clone.RejectedNote = order.RejectedNote
	clone.ApprovedBy = cloneInt(order.ApprovedBy)
	clone.ApprovedAt = cloneTime(order.ApprovedAt)
	clone.RejectedBy = cloneInt(order.RejectedBy)
	clone.RejectedAt = cloneTime(order.RejectedAt)
	clone.UpdatedAt = r.now().UTC()
	stored.order = clone
	return cloneOrder(clone), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok || stored.deletedAt != nil {
		return faults.NotFound("order %d not found", id)
	}
	now := r.now().UTC()
	stored.deletedAt = &now
	return nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) (ports.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*domain.Order, 0, len(r.orders))
	for _, stored := range r.orders {
		if stored.deletedAt != nil || !matches(stored.order, filter) {
			continue
		}
		matched = append(matched, stored.order)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	page := ports.Page{Total: int64(len(matched)), Page: filter.Page, PageSize: filter.PageSize}
	start, end := 0, len(matched)
	if filter.PageSize > 0 {
		start = (max(filter.Page, 1) - 1) * filter.PageSize
		end = min(start+filter.PageSize, len(matched))
	}
	page.Orders = make([]*domain.Order, 0)
	for i := start; i < end; i++ {
		page.Orders = append(page.Orders, cloneOrder(matched[i]))
	}
	return page, nil
}

// Snapshot captures the repository for transactional rollback.
func (r *Repository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make(map[int64]*storedOrder, len(r.orders))
	for id, stored := range r.orders {
		copied := &storedOrder{order: cloneOrder(stored.order)}
		if stored.deletedAt != nil {
			at := *stored.deletedAt
			copied.deletedAt = &at
		}
		orders[id] = copied
	}
	return orderSnapshot{orders: orders, nextID: r.nextID, nextSub: r.nextSub}
}

// Restore replaces the repository state with a value returned by Snapshot.
func (r *Repository) Restore(snapshot any) {
	snap, ok := snapshot.(orderSnapshot)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = snap.orders
	r.nextID = snap.nextID
	r.nextSub = snap.nextSub
}

type orderSnapshot struct {
	orders  map[int64]*storedOrder
	nextID  int64
	nextSub int64
}

func matches(order *domain.Order, filter ports.ListFilter) bool {
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	if filter.SiteID != nil && order.SiteID != *filter.SiteID {
		return false
	}
	if len(filter.StoreTypes) == 0 {
		return true
	}
	for _, t := range filter.StoreTypes {
		if _, ok := order.SubStatuses.Get(t); ok {
			return true
		}
	}
	return false
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.SiteManagerID = cloneInt(order.SiteManagerID)
	clone.ExpectedDeliveryDate = cloneTime(order.ExpectedDeliveryDate)
	clone.SubStatuses = cloneSubStatuses(order.SubStatuses)
	clone.ApprovedBy = cloneInt(order.ApprovedBy)
	clone.ApprovedAt = cloneTime(order.ApprovedAt)
	clone.RejectedBy = cloneInt(order.RejectedBy)
	clone.RejectedAt = cloneTime(order.RejectedAt)
	if order.Suppliers != nil {
		clone.Suppliers = make(map[int64]int64, len(order.Suppliers))
		for k, v := range order.Suppliers {
			clone.Suppliers[k] = v
		}
	}
	clone.Lines = append([]domain.Line(nil), order.Lines...)
	clone.CustomProducts = make([]domain.CustomProduct, 0, len(order.CustomProducts))
	for _, custom := range order.CustomProducts {
		clone.CustomProducts = append(clone.CustomProducts, cloneCustom(custom))
	}
	return &clone
}

func cloneCustom(custom domain.CustomProduct) domain.CustomProduct {
	clone := custom
	clone.ConnectedProductIDs = append([]int64(nil), custom.ConnectedProductIDs...)
	clone.Images = append([]string(nil), custom.Images...)
	clone.Payload.ProductID = cloneInt(custom.Payload.ProductID)
	clone.Payload.ConnectedProducts = append([]domain.ConnectedProduct(nil), custom.Payload.ConnectedProducts...)
	clone.Payload.Materials = make([]domain.MaterialSpec, 0, len(custom.Payload.Materials))
	for _, material := range custom.Payload.Materials {
		material.Measurements = append([]domain.Measurement(nil), material.Measurements...)
		clone.Payload.Materials = append(clone.Payload.Materials, material)
	}
	return clone
}

func cloneSubStatuses(subs domain.SubStatuses) domain.SubStatuses {
	var clone domain.SubStatuses
	for _, t := range catalog.StoreTypes {
		if status, ok := subs.Get(t); ok {
			clone.Set(t, status)
		}
	}
	return clone
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

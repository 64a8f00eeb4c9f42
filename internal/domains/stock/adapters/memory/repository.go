package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory append-only ledger.
type Repository struct {
	mu      sync.RWMutex
	entries []*domain.Entry
	now     func() time.Time
}

func NewRepository() *Repository {
	return &Repository{now: time.Now}
}

func (r *Repository) Append(_ context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if entry == nil {
		return nil, errors.New("entry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneEntry(entry)
	clone.ID = int64(len(r.entries) + 1)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.now().UTC()
	}
	r.entries = append(r.entries, clone)
	return cloneEntry(clone), nil
}

// Lock is a no-op: writers share the store-wide unit-of-work lock.
func (r *Repository) Lock(context.Context, []int64) error { return nil }

func (r *Repository) Balance(_ context.Context, productID int64, siteID *int64) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.Balance(r.entries, productID, siteID), nil
}

func (r *Repository) Balances(_ context.Context, productIDs []int64, siteID *int64) (map[int64]decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64]decimal.Decimal, len(productIDs))
	for _, id := range productIDs {
		result[id] = domain.Balance(r.entries, id, siteID)
	}
	return result, nil
}

func (r *Repository) History(_ context.Context, filter ports.HistoryFilter) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if entry.ProductID != filter.ProductID || !entry.InScope(filter.SiteID) {
			continue
		}
		list = append(list, cloneEntry(entry))
		if filter.Limit > 0 && len(list) == filter.Limit {
			break
		}
	}
	return list, nil
}

func (r *Repository) Outstanding(_ context.Context, referenceType string, referenceID int64, labels []string) ([]domain.Outstanding, error) {
	wanted := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		wanted[label] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	type key struct {
		productID int64
		site      string
		kind      domain.Kind
	}
	nets := map[key]*domain.Outstanding{}
	order := make([]key, 0)
	for _, entry := range r.entries {
		if !entry.Active || entry.ReferenceType != referenceType || entry.ReferenceID == nil || *entry.ReferenceID != referenceID {
			continue
		}
		if _, ok := wanted[entry.Label]; !ok {
			continue
		}
		k := key{productID: entry.ProductID, site: siteKey(entry.SiteID), kind: entry.Kind}
		net, ok := nets[k]
		if !ok {
			net = &domain.Outstanding{ProductID: entry.ProductID, SiteID: cloneID(entry.SiteID), Kind: entry.Kind, Quantity: decimal.Zero}
			nets[k] = net
			order = append(order, k)
		}
		net.Quantity = net.Quantity.Sub(entry.Signed())
	}
	result := make([]domain.Outstanding, 0, len(order))
	for _, k := range order {
		if nets[k].Quantity.IsPositive() {
			result = append(result, *nets[k])
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result, nil
}

// Snapshot captures the ledger for transactional rollback.
func (r *Repository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Restore truncates rows appended after Snapshot; existing rows are immutable. Every
// append must run inside the unit of work that took the snapshot.
func (r *Repository) Restore(snapshot any) {
	n, ok := snapshot.(int)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < len(r.entries) {
		r.entries = r.entries[:n]
	}
}

func siteKey(id *int64) string {
	if id == nil {
		return "general"
	}
	return fmt.Sprintf("site:%d", *id)
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneEntry(entry *domain.Entry) *domain.Entry {
	clone := *entry
	clone.SiteID = cloneID(entry.SiteID)
	clone.ReferenceID = cloneID(entry.ReferenceID)
	return &clone
}

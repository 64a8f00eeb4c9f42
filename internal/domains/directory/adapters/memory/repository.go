package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/directory/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps directory reference data in memory.
type Repository struct {
	mu         sync.RWMutex
	sites      map[int64]domain.Site
	suppliers  map[int64]domain.Supplier
	moderators map[int64]domain.Moderator
	lastID     int64
}

func NewRepository() *Repository {
	return &Repository{
		sites:      map[int64]domain.Site{},
		suppliers:  map[int64]domain.Supplier{},
		moderators: map[int64]domain.Moderator{},
	}
}

func (r *Repository) GetSite(_ context.Context, id int64) (*domain.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	site, ok := r.sites[id]
	if !ok {
		return nil, faults.NotFound("site %d not found", id)
	}
	if site.ManagerID != nil {
		managerID := *site.ManagerID
		site.ManagerID = &managerID
	}
	return &site, nil
}

func (r *Repository) SaveSite(_ context.Context, site *domain.Site) (*domain.Site, error) {
	if site == nil {
		return nil, errors.New("site is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *site
	clone.ID = r.assignID(clone.ID)
	r.sites[clone.ID] = clone
	return &clone, nil
}

func (r *Repository) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, faults.NotFound("supplier %d not found", id)
	}
	return &supplier, nil
}

func (r *Repository) ListSuppliersByIDs(_ context.Context, ids []int64) (map[int64]*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64]*domain.Supplier, len(ids))
	for _, id := range ids {
		if supplier, ok := r.suppliers[id]; ok {
			result[id] = &supplier
		}
	}
	return result, nil
}

func (r *Repository) SaveSupplier(_ context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if supplier == nil {
		return nil, errors.New("supplier is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *supplier
	clone.ID = r.assignID(clone.ID)
	r.suppliers[clone.ID] = clone
	return &clone, nil
}

func (r *Repository) GetModerator(_ context.Context, id int64) (*domain.Moderator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	moderator, ok := r.moderators[id]
	if !ok {
		return nil, faults.NotFound("moderator %d not found", id)
	}
	return &moderator, nil
}

func (r *Repository) SaveModerator(_ context.Context, moderator *domain.Moderator) (*domain.Moderator, error) {
	if moderator == nil {
		return nil, errors.New("moderator is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *moderator
	clone.ID = r.assignID(clone.ID)
	r.moderators[clone.ID] = clone
	return &clone, nil
}

// assignID must be called with the write lock held.
func (r *Repository) assignID(id int64) int64 {
	if id == 0 {
		r.lastID++
		return r.lastID
	}
	if id > r.lastID {
		r.lastID = id
	}
	return id
}

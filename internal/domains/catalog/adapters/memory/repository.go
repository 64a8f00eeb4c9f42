package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory catalog adapter.
type Repository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewRepository() *Repository {
	return &Repository{products: map[int64]*domain.Product{}}
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, faults.NotFound("product %d not found", id)
	}
	return r.withMaterialNames(cloneProduct(product)), nil
}

func (r *Repository) ListByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			result[id] = r.withMaterialNames(cloneProduct(product))
		}
	}
	return result, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		list = append(list, r.withMaterialNames(cloneProduct(product)))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := cloneProduct(product)
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.products[clone.ID]; ok && clone.Materials == nil {
		clone.Materials = cloneProduct(existing).Materials
	}
	r.products[clone.ID] = clone
	return cloneProduct(clone), nil
}

func (r *Repository) ReplaceBOM(_ context.Context, productID int64, items []domain.BOMItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return faults.NotFound("product %d not found", productID)
	}
	product.Materials = append([]domain.BOMItem(nil), items...)
	return nil
}

func (r *Repository) UpdateAvailableQuantity(_ context.Context, productID int64, quantity decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return faults.NotFound("product %d not found", productID)
	}
	product.AvailableQuantity = quantity
	return nil
}

// Snapshot captures the repository state for transactional rollback.
func (r *Repository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make(map[int64]*domain.Product, len(r.products))
	for id, product := range r.products {
		products[id] = cloneProduct(product)
	}
	return catalogSnapshot{products: products, nextID: r.nextID}
}

// Restore replaces the repository state with a value returned by Snapshot.
func (r *Repository) Restore(snapshot any) {
	snap, ok := snapshot.(catalogSnapshot)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = snap.products
	r.nextID = snap.nextID
}

type catalogSnapshot struct {
	products map[int64]*domain.Product
	nextID   int64
}

// withMaterialNames must be called with the read lock held.
func (r *Repository) withMaterialNames(product *domain.Product) *domain.Product {
	for i := range product.Materials {
		if material, ok := r.products[product.Materials[i].MaterialID]; ok {
			product.Materials[i].MaterialName = material.Name
		}
	}
	return product
}

func cloneProduct(product *domain.Product) *domain.Product {
	clone := *product
	if product.CategoryID != nil {
		id := *product.CategoryID
		clone.CategoryID = &id
	}
	if product.LowStockThreshold != nil {
		threshold := *product.LowStockThreshold
		clone.LowStockThreshold = &threshold
	}
	if product.Materials != nil {
		clone.Materials = append([]domain.BOMItem(nil), product.Materials...)
	}
	return &clone
}

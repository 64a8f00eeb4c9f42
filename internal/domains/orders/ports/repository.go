package ports

import (
	"context"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

// ListFilter narrows an order listing. Empty StoreTypes means every order.
type ListFilter struct {
	StoreTypes []catalog.StoreType
	Status     domain.Status
	SiteID     *int64
	Page       int
	PageSize   int
}

// Page is one page of orders.
type Page struct {
	Orders   []*domain.Order
	Total    int64
	Page     int
	PageSize int
}

// Repository persists order aggregates with their lines and custom products.
type Repository interface {
	// Create assigns an id and stores the aggregate.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// GetByID loads the aggregate with every nested collection.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate loads the aggregate and holds it against concurrent writers until the
	// enclosing unit of work ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	// Update writes status fields; lines and custom products are immutable after creation.
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// Delete soft-deletes the order.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) (Page, error)
}

// Store is the set of repositories bound to one unit of work.
type Store interface {
	Orders() Repository
	Stock() stockports.Repository
	Catalog() catalogports.Repository
	Idempotency() IdempotencyStore
}

// UnitOfWork runs fn atomically. Any error returned by fn rolls back every write made
// through the store.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

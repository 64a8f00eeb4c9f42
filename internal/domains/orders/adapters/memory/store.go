package memory

import (
	"context"
	"sync"

	catalogmemory "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/memory"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockmemory "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/memory"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

var (
	_ ports.Store      = (*Store)(nil)
	_ ports.UnitOfWork = (*Store)(nil)
)

// Store groups the in-memory catalog, stock and order repositories. Units of work are
// serialised and rolled back from snapshots when the callback fails.
type Store struct {
	mu          sync.Mutex
	orders      *Repository
	stock       *stockmemory.Repository
	catalog     *catalogmemory.Repository
	idempotency *IdempotencyStore
}

// NewStore shares catalog and stock with the other contexts so they see the same data.
func NewStore(catalog *catalogmemory.Repository, stock *stockmemory.Repository) *Store {
	if catalog == nil {
		catalog = catalogmemory.NewRepository()
	}
	if stock == nil {
		stock = stockmemory.NewRepository()
	}
	return &Store{orders: NewRepository(), stock: stock, catalog: catalog, idempotency: NewIdempotencyStore()}
}

func (s *Store) Orders() ports.Repository { return s.orders }

func (s *Store) Stock() stockports.Repository { return s.stock }

func (s *Store) Catalog() catalogports.Repository { return s.catalog }

func (s *Store) Idempotency() ports.IdempotencyStore { return s.idempotency }

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	orders := s.orders.Snapshot()
	stock := s.stock.Snapshot()
	catalog := s.catalog.Snapshot()
	keys := s.idempotency.Snapshot()
	if err := fn(ctx, s); err != nil {
		s.orders.Restore(orders)
		s.stock.Restore(stock)
		s.catalog.Restore(catalog)
		s.idempotency.Restore(keys)
		return err
	}
	return nil
}

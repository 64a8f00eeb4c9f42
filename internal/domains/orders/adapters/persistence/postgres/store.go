package postgres

import (
	"context"

	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	stockpostgres "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/persistence/postgres"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

var (
	_ ports.Store      = (*Store)(nil)
	_ ports.UnitOfWork = (*Store)(nil)
)

// Store binds the order, stock and catalog repositories to one *gorm.DB, which is either
// the pool or an open transaction.
type Store struct {
	db          *gorm.DB
	orders      *Repository
	stock       *stockpostgres.Repository
	catalog     *catalogpostgres.Repository
	idempotency *IdempotencyStore
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		orders:      NewRepository(db),
		stock:       stockpostgres.NewRepository(db),
		catalog:     catalogpostgres.NewRepository(db),
		idempotency: NewIdempotencyStore(db),
	}
}

func (s *Store) Orders() ports.Repository { return s.orders }

func (s *Store) Stock() stockports.Repository { return s.stock }

func (s *Store) Catalog() catalogports.Repository { return s.catalog }

func (s *Store) Idempotency() ports.IdempotencyStore { return s.idempotency }

// Do runs fn in one database transaction; fn receives a store bound to it.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

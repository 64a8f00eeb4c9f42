package ports

import (
	"context"

	"github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
)

// Repository stores sites, suppliers and moderators.
type Repository interface {
	GetSite(ctx context.Context, id int64) (*domain.Site, error)
	SaveSite(ctx context.Context, site *domain.Site) (*domain.Site, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	// ListSuppliersByIDs returns the suppliers that exist among ids, keyed by id.
	ListSuppliersByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Supplier, error)
	SaveSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	GetModerator(ctx context.Context, id int64) (*domain.Moderator, error)
	SaveModerator(ctx context.Context, moderator *domain.Moderator) (*domain.Moderator, error)
}

// Service is the read/write surface other contexts consume.
type Service interface {
	Site(ctx context.Context, id int64) (*domain.Site, error)
	RegisterSite(ctx context.Context, site *domain.Site) (*domain.Site, error)
	Moderator(ctx context.Context, id int64) (*domain.Moderator, error)
	RegisterModerator(ctx context.Context, moderator *domain.Moderator) (*domain.Moderator, error)
	RegisterSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	// EnsureSuppliers fails with a validation fault naming the first unknown supplier.
	EnsureSuppliers(ctx context.Context, ids []int64) error
}

package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

// Repository persists catalog products and their bills of materials.
type Repository interface {
	// GetByID returns the product with its BOM loaded, or a not-found fault.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// ListByIDs returns the products that exist among ids, keyed by id.
	ListByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	ReplaceBOM(ctx context.Context, productID int64, items []domain.BOMItem) error
	// UpdateAvailableQuantity overwrites the denormalized balance cache.
	UpdateAvailableQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error
}

// Service exposes catalog use cases to adapters.
type Service interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	SaveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	SetBOM(ctx context.Context, productID int64, items []domain.BOMItem) (*domain.Product, error)
	BOM(ctx context.Context, productID int64) ([]domain.BOMItem, error)
}

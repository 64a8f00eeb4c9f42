package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

// Service orchestrates catalog use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// SaveProduct validates and upserts a product. The stock cache is owned by the
// ledger, so an existing product keeps its cached balance.
func (s *Service) SaveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	if product.ID != 0 {
		existing, err := s.repo.GetByID(ctx, product.ID)
		switch {
		case err == nil:
			product.AvailableQuantity = existing.AvailableQuantity
		case !errors.Is(err, faults.ErrNotFound):
			return nil, err
		}
	}
	return s.repo.Save(ctx, product)
}

// SetBOM replaces the bill of materials of productID after validating every edge.
func (s *Service) SetBOM(ctx context.Context, productID int64, items []domain.BOMItem) (*domain.Product, error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MaterialID)
	}
	materials, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBOM(productID, items, materials); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.ReplaceBOM(ctx, productID, items); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, productID)
}

// BOM returns the (material, quantity per unit, unit type) edges of productID.
func (s *Service) BOM(ctx context.Context, productID int64) ([]domain.BOMItem, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return product.Materials, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrInvalidStoreType) ||
		errors.Is(err, domain.ErrInvalidUsage) ||
		errors.Is(err, domain.ErrNegativeThreshold) ||
		errors.Is(err, domain.ErrSelfReference) ||
		errors.Is(err, domain.ErrNotAMaterial) ||
		errors.Is(err, domain.ErrDuplicateMaterial) ||
		errors.Is(err, domain.ErrInvalidBOMQuantity) {
		return fmt.Errorf("%w: %w", faults.ErrValidation, err)
	}
	return err
}

var _ ports.Service = (*Service)(nil)

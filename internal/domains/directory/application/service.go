package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/directory/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

// Service exposes directory reference data.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Site(ctx context.Context, id int64) (*domain.Site, error) {
	return s.repo.GetSite(ctx, id)
}

func (s *Service) RegisterSite(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	if site == nil {
		return nil, errors.New("site is nil")
	}
	if err := site.Validate(); err != nil {
		return nil, mapError(err)
	}
	if site.ManagerID != nil {
		if _, err := s.repo.GetModerator(ctx, *site.ManagerID); err != nil {
			return nil, err
		}
	}
	return s.repo.SaveSite(ctx, site)
}

func (s *Service) Moderator(ctx context.Context, id int64) (*domain.Moderator, error) {
	return s.repo.GetModerator(ctx, id)
}

func (s *Service) RegisterModerator(ctx context.Context, moderator *domain.Moderator) (*domain.Moderator, error) {
	if moderator == nil {
		return nil, errors.New("moderator is nil")
	}
	if err := moderator.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.SaveModerator(ctx, moderator)
}

func (s *Service) RegisterSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if supplier == nil {
		return nil, errors.New("supplier is nil")
	}
	if err := supplier.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.SaveSupplier(ctx, supplier)
}

func (s *Service) EnsureSuppliers(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.repo.ListSuppliersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	missing := make([]int64, 0)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return faults.Validation("unknown supplier %d", missing[0])
}

func mapError(err error) error {
	if errors.Is(err, domain.ErrEmptyName) || errors.Is(err, domain.ErrInvalidRole) {
		return fmt.Errorf("%w: %w", faults.ErrValidation, err)
	}
	return err
}

var _ ports.Service = (*Service)(nil)

package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/memory"
	"github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

func TestSaveProduct_PreservesStockCache(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := NewService(repo)

	saved, err := svc.SaveProduct(ctx, &domain.Product{Name: "Cement", StoreType: domain.StoreHardware, Active: true})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateAvailableQuantity(ctx, saved.ID, decimal.NewFromInt(40)))

	saved.Name = "Cement 50kg"
	saved.AvailableQuantity = decimal.Zero
	updated, err := svc.SaveProduct(ctx, saved)
	require.NoError(t, err)
	require.Equal(t, "Cement 50kg", updated.Name)
	require.True(t, decimal.NewFromInt(40).Equal(updated.AvailableQuantity))
}

func TestSaveProduct_InvalidInput(t *testing.T) {
	svc := NewService(memory.NewRepository())

	_, err := svc.SaveProduct(context.Background(), &domain.Product{Name: " ", StoreType: domain.StoreHardware})
	require.ErrorIs(t, err, faults.ErrValidation)
	require.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestSetBOM_ValidatesAndLoadsMaterialNames(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewRepository())

	door, err := svc.SaveProduct(ctx, &domain.Product{Name: "Door", StoreType: domain.StoreWorkshop, Usage: domain.UsageProductOnly})
	require.NoError(t, err)
	plank, err := svc.SaveProduct(ctx, &domain.Product{Name: "Plank", StoreType: domain.StoreHardware, Usage: domain.UsageMaterialOnly})
	require.NoError(t, err)

	product, err := svc.SetBOM(ctx, door.ID, []domain.BOMItem{{MaterialID: plank.ID, QuantityPerUnit: decimal.NewFromInt(3), UnitType: "pcs"}})
	require.NoError(t, err)
	require.Len(t, product.Materials, 1)
	require.Equal(t, "Plank", product.Materials[0].MaterialName)

	_, err = svc.SetBOM(ctx, plank.ID, []domain.BOMItem{{MaterialID: door.ID, QuantityPerUnit: decimal.NewFromInt(1)}})
	require.ErrorIs(t, err, faults.ErrValidation)

	_, err = svc.SetBOM(ctx, 999, nil)
	require.ErrorIs(t, err, faults.ErrNotFound)

	items, err := svc.BOM(ctx, door.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

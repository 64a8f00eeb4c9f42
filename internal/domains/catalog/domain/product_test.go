package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestResolveStoreType_ToleratesLegacyValues(t *testing.T) {
	cases := map[string]StoreType{
		"hardware":       StoreHardware,
		" Workshop ":     StoreWorkshop,
		"lpo":            StoreLPO,
		"1":              StoreHardware,
		"2":              StoreWorkshop,
		"3":              StoreLPO,
		"42":             DefaultStoreType,
		"":               DefaultStoreType,
		"something-else": DefaultStoreType,
	}
	for raw, want := range cases {
		require.Equal(t, want, ResolveStoreType(raw), "raw=%q", raw)
	}
}

func TestParseStoreType_RejectsLegacyAlias(t *testing.T) {
	_, err := ParseStoreType("warehouse")
	require.ErrorIs(t, err, ErrInvalidStoreType)

	st, err := ParseStoreType("LPO")
	require.NoError(t, err)
	require.Equal(t, StoreLPO, st)
}

func TestValidateBOM(t *testing.T) {
	materials := map[int64]*Product{
		10: {ID: 10, Name: "Cement", Usage: UsageMaterialOnly},
		11: {ID: 11, Name: "Door", Usage: UsageProductOnly},
		12: {ID: 12, Name: "Plank", Usage: UsageBoth},
	}
	one := decimal.NewFromInt(1)

	require.NoError(t, ValidateBOM(1, []BOMItem{
		{MaterialID: 10, QuantityPerUnit: one},
		{MaterialID: 12, QuantityPerUnit: decimal.RequireFromString("0.5")},
	}, materials))

	require.ErrorIs(t, ValidateBOM(10, []BOMItem{{MaterialID: 10, QuantityPerUnit: one}}, materials), ErrSelfReference)
	require.ErrorIs(t, ValidateBOM(1, []BOMItem{{MaterialID: 11, QuantityPerUnit: one}}, materials), ErrNotAMaterial)
	require.ErrorIs(t, ValidateBOM(1, []BOMItem{{MaterialID: 99, QuantityPerUnit: one}}, materials), ErrNotAMaterial)
	require.ErrorIs(t, ValidateBOM(1, []BOMItem{{MaterialID: 10, QuantityPerUnit: decimal.Zero}}, materials), ErrInvalidBOMQuantity)
	require.ErrorIs(t, ValidateBOM(1, []BOMItem{
		{MaterialID: 10, QuantityPerUnit: one},
		{MaterialID: 10, QuantityPerUnit: one},
	}, materials), ErrDuplicateMaterial)
}

func TestProduct_IsLowStock(t *testing.T) {
	p := &Product{Name: "Sand"}
	require.False(t, p.IsLowStock(decimal.Zero))

	threshold := decimal.NewFromInt(5)
	p.LowStockThreshold = &threshold
	require.True(t, p.IsLowStock(decimal.NewFromInt(5)))
	require.False(t, p.IsLowStock(decimal.NewFromInt(6)))
}

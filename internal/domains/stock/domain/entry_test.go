package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBalance_SumsActiveRowsInScope(t *testing.T) {
	site := int64(3)
	other := int64(4)
	entries := []*Entry{
		{ProductID: 1, Direction: DirectionIn, Quantity: decimal.NewFromInt(10), Active: true},
		{ProductID: 1, Direction: DirectionOut, Quantity: decimal.NewFromInt(4), Active: true},
		{ProductID: 1, Direction: DirectionAdjustment, Quantity: decimal.NewFromInt(2), Active: true},
		{ProductID: 1, Direction: DirectionIn, Quantity: decimal.NewFromInt(100), Active: false},
		{ProductID: 1, SiteID: &site, Direction: DirectionIn, Quantity: decimal.NewFromInt(5), Active: true},
		{ProductID: 1, SiteID: &other, Direction: DirectionIn, Quantity: decimal.NewFromInt(7), Active: true},
		{ProductID: 2, Direction: DirectionIn, Quantity: decimal.NewFromInt(50), Active: true},
	}

	require.True(t, decimal.NewFromInt(8).Equal(Balance(entries, 1, nil)))
	require.True(t, decimal.NewFromInt(13).Equal(Balance(entries, 1, &site)))
	require.True(t, decimal.Zero.Equal(Balance(entries, 99, nil)))
}

func TestEntry_Validate(t *testing.T) {
	valid := Entry{ProductID: 1, Direction: DirectionIn, Kind: KindProduct, Quantity: decimal.NewFromInt(1)}
	require.NoError(t, valid.Validate())

	zero := valid
	zero.Quantity = decimal.Zero
	require.ErrorIs(t, zero.Validate(), ErrInvalidQuantity)

	badDirection := valid
	badDirection.Direction = "sideways"
	require.ErrorIs(t, badDirection.Validate(), ErrInvalidDirection)

	noProduct := valid
	noProduct.ProductID = 0
	require.ErrorIs(t, noProduct.Validate(), ErrInvalidProduct)
}

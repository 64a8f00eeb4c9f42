package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateQuantity(t *testing.T) {
	quantity, err := CalculateQuantity([]Measurement{{Label: "m1", Value: d("2.5")}, {Label: "m2", Value: d("1.5")}}, d("3"))
	require.NoError(t, err)
	require.True(t, d("12").Equal(quantity))

	quantity, err = CalculateQuantity(nil, d("3"))
	require.NoError(t, err)
	require.True(t, quantity.IsZero())

	_, err = CalculateQuantity([]Measurement{{Label: "", Value: d("1")}}, d("1"))
	require.ErrorIs(t, err, ErrInvalidMeasurement)

	_, err = CalculateQuantity([]Measurement{{Label: "w", Value: d("-1")}}, d("1"))
	require.ErrorIs(t, err, ErrInvalidMeasurement)

	_, err = CalculateQuantity(nil, d("-1"))
	require.ErrorIs(t, err, ErrInvalidPieces)
}

func TestCustomProduct_ConnectedQuantityFallsBackToLegacyFields(t *testing.T) {
	legacyID := int64(5)
	legacy := CustomProduct{Payload: CustomPayload{ProductID: &legacyID, Quantity: d("4")}}
	require.True(t, d("4").Equal(legacy.ConnectedQuantity(5)))
	require.True(t, legacy.ConnectedQuantity(6).IsZero())
	require.Equal(t, []int64{5}, legacy.ConnectedIDs())

	implicit := CustomProduct{ConnectedProductIDs: []int64{8}, Payload: CustomPayload{Quantity: d("2")}}
	require.True(t, d("2").Equal(implicit.ConnectedQuantity(8)))

	structured := CustomProduct{
		ConnectedProductIDs: []int64{8, 9},
		Payload: CustomPayload{
			ConnectedProducts: []ConnectedProduct{{ProductID: 9, Quantity: d("3")}},
			Quantity:          d("100"),
		},
	}
	require.True(t, structured.ConnectedQuantity(8).IsZero())
	require.True(t, d("3").Equal(structured.ConnectedQuantity(9)))

	empty := CustomProduct{}
	require.True(t, empty.ConnectedQuantity(1).IsZero())
	require.Empty(t, empty.ConnectedIDs())
}

func TestCustomProduct_DisplayProductID(t *testing.T) {
	id, ok := CustomProduct{Payload: CustomPayload{Materials: []MaterialSpec{{ProductID: 12}}}}.DisplayProductID()
	require.True(t, ok)
	require.Equal(t, int64(12), id)

	id, ok = CustomProduct{ConnectedProductIDs: []int64{3}, Payload: CustomPayload{Materials: []MaterialSpec{{ProductID: 12}}}}.DisplayProductID()
	require.True(t, ok)
	require.Equal(t, int64(3), id)

	_, ok = CustomProduct{}.DisplayProductID()
	require.False(t, ok)
}

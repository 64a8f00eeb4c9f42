package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func testProducts() map[int64]*catalog.Product {
	return map[int64]*catalog.Product{
		1: {ID: 1, Name: "Cement", StoreType: catalog.StoreHardware},
		2: {ID: 2, Name: "Door frame", StoreType: catalog.StoreWorkshop},
		3: {ID: 3, Name: "Hinge", StoreType: catalog.StoreHardware},
		4: {ID: 4, Name: "Plywood", StoreType: catalog.StoreHardware},
	}
}

func TestNewOrder_MergesLinesAndAssignsStoreTypes(t *testing.T) {
	order, err := NewOrder(Draft{
		SiteID: 9,
		Lines: []RequestedLine{
			{ProductID: 1, Quantity: d("5")},
			{ProductID: 2, Quantity: d("1")},
			{ProductID: 1, Quantity: d("2")},
		},
	}, testProducts())
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)

	cement, ok := order.Line(1)
	require.True(t, ok)
	require.True(t, d("7").Equal(cement.Quantity))
	require.Equal(t, catalog.StoreHardware, cement.StoreType)

	frame, _ := order.Line(2)
	require.Equal(t, catalog.StoreWorkshop, frame.StoreType)

	require.Equal(t, []catalog.StoreType{catalog.StoreHardware, catalog.StoreWorkshop}, order.PresentTypes())
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PriorityNormal, order.Priority)
	require.True(t, order.CanDelete())
}

func TestNewOrder_CustomProductsContributeToRunningTotal(t *testing.T) {
	order, err := NewOrder(Draft{
		SiteID: 9,
		Lines:  []RequestedLine{{ProductID: 3, Quantity: d("4")}},
		CustomProducts: []CustomProduct{{
			Note: "Cabinet",
			Payload: CustomPayload{
				ConnectedProducts: []ConnectedProduct{{ProductID: 3, Quantity: d("2")}, {ProductID: 4, Quantity: d("1.5")}},
				Materials: []MaterialSpec{{
					ProductID:    4,
					Measurements: []Measurement{{Label: "width", Value: d("1.2")}, {Label: "height", Value: d("0.8")}},
					Pieces:       d("3"),
				}},
			},
		}},
	}, testProducts())
	require.NoError(t, err)
	require.True(t, order.IsCustom)

	hinge, _ := order.Line(3)
	require.True(t, d("6").Equal(hinge.Quantity))
	require.Equal(t, OriginRegular, hinge.Origin)
	require.Equal(t, catalog.StoreHardware, hinge.StoreType)

	plywood, _ := order.Line(4)
	require.True(t, d("1.5").Equal(plywood.Quantity))
	require.Equal(t, OriginCustom, plywood.Origin)
	require.Equal(t, catalog.StoreWorkshop, plywood.StoreType)

	require.True(t, d("6").Equal(order.CustomProducts[0].Payload.Materials[0].CalculatedQuantity))
	require.Equal(t, []int64{3, 4}, order.AllProductIDs())
}

func TestNewOrder_LPOLinesAndSuppliers(t *testing.T) {
	order, err := NewOrder(Draft{
		SiteID:    9,
		IsLPO:     true,
		Suppliers: map[int64]int64{1: 50},
		Lines:     []RequestedLine{{ProductID: 1, Quantity: d("5")}, {ProductID: 2, Quantity: d("1")}},
	}, testProducts())
	require.NoError(t, err)
	require.Equal(t, []catalog.StoreType{catalog.StoreLPO}, order.PresentTypes())

	_, err = NewOrder(Draft{
		SiteID:    9,
		IsLPO:     true,
		Suppliers: map[int64]int64{3: 50},
		Lines:     []RequestedLine{{ProductID: 1, Quantity: d("5")}},
	}, testProducts())
	require.ErrorIs(t, err, ErrSupplierNotOnOrder)

	_, err = NewOrder(Draft{
		SiteID:    9,
		Suppliers: map[int64]int64{1: 50},
		Lines:     []RequestedLine{{ProductID: 1, Quantity: d("5")}},
	}, testProducts())
	require.ErrorIs(t, err, ErrSupplierWithoutLPO)
}

func TestNewOrder_Validation(t *testing.T) {
	products := testProducts()

	_, err := NewOrder(Draft{Lines: []RequestedLine{{ProductID: 1, Quantity: d("1")}}}, products)
	require.ErrorIs(t, err, ErrInvalidSite)

	_, err = NewOrder(Draft{SiteID: 1}, products)
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = NewOrder(Draft{SiteID: 1, Lines: []RequestedLine{{ProductID: 1, Quantity: d("0")}}}, products)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder(Draft{SiteID: 1, Lines: []RequestedLine{{ProductID: 99, Quantity: d("1")}}}, products)
	require.ErrorIs(t, err, ErrUnknownProduct)

	_, err = NewOrder(Draft{SiteID: 1, Priority: "asap", Lines: []RequestedLine{{ProductID: 1, Quantity: d("1")}}}, products)
	require.ErrorIs(t, err, ErrInvalidPriority)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = NewOrder(Draft{
		SiteID:               1,
		OrderDate:            time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ExpectedDeliveryDate: &past,
		Lines:                []RequestedLine{{ProductID: 1, Quantity: d("1")}},
	}, products)
	require.ErrorIs(t, err, ErrInvalidDeliveryDate)
}

func TestOrder_ApproveRejectRefreshStatus(t *testing.T) {
	order, err := NewOrder(Draft{
		SiteID: 9,
		Lines:  []RequestedLine{{ProductID: 1, Quantity: d("5")}, {ProductID: 2, Quantity: d("1")}},
	}, testProducts())
	require.NoError(t, err)
	now := time.Now()

	ok, err := order.Approve([]catalog.StoreType{catalog.StoreHardware}, 7, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusPending, order.Status)
	require.False(t, order.CanDelete())

	_, err = order.Reject([]catalog.StoreType{catalog.StoreWorkshop}, "  no stock  ", 8, now)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, order.Status)
	require.Equal(t, "no stock", order.RejectedNote)
}

func TestCanAdvance(t *testing.T) {
	require.True(t, CanAdvance(StatusApproved, StatusInTransit))
	require.True(t, CanAdvance(StatusInTransit, StatusOutForDelivery))
	require.True(t, CanAdvance(StatusOutForDelivery, StatusDelivered))
	require.False(t, CanAdvance(StatusApproved, StatusDelivered))
	require.False(t, CanAdvance(StatusPending, StatusApproved))
	require.False(t, CanAdvance(StatusRejected, StatusInTransit))
}

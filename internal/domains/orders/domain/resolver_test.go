package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

const (
	hw = catalog.StoreHardware
	ws = catalog.StoreWorkshop
	lp = catalog.StoreLPO
)

func TestResolveOverallStatus(t *testing.T) {
	cases := []struct {
		name   string
		subs   map[catalog.StoreType]Status
		want   Status
		wantOK bool
	}{
		{"single type passes through", map[catalog.StoreType]Status{hw: StatusInTransit}, StatusInTransit, true},
		{"single rejected", map[catalog.StoreType]Status{ws: StatusRejected}, StatusRejected, true},
		{"pending wins", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusPending}, StatusPending, true},
		{"pending wins over rejected", map[catalog.StoreType]Status{hw: StatusRejected, ws: StatusPending, lp: StatusDelivered}, StatusPending, true},
		{"all approved", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusApproved, lp: StatusApproved}, StatusApproved, true},
		{"approved with one rejected", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusRejected}, StatusApproved, true},
		{"approved with two rejected is ambiguous", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusRejected, lp: StatusRejected}, StatusPending, false},
		{"all delivered", map[catalog.StoreType]Status{hw: StatusDelivered, ws: StatusDelivered}, StatusDelivered, true},
		{"delivered with one rejected", map[catalog.StoreType]Status{hw: StatusDelivered, ws: StatusDelivered, lp: StatusRejected}, StatusDelivered, true},
		{"all out for delivery", map[catalog.StoreType]Status{hw: StatusOutForDelivery, ws: StatusOutForDelivery}, StatusOutForDelivery, true},
		{"out for delivery with rejected", map[catalog.StoreType]Status{hw: StatusOutForDelivery, ws: StatusRejected}, StatusOutForDelivery, true},
		{"out for delivery with in transit", map[catalog.StoreType]Status{hw: StatusOutForDelivery, ws: StatusInTransit}, StatusOutForDelivery, true},
		{"all rejected", map[catalog.StoreType]Status{hw: StatusRejected, ws: StatusRejected}, StatusRejected, true},
		{"all in transit", map[catalog.StoreType]Status{hw: StatusInTransit, ws: StatusInTransit}, StatusInTransit, true},
		{"approved and delivered is ambiguous", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusDelivered}, StatusPending, false},
		{"approved and in transit is ambiguous", map[catalog.StoreType]Status{hw: StatusApproved, ws: StatusInTransit}, StatusPending, false},
		{"empty map", map[catalog.StoreType]Status{}, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveOverallStatus(tc.subs)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.wantOK, ok)

			again, _ := ResolveOverallStatus(tc.subs)
			require.Equal(t, got, again)
		})
	}
}

func TestSubStatuses_SetGetTypes(t *testing.T) {
	var subs SubStatuses
	require.Empty(t, subs.Types())

	subs.Set(ws, StatusPending)
	subs.Set(hw, StatusApproved)
	require.Equal(t, []catalog.StoreType{hw, ws}, subs.Types())

	status, ok := subs.Get(hw)
	require.True(t, ok)
	require.Equal(t, StatusApproved, status)

	_, ok = subs.Get(lp)
	require.False(t, ok)

	require.False(t, subs.All(StatusPending))
	require.True(t, subs.All(StatusPending, StatusApproved))
}

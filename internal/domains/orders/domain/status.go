package domain

import (
	"errors"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

// Status is both the overall order status and a per-store-type sub-status.
type Status string

const (
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
)

var ErrInvalidStatus = errors.New("status is invalid")

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Fulfilled reports whether stock for a sub-status has already been taken out of the ledger.
func (s Status) Fulfilled() bool {
	switch s {
	case StatusApproved, StatusInTransit, StatusOutForDelivery, StatusDelivered:
		return true
	default:
		return false
	}
}

// deliveryRank orders the transport progression; zero means not part of it.
func (s Status) deliveryRank() int {
	switch s {
	case StatusApproved:
		return 1
	case StatusInTransit:
		return 2
	case StatusOutForDelivery:
		return 3
	case StatusDelivered:
		return 4
	default:
		return 0
	}
}

// SubStatuses holds one optional sub-status per store type. A nil field means the
// order has no lines of that type.
type SubStatuses struct {
	Hardware *Status `json:"hardware,omitempty"`
	Workshop *Status `json:"workshop,omitempty"`
	LPO      *Status `json:"lpo,omitempty"`
}

func (s *SubStatuses) slot(t catalog.StoreType) **Status {
	switch t {
	case catalog.StoreHardware:
		return &s.Hardware
	case catalog.StoreWorkshop:
		return &s.Workshop
	case catalog.StoreLPO:
		return &s.LPO
	default:
		return nil
	}
}

// Get returns the sub-status of t and whether the order carries that type.
func (s SubStatuses) Get(t catalog.StoreType) (Status, bool) {
	ptr := (&s).slot(t)
	if ptr == nil || *ptr == nil {
		return "", false
	}
	return **ptr, true
}

// Set assigns the sub-status of t; unknown store types are ignored.
func (s *SubStatuses) Set(t catalog.StoreType, status Status) {
	if ptr := s.slot(t); ptr != nil {
		v := status
		*ptr = &v
	}
}

// Types lists the store types present, in canonical order.
func (s SubStatuses) Types() []catalog.StoreType {
	types := make([]catalog.StoreType, 0, len(catalog.StoreTypes))
	for _, t := range catalog.StoreTypes {
		if _, ok := s.Get(t); ok {
			types = append(types, t)
		}
	}
	return types
}

// Map returns the present sub-statuses keyed by store type.
func (s SubStatuses) Map() map[catalog.StoreType]Status {
	m := make(map[catalog.StoreType]Status, 3)
	for _, t := range s.Types() {
		status, _ := s.Get(t)
		m[t] = status
	}
	return m
}

// All reports whether every present sub-status is one of statuses.
func (s SubStatuses) All(statuses ...Status) bool {
	for _, current := range s.Map() {
		matched := false
		for _, status := range statuses {
			if current == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

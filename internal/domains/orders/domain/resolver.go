package domain

import (
	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

// ResolveOverallStatus derives the order status from its sub-statuses. The boolean is
// false when the combination matches no rule; the result is then pending so an ambiguous
// order is never treated as approved.
func ResolveOverallStatus(subs map[catalog.StoreType]Status) (Status, bool) {
	if len(subs) == 0 {
		return StatusPending, false
	}
	counts := make(map[Status]int, len(subs))
	for _, status := range subs {
		counts[status]++
	}
	total := len(subs)
	if total == 1 || len(counts) == 1 {
		for status := range counts {
			return status, true
		}
	}
	if counts[StatusPending] > 0 {
		return StatusPending, true
	}
	if counts[StatusRejected] == 1 {
		if counts[StatusApproved] == total-1 {
			return StatusApproved, true
		}
		if counts[StatusDelivered] == total-1 {
			return StatusDelivered, true
		}
	}
	if counts[StatusOutForDelivery] > 0 &&
		counts[StatusOutForDelivery]+counts[StatusInTransit]+counts[StatusRejected] == total {
		return StatusOutForDelivery, true
	}
	return StatusPending, false
}

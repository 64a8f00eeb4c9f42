package ports

import (
	"context"
	"errors"
)

// EventType names an order notification.
type EventType string

const (
	EventSubmitted  EventType = "order.submitted"
	EventApproved   EventType = "order.approved"
	EventRejected   EventType = "order.rejected"
	EventDispatched EventType = "order.dispatched"
	EventCancelled  EventType = "order.cancelled"
)

// Notification is delivered to the site manager of an order.
type Notification struct {
	Event       EventType `json:"event"`
	OrderID     int64     `json:"orderId"`
	RecipientID int64     `json:"recipientId"`
	ActorID     int64     `json:"actorId"`
	Status      string    `json:"status"`
	StoreTypes  []string  `json:"storeTypes,omitempty"`
	Note        string    `json:"note,omitempty"`
}

// Notifier delivers notifications. Callers log failures and never propagate them.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// ErrLockNotObtained is returned when another writer holds the order.
var ErrLockNotObtained = errors.New("order is locked by another request")

// OrderLocker serialises workflow invocations on one order across processes.
type OrderLocker interface {
	// Lock blocks until the order is held or ctx ends; the returned func releases it.
	Lock(ctx context.Context, orderID int64) (func(), error)
}

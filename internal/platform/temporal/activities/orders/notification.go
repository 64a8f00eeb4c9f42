package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

// DeliverNotificationActivityName delivers one order notification through the configured channel.
const DeliverNotificationActivityName = "orders.activities.DeliverNotification"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	notifier ports.Notifier
}

// NewActivities wires the delivery channel into the Temporal activities bundle. notifier must
// deliver directly; passing the Temporal notifier would start a workflow per attempt.
func NewActivities(notifier ports.Notifier) *Activities {
	return &Activities{notifier: notifier}
}

// DeliverNotification pushes the notification, skipping attempts after a recorded success.
func (a *Activities) DeliverNotification(ctx context.Context, notification ports.Notification) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.notifier == nil {
		logger.Error("notification activity not initialized", "orderId", notification.OrderID)
		return errors.New("notification activity not initialized")
	}

	var hb deliveryHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Delivered {
		logger.Info("DeliverNotification already completed in prior attempt; skipping", "orderId", notification.OrderID)
		return nil
	}

	logger.Info("DeliverNotification activity started", "orderId", notification.OrderID, "event", string(notification.Event))
	if err := a.notifier.Notify(ctx, notification); err != nil {
		logger.Error("DeliverNotification failed", "orderId", notification.OrderID, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, deliveryHeartbeat{Delivered: true})
	logger.Info("DeliverNotification activity completed", "orderId", notification.OrderID)
	return nil
}

type deliveryHeartbeat struct {
	Delivered bool
}

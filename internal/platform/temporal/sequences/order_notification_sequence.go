package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-procurement-server/internal/platform/temporal/activities/orders"
)

// RunOrderNotificationSequence delivers a notification with retries.
func RunOrderNotificationSequence(ctx workflow.Context, notification ports.Notification) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("order notification sequence started", "orderId", notification.OrderID, "event", string(notification.Event))
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.DeliverNotificationActivityName, notification).Get(ctx, nil)
	if err != nil {
		logger.Error("order notification sequence failed", "orderId", notification.OrderID, "error", err)
		return err
	}
	logger.Info("order notification sequence delivered", "orderId", notification.OrderID)
	return nil
}

package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	"github.com/Apurer/go-procurement-server/internal/platform/temporal/sequences"
)

const (
	// NotificationWorkflowName is the public identifier for registering the workflow.
	NotificationWorkflowName = "orders.workflows.Notification"
	// NotificationTaskQueue is the queue consumed by the worker delivering order notifications.
	NotificationTaskQueue = "ORDER_NOTIFICATIONS"
)

// NotificationWorkflowInput carries one notification and the trace it was raised in.
type NotificationWorkflowInput struct {
	Notification ports.Notification
	TraceID      string
}

// NotificationWorkflow delivers an order notification durably.
func NotificationWorkflow(ctx workflow.Context, input NotificationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	orderID := input.Notification.OrderID
	logger.Info("NotificationWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	if err := sequences.RunOrderNotificationSequence(ctx, input.Notification); err != nil {
		logger.Error("NotificationWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return err
	}
	logger.Info("NotificationWorkflow completed", withTraceID(input.TraceID, "orderId", orderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

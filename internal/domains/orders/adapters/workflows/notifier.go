package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/go-procurement-server/internal/platform/temporal/workflows/orders"
)

var _ ports.Notifier = (*TemporalNotifier)(nil)

// TemporalNotifier hands notifications to a Temporal workflow and returns once it has started.
type TemporalNotifier struct {
	client    client.Client
	taskQueue string
}

func NewTemporalNotifier(c client.Client) *TemporalNotifier {
	return &TemporalNotifier{client: c, taskQueue: orderworkflows.NotificationTaskQueue}
}

func (n *TemporalNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	if n == nil || n.client == nil {
		return errors.New("temporal notifier not configured")
	}
	options := client.StartWorkflowOptions{
		ID:                    buildNotificationWorkflowID(notification),
		TaskQueue:             n.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := n.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.NotificationWorkflow,
		orderworkflows.NotificationWorkflowInput{Notification: notification, TraceID: workflowTraceID(ctx)},
	)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

func buildNotificationWorkflowID(notification ports.Notification) string {
	key := fmt.Sprintf("%s|%d|%s|%s|%d", notification.Event, notification.OrderID, notification.Status,
		strings.Join(notification.StoreTypes, ","), notification.ActorID)
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("order-notification-%d-%s", notification.OrderID, hex.EncodeToString(sum[:8]))
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

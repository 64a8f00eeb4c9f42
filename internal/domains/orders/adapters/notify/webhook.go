package notify

import (
	"context"
	"errors"
	"fmt"

	notifyclient "github.com/Apurer/go-procurement-server/internal/clients/http/notify"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

var _ ports.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier posts notifications to an HTTP endpoint.
type WebhookNotifier struct {
	client *notifyclient.Client
}

func NewWebhookNotifier(client *notifyclient.Client) *WebhookNotifier {
	return &WebhookNotifier{client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	if n == nil || n.client == nil {
		return errors.New("webhook notifier not configured")
	}
	return n.client.Deliver(ctx, ToPayload(notification), notifyclient.WithIdempotencyKey(IdempotencyKey(notification)))
}

// ToPayload maps a notification onto the webhook body.
func ToPayload(notification ports.Notification) notifyclient.Payload {
	return notifyclient.Payload{
		Event:       string(notification.Event),
		OrderID:     notification.OrderID,
		RecipientID: notification.RecipientID,
		ActorID:     notification.ActorID,
		Status:      notification.Status,
		StoreTypes:  append([]string(nil), notification.StoreTypes...),
		Note:        notification.Note,
	}
}

// IdempotencyKey identifies a notification so retried deliveries collapse into one.
func IdempotencyKey(notification ports.Notification) string {
	return fmt.Sprintf("%s:%d:%s:%v", notification.Event, notification.OrderID, notification.Status, notification.StoreTypes)
}

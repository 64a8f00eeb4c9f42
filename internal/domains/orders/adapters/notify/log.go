package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the structured log. It is the fallback when no
// delivery channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	n.logger.InfoContext(ctx, "order notification",
		slog.String("event", string(notification.Event)),
		slog.Int64("order.id", notification.OrderID),
		slog.Int64("recipient.id", notification.RecipientID),
		slog.Int64("actor.id", notification.ActorID),
		slog.String("status", notification.Status),
		slog.String("store_types", strings.Join(notification.StoreTypes, ",")),
	)
	return nil
}

// Package worker runs the Temporal worker that delivers order notifications.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-procurement-server/internal/app/api"
	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
	platformtemporal "github.com/Apurer/go-procurement-server/internal/platform/temporal"
	orderactivities "github.com/Apurer/go-procurement-server/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-procurement-server/internal/platform/temporal/workflows/orders"
)

const serviceName = "procurement-worker"

// Run polls the notification task queue until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := api.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	notifier, err := api.DeliveryNotifier(cfg, logger)
	if err != nil {
		return fmt.Errorf("configure notifier: %w", err)
	}
	activities := orderactivities.NewActivities(notifier)

	temporalClient, err := platformtemporal.Dial(cfg.Temporal, instruments, "temporal-worker")
	if err != nil {
		return fmt.Errorf("create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.NotificationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.NotificationWorkflow, workflow.RegisterOptions{Name: orderworkflows.NotificationWorkflowName})
	w.RegisterActivityWithOptions(activities.DeliverNotification, activity.RegisterOptions{Name: orderactivities.DeliverNotificationActivityName})

	stop := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()
	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.NotificationTaskQueue), slog.String("namespace", cfg.Temporal.Namespace))
	if err := w.Run(stop); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Temporal worker stopped")
	return nil
}

// Package temporal holds the durable notification workflow, its activities and the client setup
// shared by the API and worker processes.
package temporal

import (
	"errors"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
)

// ErrDisabled is returned by Dial when Temporal is switched off by configuration.
var ErrDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// ClientConfig selects the Temporal frontend.
type ClientConfig struct {
	Address   string
	Namespace string
	Disabled  bool
}

// Dial connects a client with OpenTelemetry tracing and the process logger.
func Dial(cfg ClientConfig, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.Disabled {
		return nil, ErrDisabled
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	options := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

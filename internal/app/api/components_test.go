package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersnotify "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/notify"
	platformobservability "github.com/Apurer/go-procurement-server/internal/platform/observability"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

func TestBuildComponents_InMemoryFallback(t *testing.T) {
	instruments := &platformobservability.Instruments{Logger: slog.Default()}
	components, err := BuildComponents(Config{StrictStockRestoration: true}, nil, nil, nil, instruments)
	require.NoError(t, err)

	_, err = components.Catalog.GetProduct(context.Background(), 1)
	assert.ErrorIs(t, err, faults.ErrNotFound)

	balance, err := components.Ledger.CurrentStock(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestDeliveryNotifier_PrefersWebhook(t *testing.T) {
	notifier, err := DeliveryNotifier(Config{}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &ordersnotify.LogNotifier{}, notifier)

	notifier, err = DeliveryNotifier(Config{NotifyWebhookURL: "https://hooks.example.com"}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &ordersnotify.WebhookNotifier{}, notifier)
}

func TestNewRouter_AnswersCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	instruments := &platformobservability.Instruments{Logger: slog.Default()}
	components, err := BuildComponents(Config{}, nil, nil, nil, instruments)
	require.NoError(t, err)
	router := NewRouter(components, []string{"https://portal.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/orders", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Actor-ID, Idempotency-Key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

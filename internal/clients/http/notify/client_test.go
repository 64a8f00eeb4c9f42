package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DeliverPostsToOrderPath(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		got     Payload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/hooks/", nil)
	require.NoError(t, err)
	err = client.Deliver(context.Background(), Payload{Event: "order.approved", OrderID: 42, RecipientID: 7}, WithIdempotencyKey(" abc "))
	require.NoError(t, err)

	assert.Equal(t, "/hooks/orders/42/notifications", gotPath)
	assert.Equal(t, "abc", gotKey)
	assert.Equal(t, int64(7), got.RecipientID)
}

func TestClient_DeliverReportsProblemMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"recipient unreachable"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)
	err = client.Deliver(context.Background(), Payload{OrderID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient unreachable")
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	require.Error(t, err)
}

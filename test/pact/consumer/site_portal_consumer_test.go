//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-procurement-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderLine struct {
	ProductID int64  `json:"productId"`
	Quantity  string `json:"quantity"`
}

type submitOrder struct {
	SiteID   int64       `json:"siteId"`
	Priority string      `json:"priority"`
	Products []orderLine `json:"products"`
}

type orderPayload struct {
	ID     int64  `json:"id"`
	SiteID int64  `json:"siteId"`
	Status string `json:"status"`
}

type productPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StoreType string `json:"storeType"`
}

type stockPayload struct {
	ProductID int64  `json:"productId"`
	Balance   string `json:"balance"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func TestSitePortalContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	request := submitOrder{
		SiteID:   pacttest.SiteID,
		Priority: "high",
		Products: []orderLine{{ProductID: pacttest.ExistingProductID, Quantity: "4"}},
	}

	pact.AddInteraction().
		Given(pacttest.StateProductInStock).
		UponReceiving("a site supervisor submitting an order").
		WithRequest("POST", "/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("X-Actor-ID", matchers.S(strconv.FormatInt(pacttest.SupervisorID, 10)))
			b.Header("X-Actor-Role", matchers.S(pacttest.SupervisorRole))
			b.JSONBody(request)
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":     matchers.Like(1),
				"siteId": matchers.Like(pacttest.SiteID),
				"status": matchers.S("pending"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateProductInStock).
		UponReceiving("a request for an existing product").
		WithRequest("GET", fmt.Sprintf("/v1/products/%d", pacttest.ExistingProductID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":        matchers.Like(pacttest.ExistingProductID),
				"name":      matchers.Like("Cement"),
				"storeType": matchers.Term("hardware", "hardware|workshop"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateProductInStock).
		UponReceiving("a request for the stock balance of a product").
		WithRequest("GET", fmt.Sprintf("/v1/products/%d/stock", pacttest.ExistingProductID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"productId": matchers.Like(pacttest.ExistingProductID),
				"balance":   matchers.Term("10", `^-?\d+(\.\d+)?$`),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateProductMissing).
		UponReceiving("a request for a missing product").
		WithRequest("GET", fmt.Sprintf("/v1/products/%d", pacttest.MissingProductID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newPortalClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var order orderPayload
		if err := client.do(ctx, http.MethodPost, "/v1/orders", request, &order); err != nil {
			return fmt.Errorf("submit order: %w", err)
		}
		if order.ID == 0 || order.Status != "pending" {
			return fmt.Errorf("expected a pending order, got %+v", order)
		}

		var product productPayload
		if err := client.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d", pacttest.ExistingProductID), nil, &product); err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product.ID != pacttest.ExistingProductID {
			return fmt.Errorf("expected product %d, got %+v", pacttest.ExistingProductID, product)
		}

		var stock stockPayload
		if err := client.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d/stock", pacttest.ExistingProductID), nil, &stock); err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		if stock.Balance == "" {
			return fmt.Errorf("expected a stock balance")
		}

		err := client.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d", pacttest.MissingProductID), nil, &product)
		if apiErr, ok := err.(apiError); !ok || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for product %d, got %v", pacttest.MissingProductID, err)
		}
		return nil
	})
	require.NoError(t, err)
}

type portalClient struct {
	baseURL    string
	httpClient *http.Client
}

func newPortalClient(config pactconsumer.MockServerConfig) *portalClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &portalClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *portalClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-ID", strconv.FormatInt(pacttest.SupervisorID, 10))
		req.Header.Set("X-Actor-Role", pacttest.SupervisorRole)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, title: problem.Title, detail: problem.Detail}
}

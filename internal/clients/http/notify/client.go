package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
)

// Payload is the body posted to the notification endpoint.
type Payload struct {
	Event       string   `json:"event"`
	OrderID     int64    `json:"orderId"`
	RecipientID int64    `json:"recipientId"`
	ActorID     int64    `json:"actorId"`
	Status      string   `json:"status"`
	StoreTypes  []string `json:"storeTypes,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// Error is the problem body returned by the endpoint on failure.
type Error struct {
	Code    *int32  `json:"code,omitempty"`
	Status  *string `json:"status,omitempty"`
	Message *string `json:"message,omitempty"`
}

// Client posts order notifications to an HTTP endpoint.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// DeliverOption configures Deliver behavior.
type DeliverOption func(*deliverOptions)

type deliverOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header for the request.
func WithIdempotencyKey(key string) DeliverOption {
	return func(opts *deliverOptions) {
		opts.idempotencyKey = strings.TrimSpace(key)
	}
}

// NewClient instantiates the notification client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("notification base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse notification base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: parsed, http: httpClient}, nil
}

// Deliver posts payload to /orders/{orderId}/notifications.
func (c *Client) Deliver(ctx context.Context, payload Payload, optFns ...DeliverOption) error {
	if c == nil || c.baseURL == nil {
		return errors.New("notification client not configured")
	}
	var opts deliverOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	orderID, err := runtime.StyleParamWithLocation("simple", false, "orderId", runtime.ParamLocationPath, payload.OrderID)
	if err != nil {
		return fmt.Errorf("style orderId: %w", err)
	}
	target := c.baseURL.JoinPath("orders", orderID, "notifications")

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call notification endpoint: %w", err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case status == http.StatusConflict:
		// the endpoint has already seen this idempotency key
		return nil
	case status >= http.StatusBadRequest:
		return fmt.Errorf("notification endpoint error: %s", errorMessage(decodeError(resp.Body), resp.Status))
	default:
		return fmt.Errorf("notification endpoint unexpected status: %s", resp.Status)
	}
}

func decodeError(body io.Reader) *Error {
	var problem Error
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&problem); err != nil {
		return nil
	}
	return &problem
}

func errorMessage(body *Error, fallback string) string {
	if body == nil {
		return fallback
	}
	if body.Message != nil {
		if msg := strings.TrimSpace(*body.Message); msg != "" {
			return msg
		}
	}
	if body.Status != nil {
		if msg := strings.TrimSpace(*body.Status); msg != "" {
			return msg
		}
	}
	return fallback
}

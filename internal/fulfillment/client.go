// Package fulfillment is the outbound client for the external order
// API. It speaks the fixed wire contract (CN-API-KEY header, exact JSON
// field set) and classifies failures so the saga can decide what to
// retry: network errors and 429/5xx are transient, other non-2xx
// responses are permanent.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/observability"
)

// apiKeyHeader is the authentication header the fulfillment API expects.
const apiKeyHeader = "CN-API-KEY"

// maxErrorBodyBytes caps how much of an error response body is retained
// for diagnostics.
const maxErrorBodyBytes = 4 << 10

// Payload is the exact JSON body of an order submission. Field set and
// names are fixed by the external API; customer_age travels stringified.
type Payload struct {
	BatchID          string             `json:"batch_id"`
	CustomerName     string             `json:"customer_name"`
	CustomerAge      string             `json:"customer_age"`
	CustomerHMOID    string             `json:"customer_hmo_id"`
	CustomerPhone    string             `json:"customer_phone"`
	CustomerAltPhone string             `json:"customer_alt_phone"`
	CustomerEmail    string             `json:"customer_email"`
	CustomerAddress  string             `json:"customer_address"`
	CustomerGender   string             `json:"customer_gender"`
	Landmark         string             `json:"landmark"`
	City             string             `json:"city"`
	State            string             `json:"state"`
	LGA              string             `json:"lga"`
	FulfilmentMode   string             `json:"fulfilment_mode"`
	OrderItems       []domain.OrderItem `json:"order_items"`
}

// NewPayload assembles the wire body from a customer snapshot and the
// order fields.
func NewPayload(batchID string, u *domain.User, fulfilmentMode string, items []domain.OrderItem) Payload {
	age := 0
	if u.Age != nil {
		age = *u.Age
	}
	return Payload{
		BatchID:          batchID,
		CustomerName:     u.Name,
		CustomerAge:      strconv.Itoa(age),
		CustomerHMOID:    u.HMOID,
		CustomerPhone:    u.Phone,
		CustomerAltPhone: u.AltPhone,
		CustomerEmail:    u.Email,
		CustomerAddress:  u.Address,
		CustomerGender:   u.Gender,
		Landmark:         u.Landmark,
		City:             u.City,
		State:            u.State,
		LGA:              u.LGA,
		FulfilmentMode:   fulfilmentMode,
		OrderItems:       items,
	}
}

// APIError is a non-2xx response from the fulfillment API. Status 0
// means the request never produced an HTTP response (network failure).
type APIError struct {
	Status int
	Body   string
	cause  error
}

// Error renders the status and truncated body, or the transport cause.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fulfillment: request failed: %v", e.cause)
	}
	return fmt.Sprintf("fulfillment: HTTP %d: %s", e.Status, e.Body)
}

// Unwrap exposes the transport cause, if any.
func (e *APIError) Unwrap() error { return e.cause }

// Transient reports whether the failure is worth retrying: network
// errors, rate limiting, and server-side 5xx. Client errors (4xx other
// than 429) never become right on retry.
func (e *APIError) Transient() bool {
	if e.Status == 0 {
		return true
	}
	switch e.Status {
	case http.StatusTooManyRequests:
		return true
	}
	return e.Status >= 500
}

// Submitter is the single operation the saga needs from this package.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (map[string]any, error)
}

// Client submits orders over HTTP.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

var _ Submitter = (*Client)(nil)

// NewClient builds a Client with a per-attempt request timeout.
func NewClient(cfg config.FulfillmentConfig) *Client {
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Submit POSTs one order. On 2xx it returns the decoded JSON response;
// any other outcome is an *APIError carrying whatever diagnostics were
// obtainable.
func (c *Client) Submit(ctx context.Context, p Payload) (map[string]any, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fulfillment: build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		observability.FulfillmentAttempts.WithLabelValues("transient_error").Inc()
		return nil, &APIError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		apiErr := &APIError{Status: resp.StatusCode, Body: string(raw)}
		if apiErr.Transient() {
			observability.FulfillmentAttempts.WithLabelValues("transient_error").Inc()
		} else {
			observability.FulfillmentAttempts.WithLabelValues("permanent_error").Inc()
		}
		return nil, apiErr
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// A 2xx with an unreadable body cannot be confirmed as placed;
		// classify permanent so the saga compensates instead of
		// resubmitting a possibly-accepted order.
		observability.FulfillmentAttempts.WithLabelValues("permanent_error").Inc()
		return nil, &APIError{Status: resp.StatusCode, Body: "unparseable response body", cause: err}
	}

	observability.FulfillmentAttempts.WithLabelValues("ok").Inc()
	return decoded, nil
}

// Package payment wraps the hosted-checkout payment gateway HTTP API.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/skillforest/lms-api/apperr"
)

// CheckoutInput carries everything the gateway needs to open a session
type CheckoutInput struct {
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	CustomerID  string  `json:"customer_id"`
	SuccessURL  string  `json:"success_url"`
	CancelURL   string  `json:"cancel_url"`
}

// CheckoutSession is the gateway's handle for a hosted checkout page
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent is the payload the gateway POSTs back after checkout
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Reference string `json:"reference"`
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// Webhook event types we act on
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutFailed    = "checkout.failed"
)

// Client talks to the payment gateway
type Client struct {
	http          *resty.Client
	webhookSecret string
}

// NewClient creates a gateway client. A zero timeout defaults to 10s.
func NewClient(baseURL, apiKey, webhookSecret string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetRetryCount(2)

	return &Client{
		http:          http,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession opens a hosted checkout session for one purchase.
// Any transport error or non-2xx response surfaces as an upstream failure.
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	var session CheckoutSession

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, apperr.Upstream("payment gateway unreachable: %v", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("payment gateway returned %s", resp.Status())
	}
	if session.ID == "" {
		return nil, apperr.Upstream("payment gateway returned an empty session")
	}

	return &session, nil
}

// VerifySignature checks the hex HMAC-SHA256 signature of a webhook body
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook verifies and decodes a webhook delivery
func (c *Client) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	if !c.VerifySignature(body, signature) {
		return nil, apperr.Forbidden("invalid webhook signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperr.InvalidInput("malformed webhook payload: %v", err)
	}
	if event.Data.Reference == "" {
		return nil, apperr.InvalidInput("webhook payload is missing the purchase reference")
	}

	return &event, nil
}
